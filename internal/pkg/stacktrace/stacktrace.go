// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import (
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns the "internal/...go:line" locations found in a stack
// produced by runtime/debug.Stack, outermost call last.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range bytes.Lines(stack) {
		loc := strings.TrimSpace(string(line))
		if !strings.HasPrefix(loc, "/") && !strings.Contains(loc, ":\\") {
			continue
		}

		if sp := strings.IndexByte(loc, ' '); sp != -1 {
			loc = loc[:sp]
		}
		idx := strings.Index(loc, marker)
		if idx == -1 || !strings.Contains(loc[idx:], ".go:") {
			continue
		}
		paths = append(paths, loc[idx+1:])
	}

	return paths
}
