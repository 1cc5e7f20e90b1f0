// Package strcase converts Go identifiers into the wire names used by API
// payloads and metric attributes.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts s to lower snake_case. Acronyms stay together
// (HTTPServer -> http_server) and spaces or hyphens become underscores.
func ToLowerSnake(s string) string {
	runes := []rune(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		if r == ' ' || r == '-' || r == '_' {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			continue
		}

		if i > 0 && unicode.IsUpper(r) && boundary(runes, i) && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSuffix(b.String(), "_")
}

func boundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
