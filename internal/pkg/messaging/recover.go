package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/gootp/internal/pkg/stacktrace"
)

func callHandlerWithRecover(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
		}
	}()

	return handler(ctx, msg)
}

// dispatch runs handler for every message from in on opts.concurrency
// goroutines and returns when in is closed and drained.
func dispatch(ctx context.Context, driver string, in <-chan Message, handler Handler, opts consumeOptions) {
	var wg sync.WaitGroup
	for range opts.concurrency {
		wg.Go(func() {
			for msg := range in {
				herr := callHandlerWithRecover(ctx, driver, handler, msg)
				if !opts.autoAck {
					continue
				}

				var aerr error
				if herr == nil {
					aerr = msg.Ack(ctx)
				} else {
					aerr = msg.Nack(ctx)
				}
				if aerr != nil {
					slog.WarnContext(ctx, "failed to settle message", "driver", driver, "topic", msg.Topic(), "error", aerr)
				}
			}
		})
	}
	wg.Wait()
}
