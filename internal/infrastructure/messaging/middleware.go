package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
	"github.com/scholar-hub/scholarship-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Chain applies middlewares so that the first one is outermost.
func Chain(handler shared.EventHandler, middlewares ...Middleware) shared.EventHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// WithLogging logs failures at Error and successes at Debug.
func WithLogging(log *logger.Logger, name string) Middleware {
	log = log.With(logger.Component("event_handler"), logger.String("handler", name))
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)

			fields := []logger.Field{
				logger.EventType(string(event.EventType())),
				logger.String("aggregate_id", event.AggregateID()),
				logger.Duration("duration", time.Since(start)),
			}
			if err != nil {
				log.Error("handler failed", append(fields, logger.Err(err))...)
			} else {
				log.Debug("handler completed", fields...)
			}
			return err
		}
	}
}

// WithRetry re-runs a failing handler with backoff. Handlers must be
// idempotent.
func WithRetry(r *retry.Retrier) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			return r.Do(context.Background(), func(context.Context) error {
				return next(event)
			})
		}
	}
}

// WithTimeout gives up waiting for a handler after timeout. The handler
// goroutine is not cancelled and finishes on its own.
func WithTimeout(timeout time.Duration) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			done := make(chan error, 1)
			go func() { done <- next(event) }()

			timer := time.NewTimer(timeout)
			defer timer.Stop()

			select {
			case err := <-done:
				return err
			case <-timer.C:
				return fmt.Errorf("handler timeout after %v", timeout)
			}
		}
	}
}
