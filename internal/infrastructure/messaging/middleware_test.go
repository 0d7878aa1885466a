package messaging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
	"github.com/scholar-hub/scholarship-hub/pkg/retry"
)

func TestChain_Order(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next shared.EventHandler) shared.EventHandler {
			return func(e shared.Event) error {
				trace = append(trace, name)
				return next(e)
			}
		}
	}

	h := Chain(func(shared.Event) error {
		trace = append(trace, "handler")
		return nil
	}, mark("outer"), mark("inner"))

	require.NoError(t, h(submittedEvent()))
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestWithRetry(t *testing.T) {
	r := retry.New(retry.WithMaxAttempts(3), retry.WithInitialDelay(time.Millisecond))

	calls := 0
	h := WithRetry(r)(func(shared.Event) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, h(submittedEvent()))
	assert.Equal(t, 3, calls)

	calls = 0
	h = WithRetry(r)(func(shared.Event) error {
		calls++
		return retry.Permanent(errors.New("bad payload"))
	})
	assert.EqualError(t, h(submittedEvent()), "bad payload")
	assert.Equal(t, 1, calls)
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	h := WithTimeout(20 * time.Millisecond)(func(shared.Event) error {
		<-release
		return nil
	})
	err := h(submittedEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")

	fast := WithTimeout(time.Second)(func(shared.Event) error { return nil })
	assert.NoError(t, fast(submittedEvent()))
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelDebug})

	h := WithLogging(log, "audit_log")(func(shared.Event) error {
		return errors.New("sink down")
	})
	require.Error(t, h(submittedEvent()))

	out := buf.String()
	assert.Contains(t, out, `"handler failed"`)
	assert.Contains(t, out, `"handler":"audit_log"`)
	assert.Contains(t, out, `"application.submitted"`)
	assert.Contains(t, out, "sink down")
}
