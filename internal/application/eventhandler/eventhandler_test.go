package eventhandler

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/messaging"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

type transitionRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *transitionRecorder) ObserveTransition(aggregate, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, aggregate+":"+to)
}

func TestTransitionHandler(t *testing.T) {
	rec := &transitionRecorder{}
	h := NewTransitionHandler(rec)

	events := []shared.Event{
		shared.NewApplicationStatusChangedEvent(shared.EventApplicationSubmitted, "a1", "s1", "u1", "u1", "DRAFT", "SUBMITTED"),
		shared.NewScholarshipStatusChangedEvent(shared.EventScholarshipClosed, "s1", "o1", "OPEN", "CLOSED", 0),
		shared.NewScholarshipStatusChangedEvent(shared.EventScholarshipDeleted, "s2", "o1", "DRAFT", "", 0),
		shared.NewUserEvent(shared.EventUserStatusChanged, "u2", "STUDENT", "SUSPENDED"),
	}
	for _, e := range events {
		require.NoError(t, h.Handle(e))
	}

	assert.Equal(t, []string{"application:SUBMITTED", "scholarship:CLOSED", "user:SUSPENDED"}, rec.calls)
}

func TestAuditHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewAuditHandler(logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo}))

	require.NoError(t, h.Handle(shared.NewScholarshipStatusChangedEvent(
		shared.EventScholarshipClosed, "s1", "o1", "OPEN", "CLOSED", 0,
	)))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "domain event", entry["message"])
	assert.Equal(t, "scholarship.closed", entry["event_type"])
	assert.Equal(t, "scholarship", entry["aggregate"])
	assert.Equal(t, "s1", entry["aggregate_id"])
	assert.Equal(t, "CLOSED", entry["to"])
	assert.EqualValues(t, 0, entry["available_slots"])
}

func TestRegister(t *testing.T) {
	var buf bytes.Buffer
	rec := &transitionRecorder{}
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})

	require.NoError(t, Register(bus, Config{
		Logger:  logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo}),
		Metrics: rec,
	}))

	require.NoError(t, bus.Publish(shared.NewUserEvent(shared.EventUserRegistered, "u1", "STUDENT", "ACTIVE")))

	assert.Equal(t, []string{"user:ACTIVE"}, rec.calls)
	assert.Equal(t, 1, strings.Count(buf.String(), `"domain event"`))
}
