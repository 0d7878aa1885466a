package eventhandler

import (
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// TransitionHandler переводит события смены статуса в метрики.
type TransitionHandler struct {
	metrics TransitionObserver
}

// NewTransitionHandler создаёт обработчик.
func NewTransitionHandler(metrics TransitionObserver) *TransitionHandler {
	return &TransitionHandler{metrics: metrics}
}

// Handle реализует shared.EventHandler.
// Целевой статус берётся из "to", у событий пользователя из "status".
// Удаление стипендии не является переходом и не считается.
func (h *TransitionHandler) Handle(event shared.Event) error {
	if event.EventType() == shared.EventScholarshipDeleted {
		return nil
	}

	payload := event.Payload()
	to, _ := payload["to"].(string)
	if to == "" {
		to, _ = payload["status"].(string)
	}
	if to == "" {
		return nil
	}

	h.metrics.ObserveTransition(aggregateOf(event.EventType()), to)
	return nil
}
