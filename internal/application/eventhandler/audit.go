package eventhandler

import (
	"sort"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT LOG
// Каждое событие пишется в структурированный лог одной строкой.
// ══════════════════════════════════════════════════════════════════════════════

// AuditHandler пишет журнал доменных событий.
type AuditHandler struct {
	logger *logger.Logger
}

// NewAuditHandler создаёт обработчик аудита.
func NewAuditHandler(log *logger.Logger) *AuditHandler {
	return &AuditHandler{logger: log.With(logger.Component("audit"))}
}

// Handle реализует shared.EventHandler.
func (h *AuditHandler) Handle(event shared.Event) error {
	payload := event.Payload()

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]logger.Field, 0, len(keys)+3)
	fields = append(fields,
		logger.EventType(string(event.EventType())),
		logger.String("aggregate", aggregateOf(event.EventType())),
		logger.String("aggregate_id", event.AggregateID()),
	)
	for _, k := range keys {
		fields = append(fields, logger.Any(k, payload[k]))
	}

	h.logger.Info("domain event", fields...)
	return nil
}
