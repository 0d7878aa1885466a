// Package eventhandler содержит подписчиков доменных событий.
// Подписчики только наблюдают: ядро не зависит от доставки событий.
package eventhandler

import (
	"strings"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/messaging"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
	"github.com/scholar-hub/scholarship-hub/pkg/retry"
)

// TransitionObserver считает переходы состояний.
type TransitionObserver interface {
	ObserveTransition(aggregate, to string)
}

// Config содержит зависимости подписчиков.
type Config struct {
	Logger  *logger.Logger
	Metrics TransitionObserver

	// HandlerTimeout ограничивает время одного запуска обработчика.
	HandlerTimeout time.Duration

	// Retry повторяет упавший обработчик; nil - без повторов.
	Retry *retry.Retrier
}

// Register подписывает аудит и счётчик переходов на все события.
func Register(bus shared.EventSubscriber, cfg Config) error {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 5 * time.Second
	}

	handlers := map[string]shared.EventHandler{
		"audit_log": NewAuditHandler(cfg.Logger).Handle,
	}
	if cfg.Metrics != nil {
		handlers["transition_metrics"] = NewTransitionHandler(cfg.Metrics).Handle
	}

	for name, h := range handlers {
		mws := []messaging.Middleware{messaging.WithLogging(cfg.Logger, name)}
		if cfg.Retry != nil {
			mws = append(mws, messaging.WithRetry(cfg.Retry))
		}
		mws = append(mws, messaging.WithTimeout(cfg.HandlerTimeout))

		wrapped := messaging.Chain(h, mws...)
		if err := bus.SubscribeAll(wrapped); err != nil {
			return err
		}
	}
	return nil
}

// aggregateOf возвращает префикс типа события: "scholarship", "application", "user".
func aggregateOf(t shared.EventType) string {
	kind, _, _ := strings.Cut(string(t), ".")
	return kind
}
