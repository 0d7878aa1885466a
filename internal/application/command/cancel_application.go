// ══════════════════════════════════════════════════════════════════════════════
// CANCEL APPLICATION COMMAND
// Отмена заявки заявителем или администратором. Отменённая заявка не
// мешает подать новую на ту же стипендию.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// CancelApplicationCommand содержит данные для отмены заявки.
type CancelApplicationCommand struct {
	ApplicationID string     `validate:"required,uuid"`
	Actor         user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c CancelApplicationCommand) Validate() error {
	return validateCommand("application", c)
}

// CancelApplicationResult содержит результат отмены.
type CancelApplicationResult struct {
	Application  *application.Application
	SlotReleased bool
}

// CancelApplicationHandler обрабатывает отмену заявки.
type CancelApplicationHandler struct {
	releaser       slotReleaser
	eventPublisher shared.EventPublisher
}

// NewCancelApplicationHandler создаёт новый обработчик.
func NewCancelApplicationHandler(
	scholarships scholarship.Repository,
	applications application.Repository,
	tx shared.Transactor,
	eventPublisher shared.EventPublisher,
	metrics Metrics,
) *CancelApplicationHandler {
	return &CancelApplicationHandler{
		releaser: slotReleaser{
			scholarships: scholarships,
			applications: applications,
			tx:           tx,
			metrics:      metrics,
		},
		eventPublisher: eventPublisher,
	}
}

// Handle отменяет заявку.
func (h *CancelApplicationHandler) Handle(ctx context.Context, cmd CancelApplicationCommand) (*CancelApplicationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("cancel_application: %w", err)
	}
	if err := requireActor(cmd.Actor); err != nil {
		return nil, err
	}

	out, err := h.releaser.release(ctx, cmd.ApplicationID,
		func(a *application.Application) error {
			if cmd.Actor.IsAdmin() || a.IsOwnedBy(cmd.Actor.ID) {
				return nil
			}
			return user.ErrForbidden
		},
		func(a *application.Application) error { return a.Cancel() },
	)
	if err != nil {
		return nil, fmt.Errorf("cancel_application: %w", err)
	}

	publish(ctx, h.eventPublisher, out.event(shared.EventApplicationCancelled, cmd.Actor.ID))

	return &CancelApplicationResult{Application: out.Application, SlotReleased: out.Released}, nil
}
