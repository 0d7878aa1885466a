// ══════════════════════════════════════════════════════════════════════════════
// WITHDRAW APPLICATION COMMAND
// Студент отзывает поданную заявку; занятое место возвращается стипендии.
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

// WithdrawApplicationCommand содержит данные для отзыва заявки.
type WithdrawApplicationCommand struct {
	ApplicationID string     `validate:"required,uuid"`
	Actor         user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c WithdrawApplicationCommand) Validate() error {
	return validateCommand("application", c)
}

// WithdrawApplicationResult содержит результат отзыва.
type WithdrawApplicationResult struct {
	Application  *application.Application
	SlotReleased bool
}

// WithdrawApplicationHandler обрабатывает отзыв заявки.
type WithdrawApplicationHandler struct {
	releaser       slotReleaser
	eventPublisher shared.EventPublisher
}

// NewWithdrawApplicationHandler создаёт новый обработчик.
func NewWithdrawApplicationHandler(
	scholarships scholarship.Repository,
	applications application.Repository,
	tx shared.Transactor,
	eventPublisher shared.EventPublisher,
	metrics Metrics,
) *WithdrawApplicationHandler {
	return &WithdrawApplicationHandler{
		releaser: slotReleaser{
			scholarships: scholarships,
			applications: applications,
			tx:           tx,
			metrics:      metrics,
		},
		eventPublisher: eventPublisher,
	}
}

// Handle отзывает заявку. Отозвать может только сам заявитель.
func (h *WithdrawApplicationHandler) Handle(ctx context.Context, cmd WithdrawApplicationCommand) (*WithdrawApplicationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("withdraw_application: %w", err)
	}
	if err := requireActor(cmd.Actor); err != nil {
		return nil, err
	}

	out, err := h.releaser.release(ctx, cmd.ApplicationID,
		func(a *application.Application) error {
			if !a.IsOwnedBy(cmd.Actor.ID) {
				return user.ErrForbidden
			}
			return nil
		},
		func(a *application.Application) error { return a.Withdraw() },
	)
	if err != nil {
		return nil, fmt.Errorf("withdraw_application: %w", err)
	}

	publish(ctx, h.eventPublisher, out.event(shared.EventApplicationWithdrawn, cmd.Actor.ID))

	return &WithdrawApplicationResult{Application: out.Application, SlotReleased: out.Released}, nil
}
