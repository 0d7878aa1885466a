// ══════════════════════════════════════════════════════════════════════════════
// DELETE SCHOLARSHIP COMMAND
// Безвозвратное удаление стипендии без заявок.
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

// DeleteScholarshipCommand содержит данные для удаления.
type DeleteScholarshipCommand struct {
	ScholarshipID string     `validate:"required,uuid"`
	Actor         user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c DeleteScholarshipCommand) Validate() error {
	return validateCommand("scholarship", c)
}

// DeleteScholarshipHandler обрабатывает удаление.
type DeleteScholarshipHandler struct {
	scholarships   scholarship.Repository
	applications   application.Repository
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
}

// NewDeleteScholarshipHandler создаёт новый обработчик.
func NewDeleteScholarshipHandler(
	scholarships scholarship.Repository,
	applications application.Repository,
	tx shared.Transactor,
	eventPublisher shared.EventPublisher,
) *DeleteScholarshipHandler {
	return &DeleteScholarshipHandler{
		scholarships:   scholarships,
		applications:   applications,
		tx:             tx,
		eventPublisher: eventPublisher,
	}
}

// Handle удаляет стипендию. Любая заявка, включая отменённые, блокирует
// удаление (ErrHasApplications).
func (h *DeleteScholarshipHandler) Handle(ctx context.Context, cmd DeleteScholarshipCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("delete_scholarship: %w", err)
	}

	var deleted *scholarship.Scholarship
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := h.scholarships.GetByIDForUpdate(ctx, cmd.ScholarshipID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(cmd.Actor, s); err != nil {
			return err
		}

		n, err := h.applications.CountByScholarship(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("count applications: %w", err)
		}
		if n > 0 {
			return scholarship.ErrHasApplications
		}

		if err := h.scholarships.Delete(ctx, s.ID); err != nil {
			return err
		}
		deleted = s
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete_scholarship: %w", err)
	}

	publish(ctx, h.eventPublisher, shared.NewScholarshipStatusChangedEvent(
		shared.EventScholarshipDeleted, deleted.ID, deleted.OwnerID, string(deleted.Status), "", 0,
	))
	return nil
}
