// ══════════════════════════════════════════════════════════════════════════════
// CHANGE SCHOLARSHIP STATUS COMMAND
// Переходы жизненного цикла стипендии: publish, close, suspend, reopen, expire.
// Владелец публикует и закрывает; остальное делает только администратор.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ScholarshipAction - переход жизненного цикла.
type ScholarshipAction string

const (
	ActionPublish ScholarshipAction = "publish"
	ActionClose   ScholarshipAction = "close"
	ActionSuspend ScholarshipAction = "suspend"
	ActionReopen  ScholarshipAction = "reopen"
	ActionExpire  ScholarshipAction = "expire"
)

// adminOnly возвращает true для переходов, недоступных владельцу.
func (a ScholarshipAction) adminOnly() bool {
	switch a {
	case ActionSuspend, ActionReopen, ActionExpire:
		return true
	default:
		return false
	}
}

func (a ScholarshipAction) apply(s *scholarship.Scholarship) (shared.EventType, error) {
	switch a {
	case ActionPublish:
		return shared.EventScholarshipPublished, s.Publish()
	case ActionClose:
		return shared.EventScholarshipClosed, s.Close()
	case ActionSuspend:
		return shared.EventScholarshipSuspended, s.Suspend()
	case ActionReopen:
		return shared.EventScholarshipReopened, s.Reopen()
	case ActionExpire:
		return shared.EventScholarshipExpired, s.Expire()
	default:
		return "", shared.NewDomainError("scholarship", "Transition", shared.ErrInvalidInput, "unknown action")
	}
}

// ChangeScholarshipStatusCommand содержит переход.
type ChangeScholarshipStatusCommand struct {
	ScholarshipID string            `validate:"required,uuid"`
	Action        ScholarshipAction `validate:"required,oneof=publish close suspend reopen expire"`
	Actor         user.Actor        `validate:"-"`
}

// Validate проверяет корректность команды.
func (c ChangeScholarshipStatusCommand) Validate() error {
	return validateCommand("scholarship", c)
}

// ChangeScholarshipStatusResult содержит результат перехода.
type ChangeScholarshipStatusResult struct {
	Scholarship *scholarship.Scholarship
	From        scholarship.Status
}

// ChangeScholarshipStatusHandler обрабатывает переходы.
type ChangeScholarshipStatusHandler struct {
	scholarships   scholarship.Repository
	tx             shared.Transactor
	eventPublisher shared.EventPublisher
}

// NewChangeScholarshipStatusHandler создаёт новый обработчик.
func NewChangeScholarshipStatusHandler(
	scholarships scholarship.Repository,
	tx shared.Transactor,
	eventPublisher shared.EventPublisher,
) *ChangeScholarshipStatusHandler {
	return &ChangeScholarshipStatusHandler{
		scholarships:   scholarships,
		tx:             tx,
		eventPublisher: eventPublisher,
	}
}

// Handle выполняет переход. Строка стипендии блокируется, чтобы переход
// не конкурировал с подачей заявок.
func (h *ChangeScholarshipStatusHandler) Handle(ctx context.Context, cmd ChangeScholarshipStatusCommand) (*ChangeScholarshipStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("change_scholarship_status: %w", err)
	}
	if err := requireActor(cmd.Actor); err != nil {
		return nil, err
	}

	var (
		result    ChangeScholarshipStatusResult
		eventType shared.EventType
	)
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := h.scholarships.GetByIDForUpdate(ctx, cmd.ScholarshipID)
		if err != nil {
			return err
		}

		if cmd.Action.adminOnly() {
			err = requireAdmin(cmd.Actor)
		} else {
			err = requireOwnerOrAdmin(cmd.Actor, s)
		}
		if err != nil {
			return err
		}

		from := s.Status
		eventType, err = cmd.Action.apply(s)
		if err != nil {
			return err
		}
		if err := h.scholarships.Update(ctx, s); err != nil {
			return fmt.Errorf("save: %w", err)
		}

		result = ChangeScholarshipStatusResult{Scholarship: s, From: from}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("change_scholarship_status: %s: %w", cmd.Action, err)
	}

	publish(ctx, h.eventPublisher, scholarshipEvent(eventType, result.Scholarship, result.From))

	logger.FromContext(ctx).Info("scholarship status changed",
		logger.ScholarshipID(result.Scholarship.ID),
		logger.String("from", string(result.From)),
		logger.String("to", string(result.Scholarship.Status)),
	)

	return &result, nil
}
