// ══════════════════════════════════════════════════════════════════════════════
// ADJUST AVAILABLE SLOTS COMMAND
// Ручная правка счётчика свободных мест администратором.
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

// AdjustAvailableSlotsCommand задаёт новое число свободных мест.
type AdjustAvailableSlotsCommand struct {
	ScholarshipID  string     `validate:"required,uuid"`
	AvailableSlots int        `validate:"min=0"`
	Actor          user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c AdjustAvailableSlotsCommand) Validate() error {
	return validateCommand("scholarship", c)
}

// AdjustAvailableSlotsHandler обрабатывает правку мест.
type AdjustAvailableSlotsHandler struct {
	scholarships scholarship.Repository
	tx           shared.Transactor
}

// NewAdjustAvailableSlotsHandler создаёт новый обработчик.
func NewAdjustAvailableSlotsHandler(scholarships scholarship.Repository, tx shared.Transactor) *AdjustAvailableSlotsHandler {
	return &AdjustAvailableSlotsHandler{scholarships: scholarships, tx: tx}
}

// Handle меняет счётчик под блокировкой строки. Статус не меняется.
func (h *AdjustAvailableSlotsHandler) Handle(ctx context.Context, cmd AdjustAvailableSlotsCommand) (*scholarship.Scholarship, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("adjust_available_slots: %w", err)
	}
	if err := requireAdmin(cmd.Actor); err != nil {
		return nil, err
	}

	var result *scholarship.Scholarship
	err := h.tx.WithinTx(ctx, func(ctx context.Context) error {
		s, err := h.scholarships.GetByIDForUpdate(ctx, cmd.ScholarshipID)
		if err != nil {
			return err
		}
		if err := s.AdjustAvailableSlots(cmd.AvailableSlots); err != nil {
			return err
		}
		if err := h.scholarships.Update(ctx, s); err != nil {
			return fmt.Errorf("save: %w", err)
		}
		result = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adjust_available_slots: %w", err)
	}

	logger.FromContext(ctx).Info("available slots adjusted",
		logger.ScholarshipID(result.ID),
		logger.UserID(cmd.Actor.ID),
		logger.Int("available_slots", result.AvailableSlots),
	)

	return result, nil
}
