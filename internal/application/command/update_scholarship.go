// ══════════════════════════════════════════════════════════════════════════════
// UPDATE SCHOLARSHIP COMMAND
// Частичное редактирование описательных полей стипендии владельцем.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// UpdateScholarshipCommand содержит правки. nil означает "не менять".
type UpdateScholarshipCommand struct {
	ScholarshipID string `validate:"required,uuid"`

	Title       *string `validate:"omitempty,min=10,max=200"`
	Description *string `validate:"omitempty,min=20,max=10000"`

	// Amount и Currency меняются только вместе.
	Amount   *int64  `validate:"omitempty,gt=0"`
	Currency *string `validate:"omitempty,len=3"`

	Deadline  *time.Time
	StartDate *time.Time
	EndDate   *time.Time
	Featured  *bool

	// Tags заменяют список целиком, если не nil.
	Tags []string `validate:"omitempty,max=10,dive,required,max=50"`

	// ExpectedVersion - версия, которую видел клиент (If-Match).
	ExpectedVersion *int `validate:"omitempty,min=1"`

	Actor user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c UpdateScholarshipCommand) Validate() error {
	if (c.Amount == nil) != (c.Currency == nil) {
		return shared.NewDomainError("scholarship", "Validate", shared.ErrValidation, "Amount and Currency must be set together")
	}
	return validateCommand("scholarship", c)
}

// UpdateScholarshipHandler обрабатывает редактирование стипендии.
type UpdateScholarshipHandler struct {
	scholarships scholarship.Repository
}

// NewUpdateScholarshipHandler создаёт новый обработчик.
func NewUpdateScholarshipHandler(scholarships scholarship.Repository) *UpdateScholarshipHandler {
	return &UpdateScholarshipHandler{scholarships: scholarships}
}

// Handle применяет правки с проверкой версии.
func (h *UpdateScholarshipHandler) Handle(ctx context.Context, cmd UpdateScholarshipCommand) (*scholarship.Scholarship, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("update_scholarship: %w", err)
	}

	s, err := h.scholarships.GetByID(ctx, cmd.ScholarshipID)
	if err != nil {
		return nil, fmt.Errorf("update_scholarship: %w", err)
	}
	if err := requireOwnerOrAdmin(cmd.Actor, s); err != nil {
		return nil, err
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != s.Version {
		return nil, scholarship.ErrStaleScholarship
	}

	params := scholarship.UpdateDetailsParams{
		Title:       cmd.Title,
		Description: cmd.Description,
		Deadline:    cmd.Deadline,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		Featured:    cmd.Featured,
		Tags:        cmd.Tags,
		ReplaceTags: cmd.Tags != nil,
	}
	if cmd.Amount != nil && cmd.Currency != nil {
		amount, err := shared.NewMoney(*cmd.Amount, *cmd.Currency)
		if err != nil {
			return nil, fmt.Errorf("update_scholarship: %w", err)
		}
		params.Amount = &amount
	}

	if err := s.UpdateDetails(params); err != nil {
		return nil, fmt.Errorf("update_scholarship: %w", err)
	}
	if err := h.scholarships.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("update_scholarship: save: %w", err)
	}

	return s, nil
}
