// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY CRITERIA COMMANDS
// Установка и удаление требований к кандидатам. Требования хранятся и
// отдаются клиенту, но при подаче заявки не проверяются.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// SetEligibilityCriteriaCommand заменяет требования стипендии целиком.
type SetEligibilityCriteriaCommand struct {
	ScholarshipID string `validate:"required,uuid"`

	MinGPA *float64 `validate:"omitempty,min=0,max=4"`
	MaxGPA *float64 `validate:"omitempty,min=0,max=4"`

	AllowedMajors       []string `validate:"omitempty,max=50,dive,required,max=100"`
	AllowedYearsOfStudy []int    `validate:"omitempty,dive,min=1,max=10"`

	MinAge *int `validate:"omitempty,min=0,max=120"`
	MaxAge *int `validate:"omitempty,min=0,max=120"`

	Nationality string `validate:"omitempty,max=100"`

	Actor user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c SetEligibilityCriteriaCommand) Validate() error {
	return validateCommand("eligibility", c)
}

// SetEligibilityCriteriaHandler обрабатывает установку требований.
type SetEligibilityCriteriaHandler struct {
	scholarships scholarship.Repository
	criteria     scholarship.EligibilityRepository
}

// NewSetEligibilityCriteriaHandler создаёт новый обработчик.
func NewSetEligibilityCriteriaHandler(
	scholarships scholarship.Repository,
	criteria scholarship.EligibilityRepository,
) *SetEligibilityCriteriaHandler {
	return &SetEligibilityCriteriaHandler{scholarships: scholarships, criteria: criteria}
}

// Handle создаёт или заменяет требования. ID и CreatedAt существующей
// записи сохраняются.
func (h *SetEligibilityCriteriaHandler) Handle(ctx context.Context, cmd SetEligibilityCriteriaCommand) (*scholarship.EligibilityCriteria, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_eligibility: %w", err)
	}

	s, err := h.scholarships.GetByID(ctx, cmd.ScholarshipID)
	if err != nil {
		return nil, fmt.Errorf("set_eligibility: %w", err)
	}
	if err := requireOwnerOrAdmin(cmd.Actor, s); err != nil {
		return nil, err
	}

	next, err := scholarship.NewEligibilityCriteria(scholarship.EligibilityParams{
		ID:                  uuid.NewString(),
		ScholarshipID:       s.ID,
		MinGPA:              cmd.MinGPA,
		MaxGPA:              cmd.MaxGPA,
		AllowedMajors:       cmd.AllowedMajors,
		AllowedYearsOfStudy: cmd.AllowedYearsOfStudy,
		MinAge:              cmd.MinAge,
		MaxAge:              cmd.MaxAge,
		Nationality:         cmd.Nationality,
	})
	if err != nil {
		return nil, fmt.Errorf("set_eligibility: %w", err)
	}

	current, err := h.criteria.GetByScholarshipID(ctx, s.ID)
	switch {
	case err == nil:
		current.Replace(next)
		next = current
	case errors.Is(err, scholarship.ErrEligibilityNotFound):
	default:
		return nil, fmt.Errorf("set_eligibility: load: %w", err)
	}

	if err := h.criteria.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("set_eligibility: save: %w", err)
	}
	return next, nil
}

// RemoveEligibilityCriteriaCommand удаляет требования стипендии.
type RemoveEligibilityCriteriaCommand struct {
	ScholarshipID string     `validate:"required,uuid"`
	Actor         user.Actor `validate:"-"`
}

// Validate проверяет корректность команды.
func (c RemoveEligibilityCriteriaCommand) Validate() error {
	return validateCommand("eligibility", c)
}

// RemoveEligibilityCriteriaHandler обрабатывает удаление требований.
type RemoveEligibilityCriteriaHandler struct {
	scholarships scholarship.Repository
	criteria     scholarship.EligibilityRepository
}

// NewRemoveEligibilityCriteriaHandler создаёт новый обработчик.
func NewRemoveEligibilityCriteriaHandler(
	scholarships scholarship.Repository,
	criteria scholarship.EligibilityRepository,
) *RemoveEligibilityCriteriaHandler {
	return &RemoveEligibilityCriteriaHandler{scholarships: scholarships, criteria: criteria}
}

// Handle удаляет требования. Отсутствие требований - ErrEligibilityNotFound.
func (h *RemoveEligibilityCriteriaHandler) Handle(ctx context.Context, cmd RemoveEligibilityCriteriaCommand) error {
	if err := cmd.Validate(); err != nil {
		return fmt.Errorf("remove_eligibility: %w", err)
	}

	s, err := h.scholarships.GetByID(ctx, cmd.ScholarshipID)
	if err != nil {
		return fmt.Errorf("remove_eligibility: %w", err)
	}
	if err := requireOwnerOrAdmin(cmd.Actor, s); err != nil {
		return err
	}

	if err := h.criteria.DeleteByScholarshipID(ctx, s.ID); err != nil {
		return fmt.Errorf("remove_eligibility: %w", err)
	}
	return nil
}
