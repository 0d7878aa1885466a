// ══════════════════════════════════════════════════════════════════════════════
// UPSERT PROFILE COMMANDS
// Анкеты студента и спонсора. Профиль должен соответствовать роли.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// UpsertStudentProfileCommand содержит анкету студента.
type UpsertStudentProfileCommand struct {
	UserID      string `validate:"required,uuid"`
	FirstName   string `validate:"required,max=100"`
	LastName    string `validate:"required,max=100"`
	DateOfBirth *time.Time
	Nationality string   `validate:"omitempty,max=200"`
	Major       string   `validate:"omitempty,max=200"`
	YearOfStudy *int     `validate:"omitempty,min=1,max=10"`
	GPA         *float64 `validate:"omitempty,min=0,max=4"`
	University  string   `validate:"omitempty,max=200"`

	Actor user.Actor `validate:"-"`
}

// UpsertStudentProfileHandler обрабатывает сохранение анкеты студента.
type UpsertStudentProfileHandler struct {
	users    user.Repository
	profiles user.ProfileRepository
}

// NewUpsertStudentProfileHandler создаёт новый обработчик.
func NewUpsertStudentProfileHandler(users user.Repository, profiles user.ProfileRepository) *UpsertStudentProfileHandler {
	return &UpsertStudentProfileHandler{users: users, profiles: profiles}
}

// Handle создаёт или заменяет анкету. CreatedAt существующей анкеты сохраняется.
func (h *UpsertStudentProfileHandler) Handle(ctx context.Context, cmd UpsertStudentProfileCommand) (*user.StudentProfile, error) {
	if err := validateCommand("profile", cmd); err != nil {
		return nil, fmt.Errorf("upsert_student_profile: %w", err)
	}
	if err := requireSelfOrAdmin(cmd.Actor, cmd.UserID); err != nil {
		return nil, err
	}

	u, err := h.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("upsert_student_profile: %w", err)
	}
	if u.Role != user.RoleStudent {
		return nil, user.ErrProfileRoleMismatch
	}

	p, err := user.NewStudentProfile(user.StudentProfileParams{
		UserID:      cmd.UserID,
		FirstName:   cmd.FirstName,
		LastName:    cmd.LastName,
		DateOfBirth: cmd.DateOfBirth,
		Nationality: cmd.Nationality,
		Major:       cmd.Major,
		YearOfStudy: cmd.YearOfStudy,
		GPA:         cmd.GPA,
		University:  cmd.University,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert_student_profile: %w", err)
	}

	current, err := h.profiles.GetStudentProfile(ctx, cmd.UserID)
	switch {
	case err == nil:
		p.CreatedAt = current.CreatedAt
	case errors.Is(err, user.ErrProfileNotFound):
	default:
		return nil, fmt.Errorf("upsert_student_profile: load: %w", err)
	}

	if err := h.profiles.SaveStudentProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert_student_profile: save: %w", err)
	}
	return p, nil
}

// UpsertSponsorProfileCommand содержит данные организации.
type UpsertSponsorProfileCommand struct {
	UserID           string `validate:"required,uuid"`
	OrganizationName string `validate:"required,min=2,max=200"`
	Website          string `validate:"omitempty,http_url"`
	Description      string `validate:"omitempty,max=5000"`

	// Verified меняет только администратор; nil сохраняет текущее значение.
	Verified *bool

	Actor user.Actor `validate:"-"`
}

// UpsertSponsorProfileHandler обрабатывает сохранение профиля спонсора.
type UpsertSponsorProfileHandler struct {
	users    user.Repository
	profiles user.ProfileRepository
}

// NewUpsertSponsorProfileHandler создаёт новый обработчик.
func NewUpsertSponsorProfileHandler(users user.Repository, profiles user.ProfileRepository) *UpsertSponsorProfileHandler {
	return &UpsertSponsorProfileHandler{users: users, profiles: profiles}
}

// Handle создаёт или заменяет профиль спонсора.
func (h *UpsertSponsorProfileHandler) Handle(ctx context.Context, cmd UpsertSponsorProfileCommand) (*user.SponsorProfile, error) {
	if err := validateCommand("profile", cmd); err != nil {
		return nil, fmt.Errorf("upsert_sponsor_profile: %w", err)
	}
	if err := requireSelfOrAdmin(cmd.Actor, cmd.UserID); err != nil {
		return nil, err
	}
	if cmd.Verified != nil && !cmd.Actor.IsAdmin() {
		return nil, user.ErrForbidden
	}

	u, err := h.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("upsert_sponsor_profile: %w", err)
	}
	if u.Role != user.RoleSponsor {
		return nil, user.ErrProfileRoleMismatch
	}

	p, err := user.NewSponsorProfile(user.SponsorProfileParams{
		UserID:           cmd.UserID,
		OrganizationName: cmd.OrganizationName,
		Website:          cmd.Website,
		Description:      cmd.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert_sponsor_profile: %w", err)
	}

	current, err := h.profiles.GetSponsorProfile(ctx, cmd.UserID)
	switch {
	case err == nil:
		p.CreatedAt = current.CreatedAt
		p.Verified = current.Verified
	case errors.Is(err, user.ErrProfileNotFound):
	default:
		return nil, fmt.Errorf("upsert_sponsor_profile: load: %w", err)
	}
	if cmd.Verified != nil {
		p.Verified = *cmd.Verified
	}

	if err := h.profiles.SaveSponsorProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert_sponsor_profile: save: %w", err)
	}
	return p, nil
}

func requireSelfOrAdmin(actor user.Actor, userID string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || actor.Is(userID) {
		return nil
	}
	return user.ErrForbidden
}
