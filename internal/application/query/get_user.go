package query

import (
	"context"
	"errors"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// GetUserQuery запрашивает пользователя вместе с профилем.
// Пустой UserID означает текущего пользователя.
type GetUserQuery struct {
	UserID string
	Actor  user.Actor
}

// GetUserHandler обрабатывает запрос пользователя.
type GetUserHandler struct {
	users    user.Repository
	profiles user.ProfileRepository
}

// NewGetUserHandler создаёт новый обработчик.
func NewGetUserHandler(users user.Repository, profiles user.ProfileRepository) *GetUserHandler {
	return &GetUserHandler{users: users, profiles: profiles}
}

// Handle возвращает пользователя себе самому или администратору.
func (h *GetUserHandler) Handle(ctx context.Context, q GetUserQuery) (*UserDTO, error) {
	if q.Actor.IsZero() {
		return nil, errAuthRequired
	}

	id := q.UserID
	if id == "" {
		id = q.Actor.ID
	}
	if !shared.IsUUID(id) {
		return nil, shared.NewDomainError("query", "GetUser", shared.ErrInvalidID, "user id must be a UUID")
	}
	if !q.Actor.IsAdmin() && !q.Actor.Is(id) {
		return nil, user.ErrForbidden
	}

	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewUserDTO(u)

	switch u.Role {
	case user.RoleStudent:
		p, err := h.profiles.GetStudentProfile(ctx, u.ID)
		if err != nil && !errors.Is(err, user.ErrProfileNotFound) {
			return nil, err
		}
		if p != nil {
			dto.StudentProfile = NewStudentProfileDTO(p)
		}
	case user.RoleSponsor:
		p, err := h.profiles.GetSponsorProfile(ctx, u.ID)
		if err != nil && !errors.Is(err, user.ErrProfileNotFound) {
			return nil, err
		}
		if p != nil {
			dto.SponsorProfile = NewSponsorProfileDTO(p)
		}
	}

	return &dto, nil
}
