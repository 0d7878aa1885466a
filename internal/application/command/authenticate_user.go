// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATE USER COMMAND
// Проверка email и пароля. Токен выпускает транспортный слой.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// AuthenticateUserCommand содержит учётные данные.
type AuthenticateUserCommand struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// AuthenticateUserHandler обрабатывает вход.
type AuthenticateUserHandler struct {
	users user.Repository
}

// NewAuthenticateUserHandler создаёт новый обработчик.
func NewAuthenticateUserHandler(users user.Repository) *AuthenticateUserHandler {
	return &AuthenticateUserHandler{users: users}
}

// Handle проверяет учётные данные и отмечает время входа.
// Неизвестный email и неверный пароль неразличимы для клиента.
func (h *AuthenticateUserHandler) Handle(ctx context.Context, cmd AuthenticateUserCommand) (*user.User, error) {
	if err := validateCommand("user", cmd); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, user.ErrInvalidCredentials
	}

	u, err := h.users.GetByEmail(ctx, email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, user.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate_user: %w", err)
	}

	if err := u.Authenticate(cmd.Password); err != nil {
		return nil, err
	}

	if err := h.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("authenticate_user: record login: %w", err)
	}
	return u, nil
}
