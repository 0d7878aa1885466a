package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ChangePasswordCommand меняет пароль текущего пользователя.
type ChangePasswordCommand struct {
	UserID          string     `validate:"required,uuid"`
	CurrentPassword string     `validate:"required"`
	NewPassword     string     `validate:"required,min=8,max=72"`
	Actor           user.Actor `validate:"-"`
}

// ChangePasswordHandler обрабатывает смену пароля.
type ChangePasswordHandler struct {
	users user.Repository
}

// NewChangePasswordHandler создаёт новый обработчик.
func NewChangePasswordHandler(users user.Repository) *ChangePasswordHandler {
	return &ChangePasswordHandler{users: users}
}

// Handle меняет пароль. Сменить пароль может только сам пользователь.
func (h *ChangePasswordHandler) Handle(ctx context.Context, cmd ChangePasswordCommand) error {
	if err := validateCommand("user", cmd); err != nil {
		return fmt.Errorf("change_password: %w", err)
	}
	if err := requireActor(cmd.Actor); err != nil {
		return err
	}
	if !cmd.Actor.Is(cmd.UserID) {
		return user.ErrForbidden
	}

	u, err := h.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("change_password: %w", err)
	}
	if err := u.ChangePassword(cmd.CurrentPassword, cmd.NewPassword); err != nil {
		return fmt.Errorf("change_password: %w", err)
	}
	if err := h.users.Update(ctx, u); err != nil {
		return fmt.Errorf("change_password: save: %w", err)
	}
	return nil
}
