// ══════════════════════════════════════════════════════════════════════════════
// CHANGE USER STATUS COMMAND
// Администратор активирует, деактивирует или блокирует учётную запись.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// UserStatusAction - действие над учётной записью.
type UserStatusAction string

const (
	UserActivate   UserStatusAction = "activate"
	UserDeactivate UserStatusAction = "deactivate"
	UserSuspend    UserStatusAction = "suspend"
)

// ChangeUserStatusCommand содержит действие над пользователем.
type ChangeUserStatusCommand struct {
	UserID string           `validate:"required,uuid"`
	Action UserStatusAction `validate:"required,oneof=activate deactivate suspend"`
	Actor  user.Actor       `validate:"-"`
}

// ChangeUserStatusHandler обрабатывает смену статуса.
type ChangeUserStatusHandler struct {
	users          user.Repository
	eventPublisher shared.EventPublisher
}

// NewChangeUserStatusHandler создаёт новый обработчик.
func NewChangeUserStatusHandler(users user.Repository, eventPublisher shared.EventPublisher) *ChangeUserStatusHandler {
	return &ChangeUserStatusHandler{users: users, eventPublisher: eventPublisher}
}

// Handle меняет статус. Администратор не может менять собственный статус.
func (h *ChangeUserStatusHandler) Handle(ctx context.Context, cmd ChangeUserStatusCommand) (*user.User, error) {
	if err := validateCommand("user", cmd); err != nil {
		return nil, fmt.Errorf("change_user_status: %w", err)
	}
	if err := requireAdmin(cmd.Actor); err != nil {
		return nil, err
	}
	if cmd.Actor.Is(cmd.UserID) {
		return nil, user.ErrForbidden
	}

	u, err := h.users.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("change_user_status: %w", err)
	}

	switch cmd.Action {
	case UserActivate:
		err = u.Activate()
	case UserDeactivate:
		err = u.Deactivate()
	case UserSuspend:
		err = u.Suspend()
	}
	if err != nil {
		return nil, fmt.Errorf("change_user_status: %w", err)
	}

	if err := h.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("change_user_status: save: %w", err)
	}

	publish(ctx, h.eventPublisher, shared.NewUserEvent(shared.EventUserStatusChanged, u.ID, string(u.Role), string(u.Status)))

	logger.FromContext(ctx).Info("user status changed",
		logger.UserID(u.ID),
		logger.String("status", string(u.Status)),
	)

	return u, nil
}
