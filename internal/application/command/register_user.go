// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Самостоятельная регистрация студента или спонсора.
// ══════════════════════════════════════════════════════════════════════════════

package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// RegisterUserCommand содержит данные новой учётной записи.
type RegisterUserCommand struct {
	Email string `validate:"required,email,max=254"`

	// Password не логируется и не хранится в открытом виде.
	Password string `validate:"required,min=8,max=72"`

	// Role - STUDENT или SPONSOR. Администратора создаёт только сид.
	Role user.Role `validate:"required,oneof=STUDENT SPONSOR"`

	FirstName string `validate:"required,max=100"`
	LastName  string `validate:"required,max=100"`
}

// Validate проверяет корректность команды.
func (c RegisterUserCommand) Validate() error {
	return validateCommand("user", c)
}

// RegisterUserHandler обрабатывает регистрацию.
type RegisterUserHandler struct {
	users          user.Repository
	eventPublisher shared.EventPublisher
}

// NewRegisterUserHandler создаёт новый обработчик.
func NewRegisterUserHandler(users user.Repository, eventPublisher shared.EventPublisher) *RegisterUserHandler {
	return &RegisterUserHandler{users: users, eventPublisher: eventPublisher}
}

// Handle регистрирует пользователя.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*user.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	u, err := user.NewUser(user.NewUserParams{
		ID:        uuid.NewString(),
		Email:     cmd.Email,
		Password:  cmd.Password,
		Role:      cmd.Role,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	exists, err := h.users.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return nil, fmt.Errorf("register_user: check email: %w", err)
	}
	if exists {
		return nil, user.ErrEmailTaken
	}

	if err := h.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register_user: save: %w", err)
	}

	publish(ctx, h.eventPublisher, shared.NewUserEvent(shared.EventUserRegistered, u.ID, string(u.Role), string(u.Status)))

	logger.FromContext(ctx).Info("user registered",
		logger.UserID(u.ID),
		logger.Role(string(u.Role)),
	)

	return u, nil
}
