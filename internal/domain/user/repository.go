package user

import (
	"context"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// Repository определяет операции хранения пользователей.
type Repository interface {
	// Create возвращает ErrEmailTaken, если email уже зарегистрирован.
	Create(ctx context.Context, u *User) error

	// GetByID возвращает ErrUserNotFound, если пользователь не найден.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail ищет пользователя по нормализованному email.
	GetByEmail(ctx context.Context, email shared.Email) (*User, error)

	// Update сохраняет изменения пользователя.
	Update(ctx context.Context, u *User) error

	// Delete удаляет пользователя без возможности восстановления.
	Delete(ctx context.Context, id string) error

	// ExistsByEmail проверяет, занят ли email.
	ExistsByEmail(ctx context.Context, email shared.Email) (bool, error)
}

// ProfileRepository хранит профили студентов и спонсоров.
type ProfileRepository interface {
	GetStudentProfile(ctx context.Context, userID string) (*StudentProfile, error)
	SaveStudentProfile(ctx context.Context, p *StudentProfile) error
	GetSponsorProfile(ctx context.Context, userID string) (*SponsorProfile, error)
	SaveSponsorProfile(ctx context.Context, p *SponsorProfile) error
}
