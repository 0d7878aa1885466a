package application

import (
	"context"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// Repository определяет операции хранения заявок.
type Repository interface {
	// Create сохраняет заявку.
	// Возвращает ErrAlreadyApplied, если у заявителя уже есть неотменённая
	// заявка на эту стипендию.
	Create(ctx context.Context, a *Application) error

	// GetByID возвращает ErrApplicationNotFound, если заявка не найдена.
	GetByID(ctx context.Context, id string) (*Application, error)

	// Update сохраняет изменения, проверяя Version, и увеличивает её.
	Update(ctx context.Context, a *Application) error

	// Delete удаляет заявку без возможности восстановления.
	Delete(ctx context.Context, id string) error

	// List возвращает страницу заявок и общее число совпадений.
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]*Application, int, error)

	// FindByApplicant возвращает заявки студента, новые первыми.
	FindByApplicant(ctx context.Context, applicantID string, page shared.Pagination) ([]*Application, int, error)

	// HasApplied проверяет наличие неотменённой заявки для пары.
	HasApplied(ctx context.Context, applicantID, scholarshipID string) (bool, error)

	// CountByScholarship возвращает число всех заявок на стипендию.
	CountByScholarship(ctx context.Context, scholarshipID string) (int, error)
}

// Filter содержит условия выборки. Пустые поля не фильтруют.
type Filter struct {
	ScholarshipID string
	ApplicantID   string
	Status        Status
}
