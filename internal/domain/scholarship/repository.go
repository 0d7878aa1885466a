package scholarship

import (
	"context"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence (postgres, memory).
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции хранения стипендий.
type Repository interface {
	// Create сохраняет новую стипендию.
	// Возвращает ErrSlugTaken, если slug уже занят.
	Create(ctx context.Context, s *Scholarship) error

	// GetByID возвращает стипендию по ID.
	// Возвращает ErrScholarshipNotFound, если стипендия не найдена.
	GetByID(ctx context.Context, id string) (*Scholarship, error)

	// GetByIDForUpdate читает стипендию и блокирует её строку до конца
	// текущей транзакции. Конкурируют только операции над одной стипендией.
	GetByIDForUpdate(ctx context.Context, id string) (*Scholarship, error)

	// GetBySlug возвращает стипендию по slug.
	GetBySlug(ctx context.Context, slug shared.Slug) (*Scholarship, error)

	// Update сохраняет изменения, проверяя Version.
	// Возвращает shared.ErrConcurrentModification при устаревшей версии.
	// При успехе увеличивает s.Version.
	Update(ctx context.Context, s *Scholarship) error

	// Delete удаляет стипендию без возможности восстановления.
	Delete(ctx context.Context, id string) error

	// List возвращает страницу стипендий и общее число совпадений.
	List(ctx context.Context, filter Filter, page shared.Pagination) ([]*Scholarship, int, error)

	// ExistsBySlug проверяет, занят ли slug.
	ExistsBySlug(ctx context.Context, slug shared.Slug) (bool, error)

	// IncrementViews атомарно увеличивает счётчик просмотров.
	IncrementViews(ctx context.Context, id string) error
}

// EligibilityRepository хранит требования к кандидатам.
type EligibilityRepository interface {
	// GetByScholarshipID возвращает ErrEligibilityNotFound, если требований нет.
	GetByScholarshipID(ctx context.Context, scholarshipID string) (*EligibilityCriteria, error)

	// Save создаёт или заменяет требования стипендии.
	Save(ctx context.Context, c *EligibilityCriteria) error

	// DeleteByScholarshipID удаляет требования стипендии.
	DeleteByScholarshipID(ctx context.Context, scholarshipID string) error
}

// SortField - поле сортировки списка.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByDeadline  SortField = "deadline"
	SortByAmount    SortField = "amount"
)

// IsValid проверяет поле сортировки.
func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByDeadline, SortByAmount:
		return true
	default:
		return false
	}
}

// Filter содержит условия выборки списка. Пустые поля не фильтруют.
type Filter struct {
	Status   Status
	OwnerID  string
	Featured *bool
	Tag      string
	Search   string
	SortBy   SortField
	SortDesc bool
}
