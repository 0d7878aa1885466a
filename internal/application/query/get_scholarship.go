package query

import (
	"context"
	"errors"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SCHOLARSHIP QUERY
// Карточка стипендии по ID или slug вместе с требованиями к кандидату.
// Черновики видны только владельцу и администратору.
// ══════════════════════════════════════════════════════════════════════════════

// GetScholarshipQuery содержит параметры запроса.
type GetScholarshipQuery struct {
	// ID или Slug - ровно одно из двух.
	ID   string
	Slug string

	// CountView - увеличить счётчик просмотров.
	CountView bool

	// Actor может быть пустым для анонимного просмотра.
	Actor user.Actor
}

// Validate проверяет корректность параметров.
func (q GetScholarshipQuery) Validate() error {
	switch {
	case q.ID == "" && q.Slug == "":
		return errors.New("id or slug is required")
	case q.ID != "" && !shared.IsUUID(q.ID):
		return errors.New("id must be a UUID")
	}
	return nil
}

// GetScholarshipResult содержит карточку стипендии.
type GetScholarshipResult struct {
	Scholarship ScholarshipDTO  `json:"scholarship"`
	Eligibility *EligibilityDTO `json:"eligibility,omitempty"`
}

// GetScholarshipHandler обрабатывает запрос карточки.
type GetScholarshipHandler struct {
	scholarships scholarship.Repository
	criteria     scholarship.EligibilityRepository
}

// NewGetScholarshipHandler создаёт новый обработчик.
func NewGetScholarshipHandler(
	scholarships scholarship.Repository,
	criteria scholarship.EligibilityRepository,
) *GetScholarshipHandler {
	return &GetScholarshipHandler{scholarships: scholarships, criteria: criteria}
}

// Handle выполняет запрос.
func (h *GetScholarshipHandler) Handle(ctx context.Context, q GetScholarshipQuery) (*GetScholarshipResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetScholarship", shared.ErrValidation, err.Error(), err)
	}

	var (
		s   *scholarship.Scholarship
		err error
	)
	if q.ID != "" {
		s, err = h.scholarships.GetByID(ctx, q.ID)
	} else {
		s, err = h.scholarships.GetBySlug(ctx, shared.Slug(q.Slug))
	}
	if err != nil {
		return nil, err
	}

	if !canSeeScholarship(q.Actor, s) {
		return nil, scholarship.ErrScholarshipNotFound
	}

	// Счётчик просмотров не критичен: ошибка только логируется.
	if q.CountView && !s.IsOwnedBy(q.Actor.ID) {
		if err := h.scholarships.IncrementViews(ctx, s.ID); err != nil {
			logger.FromContext(ctx).Warn("failed to count view", logger.ScholarshipID(s.ID), logger.Err(err))
		} else {
			s.Views++
		}
	}

	result := &GetScholarshipResult{Scholarship: NewScholarshipDTO(s)}

	c, err := h.criteria.GetByScholarshipID(ctx, s.ID)
	switch {
	case err == nil:
		dto := NewEligibilityDTO(c)
		result.Eligibility = &dto
	case errors.Is(err, scholarship.ErrEligibilityNotFound):
	default:
		return nil, err
	}

	return result, nil
}

// canSeeScholarship скрывает черновики от всех, кроме владельца и администратора.
func canSeeScholarship(actor user.Actor, s *scholarship.Scholarship) bool {
	if s.Status != scholarship.StatusDraft {
		return true
	}
	return actor.IsAdmin() || s.IsOwnedBy(actor.ID)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET ELIGIBILITY CRITERIA QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetEligibilityQuery запрашивает требования стипендии.
type GetEligibilityQuery struct {
	ScholarshipID string
	Actor         user.Actor
}

// GetEligibilityHandler обрабатывает запрос требований.
type GetEligibilityHandler struct {
	scholarships scholarship.Repository
	criteria     scholarship.EligibilityRepository
}

// NewGetEligibilityHandler создаёт новый обработчик.
func NewGetEligibilityHandler(
	scholarships scholarship.Repository,
	criteria scholarship.EligibilityRepository,
) *GetEligibilityHandler {
	return &GetEligibilityHandler{scholarships: scholarships, criteria: criteria}
}

// Handle возвращает требования или ErrEligibilityNotFound.
func (h *GetEligibilityHandler) Handle(ctx context.Context, q GetEligibilityQuery) (*EligibilityDTO, error) {
	if !shared.IsUUID(q.ScholarshipID) {
		return nil, shared.NewDomainError("query", "GetEligibility", shared.ErrInvalidID, "scholarship id must be a UUID")
	}

	s, err := h.scholarships.GetByID(ctx, q.ScholarshipID)
	if err != nil {
		return nil, err
	}
	if !canSeeScholarship(q.Actor, s) {
		return nil, scholarship.ErrScholarshipNotFound
	}

	c, err := h.criteria.GetByScholarshipID(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	dto := NewEligibilityDTO(c)
	return &dto, nil
}
