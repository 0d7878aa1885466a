package query

import (
	"context"
	"errors"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION QUERIES
// Заявку видят заявитель, владелец стипендии и администратор.
// ══════════════════════════════════════════════════════════════════════════════

var errAuthRequired = shared.NewDomainError("auth", "Authorize", shared.ErrUnauthorized, "authentication required")

// GetApplicationQuery запрашивает одну заявку.
type GetApplicationQuery struct {
	ApplicationID string
	Actor         user.Actor
}

// GetApplicationHandler обрабатывает запрос заявки.
type GetApplicationHandler struct {
	applications application.Repository
	scholarships scholarship.Repository
}

// NewGetApplicationHandler создаёт новый обработчик.
func NewGetApplicationHandler(
	applications application.Repository,
	scholarships scholarship.Repository,
) *GetApplicationHandler {
	return &GetApplicationHandler{applications: applications, scholarships: scholarships}
}

// Handle возвращает заявку, если actor имеет к ней доступ.
func (h *GetApplicationHandler) Handle(ctx context.Context, q GetApplicationQuery) (*ApplicationDTO, error) {
	if q.Actor.IsZero() {
		return nil, errAuthRequired
	}
	if !shared.IsUUID(q.ApplicationID) {
		return nil, shared.NewDomainError("query", "GetApplication", shared.ErrInvalidID, "application id must be a UUID")
	}

	a, err := h.applications.GetByID(ctx, q.ApplicationID)
	if err != nil {
		return nil, err
	}

	if !q.Actor.IsAdmin() && !a.IsOwnedBy(q.Actor.ID) {
		s, err := h.scholarships.GetByID(ctx, a.ScholarshipID)
		if err != nil {
			return nil, err
		}
		if !s.IsOwnedBy(q.Actor.ID) {
			return nil, user.ErrForbidden
		}
	}

	dto := NewApplicationDTO(a)
	return &dto, nil
}

// ListApplicationsQuery содержит параметры списка заявок.
type ListApplicationsQuery struct {
	// ScholarshipID - заявки на стипендию (владелец или администратор).
	ScholarshipID string

	// ApplicantID - заявки студента (сам студент или администратор).
	ApplicantID string

	Status application.Status
	Page   int
	Limit  int

	Actor user.Actor
}

// Validate проверяет параметры.
func (q ListApplicationsQuery) Validate() error {
	if q.ScholarshipID != "" && !shared.IsUUID(q.ScholarshipID) {
		return errors.New("scholarship_id must be a UUID")
	}
	if q.ApplicantID != "" && !shared.IsUUID(q.ApplicantID) {
		return errors.New("applicant_id must be a UUID")
	}
	if q.Status != "" && !q.Status.IsValid() {
		return errors.New("unknown status")
	}
	return nil
}

// ListApplicationsResult содержит страницу заявок.
type ListApplicationsResult struct {
	Items []ApplicationDTO `json:"items"`
	Page  PageInfo         `json:"page"`
}

// ListApplicationsHandler обрабатывает список заявок.
type ListApplicationsHandler struct {
	applications application.Repository
	scholarships scholarship.Repository
}

// NewListApplicationsHandler создаёт новый обработчик.
func NewListApplicationsHandler(
	applications application.Repository,
	scholarships scholarship.Repository,
) *ListApplicationsHandler {
	return &ListApplicationsHandler{applications: applications, scholarships: scholarships}
}

// Handle выполняет запрос. Без фильтров список доступен только администратору.
func (h *ListApplicationsHandler) Handle(ctx context.Context, q ListApplicationsQuery) (*ListApplicationsResult, error) {
	if q.Actor.IsZero() {
		return nil, errAuthRequired
	}
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListApplications", shared.ErrValidation, err.Error(), err)
	}

	if err := h.authorize(ctx, q); err != nil {
		return nil, err
	}

	page := shared.Pagination{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := h.applications.List(ctx, application.Filter{
		ScholarshipID: q.ScholarshipID,
		ApplicantID:   q.ApplicantID,
		Status:        q.Status,
	}, page)
	if err != nil {
		return nil, err
	}

	dtos := make([]ApplicationDTO, len(items))
	for i, a := range items {
		dtos[i] = NewApplicationDTO(a)
	}
	return &ListApplicationsResult{Items: dtos, Page: newPageInfo(page, total)}, nil
}

func (h *ListApplicationsHandler) authorize(ctx context.Context, q ListApplicationsQuery) error {
	if q.Actor.IsAdmin() {
		return nil
	}
	if q.ApplicantID != "" && q.Actor.Is(q.ApplicantID) {
		return nil
	}
	if q.ScholarshipID != "" {
		s, err := h.scholarships.GetByID(ctx, q.ScholarshipID)
		if err != nil {
			return err
		}
		if s.IsOwnedBy(q.Actor.ID) {
			return nil
		}
	}
	return user.ErrForbidden
}
