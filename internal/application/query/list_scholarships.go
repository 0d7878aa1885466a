package query

import (
	"context"
	"errors"

	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST SCHOLARSHIPS QUERY
// Каталог стипендий с фильтрами, поиском, сортировкой и пагинацией.
// ══════════════════════════════════════════════════════════════════════════════

// ListScholarshipsQuery содержит параметры каталога.
type ListScholarshipsQuery struct {
	// ─────────────────────────────────────────────────────────────────────────
	// Фильтры
	// ─────────────────────────────────────────────────────────────────────────

	// Status - пустой означает "все видимые".
	Status   scholarship.Status
	OwnerID  string
	Featured *bool
	Tag      string
	Search   string

	// ─────────────────────────────────────────────────────────────────────────
	// Сортировка и страница
	// ─────────────────────────────────────────────────────────────────────────

	SortBy   scholarship.SortField
	SortDesc bool
	Page     int
	Limit    int

	Actor user.Actor
}

// Validate проверяет параметры.
func (q ListScholarshipsQuery) Validate() error {
	if q.Status != "" && !q.Status.IsValid() {
		return errors.New("unknown status")
	}
	if q.SortBy != "" && !q.SortBy.IsValid() {
		return errors.New("sort must be one of created_at, deadline, amount")
	}
	if q.OwnerID != "" && !shared.IsUUID(q.OwnerID) {
		return errors.New("owner_id must be a UUID")
	}
	if len(q.Search) > 200 {
		return errors.New("search is too long")
	}
	return nil
}

// ListScholarshipsResult содержит страницу каталога.
type ListScholarshipsResult struct {
	Items []ScholarshipDTO `json:"items"`
	Page  PageInfo         `json:"page"`
}

// ListScholarshipsHandler обрабатывает запрос каталога.
type ListScholarshipsHandler struct {
	scholarships scholarship.Repository
}

// NewListScholarshipsHandler создаёт новый обработчик.
func NewListScholarshipsHandler(scholarships scholarship.Repository) *ListScholarshipsHandler {
	return &ListScholarshipsHandler{scholarships: scholarships}
}

// Handle выполняет запрос. Без фильтра по статусу посторонние видят только
// открытые стипендии; черновики доступны владельцу и администратору.
func (h *ListScholarshipsHandler) Handle(ctx context.Context, q ListScholarshipsQuery) (*ListScholarshipsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListScholarships", shared.ErrValidation, err.Error(), err)
	}

	privileged := q.Actor.IsAdmin() || (q.OwnerID != "" && q.Actor.Is(q.OwnerID))

	status := q.Status
	switch {
	case privileged:
	case status == "":
		status = scholarship.StatusOpen
	case status == scholarship.StatusDraft:
		return nil, user.ErrForbidden
	}

	page := shared.Pagination{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := h.scholarships.List(ctx, scholarship.Filter{
		Status:   status,
		OwnerID:  q.OwnerID,
		Featured: q.Featured,
		Tag:      q.Tag,
		Search:   q.Search,
		SortBy:   q.SortBy,
		SortDesc: q.SortDesc,
	}, page)
	if err != nil {
		return nil, err
	}

	dtos := make([]ScholarshipDTO, len(items))
	for i, s := range items {
		dtos[i] = NewScholarshipDTO(s)
	}

	return &ListScholarshipsResult{Items: dtos, Page: newPageInfo(page, total)}, nil
}
