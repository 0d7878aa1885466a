// Package application содержит доменную модель заявки на стипендию
// и её конечный автомат: подача, рассмотрение, решение, награждение.
package application

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет состояние заявки.
type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusAwarded     Status = "AWARDED"
	StatusWithdrawn   Status = "WITHDRAWN"
	StatusCancelled   Status = "CANCELLED"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved,
		StatusRejected, StatusAwarded, StatusWithdrawn, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal возвращает true для состояний, из которых нет переходов.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusAwarded, StatusWithdrawn, StatusCancelled:
		return true
	default:
		return false
	}
}

// HoldsSlot возвращает true, если заявка в этом состоянии занимает место стипендии.
func (s Status) HoldsSlot() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusAwarded:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIMITS & ERRORS
// ══════════════════════════════════════════════════════════════════════════════

const (
	MinCoverLetterLength  = 100
	MaxCoverLetterLength  = 2000
	MaxDocuments          = 10
	MaxDecisionNoteLength = 1000
	MaxAdditionalInfoKeys = 50
)

var (
	ErrApplicationNotFound = shared.NewDomainError("application", "Find", shared.ErrNotFound, "application not found")
	ErrAlreadyApplied      = shared.NewDomainError("application", "Create", shared.ErrAlreadyExists, "applicant already applied to this scholarship")
	ErrStaleApplication    = shared.NewDomainError("application", "Update", shared.ErrConcurrentModification, "application was modified concurrently")

	ErrInvalidCoverLetter    = shared.NewDomainError("application", "Validate", shared.ErrValueOutOfRange, "cover letter must be 100-2000 characters")
	ErrTooManyDocuments      = shared.NewDomainError("application", "Validate", shared.ErrValueOutOfRange, "at most 10 documents")
	ErrInvalidDecisionNote   = shared.NewDomainError("application", "Validate", shared.ErrValueOutOfRange, "decision note must be at most 1000 characters")
	ErrInvalidAdditionalInfo = shared.NewDomainError("application", "Validate", shared.ErrValueOutOfRange, "additional info must have at most 50 keys")

	ErrNotDraft          = shared.NewDomainError("application", "Edit", shared.ErrInvalidState, "application can only be edited while in draft")
	ErrCannotSubmit      = shared.NewDomainError("application", "Submit", shared.ErrInvalidState, "only draft applications can be submitted")
	ErrCannotStartReview = shared.NewDomainError("application", "StartReview", shared.ErrInvalidState, "only submitted applications can be reviewed")
	ErrCannotDecide      = shared.NewDomainError("application", "Decide", shared.ErrInvalidState, "only submitted or under-review applications can be decided")
	ErrCannotAward       = shared.NewDomainError("application", "Award", shared.ErrInvalidState, "only approved applications can be awarded")
	ErrCannotWithdraw    = shared.NewDomainError("application", "Withdraw", shared.ErrInvalidState, "only submitted or under-review applications can be withdrawn")
	ErrCannotCancel      = shared.NewDomainError("application", "Cancel", shared.ErrInvalidState, "application cannot be cancelled in its current state")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// Application - заявка студента на конкретную стипендию.
// Для пары (ApplicantID, ScholarshipID) существует не более одной
// неотменённой заявки.
type Application struct {
	ID            string
	ScholarshipID string
	ApplicantID   string
	Status        Status

	// CoverLetter - мотивационное письмо, nil если не указано.
	CoverLetter *string

	// AdditionalInfo - произвольные данные анкеты (JSON-объект).
	AdditionalInfo map[string]any

	// Documents - ссылки на загруженные файлы в объектном хранилище.
	Documents []string

	// ReviewedBy - администратор, принявший заявку к рассмотрению или решивший её.
	ReviewedBy   *string
	DecisionNote *string

	SubmittedAt *time.Time
	ReviewedAt  *time.Time
	DecidedAt   *time.Time

	// Version - номер версии для оптимистичной блокировки.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewApplicationParams содержит параметры черновика заявки.
type NewApplicationParams struct {
	ID             string
	ScholarshipID  string
	ApplicantID    string
	CoverLetter    *string
	AdditionalInfo map[string]any
	Documents      []string
}

// NewApplication создаёт заявку в статусе DRAFT.
func NewApplication(p NewApplicationParams) (*Application, error) {
	for _, id := range []string{p.ID, p.ScholarshipID, p.ApplicantID} {
		if err := shared.ValidateID(id); err != nil {
			return nil, err
		}
	}

	letter, err := normalizeCoverLetter(p.CoverLetter)
	if err != nil {
		return nil, err
	}
	info, err := normalizeAdditionalInfo(p.AdditionalInfo)
	if err != nil {
		return nil, err
	}
	docs, err := normalizeDocuments(p.Documents)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Application{
		ID:             p.ID,
		ScholarshipID:  p.ScholarshipID,
		ApplicantID:    p.ApplicantID,
		Status:         StatusDraft,
		CoverLetter:    letter,
		AdditionalInfo: info,
		Documents:      docs,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func normalizeCoverLetter(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	letter := strings.TrimSpace(*raw)
	n := utf8.RuneCountInString(letter)
	if n < MinCoverLetterLength || n > MaxCoverLetterLength {
		return nil, ErrInvalidCoverLetter
	}
	return &letter, nil
}

func normalizeAdditionalInfo(raw map[string]any) (map[string]any, error) {
	if len(raw) > MaxAdditionalInfoKeys {
		return nil, ErrInvalidAdditionalInfo
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out, nil
}

func normalizeDocuments(raw []string) ([]string, error) {
	if len(raw) > MaxDocuments {
		return nil, ErrTooManyDocuments
	}
	out := make([]string, 0, len(raw))
	for _, d := range raw {
		doc := strings.TrimSpace(d)
		if err := shared.ValidateHTTPURL(doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDICATES
// ══════════════════════════════════════════════════════════════════════════════

// HoldsSlot возвращает true, если заявка сейчас занимает место стипендии.
func (a *Application) HoldsSlot() bool {
	return a.Status.HoldsSlot()
}

// IsOwnedBy проверяет, что заявку подал указанный пользователь.
func (a *Application) IsOwnedBy(userID string) bool {
	return a.ApplicantID == userID
}

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT EDITS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateCoverLetter меняет письмо. Разрешено только в DRAFT.
func (a *Application) UpdateCoverLetter(letter *string) error {
	if a.Status != StatusDraft {
		return ErrNotDraft
	}
	normalized, err := normalizeCoverLetter(letter)
	if err != nil {
		return err
	}
	a.CoverLetter = normalized
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateAdditionalInfo заменяет данные анкеты. Разрешено только в DRAFT.
func (a *Application) UpdateAdditionalInfo(info map[string]any) error {
	if a.Status != StatusDraft {
		return ErrNotDraft
	}
	normalized, err := normalizeAdditionalInfo(info)
	if err != nil {
		return err
	}
	a.AdditionalInfo = normalized
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Submit переводит DRAFT -> SUBMITTED.
func (a *Application) Submit() error {
	if a.Status != StatusDraft {
		return ErrCannotSubmit
	}
	now := time.Now().UTC()
	a.Status = StatusSubmitted
	a.SubmittedAt = &now
	a.UpdatedAt = now
	return nil
}

// StartReview переводит SUBMITTED -> UNDER_REVIEW.
func (a *Application) StartReview(reviewerID string) error {
	if a.Status != StatusSubmitted {
		return ErrCannotStartReview
	}
	now := time.Now().UTC()
	a.Status = StatusUnderReview
	a.ReviewedAt = &now
	a.ReviewedBy = stringPtr(reviewerID)
	a.UpdatedAt = now
	return nil
}

// Approve переводит SUBMITTED или UNDER_REVIEW -> APPROVED.
func (a *Application) Approve(reviewerID string, note *string) error {
	return a.decide(StatusApproved, reviewerID, note)
}

// Reject переводит SUBMITTED или UNDER_REVIEW -> REJECTED.
func (a *Application) Reject(reviewerID string, note *string) error {
	return a.decide(StatusRejected, reviewerID, note)
}

func (a *Application) decide(to Status, reviewerID string, note *string) error {
	if a.Status != StatusSubmitted && a.Status != StatusUnderReview {
		return ErrCannotDecide
	}
	var normalized *string
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		if utf8.RuneCountInString(trimmed) > MaxDecisionNoteLength {
			return ErrInvalidDecisionNote
		}
		if trimmed != "" {
			normalized = &trimmed
		}
	}
	now := time.Now().UTC()
	a.Status = to
	a.DecidedAt = &now
	a.ReviewedBy = stringPtr(reviewerID)
	a.DecisionNote = normalized
	a.UpdatedAt = now
	return nil
}

// Award переводит APPROVED -> AWARDED.
func (a *Application) Award() error {
	if a.Status != StatusApproved {
		return ErrCannotAward
	}
	a.Status = StatusAwarded
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Withdraw - отзыв заявки самим студентом из SUBMITTED или UNDER_REVIEW.
func (a *Application) Withdraw() error {
	if a.Status != StatusSubmitted && a.Status != StatusUnderReview {
		return ErrCannotWithdraw
	}
	a.Status = StatusWithdrawn
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel переводит заявку из DRAFT, SUBMITTED или UNDER_REVIEW в CANCELLED.
func (a *Application) Cancel() error {
	switch a.Status {
	case StatusDraft, StatusSubmitted, StatusUnderReview:
	default:
		return ErrCannotCancel
	}
	a.Status = StatusCancelled
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Clone создаёт глубокую копию заявки.
func (a *Application) Clone() *Application {
	c := *a
	c.CoverLetter = cloneString(a.CoverLetter)
	c.ReviewedBy = cloneString(a.ReviewedBy)
	c.DecisionNote = cloneString(a.DecisionNote)
	c.SubmittedAt = cloneTime(a.SubmittedAt)
	c.ReviewedAt = cloneTime(a.ReviewedAt)
	c.DecidedAt = cloneTime(a.DecidedAt)
	c.Documents = append([]string(nil), a.Documents...)
	if a.AdditionalInfo != nil {
		c.AdditionalInfo = make(map[string]any, len(a.AdditionalInfo))
		for k, v := range a.AdditionalInfo {
			c.AdditionalInfo[k] = v
		}
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
