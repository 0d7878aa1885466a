// Package scholarship содержит доменную модель стипендии и её жизненный цикл.
// Здесь нет внешних зависимостей: только состояние и guard-методы переходов.
package scholarship

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущее состояние стипендии.
type Status string

const (
	// StatusDraft - черновик, заявки не принимаются.
	StatusDraft Status = "DRAFT"
	// StatusOpen - опубликована, идёт приём заявок.
	StatusOpen Status = "OPEN"
	// StatusClosed - приём закрыт (вручную или закончились места).
	StatusClosed Status = "CLOSED"
	// StatusSuspended - временно приостановлена администратором.
	StatusSuspended Status = "SUSPENDED"
	// StatusExpired - терминальное состояние.
	StatusExpired Status = "EXPIRED"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusClosed, StatusSuspended, StatusExpired:
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
// LIMITS
// ══════════════════════════════════════════════════════════════════════════════

const (
	MinTitleLength       = 10
	MaxTitleLength       = 200
	MinDescriptionLength = 20
	MaxDescriptionLength = 10000
	MaxSlots             = 10000
	MaxTags              = 10
	MaxTagLength         = 50
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrScholarshipNotFound = shared.NewDomainError("scholarship", "Find", shared.ErrNotFound, "scholarship not found")
	ErrSlugTaken           = shared.NewDomainError("scholarship", "Create", shared.ErrAlreadyExists, "slug is already taken")
	ErrHasApplications     = shared.NewDomainError("scholarship", "Delete", shared.ErrAlreadyExists, "scholarship has applications")
	ErrStaleScholarship    = shared.NewDomainError("scholarship", "Update", shared.ErrConcurrentModification, "scholarship was modified concurrently")

	ErrInvalidTitle       = shared.NewDomainError("scholarship", "Validate", shared.ErrValueOutOfRange, "title must be 10-200 characters")
	ErrInvalidDescription = shared.NewDomainError("scholarship", "Validate", shared.ErrValueOutOfRange, "description must be 20-10000 characters")
	ErrInvalidSlots       = shared.NewDomainError("scholarship", "Validate", shared.ErrValueOutOfRange, "number of slots must be 1-10000")
	ErrInvalidOwner       = shared.NewDomainError("scholarship", "Validate", shared.ErrInvalidID, "owner id must be a UUID")
	ErrInvalidDates       = shared.NewDomainError("scholarship", "Validate", shared.ErrInvalidInput, "end date must be after start date")
	ErrDeadlineInPast     = shared.NewDomainError("scholarship", "Validate", shared.ErrInvalidInput, "deadline must be in the future")
	ErrInvalidTags        = shared.NewDomainError("scholarship", "Validate", shared.ErrValueOutOfRange, "at most 10 tags of up to 50 characters")

	ErrNotDraft          = shared.NewDomainError("scholarship", "Publish", shared.ErrInvalidState, "only draft scholarships can be published")
	ErrNotOpen           = shared.NewDomainError("scholarship", "Close", shared.ErrInvalidState, "scholarship is not open")
	ErrCannotSuspend     = shared.NewDomainError("scholarship", "Suspend", shared.ErrInvalidState, "scholarship cannot be suspended in its current state")
	ErrNotSuspended      = shared.NewDomainError("scholarship", "Reopen", shared.ErrInvalidState, "scholarship is not suspended")
	ErrAlreadyExpired    = shared.NewDomainError("scholarship", "Expire", shared.ErrInvalidState, "scholarship is already expired")
	ErrDeadlinePassed    = shared.NewDomainError("scholarship", "CheckDeadline", shared.ErrInvalidState, "scholarship deadline has passed")
	ErrNoSlotsAvailable  = shared.NewDomainError("scholarship", "DecreaseAvailableSlots", shared.ErrCapacityExceeded, "no slots available")
	ErrSlotsAtCapacity   = shared.NewDomainError("scholarship", "IncreaseAvailableSlots", shared.ErrInvalidState, "available slots already equal number of slots")
	ErrSlotsOutOfRange   = shared.NewDomainError("scholarship", "AdjustAvailableSlots", shared.ErrValueOutOfRange, "available slots must be between 0 and number of slots")
	ErrExpiredImmutable  = shared.NewDomainError("scholarship", "Update", shared.ErrInvalidState, "expired scholarships cannot be edited")
	ErrNotAcceptingApply = shared.NewDomainError("scholarship", "Admit", shared.ErrInvalidState, "scholarship is closed for applications")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: SCHOLARSHIP
// ══════════════════════════════════════════════════════════════════════════════

// Scholarship - стипендия, опубликованная спонсором.
// Инвариант: 0 <= AvailableSlots <= NumberOfSlots.
// Поля меняются только через guard-методы ниже.
type Scholarship struct {
	ID          string
	OwnerID     string
	Title       string
	Slug        shared.Slug
	Description string
	Amount      shared.Money

	// NumberOfSlots - полная ёмкость, не меняется после создания.
	NumberOfSlots int

	// AvailableSlots - сколько мест ещё не занято заявками.
	AvailableSlots int

	Deadline  time.Time
	StartDate time.Time
	EndDate   *time.Time

	Status   Status
	Featured bool
	Views    int64
	Tags     []string

	PublishedAt *time.Time

	// Version - номер версии для оптимистичной блокировки.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewScholarshipParams содержит параметры для создания стипендии.
type NewScholarshipParams struct {
	ID            string
	OwnerID       string
	Title         string
	Slug          string // пустой = сгенерировать из Title
	Description   string
	Amount        shared.Money
	NumberOfSlots int
	Deadline      time.Time
	StartDate     time.Time
	EndDate       *time.Time
	Featured      bool
	Tags          []string
}

// NewScholarship создаёт стипендию в статусе DRAFT со всеми свободными местами.
func NewScholarship(params NewScholarshipParams) (*Scholarship, error) {
	if err := shared.ValidateID(params.ID); err != nil {
		return nil, err
	}
	if !shared.IsUUID(params.OwnerID) {
		return nil, ErrInvalidOwner
	}

	title, err := normalizeTitle(params.Title)
	if err != nil {
		return nil, err
	}

	var slug shared.Slug
	if strings.TrimSpace(params.Slug) == "" {
		slug, err = shared.Slugify(title)
	} else {
		slug, err = shared.NewSlug(params.Slug)
	}
	if err != nil {
		return nil, err
	}

	description, err := normalizeDescription(params.Description)
	if err != nil {
		return nil, err
	}

	if err := params.Amount.Validate(); err != nil {
		return nil, err
	}

	if params.NumberOfSlots < 1 || params.NumberOfSlots > MaxSlots {
		return nil, ErrInvalidSlots
	}

	now := time.Now().UTC()
	if !params.Deadline.After(now) {
		return nil, ErrDeadlineInPast
	}

	startDate := params.StartDate
	if startDate.IsZero() {
		startDate = now
	}
	if params.EndDate != nil && !params.EndDate.After(startDate) {
		return nil, ErrInvalidDates
	}

	tags, err := normalizeTags(params.Tags)
	if err != nil {
		return nil, err
	}

	return &Scholarship{
		ID:             params.ID,
		OwnerID:        params.OwnerID,
		Title:          title,
		Slug:           slug,
		Description:    description,
		Amount:         params.Amount,
		NumberOfSlots:  params.NumberOfSlots,
		AvailableSlots: params.NumberOfSlots,
		Deadline:       params.Deadline.UTC(),
		StartDate:      startDate.UTC(),
		EndDate:        utcPtr(params.EndDate),
		Status:         StatusDraft,
		Featured:       params.Featured,
		Tags:           tags,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength || n > MaxTitleLength {
		return "", ErrInvalidTitle
	}
	return title, nil
}

func normalizeDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(description)
	if n < MinDescriptionLength || n > MaxDescriptionLength {
		return "", ErrInvalidDescription
	}
	return description, nil
}

// normalizeTags приводит теги к нижнему регистру и убирает дубликаты, сохраняя порядок.
func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		tag := strings.ToLower(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, ErrInvalidTags
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) > MaxTags {
		return nil, ErrInvalidTags
	}
	return tags, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// ══════════════════════════════════════════════════════════════════════════════
// PREDICATES
// ══════════════════════════════════════════════════════════════════════════════

// IsOpen возвращает true, если стипендия опубликована и открыта.
func (s *Scholarship) IsOpen() bool {
	return s.Status == StatusOpen
}

// HasAvailableSlots возвращает true, если остались свободные места.
func (s *Scholarship) HasAvailableSlots() bool {
	return s.AvailableSlots > 0
}

// IsDeadlinePassed проверяет, истёк ли срок подачи заявок.
func (s *Scholarship) IsDeadlinePassed() bool {
	return !time.Now().UTC().Before(s.Deadline)
}

// CanAcceptApplications - единственный авторитетный фильтр перед приёмом новой заявки.
func (s *Scholarship) CanAcceptApplications() bool {
	return s.IsOpen() && s.HasAvailableSlots() && !s.IsDeadlinePassed()
}

// IsOwnedBy проверяет, принадлежит ли стипендия пользователю.
func (s *Scholarship) IsOwnedBy(userID string) bool {
	return s.OwnerID == userID
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE TRANSITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Publish переводит DRAFT -> OPEN. Срок подачи должен быть в будущем.
func (s *Scholarship) Publish() error {
	if s.Status != StatusDraft {
		return ErrNotDraft
	}
	if s.IsDeadlinePassed() {
		return ErrDeadlinePassed
	}
	now := time.Now().UTC()
	s.Status = StatusOpen
	s.PublishedAt = &now
	s.UpdatedAt = now
	return nil
}

// Close переводит OPEN -> CLOSED.
func (s *Scholarship) Close() error {
	if s.Status != StatusOpen {
		return ErrNotOpen
	}
	s.Status = StatusClosed
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Suspend переводит DRAFT или OPEN -> SUSPENDED.
func (s *Scholarship) Suspend() error {
	switch s.Status {
	case StatusDraft, StatusOpen:
	default:
		return ErrCannotSuspend
	}
	s.Status = StatusSuspended
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Reopen переводит SUSPENDED -> OPEN, если срок подачи ещё не истёк.
func (s *Scholarship) Reopen() error {
	if s.Status != StatusSuspended {
		return ErrNotSuspended
	}
	if s.IsDeadlinePassed() {
		return ErrDeadlinePassed
	}
	s.Status = StatusOpen
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Expire переводит стипендию из любого состояния в EXPIRED.
// Вызывается только администратором, автоматического расписания нет.
func (s *Scholarship) Expire() error {
	if s.Status == StatusExpired {
		return ErrAlreadyExpired
	}
	s.Status = StatusExpired
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SLOT ACCOUNTING
// ══════════════════════════════════════════════════════════════════════════════

// DecreaseAvailableSlots занимает одно место под принятую заявку.
// Когда места заканчиваются у открытой стипендии, она автоматически закрывается.
func (s *Scholarship) DecreaseAvailableSlots() error {
	if s.AvailableSlots <= 0 {
		return ErrNoSlotsAvailable
	}
	s.AvailableSlots--
	s.UpdatedAt = time.Now().UTC()
	if s.AvailableSlots == 0 && s.Status == StatusOpen {
		return s.Close()
	}
	return nil
}

// IncreaseAvailableSlots возвращает место после отзыва или отклонения заявки.
// Статус не меняется.
func (s *Scholarship) IncreaseAvailableSlots() error {
	if s.AvailableSlots >= s.NumberOfSlots {
		return ErrSlotsAtCapacity
	}
	s.AvailableSlots++
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustAvailableSlots - ручная правка счётчика администратором.
func (s *Scholarship) AdjustAvailableSlots(n int) error {
	if n < 0 || n > s.NumberOfSlots {
		return ErrSlotsOutOfRange
	}
	s.AvailableSlots = n
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DETAILS
// ══════════════════════════════════════════════════════════════════════════════

// UpdateDetailsParams - частичное обновление; nil означает "не менять".
type UpdateDetailsParams struct {
	Title       *string
	Description *string
	Amount      *shared.Money
	Deadline    *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	Featured    *bool
	Tags        []string
	ReplaceTags bool
}

// UpdateDetails применяет правки к описательным полям.
// Все проверки выполняются до изменения состояния.
func (s *Scholarship) UpdateDetails(p UpdateDetailsParams) error {
	if s.Status == StatusExpired {
		return ErrExpiredImmutable
	}

	next := s.Clone()

	if p.Title != nil {
		title, err := normalizeTitle(*p.Title)
		if err != nil {
			return err
		}
		next.Title = title
	}
	if p.Description != nil {
		description, err := normalizeDescription(*p.Description)
		if err != nil {
			return err
		}
		next.Description = description
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
		next.Amount = *p.Amount
	}
	if p.Deadline != nil {
		if !p.Deadline.After(time.Now().UTC()) {
			return ErrDeadlineInPast
		}
		next.Deadline = p.Deadline.UTC()
	}
	if p.StartDate != nil {
		next.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		next.EndDate = utcPtr(p.EndDate)
	}
	if next.EndDate != nil && !next.EndDate.After(next.StartDate) {
		return ErrInvalidDates
	}
	if p.Featured != nil {
		next.Featured = *p.Featured
	}
	if p.ReplaceTags {
		tags, err := normalizeTags(p.Tags)
		if err != nil {
			return err
		}
		next.Tags = tags
	}

	next.UpdatedAt = time.Now().UTC()
	*s = *next
	return nil
}

// Clone создаёт глубокую копию стипендии.
func (s *Scholarship) Clone() *Scholarship {
	c := *s
	if s.EndDate != nil {
		end := *s.EndDate
		c.EndDate = &end
	}
	if s.PublishedAt != nil {
		published := *s.PublishedAt
		c.PublishedAt = &published
	}
	c.Tags = append([]string(nil), s.Tags...)
	return &c
}
