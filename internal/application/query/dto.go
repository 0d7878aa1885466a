// Package query contains read operations (CQRS - Queries).
// Handlers return DTOs ready for JSON encoding; domain entities never leave
// this package on the read side.
package query

import (
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP DTO
// ══════════════════════════════════════════════════════════════════════════════

// MoneyDTO - сумма в минимальных единицах валюты.
type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ScholarshipDTO - публичное представление стипендии.
type ScholarshipDTO struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Amount      MoneyDTO `json:"amount"`

	NumberOfSlots  int `json:"number_of_slots"`
	AvailableSlots int `json:"available_slots"`

	Deadline  time.Time  `json:"deadline"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Status   string   `json:"status"`
	Featured bool     `json:"featured"`
	Views    int64    `json:"views"`
	Tags     []string `json:"tags"`

	// AcceptingApplications - можно ли подать заявку прямо сейчас.
	AcceptingApplications bool `json:"accepting_applications"`

	PublishedAt *time.Time `json:"published_at,omitempty"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewScholarshipDTO конвертирует сущность в DTO.
func NewScholarshipDTO(s *scholarship.Scholarship) ScholarshipDTO {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return ScholarshipDTO{
		ID:                    s.ID,
		OwnerID:               s.OwnerID,
		Title:                 s.Title,
		Slug:                  string(s.Slug),
		Description:           s.Description,
		Amount:                MoneyDTO{Amount: s.Amount.Amount, Currency: s.Amount.Currency},
		NumberOfSlots:         s.NumberOfSlots,
		AvailableSlots:        s.AvailableSlots,
		Deadline:              s.Deadline,
		StartDate:             s.StartDate,
		EndDate:               s.EndDate,
		Status:                string(s.Status),
		Featured:              s.Featured,
		Views:                 s.Views,
		Tags:                  tags,
		AcceptingApplications: s.CanAcceptApplications(),
		PublishedAt:           s.PublishedAt,
		Version:               s.Version,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// EligibilityDTO - требования к кандидату.
type EligibilityDTO struct {
	ID                  string    `json:"id"`
	ScholarshipID       string    `json:"scholarship_id"`
	MinGPA              *float64  `json:"min_gpa,omitempty"`
	MaxGPA              *float64  `json:"max_gpa,omitempty"`
	AllowedMajors       []string  `json:"allowed_majors"`
	AllowedYearsOfStudy []int     `json:"allowed_years_of_study"`
	MinAge              *int      `json:"min_age,omitempty"`
	MaxAge              *int      `json:"max_age,omitempty"`
	Nationality         string    `json:"nationality,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewEligibilityDTO конвертирует требования в DTO.
func NewEligibilityDTO(c *scholarship.EligibilityCriteria) EligibilityDTO {
	dto := EligibilityDTO{
		ID:                  c.ID,
		ScholarshipID:       c.ScholarshipID,
		MinGPA:              gpaFloat(c.MinGPA),
		MaxGPA:              gpaFloat(c.MaxGPA),
		AllowedMajors:       c.AllowedMajors,
		AllowedYearsOfStudy: c.AllowedYearsOfStudy,
		MinAge:              c.MinAge,
		MaxAge:              c.MaxAge,
		Nationality:         c.Nationality,
		UpdatedAt:           c.UpdatedAt,
	}
	if dto.AllowedMajors == nil {
		dto.AllowedMajors = []string{}
	}
	if dto.AllowedYearsOfStudy == nil {
		dto.AllowedYearsOfStudy = []int{}
	}
	return dto
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION DTO
// ══════════════════════════════════════════════════════════════════════════════

// ApplicationDTO - представление заявки.
type ApplicationDTO struct {
	ID             string         `json:"id"`
	ScholarshipID  string         `json:"scholarship_id"`
	ApplicantID    string         `json:"applicant_id"`
	Status         string         `json:"status"`
	CoverLetter    *string        `json:"cover_letter,omitempty"`
	AdditionalInfo map[string]any `json:"additional_info"`
	Documents      []string       `json:"documents"`

	ReviewedBy   *string `json:"reviewed_by,omitempty"`
	DecisionNote *string `json:"decision_note,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewApplicationDTO конвертирует заявку в DTO.
func NewApplicationDTO(a *application.Application) ApplicationDTO {
	dto := ApplicationDTO{
		ID:             a.ID,
		ScholarshipID:  a.ScholarshipID,
		ApplicantID:    a.ApplicantID,
		Status:         string(a.Status),
		CoverLetter:    a.CoverLetter,
		AdditionalInfo: a.AdditionalInfo,
		Documents:      a.Documents,
		ReviewedBy:     a.ReviewedBy,
		DecisionNote:   a.DecisionNote,
		SubmittedAt:    a.SubmittedAt,
		ReviewedAt:     a.ReviewedAt,
		DecidedAt:      a.DecidedAt,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if dto.AdditionalInfo == nil {
		dto.AdditionalInfo = map[string]any{}
	}
	if dto.Documents == nil {
		dto.Documents = []string{}
	}
	return dto
}

// ══════════════════════════════════════════════════════════════════════════════
// USER DTO
// ══════════════════════════════════════════════════════════════════════════════

// UserDTO - представление пользователя. Хеш пароля не отдаётся никогда.
type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	StudentProfile *StudentProfileDTO `json:"student_profile,omitempty"`
	SponsorProfile *SponsorProfileDTO `json:"sponsor_profile,omitempty"`
}

// NewUserDTO конвертирует пользователя в DTO без профиля.
func NewUserDTO(u *user.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       string(u.Email),
		Role:        string(u.Role),
		Status:      string(u.Status),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// StudentProfileDTO - анкета студента.
type StudentProfileDTO struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
	Major       string     `json:"major,omitempty"`
	YearOfStudy *int       `json:"year_of_study,omitempty"`
	GPA         *float64   `json:"gpa,omitempty"`
	University  string     `json:"university,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewStudentProfileDTO конвертирует анкету студента.
func NewStudentProfileDTO(p *user.StudentProfile) *StudentProfileDTO {
	return &StudentProfileDTO{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth,
		Nationality: p.Nationality,
		Major:       p.Major,
		YearOfStudy: p.YearOfStudy,
		GPA:         gpaFloat(p.GPA),
		University:  p.University,
		UpdatedAt:   p.UpdatedAt,
	}
}

// SponsorProfileDTO - профиль спонсора.
type SponsorProfileDTO struct {
	OrganizationName string    `json:"organization_name"`
	Website          string    `json:"website,omitempty"`
	Description      string    `json:"description,omitempty"`
	Verified         bool      `json:"verified"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewSponsorProfileDTO конвертирует профиль спонсора.
func NewSponsorProfileDTO(p *user.SponsorProfile) *SponsorProfileDTO {
	return &SponsorProfileDTO{
		OrganizationName: p.OrganizationName,
		Website:          p.Website,
		Description:      p.Description,
		Verified:         p.Verified,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PAGINATION
// ══════════════════════════════════════════════════════════════════════════════

// PageInfo описывает страницу списка.
type PageInfo struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

func newPageInfo(p shared.Pagination, total int) PageInfo {
	n := p.Normalize()
	return PageInfo{Page: n.Page, Limit: n.Limit, Total: total, HasMore: n.HasMore(total)}
}

func gpaFloat(g *shared.GPA) *float64 {
	if g == nil {
		return nil
	}
	v := g.Float64()
	return &v
}
