package user

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILES
// Не более одного профиля каждого вида на пользователя.
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrProfileNotFound     = shared.NewDomainError("profile", "Find", shared.ErrNotFound, "profile not found")
	ErrProfileRoleMismatch = shared.NewDomainError("profile", "Save", shared.ErrForbidden, "profile kind does not match user role")
	ErrInvalidYearOfStudy  = shared.NewDomainError("profile", "Validate", shared.ErrValueOutOfRange, "year of study must be 1-10")
	ErrInvalidBirthDate    = shared.NewDomainError("profile", "Validate", shared.ErrInvalidInput, "date of birth must be in the past")
	ErrInvalidOrganization = shared.NewDomainError("profile", "Validate", shared.ErrValueOutOfRange, "organization name must be 2-200 characters")
	ErrInvalidProfileField = shared.NewDomainError("profile", "Validate", shared.ErrValueOutOfRange, "profile field is too long")
)

const (
	maxProfileField      = 200
	maxSponsorDescLength = 5000
)

// StudentProfile - анкетные данные студента.
type StudentProfile struct {
	UserID      string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Nationality string
	Major       string
	YearOfStudy *int
	GPA         *shared.GPA
	University  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StudentProfileParams содержит поля профиля студента.
type StudentProfileParams struct {
	UserID      string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Nationality string
	Major       string
	YearOfStudy *int
	GPA         *float64
	University  string
}

// NewStudentProfile валидирует профиль студента.
func NewStudentProfile(p StudentProfileParams) (*StudentProfile, error) {
	if err := shared.ValidateID(p.UserID); err != nil {
		return nil, err
	}
	first, err := normalizeName(p.FirstName)
	if err != nil {
		return nil, err
	}
	last, err := normalizeName(p.LastName)
	if err != nil {
		return nil, err
	}
	if p.DateOfBirth != nil && !p.DateOfBirth.Before(time.Now().UTC()) {
		return nil, ErrInvalidBirthDate
	}
	if p.YearOfStudy != nil && (*p.YearOfStudy < 1 || *p.YearOfStudy > 10) {
		return nil, ErrInvalidYearOfStudy
	}
	var gpa *shared.GPA
	if p.GPA != nil {
		g, err := shared.NewGPA(*p.GPA)
		if err != nil {
			return nil, err
		}
		gpa = &g
	}
	fields := []string{p.Nationality, p.Major, p.University}
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
		if utf8.RuneCountInString(fields[i]) > maxProfileField {
			return nil, ErrInvalidProfileField
		}
	}

	now := time.Now().UTC()
	profile := &StudentProfile{
		UserID:      p.UserID,
		FirstName:   first,
		LastName:    last,
		Nationality: fields[0],
		Major:       fields[1],
		University:  fields[2],
		GPA:         gpa,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.DateOfBirth != nil {
		dob := p.DateOfBirth.UTC()
		profile.DateOfBirth = &dob
	}
	if p.YearOfStudy != nil {
		y := *p.YearOfStudy
		profile.YearOfStudy = &y
	}
	return profile, nil
}

// SponsorProfile - данные организации-спонсора.
type SponsorProfile struct {
	UserID           string
	OrganizationName string
	Website          string
	Description      string
	Verified         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SponsorProfileParams содержит поля профиля спонсора.
type SponsorProfileParams struct {
	UserID           string
	OrganizationName string
	Website          string
	Description      string
}

// NewSponsorProfile валидирует профиль спонсора. Verified выставляет только администратор.
func NewSponsorProfile(p SponsorProfileParams) (*SponsorProfile, error) {
	if err := shared.ValidateID(p.UserID); err != nil {
		return nil, err
	}
	org := strings.TrimSpace(p.OrganizationName)
	if n := utf8.RuneCountInString(org); n < 2 || n > maxProfileField {
		return nil, ErrInvalidOrganization
	}
	website := strings.TrimSpace(p.Website)
	if website != "" {
		if err := shared.ValidateHTTPURL(website); err != nil {
			return nil, err
		}
	}
	desc := strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(desc) > maxSponsorDescLength {
		return nil, ErrInvalidProfileField
	}

	now := time.Now().UTC()
	return &SponsorProfile{
		UserID:           p.UserID,
		OrganizationName: org,
		Website:          website,
		Description:      desc,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
