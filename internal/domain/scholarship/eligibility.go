package scholarship

import (
	"strings"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY CRITERIA
// Декларативные требования к кандидату. Хранятся и возвращаются клиенту,
// но при подаче заявки не проверяются.
// ══════════════════════════════════════════════════════════════════════════════

const (
	MinAge         = 0
	MaxAge         = 120
	MinYearOfStudy = 1
	MaxYearOfStudy = 10
	MaxMajors      = 50
	MaxMajorLength = 100
	MaxNationality = 100
)

var (
	ErrEligibilityNotFound = shared.NewDomainError("eligibility", "Find", shared.ErrNotFound, "eligibility criteria not found")
	ErrInvalidGPARange     = shared.NewDomainError("eligibility", "Validate", shared.ErrValueOutOfRange, "min gpa must not exceed max gpa")
	ErrInvalidAgeRange     = shared.NewDomainError("eligibility", "Validate", shared.ErrValueOutOfRange, "ages must be 0-120 with min not exceeding max")
	ErrInvalidYears        = shared.NewDomainError("eligibility", "Validate", shared.ErrValueOutOfRange, "years of study must be 1-10")
	ErrInvalidMajors       = shared.NewDomainError("eligibility", "Validate", shared.ErrValueOutOfRange, "at most 50 majors of up to 100 characters")
	ErrInvalidNationality  = shared.NewDomainError("eligibility", "Validate", shared.ErrValueOutOfRange, "nationality must be at most 100 characters")
)

// EligibilityCriteria - требования к кандидату, не более одного набора на стипендию.
type EligibilityCriteria struct {
	ID            string
	ScholarshipID string

	MinGPA *shared.GPA
	MaxGPA *shared.GPA

	AllowedMajors       []string
	AllowedYearsOfStudy []int

	MinAge *int
	MaxAge *int

	// Nationality - пустая строка означает "без ограничения".
	Nationality string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EligibilityParams содержит параметры набора требований.
type EligibilityParams struct {
	ID                  string
	ScholarshipID       string
	MinGPA              *float64
	MaxGPA              *float64
	AllowedMajors       []string
	AllowedYearsOfStudy []int
	MinAge              *int
	MaxAge              *int
	Nationality         string
}

// NewEligibilityCriteria валидирует и нормализует требования.
func NewEligibilityCriteria(p EligibilityParams) (*EligibilityCriteria, error) {
	if err := shared.ValidateID(p.ID); err != nil {
		return nil, err
	}
	if err := shared.ValidateID(p.ScholarshipID); err != nil {
		return nil, err
	}

	minGPA, err := optionalGPA(p.MinGPA)
	if err != nil {
		return nil, err
	}
	maxGPA, err := optionalGPA(p.MaxGPA)
	if err != nil {
		return nil, err
	}
	if minGPA != nil && maxGPA != nil && *minGPA > *maxGPA {
		return nil, ErrInvalidGPARange
	}

	if !validAge(p.MinAge) || !validAge(p.MaxAge) {
		return nil, ErrInvalidAgeRange
	}
	if p.MinAge != nil && p.MaxAge != nil && *p.MinAge > *p.MaxAge {
		return nil, ErrInvalidAgeRange
	}

	majors, err := normalizeMajors(p.AllowedMajors)
	if err != nil {
		return nil, err
	}
	years, err := normalizeYears(p.AllowedYearsOfStudy)
	if err != nil {
		return nil, err
	}

	nationality := strings.TrimSpace(p.Nationality)
	if len(nationality) > MaxNationality {
		return nil, ErrInvalidNationality
	}

	now := time.Now().UTC()
	return &EligibilityCriteria{
		ID:                  p.ID,
		ScholarshipID:       p.ScholarshipID,
		MinGPA:              minGPA,
		MaxGPA:              maxGPA,
		AllowedMajors:       majors,
		AllowedYearsOfStudy: years,
		MinAge:              copyInt(p.MinAge),
		MaxAge:              copyInt(p.MaxAge),
		Nationality:         nationality,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func optionalGPA(v *float64) (*shared.GPA, error) {
	if v == nil {
		return nil, nil
	}
	g, err := shared.NewGPA(*v)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func validAge(v *int) bool {
	return v == nil || (*v >= MinAge && *v <= MaxAge)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func normalizeMajors(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, m := range raw {
		major := strings.TrimSpace(m)
		if major == "" {
			continue
		}
		if len(major) > MaxMajorLength {
			return nil, ErrInvalidMajors
		}
		key := strings.ToLower(major)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, major)
	}
	if len(out) > MaxMajors {
		return nil, ErrInvalidMajors
	}
	return out, nil
}

func normalizeYears(raw []int) ([]int, error) {
	out := make([]int, 0, len(raw))
	seen := make(map[int]struct{}, len(raw))
	for _, y := range raw {
		if y < MinYearOfStudy || y > MaxYearOfStudy {
			return nil, ErrInvalidYears
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		out = append(out, y)
	}
	return out, nil
}

// Replace переносит новые требования в существующую запись, сохраняя ID и CreatedAt.
func (c *EligibilityCriteria) Replace(next *EligibilityCriteria) {
	id, created := c.ID, c.CreatedAt
	*c = *next
	c.ID = id
	c.CreatedAt = created
	c.UpdatedAt = time.Now().UTC()
}

// Clone создаёт глубокую копию требований.
func (c *EligibilityCriteria) Clone() *EligibilityCriteria {
	out := *c
	if c.MinGPA != nil {
		v := *c.MinGPA
		out.MinGPA = &v
	}
	if c.MaxGPA != nil {
		v := *c.MaxGPA
		out.MaxGPA = &v
	}
	out.MinAge = copyInt(c.MinAge)
	out.MaxAge = copyInt(c.MaxAge)
	out.AllowedMajors = append([]string(nil), c.AllowedMajors...)
	out.AllowedYearsOfStudy = append([]int(nil), c.AllowedYearsOfStudy...)
	return &out
}
