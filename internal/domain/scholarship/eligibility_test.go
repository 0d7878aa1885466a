package scholarship

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

func ptr[T any](v T) *T { return &v }

func TestNewEligibilityCriteria(t *testing.T) {
	base := func() EligibilityParams {
		return EligibilityParams{
			ID:            uuid.NewString(),
			ScholarshipID: uuid.NewString(),
		}
	}

	tests := []struct {
		name   string
		mutate func(p *EligibilityParams)
		want   error
	}{
		{"empty criteria", func(p *EligibilityParams) {}, nil},
		{"gpa range", func(p *EligibilityParams) { p.MinGPA, p.MaxGPA = ptr(2.5), ptr(4.0) }, nil},
		{"gpa inverted", func(p *EligibilityParams) { p.MinGPA, p.MaxGPA = ptr(3.5), ptr(3.0) }, ErrInvalidGPARange},
		{"gpa above scale", func(p *EligibilityParams) { p.MaxGPA = ptr(4.3) }, shared.ErrInvalidGPA},
		{"age inverted", func(p *EligibilityParams) { p.MinAge, p.MaxAge = ptr(30), ptr(18) }, ErrInvalidAgeRange},
		{"negative age", func(p *EligibilityParams) { p.MinAge = ptr(-1) }, ErrInvalidAgeRange},
		{"year out of range", func(p *EligibilityParams) { p.AllowedYearsOfStudy = []int{0, 2} }, ErrInvalidYears},
		{"bad scholarship id", func(p *EligibilityParams) { p.ScholarshipID = "x" }, shared.ErrInvalidUUID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			c, err := NewEligibilityCriteria(p)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.True(t, shared.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, p.ScholarshipID, c.ScholarshipID)
		})
	}
}

func TestEligibilityCriteria_NormalizesSets(t *testing.T) {
	c, err := NewEligibilityCriteria(EligibilityParams{
		ID:                  uuid.NewString(),
		ScholarshipID:       uuid.NewString(),
		AllowedMajors:       []string{" Computer Science", "computer science", "Physics", ""},
		AllowedYearsOfStudy: []int{1, 2, 2, 3},
		Nationality:         "  Kazakhstan ",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Computer Science", "Physics"}, c.AllowedMajors)
	assert.Equal(t, []int{1, 2, 3}, c.AllowedYearsOfStudy)
	assert.Equal(t, "Kazakhstan", c.Nationality)
}

func TestEligibilityCriteria_ReplaceKeepsIdentity(t *testing.T) {
	scholarshipID := uuid.NewString()
	current, err := NewEligibilityCriteria(EligibilityParams{ID: uuid.NewString(), ScholarshipID: scholarshipID})
	require.NoError(t, err)
	next, err := NewEligibilityCriteria(EligibilityParams{ID: uuid.NewString(), ScholarshipID: scholarshipID, MinGPA: ptr(3.0)})
	require.NoError(t, err)

	id, created := current.ID, current.CreatedAt
	current.Replace(next)

	assert.Equal(t, id, current.ID)
	assert.Equal(t, created, current.CreatedAt)
	require.NotNil(t, current.MinGPA)
	assert.Equal(t, shared.GPA(3.0), *current.MinGPA)
}
