package application

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

func newDraft(t *testing.T) *Application {
	t.Helper()
	letter := strings.Repeat("a", 150)
	a, err := NewApplication(NewApplicationParams{
		ID:             uuid.NewString(),
		ScholarshipID:  uuid.NewString(),
		ApplicantID:    uuid.NewString(),
		CoverLetter:    &letter,
		AdditionalInfo: map[string]any{"gpa": 3.8},
		Documents:      []string{"https://files.example.com/transcript.pdf"},
	})
	require.NoError(t, err)
	return a
}

func TestNewApplication_Validation(t *testing.T) {
	short := strings.Repeat("x", 99)
	long := strings.Repeat("x", 2001)
	exact := strings.Repeat("я", 100)

	tests := []struct {
		name   string
		params func() NewApplicationParams
		want   error
	}{
		{"short cover letter", func() NewApplicationParams {
			return NewApplicationParams{ID: uuid.NewString(), ScholarshipID: uuid.NewString(), ApplicantID: uuid.NewString(), CoverLetter: &short}
		}, ErrInvalidCoverLetter},
		{"long cover letter", func() NewApplicationParams {
			return NewApplicationParams{ID: uuid.NewString(), ScholarshipID: uuid.NewString(), ApplicantID: uuid.NewString(), CoverLetter: &long}
		}, ErrInvalidCoverLetter},
		{"multibyte letter counts runes", func() NewApplicationParams {
			return NewApplicationParams{ID: uuid.NewString(), ScholarshipID: uuid.NewString(), ApplicantID: uuid.NewString(), CoverLetter: &exact}
		}, nil},
		{"no cover letter", func() NewApplicationParams {
			return NewApplicationParams{ID: uuid.NewString(), ScholarshipID: uuid.NewString(), ApplicantID: uuid.NewString()}
		}, nil},
		{"bad applicant id", func() NewApplicationParams {
			return NewApplicationParams{ID: uuid.NewString(), ScholarshipID: uuid.NewString(), ApplicantID: "me"}
		}, shared.ErrInvalidUUID},
		{"bad document url", func() NewApplicationParams {
			return NewApplicationParams{ID: uuid.NewString(), ScholarshipID: uuid.NewString(), ApplicantID: uuid.NewString(), Documents: []string{"ftp://x/y"}}
		}, shared.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewApplication(tt.params())
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusDraft, a.Status)
		})
	}
}

func TestApplication_SubmitWithdrawThenApprove(t *testing.T) {
	a := newDraft(t)

	require.NoError(t, a.Submit())
	assert.Equal(t, StatusSubmitted, a.Status)
	assert.NotNil(t, a.SubmittedAt)

	require.NoError(t, a.Withdraw())
	assert.Equal(t, StatusWithdrawn, a.Status)

	err := a.Approve(uuid.NewString(), nil)
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, StatusWithdrawn, a.Status)
}

func TestApplication_ReviewPipeline(t *testing.T) {
	a := newDraft(t)
	reviewer := uuid.NewString()

	require.NoError(t, a.Submit())
	require.NoError(t, a.StartReview(reviewer))
	assert.Equal(t, StatusUnderReview, a.Status)
	assert.NotNil(t, a.ReviewedAt)

	note := "  strong candidate  "
	require.NoError(t, a.Approve(reviewer, &note))
	assert.Equal(t, StatusApproved, a.Status)
	assert.NotNil(t, a.DecidedAt)
	require.NotNil(t, a.DecisionNote)
	assert.Equal(t, "strong candidate", *a.DecisionNote)
	require.NotNil(t, a.ReviewedBy)
	assert.Equal(t, reviewer, *a.ReviewedBy)

	require.NoError(t, a.Award())
	assert.Equal(t, StatusAwarded, a.Status)
	assert.True(t, a.HoldsSlot())
}

// Every transition not listed in the lifecycle must fail with ErrInvalidState.
func TestApplication_TransitionMatrix(t *testing.T) {
	reviewer := uuid.NewString()
	actions := map[string]func(a *Application) error{
		"submit":       (*Application).Submit,
		"start_review": func(a *Application) error { return a.StartReview(reviewer) },
		"approve":      func(a *Application) error { return a.Approve(reviewer, nil) },
		"reject":       func(a *Application) error { return a.Reject(reviewer, nil) },
		"award":        (*Application).Award,
		"withdraw":     (*Application).Withdraw,
		"cancel":       (*Application).Cancel,
	}

	allowed := map[Status]map[string]Status{
		StatusDraft:       {"submit": StatusSubmitted, "cancel": StatusCancelled},
		StatusSubmitted:   {"start_review": StatusUnderReview, "approve": StatusApproved, "reject": StatusRejected, "withdraw": StatusWithdrawn, "cancel": StatusCancelled},
		StatusUnderReview: {"approve": StatusApproved, "reject": StatusRejected, "withdraw": StatusWithdrawn, "cancel": StatusCancelled},
		StatusApproved:    {"award": StatusAwarded},
		StatusRejected:    {},
		StatusAwarded:     {},
		StatusWithdrawn:   {},
		StatusCancelled:   {},
	}

	for from, targets := range allowed {
		for name, action := range actions {
			t.Run(string(from)+"/"+name, func(t *testing.T) {
				a := newDraft(t)
				a.Status = from

				err := action(a)
				if to, ok := targets[name]; ok {
					require.NoError(t, err)
					assert.Equal(t, to, a.Status)
					return
				}
				assert.ErrorIs(t, err, shared.ErrInvalidState)
				assert.Equal(t, from, a.Status)
			})
		}
	}
}

func TestApplication_DraftOnlyEdits(t *testing.T) {
	a := newDraft(t)
	letter := strings.Repeat("b", 120)

	require.NoError(t, a.UpdateCoverLetter(&letter))
	require.NoError(t, a.UpdateAdditionalInfo(map[string]any{"major": "physics"}))
	assert.Equal(t, "physics", a.AdditionalInfo["major"])

	require.NoError(t, a.Submit())
	assert.ErrorIs(t, a.UpdateCoverLetter(&letter), ErrNotDraft)
	assert.ErrorIs(t, a.UpdateAdditionalInfo(nil), ErrNotDraft)
}

func TestApplication_DecisionNoteTooLong(t *testing.T) {
	a := newDraft(t)
	require.NoError(t, a.Submit())

	note := strings.Repeat("n", MaxDecisionNoteLength+1)
	assert.ErrorIs(t, a.Reject(uuid.NewString(), &note), ErrInvalidDecisionNote)
	assert.Equal(t, StatusSubmitted, a.Status)
}

func TestStatus_HoldsSlot(t *testing.T) {
	holding := []Status{StatusSubmitted, StatusUnderReview, StatusApproved, StatusAwarded}
	free := []Status{StatusDraft, StatusRejected, StatusWithdrawn, StatusCancelled}

	for _, s := range holding {
		assert.True(t, s.HoldsSlot(), s)
	}
	for _, s := range free {
		assert.False(t, s.HoldsSlot(), s)
	}
}

func TestApplication_CloneIsDeep(t *testing.T) {
	a := newDraft(t)
	c := a.Clone()

	c.AdditionalInfo["gpa"] = 1.0
	c.Documents[0] = "https://elsewhere.example.com"
	*c.CoverLetter = "changed"

	assert.Equal(t, 3.8, a.AdditionalInfo["gpa"])
	assert.Equal(t, "https://files.example.com/transcript.pdf", a.Documents[0])
	assert.NotEqual(t, "changed", *a.CoverLetter)
}
