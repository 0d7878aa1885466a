package scholarship

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

func newTestScholarship(t *testing.T, slots int) *Scholarship {
	t.Helper()
	s, err := NewScholarship(NewScholarshipParams{
		ID:            uuid.NewString(),
		OwnerID:       uuid.NewString(),
		Title:         "Future Engineers Grant 2026",
		Description:   "Support for first-generation engineering students.",
		Amount:        shared.Money{Amount: 500000, Currency: "USD"},
		NumberOfSlots: slots,
		Deadline:      time.Now().Add(30 * 24 * time.Hour),
		Tags:          []string{"Engineering", "engineering", " STEM "},
	})
	require.NoError(t, err)
	return s
}

func TestNewScholarship_Defaults(t *testing.T) {
	s := newTestScholarship(t, 10)

	assert.Equal(t, StatusDraft, s.Status)
	assert.Equal(t, 10, s.NumberOfSlots)
	assert.Equal(t, 10, s.AvailableSlots)
	assert.Equal(t, shared.Slug("future-engineers-grant-2026"), s.Slug)
	assert.Equal(t, []string{"engineering", "stem"}, s.Tags)
	assert.Nil(t, s.PublishedAt)
	assert.Equal(t, 1, s.Version)
}

func TestNewScholarship_Validation(t *testing.T) {
	valid := NewScholarshipParams{
		ID:            uuid.NewString(),
		OwnerID:       uuid.NewString(),
		Title:         "Future Engineers Grant",
		Description:   "Support for first-generation engineering students.",
		Amount:        shared.Money{Amount: 100, Currency: "EUR"},
		NumberOfSlots: 1,
		Deadline:      time.Now().Add(time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(p *NewScholarshipParams)
		want   error
	}{
		{"short title", func(p *NewScholarshipParams) { p.Title = "Too short" }, ErrInvalidTitle},
		{"bad slug", func(p *NewScholarshipParams) { p.Slug = "Not A Slug" }, shared.ErrInvalidSlug},
		{"zero slots", func(p *NewScholarshipParams) { p.NumberOfSlots = 0 }, ErrInvalidSlots},
		{"past deadline", func(p *NewScholarshipParams) { p.Deadline = time.Now().Add(-time.Minute) }, ErrDeadlineInPast},
		{"bad currency", func(p *NewScholarshipParams) { p.Amount.Currency = "dollars" }, shared.ErrInvalidCurrency},
		{"non-positive amount", func(p *NewScholarshipParams) { p.Amount.Amount = 0 }, shared.ErrInvalidMoney},
		{"bad owner", func(p *NewScholarshipParams) { p.OwnerID = "owner" }, ErrInvalidOwner},
		{"end before start", func(p *NewScholarshipParams) {
			end := time.Now().Add(-24 * time.Hour)
			p.EndDate = &end
		}, ErrInvalidDates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := NewScholarship(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestScholarship_PublishTwice(t *testing.T) {
	s := newTestScholarship(t, 10)

	require.NoError(t, s.Publish())
	assert.Equal(t, StatusOpen, s.Status)
	require.NotNil(t, s.PublishedAt)
	publishedAt := *s.PublishedAt

	err := s.Publish()
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, StatusOpen, s.Status)
	assert.Equal(t, publishedAt, *s.PublishedAt)
}

func TestScholarship_PublishAfterDeadline(t *testing.T) {
	s := newTestScholarship(t, 1)
	s.Deadline = time.Now().Add(-time.Second)

	assert.ErrorIs(t, s.Publish(), ErrDeadlinePassed)
	assert.Equal(t, StatusDraft, s.Status)
}

func TestScholarship_CloseTwice(t *testing.T) {
	s := newTestScholarship(t, 3)
	require.NoError(t, s.Publish())

	require.NoError(t, s.Close())
	assert.Equal(t, StatusClosed, s.Status)

	err := s.Close()
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, StatusClosed, s.Status)
}

func TestScholarship_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		action  func(s *Scholarship) error
		wantErr error
		want    Status
	}{
		{"suspend draft", StatusDraft, (*Scholarship).Suspend, nil, StatusSuspended},
		{"suspend open", StatusOpen, (*Scholarship).Suspend, nil, StatusSuspended},
		{"suspend suspended", StatusSuspended, (*Scholarship).Suspend, ErrCannotSuspend, StatusSuspended},
		{"suspend closed", StatusClosed, (*Scholarship).Suspend, ErrCannotSuspend, StatusClosed},
		{"suspend expired", StatusExpired, (*Scholarship).Suspend, ErrCannotSuspend, StatusExpired},
		{"reopen suspended", StatusSuspended, (*Scholarship).Reopen, nil, StatusOpen},
		{"reopen open", StatusOpen, (*Scholarship).Reopen, ErrNotSuspended, StatusOpen},
		{"reopen closed", StatusClosed, (*Scholarship).Reopen, ErrNotSuspended, StatusClosed},
		{"close draft", StatusDraft, (*Scholarship).Close, ErrNotOpen, StatusDraft},
		{"expire draft", StatusDraft, (*Scholarship).Expire, nil, StatusExpired},
		{"expire closed", StatusClosed, (*Scholarship).Expire, nil, StatusExpired},
		{"expire suspended", StatusSuspended, (*Scholarship).Expire, nil, StatusExpired},
		{"expire expired", StatusExpired, (*Scholarship).Expire, ErrAlreadyExpired, StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScholarship(t, 5)
			s.Status = tt.from

			err := tt.action(s)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, shared.ErrInvalidState)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, s.Status)
		})
	}
}

func TestScholarship_ReopenAfterDeadline(t *testing.T) {
	s := newTestScholarship(t, 2)
	require.NoError(t, s.Suspend())
	s.Deadline = time.Now().Add(-time.Minute)

	assert.ErrorIs(t, s.Reopen(), ErrDeadlinePassed)
	assert.Equal(t, StatusSuspended, s.Status)
}

func TestScholarship_LastSlotClosesScholarship(t *testing.T) {
	s := newTestScholarship(t, 1)
	require.NoError(t, s.Publish())
	require.True(t, s.CanAcceptApplications())

	require.NoError(t, s.DecreaseAvailableSlots())
	assert.Equal(t, 0, s.AvailableSlots)
	assert.Equal(t, StatusClosed, s.Status)
	assert.False(t, s.CanAcceptApplications())

	err := s.DecreaseAvailableSlots()
	assert.True(t, shared.IsCapacityExceeded(err))
	assert.Equal(t, 0, s.AvailableSlots)
}

func TestScholarship_SlotBounds(t *testing.T) {
	s := newTestScholarship(t, 3)
	require.NoError(t, s.Publish())

	assert.ErrorIs(t, s.IncreaseAvailableSlots(), ErrSlotsAtCapacity)
	assert.Equal(t, 3, s.AvailableSlots)

	require.NoError(t, s.DecreaseAvailableSlots())
	require.NoError(t, s.DecreaseAvailableSlots())
	assert.Equal(t, 1, s.AvailableSlots)
	assert.Equal(t, StatusOpen, s.Status)

	require.NoError(t, s.IncreaseAvailableSlots())
	assert.Equal(t, 2, s.AvailableSlots)

	assert.ErrorIs(t, s.AdjustAvailableSlots(4), ErrSlotsOutOfRange)
	assert.ErrorIs(t, s.AdjustAvailableSlots(-1), ErrSlotsOutOfRange)
	require.NoError(t, s.AdjustAvailableSlots(0))

	assert.GreaterOrEqual(t, s.AvailableSlots, 0)
	assert.LessOrEqual(t, s.AvailableSlots, s.NumberOfSlots)
}

func TestScholarship_IncreaseDoesNotReopen(t *testing.T) {
	s := newTestScholarship(t, 1)
	require.NoError(t, s.Publish())
	require.NoError(t, s.DecreaseAvailableSlots())
	require.Equal(t, StatusClosed, s.Status)

	require.NoError(t, s.IncreaseAvailableSlots())
	assert.Equal(t, 1, s.AvailableSlots)
	assert.Equal(t, StatusClosed, s.Status)
}

func TestScholarship_CanAcceptApplicationsChecksDeadline(t *testing.T) {
	s := newTestScholarship(t, 2)
	require.NoError(t, s.Publish())
	s.Deadline = time.Now().Add(-time.Second)

	assert.True(t, s.IsOpen())
	assert.True(t, s.HasAvailableSlots())
	assert.False(t, s.CanAcceptApplications())
}

func TestScholarship_UpdateDetails(t *testing.T) {
	s := newTestScholarship(t, 2)

	title := "Renamed Engineers Grant"
	featured := true
	require.NoError(t, s.UpdateDetails(UpdateDetailsParams{
		Title:       &title,
		Featured:    &featured,
		Tags:        []string{"Robotics"},
		ReplaceTags: true,
	}))
	assert.Equal(t, title, s.Title)
	assert.True(t, s.Featured)
	assert.Equal(t, []string{"robotics"}, s.Tags)

	bad := "short"
	err := s.UpdateDetails(UpdateDetailsParams{Title: &bad, Featured: new(bool)})
	assert.ErrorIs(t, err, ErrInvalidTitle)
	assert.True(t, s.Featured, "failed update must not apply partial changes")

	require.NoError(t, s.Expire())
	assert.ErrorIs(t, s.UpdateDetails(UpdateDetailsParams{Title: &title}), ErrExpiredImmutable)
}

func TestScholarship_CloneIsDeep(t *testing.T) {
	s := newTestScholarship(t, 2)
	c := s.Clone()
	c.Tags[0] = "changed"
	assert.NotEqual(t, "changed", s.Tags[0])
}
