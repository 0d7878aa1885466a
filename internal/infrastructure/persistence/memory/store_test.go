package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

func newScholarship(t *testing.T, title string, slots int) *scholarship.Scholarship {
	t.Helper()
	s, err := scholarship.NewScholarship(scholarship.NewScholarshipParams{
		ID:            uuid.NewString(),
		OwnerID:       uuid.NewString(),
		Title:         title,
		Description:   "Support for students pursuing engineering degrees.",
		Amount:        shared.Money{Amount: 250000, Currency: "USD"},
		NumberOfSlots: slots,
		Deadline:      time.Now().Add(48 * time.Hour),
		Tags:          []string{"stem"},
	})
	require.NoError(t, err)
	return s
}

func newApplication(t *testing.T, scholarshipID, applicantID string) *application.Application {
	t.Helper()
	a, err := application.NewApplication(application.NewApplicationParams{
		ID:            uuid.NewString(),
		ScholarshipID: scholarshipID,
		ApplicantID:   applicantID,
	})
	require.NoError(t, err)
	return a
}

func TestScholarshipRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewScholarshipRepository(NewStore())

	s := newScholarship(t, "Future Engineers Grant", 3)
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Title, got.Title)

	// Mutating the returned copy must not leak into the store.
	got.Title = "changed outside"
	again, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Title, again.Title)

	bySlug, err := repo.GetBySlug(ctx, s.Slug)
	require.NoError(t, err)
	assert.Equal(t, s.ID, bySlug.ID)

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, scholarship.ErrScholarshipNotFound)
	assert.True(t, shared.IsNotFound(err))
}

func TestScholarshipRepository_SlugUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewScholarshipRepository(NewStore())

	first := newScholarship(t, "Future Engineers Grant", 1)
	second := newScholarship(t, "Future Engineers Grant", 1)

	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, second), scholarship.ErrSlugTaken)

	exists, err := repo.ExistsBySlug(ctx, first.Slug)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestScholarshipRepository_UpdateVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewScholarshipRepository(NewStore())

	s := newScholarship(t, "Future Engineers Grant", 2)
	require.NoError(t, repo.Create(ctx, s))

	a, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	b, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, a.Publish())
	require.NoError(t, repo.Update(ctx, a))
	assert.Equal(t, 2, a.Version)

	require.NoError(t, b.DecreaseAvailableSlots())
	err = repo.Update(ctx, b)
	assert.ErrorIs(t, err, scholarship.ErrStaleScholarship)
	assert.True(t, shared.IsConcurrentModification(err))
}

func TestScholarshipRepository_IncrementViewsKeepsVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewScholarshipRepository(NewStore())

	s := newScholarship(t, "Future Engineers Grant", 2)
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.IncrementViews(ctx, s.ID))
	require.NoError(t, repo.IncrementViews(ctx, s.ID))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
	assert.Equal(t, 1, got.Version)
}

func TestScholarshipRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewScholarshipRepository(NewStore())

	titles := []string{"Alpha Engineering Award", "Beta Medicine Award", "Gamma Engineering Prize"}
	for i, title := range titles {
		s := newScholarship(t, title, i+1)
		s.Amount.Amount = int64(1000 * (i + 1))
		if i != 1 {
			require.NoError(t, s.Publish())
		}
		require.NoError(t, repo.Create(ctx, s))
	}

	items, total, err := repo.List(ctx, scholarship.Filter{Status: scholarship.StatusOpen}, shared.DefaultPagination())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, scholarship.Filter{Search: "AWARD"}, shared.DefaultPagination())
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	items, total, err = repo.List(ctx, scholarship.Filter{SortBy: scholarship.SortByAmount, SortDesc: true}, shared.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Gamma Engineering Prize", items[0].Title)
	assert.Equal(t, "Beta Medicine Award", items[1].Title)

	items, _, err = repo.List(ctx, scholarship.Filter{}, shared.Pagination{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEligibilityRepository_SaveAndCascade(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	scholarships := NewScholarshipRepository(store)
	criteria := NewEligibilityRepository(store)

	s := newScholarship(t, "Future Engineers Grant", 2)
	require.NoError(t, scholarships.Create(ctx, s))

	c, err := scholarship.NewEligibilityCriteria(scholarship.EligibilityParams{
		ID:            uuid.NewString(),
		ScholarshipID: s.ID,
		AllowedMajors: []string{"Physics"},
	})
	require.NoError(t, err)
	require.NoError(t, criteria.Save(ctx, c))

	got, err := criteria.GetByScholarshipID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, c.AllowedMajors, got.AllowedMajors)

	require.NoError(t, scholarships.Delete(ctx, s.ID))
	_, err = criteria.GetByScholarshipID(ctx, s.ID)
	assert.ErrorIs(t, err, scholarship.ErrEligibilityNotFound)
}

func TestApplicationRepository_OneActivePerPair(t *testing.T) {
	ctx := context.Background()
	repo := NewApplicationRepository(NewStore())

	scholarshipID, applicantID := uuid.NewString(), uuid.NewString()

	first := newApplication(t, scholarshipID, applicantID)
	require.NoError(t, first.Submit())
	require.NoError(t, repo.Create(ctx, first))

	dup := newApplication(t, scholarshipID, applicantID)
	assert.ErrorIs(t, repo.Create(ctx, dup), application.ErrAlreadyApplied)

	applied, err := repo.HasApplied(ctx, applicantID, scholarshipID)
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, first.Cancel())
	require.NoError(t, repo.Update(ctx, first))

	applied, err = repo.HasApplied(ctx, applicantID, scholarshipID)
	require.NoError(t, err)
	assert.False(t, applied)

	again := newApplication(t, scholarshipID, applicantID)
	require.NoError(t, repo.Create(ctx, again))

	n, err := repo.CountByScholarship(ctx, scholarshipID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserRepository_EmailUnique(t *testing.T) {
	user.SetHashCost(4)
	ctx := context.Background()
	repo := NewUserRepository(NewStore())

	newUser := func(email string) *user.User {
		u, err := user.NewUser(user.NewUserParams{
			ID:        uuid.NewString(),
			Email:     email,
			Password:  "correct-horse-42",
			Role:      user.RoleStudent,
			FirstName: "Ada",
			LastName:  "Lovelace",
		})
		require.NoError(t, err)
		return u
	}

	u := newUser("ada@example.com")
	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, newUser("ADA@example.com")), user.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

func TestWithinTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	scholarships := NewScholarshipRepository(store)
	applications := NewApplicationRepository(store)

	s := newScholarship(t, "Future Engineers Grant", 1)
	require.NoError(t, s.Publish())
	require.NoError(t, scholarships.Create(ctx, s))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := scholarships.GetByIDForUpdate(ctx, s.ID)
		if err != nil {
			return err
		}
		if err := locked.DecreaseAvailableSlots(); err != nil {
			return err
		}
		if err := scholarships.Update(ctx, locked); err != nil {
			return err
		}
		if err := applications.Create(ctx, newApplication(t, s.ID, uuid.NewString())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := scholarships.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSlots)
	assert.Equal(t, s.Version, got.Version)

	n, err := applications.CountByScholarship(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, store.rowLocks.size())
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	scholarships := NewScholarshipRepository(store)

	s := newScholarship(t, "Future Engineers Grant", 1)

	assert.Panics(t, func() {
		_ = store.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, scholarships.Create(ctx, s))
			panic("handler bug")
		})
	})

	_, err := scholarships.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, scholarship.ErrScholarshipNotFound)
}

func TestWithinTx_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	scholarships := NewScholarshipRepository(store)

	s := newScholarship(t, "Future Engineers Grant", 1)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context) error {
		if err := store.WithinTx(ctx, func(ctx context.Context) error {
			return scholarships.Create(ctx, s)
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = scholarships.GetByID(ctx, s.ID)
	assert.ErrorIs(t, err, scholarship.ErrScholarshipNotFound)
}

func TestGetByIDForUpdate_Serializes(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	scholarships := NewScholarshipRepository(store)

	const workers = 20
	s := newScholarship(t, "Future Engineers Grant", workers)
	require.NoError(t, s.Publish())
	require.NoError(t, scholarships.Create(ctx, s))

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.WithinTx(ctx, func(ctx context.Context) error {
				locked, err := scholarships.GetByIDForUpdate(ctx, s.ID)
				if err != nil {
					return err
				}
				if err := locked.DecreaseAvailableSlots(); err != nil {
					return err
				}
				return scholarships.Update(ctx, locked)
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := scholarships.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvailableSlots)
	assert.Equal(t, 1+workers, got.Version)
	assert.Zero(t, store.rowLocks.size())
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	km := newKeyedMutex()

	unlock, err := km.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = km.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, km.size())
}
