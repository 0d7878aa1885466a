package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/x?sslmode=disable":   "pgx5://u:p@db:5432/x?sslmode=disable",
		"postgresql://u:p@db:5432/x?sslmode=disable": "pgx5://u:p@db:5432/x?sslmode=disable",
		"pgx5://u:p@db:5432/x":                       "pgx5://u:p@db:5432/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestPoolConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "postgres://u:p@db:5432/x?sslmode=disable"
	cfg.MaxConns = 7
	cfg.StatementTimeout = 3 * time.Second

	pc, err := cfg.PoolConfig()
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, "3000", pc.ConnConfig.RuntimeParams["statement_timeout"])

	_, err = Config{URL: "://bad"}.PoolConfig()
	assert.Error(t, err)
}

func TestScholarshipOrder(t *testing.T) {
	assert.Equal(t, []string{"created_at ASC", "id ASC"}, scholarshipOrder("", false))
	assert.Equal(t, []string{"amount DESC", "id ASC"}, scholarshipOrder(scholarship.SortByAmount, true))
	assert.Equal(t, []string{"deadline ASC", "id ASC"}, scholarshipOrder(scholarship.SortByDeadline, false))
}

func TestScholarshipWhere(t *testing.T) {
	featured := true
	sql, args, err := scholarshipWhere(scholarship.Filter{
		Status:   scholarship.StatusOpen,
		Featured: &featured,
		Tag:      " STEM ",
		Search:   "50%_off",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "status = ?")
	assert.Contains(t, sql, "? = ANY(tags)")
	assert.Contains(t, sql, "title ILIKE ?")
	assert.Equal(t, []interface{}{"OPEN", true, "stem", `%50\%\_off%`, `%50\%\_off%`}, args)
}

// ══════════════════════════════════════════════════════════════════════════════
// INTEGRATION
// ══════════════════════════════════════════════════════════════════════════════

// setupTestDB starts PostgreSQL in a container and applies migrations.
func setupTestDB(t *testing.T) *Connection {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("scholarships_test"),
		tcpostgres.WithUsername("scholar"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	status, err := NewMigrator(dsn, logger.Nop()).Up()
	require.NoError(t, err)
	assert.Equal(t, uint(1), status.Version)
	assert.False(t, status.Dirty)

	cfg := DefaultConfig()
	cfg.URL = dsn
	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	return conn
}

func seedUser(ctx context.Context, t *testing.T, repo *UserRepository, role user.Role) *user.User {
	t.Helper()
	user.SetHashCost(4)

	u, err := user.NewUser(user.NewUserParams{
		ID:        uuid.NewString(),
		Email:     uuid.NewString()[:8] + "@example.com",
		Password:  "integration1",
		Role:      role,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))
	return u
}

func seedScholarship(t *testing.T, repo *ScholarshipRepository, ownerID string, slots int) *scholarship.Scholarship {
	t.Helper()

	s, err := scholarship.NewScholarship(scholarship.NewScholarshipParams{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Title:         "Integration Grant " + uuid.NewString()[:8],
		Description:   "A scholarship used by the integration suite.",
		Amount:        shared.Money{Amount: 100000, Currency: "USD"},
		NumberOfSlots: slots,
		Deadline:      time.Now().Add(24 * time.Hour),
		Tags:          []string{"stem"},
	})
	require.NoError(t, err)
	require.NoError(t, s.Publish())
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestIntegration_ScholarshipRoundTrip(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(conn)
	scholarships := NewScholarshipRepository(conn)
	criteria := NewEligibilityRepository(conn)

	sponsor := seedUser(ctx, t, users, user.RoleSponsor)
	s := seedScholarship(t, scholarships, sponsor.ID, 3)

	got, err := scholarships.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Slug, got.Slug)
	assert.Equal(t, "USD", got.Amount.Currency)
	assert.Equal(t, []string{"stem"}, got.Tags)
	assert.Equal(t, scholarship.StatusOpen, got.Status)

	require.NoError(t, got.DecreaseAvailableSlots())
	require.NoError(t, scholarships.Update(ctx, got))
	assert.Equal(t, 2, got.Version)

	// The copy read before the update is now stale.
	err = scholarships.Update(ctx, s)
	assert.ErrorIs(t, err, scholarship.ErrStaleScholarship)

	items, total, err := scholarships.List(ctx, scholarship.Filter{Tag: "STEM"}, shared.DefaultPagination())
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)

	gpa := 3.0
	c, err := scholarship.NewEligibilityCriteria(scholarship.EligibilityParams{
		ID:                  uuid.NewString(),
		ScholarshipID:       s.ID,
		MinGPA:              &gpa,
		AllowedYearsOfStudy: []int{1, 2},
	})
	require.NoError(t, err)
	require.NoError(t, criteria.Save(ctx, c))

	require.NoError(t, scholarships.Delete(ctx, s.ID))
	_, err = criteria.GetByScholarshipID(ctx, s.ID)
	assert.ErrorIs(t, err, scholarship.ErrEligibilityNotFound)
}

func TestIntegration_OneLiveApplicationPerPair(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(conn)
	scholarships := NewScholarshipRepository(conn)
	applications := NewApplicationRepository(conn)

	sponsor := seedUser(ctx, t, users, user.RoleSponsor)
	student := seedUser(ctx, t, users, user.RoleStudent)
	s := seedScholarship(t, scholarships, sponsor.ID, 5)

	first, err := application.NewApplication(application.NewApplicationParams{
		ID:             uuid.NewString(),
		ScholarshipID:  s.ID,
		ApplicantID:    student.ID,
		AdditionalInfo: map[string]any{"essay": "why me"},
	})
	require.NoError(t, err)
	require.NoError(t, first.Submit())
	require.NoError(t, applications.Create(ctx, first))

	got, err := applications.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "why me", got.AdditionalInfo["essay"])

	dup, err := application.NewApplication(application.NewApplicationParams{
		ID:            uuid.NewString(),
		ScholarshipID: s.ID,
		ApplicantID:   student.ID,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, applications.Create(ctx, dup), application.ErrAlreadyApplied)

	require.NoError(t, got.Cancel())
	require.NoError(t, applications.Update(ctx, got))
	require.NoError(t, applications.Create(ctx, dup))

	err = scholarships.Delete(ctx, s.ID)
	assert.ErrorIs(t, err, scholarship.ErrHasApplications)
}

func TestIntegration_RowLockAdmitsOne(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(conn)
	scholarships := NewScholarshipRepository(conn)

	sponsor := seedUser(ctx, t, users, user.RoleSponsor)
	s := seedScholarship(t, scholarships, sponsor.ID, 1)

	const workers = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- conn.WithinTx(ctx, func(ctx context.Context) error {
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

	var ok, full int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, scholarship.ErrNoSlotsAvailable):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, full)

	got, err := scholarships.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvailableSlots)
}

func TestIntegration_WithinTxRollsBack(t *testing.T) {
	conn := setupTestDB(t)
	ctx := context.Background()

	users := NewUserRepository(conn)
	boom := errors.New("boom")

	var id string
	err := conn.WithinTx(ctx, func(ctx context.Context) error {
		u := seedUser(ctx, t, users, user.RoleStudent)
		id = u.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = users.GetByID(ctx, id)
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}
