package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/persistence/memory"
	"github.com/scholar-hub/scholarship-hub/internal/infrastructure/service"
	"github.com/scholar-hub/scholarship-hub/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST HARNESS
// ══════════════════════════════════════════════════════════════════════════════

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Meta      *ResponseMeta   `json:"meta"`
	RequestID string          `json:"request_id"`
}

type testEnv struct {
	t      *testing.T
	server *Server
	repos  service.Repositories
	tokens *TokenIssuer
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Dependencies)) *testEnv {
	t.Helper()
	user.SetHashCost(4)

	repos := service.NewMemoryRepositories(memory.NewStore())
	tokens := NewTokenIssuer("test-secret-test-secret-test-secret", "scholarship-hub-test", time.Hour)

	cfg := DefaultConfig()
	cfg.RateLimitRPS = 0
	deps := Dependencies{
		App:    service.NewContainer(repos, nil, nil),
		Tokens: tokens,
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}

	srv, err := NewServer(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	return &testEnv{t: t, server: srv, repos: repos, tokens: tokens}
}

func (e *testEnv) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (e *testEnv) register(role user.Role, email string) (token, id string) {
	e.t.Helper()

	rec, _ := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":      email,
		"password":   "correct-horse-battery9",
		"role":       string(role),
		"first_name": "Test",
		"last_name":  "User",
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	return e.login(email, "correct-horse-battery9")
}

func (e *testEnv) login(email, password string) (token, id string) {
	e.t.Helper()

	rec, env := e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(e.t, json.Unmarshal(env.Data, &out))
	require.Equal(e.t, "Bearer", out.TokenType)
	return out.AccessToken, out.User.ID
}

func (e *testEnv) seedAdmin() string {
	e.t.Helper()

	u, err := user.NewUser(user.NewUserParams{
		ID:        uuid.NewString(),
		Email:     "admin@example.com",
		Password:  "admin-password1",
		Role:      user.RoleAdmin,
		FirstName: "Ada",
		LastName:  "Admin",
	})
	require.NoError(e.t, err)
	require.NoError(e.t, e.repos.Users.Create(context.Background(), u))

	token, _, err := e.tokens.Issue(u)
	require.NoError(e.t, err)
	return token
}

type scholarshipView struct {
	ID             string `json:"id"`
	Slug           string `json:"slug"`
	Status         string `json:"status"`
	AvailableSlots int    `json:"available_slots"`
	Views          int64  `json:"views"`
}

func (e *testEnv) createScholarship(token string, slots int) scholarshipView {
	e.t.Helper()

	rec, env := e.do(http.MethodPost, "/api/v1/scholarships", token, map[string]interface{}{
		"title":           "Future Engineers Grant",
		"description":     "Funding for first-year engineering students.",
		"amount":          500000,
		"currency":        "USD",
		"number_of_slots": slots,
		"deadline":        time.Now().Add(30 * 24 * time.Hour).UTC(),
		"tags":            []string{"engineering"},
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())

	var s scholarshipView
	require.NoError(e.t, json.Unmarshal(env.Data, &s))
	return s
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH
// ══════════════════════════════════════════════════════════════════════════════

func TestAuthFlow(t *testing.T) {
	e := newTestEnv(t)

	token, id := e.register(user.RoleStudent, "student@example.com")
	assert.NotEmpty(t, token)

	t.Run("duplicate email", func(t *testing.T) {
		rec, env := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"email":      "Student@Example.com",
			"password":   "another-password2",
			"role":       "STUDENT",
			"first_name": "Dup",
			"last_name":  "User",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, CodeConflict, env.Error.Code)
	})

	t.Run("weak password", func(t *testing.T) {
		rec, env := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"email":      "weak@example.com",
			"password":   "correct-horse-battery",
			"role":       "STUDENT",
			"first_name": "Weak",
			"last_name":  "User",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, CodeValidation, env.Error.Code)
	})

	t.Run("admin cannot self-register", func(t *testing.T) {
		rec, _ := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"email":      "root@example.com",
			"password":   "another-password2",
			"role":       "ADMIN",
			"first_name": "Root",
			"last_name":  "User",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec, env := e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "student@example.com",
			"password": "wrong-password3",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, CodeUnauthorized, env.Error.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		rec, env := e.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "student@example.com",
			"password": "correct-horse-battery9",
			"otp":      "123456",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, CodeValidation, env.Error.Code)
	})

	t.Run("current user", func(t *testing.T) {
		rec, env := e.do(http.MethodGet, "/api/v1/users/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var u struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		}
		decodeData(t, env, &u)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, "student@example.com", u.Email)
		assert.Equal(t, "STUDENT", u.Role)
	})

	t.Run("change password", func(t *testing.T) {
		rec, _ := e.do(http.MethodPut, "/api/v1/users/me/password", token, map[string]string{
			"current_password": "correct-horse-battery9",
			"new_password":     "even-better-password4",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		_, _ = e.login("student@example.com", "even-better-password4")
	})
}

func TestRegistrationDisabled(t *testing.T) {
	e := newTestEnv(t, func(c *Config, _ *Dependencies) { c.SelfRegistration = false })

	rec, _ := e.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthentication(t *testing.T) {
	e := newTestEnv(t)
	studentToken, _ := e.register(user.RoleStudent, "student@example.com")

	t.Run("missing token", func(t *testing.T) {
		rec, env := e.do(http.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, CodeUnauthorized, env.Error.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := e.do(http.MethodGet, "/api/v1/scholarships", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("student cannot create scholarships", func(t *testing.T) {
		rec, env := e.do(http.MethodPost, "/api/v1/scholarships", studentToken, map[string]interface{}{
			"title":           "Student Made Scholarship",
			"description":     "Students are not allowed to sponsor anything.",
			"amount":          1000,
			"currency":        "USD",
			"number_of_slots": 1,
			"deadline":        time.Now().Add(time.Hour).UTC(),
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, CodeForbidden, env.Error.Code)
	})

	t.Run("student cannot read other users", func(t *testing.T) {
		rec, _ := e.do(http.MethodGet, "/api/v1/users/"+uuid.NewString(), studentToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIPS & APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

func TestScholarshipLifecycle(t *testing.T) {
	e := newTestEnv(t)
	sponsorToken, sponsorID := e.register(user.RoleSponsor, "sponsor@example.com")

	s := e.createScholarship(sponsorToken, 2)
	assert.Equal(t, "DRAFT", s.Status)
	assert.Equal(t, 2, s.AvailableSlots)

	t.Run("drafts are hidden from the public", func(t *testing.T) {
		rec, _ := e.do(http.MethodGet, "/api/v1/scholarships/"+s.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, env := e.do(http.MethodGet, "/api/v1/scholarships", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, env.Meta.Total)
	})

	t.Run("owner lists drafts", func(t *testing.T) {
		rec, env := e.do(http.MethodGet, "/api/v1/scholarships?status=DRAFT&owner_id="+sponsorID, sponsorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, env.Meta.Total)
	})

	t.Run("publish", func(t *testing.T) {
		rec, env := e.do(http.MethodPost, "/api/v1/scholarships/"+s.ID+"/publish", sponsorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out scholarshipView
		decodeData(t, env, &out)
		assert.Equal(t, "OPEN", out.Status)

		rec, _ = e.do(http.MethodPost, "/api/v1/scholarships/"+s.ID+"/publish", sponsorToken, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("public read by slug counts views", func(t *testing.T) {
		rec, env := e.do(http.MethodGet, "/api/v1/scholarships/"+s.Slug, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out struct {
			Scholarship scholarshipView `json:"scholarship"`
		}
		decodeData(t, env, &out)
		assert.Equal(t, s.ID, out.Scholarship.ID)
		assert.Equal(t, int64(1), out.Scholarship.Views)
	})

	t.Run("catalog filters", func(t *testing.T) {
		rec, env := e.do(http.MethodGet, "/api/v1/scholarships?tag=engineering&q=future", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, env.Meta.Total)

		rec, _ = e.do(http.MethodGet, "/api/v1/scholarships?sort=popularity", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("eligibility", func(t *testing.T) {
		rec, _ := e.do(http.MethodGet, "/api/v1/scholarships/"+s.ID+"/eligibility", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec, _ = e.do(http.MethodPut, "/api/v1/scholarships/"+s.ID+"/eligibility", sponsorToken, map[string]interface{}{
			"min_gpa":        3.0,
			"allowed_majors": []string{"Engineering"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec, env := e.do(http.MethodGet, "/api/v1/scholarships/"+s.ID+"/eligibility", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var c struct {
			MinGPA *float64 `json:"min_gpa"`
		}
		decodeData(t, env, &c)
		require.NotNil(t, c.MinGPA)
		assert.InDelta(t, 3.0, *c.MinGPA, 0.001)

		rec, _ = e.do(http.MethodDelete, "/api/v1/scholarships/"+s.ID+"/eligibility", sponsorToken, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("update requires current version", func(t *testing.T) {
		rec, env := e.do(http.MethodPatch, "/api/v1/scholarships/"+s.ID, sponsorToken, map[string]interface{}{
			"featured": true,
			"version":  1,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, CodeConcurrentModification, env.Error.Code)
	})
}

func TestSubmitUntilCapacity(t *testing.T) {
	e := newTestEnv(t)
	sponsorToken, _ := e.register(user.RoleSponsor, "sponsor@example.com")

	s := e.createScholarship(sponsorToken, 1)
	rec, _ := e.do(http.MethodPost, "/api/v1/scholarships/"+s.ID+"/publish", sponsorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	first, _ := e.register(user.RoleStudent, "first@example.com")
	second, _ := e.register(user.RoleStudent, "second@example.com")

	rec, env := e.do(http.MethodPost, "/api/v1/scholarships/"+s.ID+"/applications", first, map[string]interface{}{
		"cover_letter": "I would love to build bridges.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Application struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"application"`
		AvailableSlots    int  `json:"available_slots"`
		ScholarshipClosed bool `json:"scholarship_closed"`
	}
	decodeData(t, env, &out)
	assert.Equal(t, "SUBMITTED", out.Application.Status)
	assert.Equal(t, 0, out.AvailableSlots)
	assert.True(t, out.ScholarshipClosed)

	rec, env = e.do(http.MethodPost, "/api/v1/scholarships/"+s.ID+"/applications", second, map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, CodeCapacityExceeded, env.Error.Code)

	t.Run("sponsor sees applications", func(t *testing.T) {
		rec, env := e.do(http.MethodGet, "/api/v1/scholarships/"+s.ID+"/applications", sponsorToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, env.Meta.Total)

		rec, _ = e.do(http.MethodGet, "/api/v1/scholarships/"+s.ID+"/applications", second, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("other students cannot read the application", func(t *testing.T) {
		rec, _ := e.do(http.MethodGet, "/api/v1/applications/"+out.Application.ID, second, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = e.do(http.MethodGet, "/api/v1/applications/"+out.Application.ID, first, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejection releases the slot", func(t *testing.T) {
		path := "/api/v1/applications/" + out.Application.ID + "/review"

		rec, _ := e.do(http.MethodPost, path, first, map[string]string{"decision": "start_review"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = e.do(http.MethodPost, path, sponsorToken, map[string]string{"decision": "start_review"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		adminToken := e.seedAdmin()
		rec, _ = e.do(http.MethodPost, path, adminToken, map[string]string{"decision": "start_review"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec, env := e.do(http.MethodPost, path, adminToken, map[string]string{"decision": "reject", "note": "Quota reached"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res struct {
			Application struct {
				Status string `json:"status"`
			} `json:"application"`
			SlotReleased bool `json:"slot_released"`
		}
		decodeData(t, env, &res)
		assert.Equal(t, "REJECTED", res.Application.Status)
		assert.True(t, res.SlotReleased)

		rec, _ = e.do(http.MethodPost, "/api/v1/applications/"+out.Application.ID+"/withdraw", first, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	e := newTestEnv(t)
	adminToken := e.seedAdmin()
	studentToken, studentID := e.register(user.RoleStudent, "student@example.com")

	rec, _ := e.do(http.MethodGet, "/api/v1/applications", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = e.do(http.MethodGet, "/api/v1/applications", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := e.do(http.MethodPut, "/api/v1/users/"+studentID+"/status", adminToken, map[string]string{"action": "suspend"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u struct {
		Status string `json:"status"`
	}
	decodeData(t, env, &u)
	assert.Equal(t, "SUSPENDED", u.Status)

	rec, _ = e.do(http.MethodPut, "/api/v1/users/"+studentID+"/status", studentToken, map[string]string{"action": "activate"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpsertStudentProfile(t *testing.T) {
	e := newTestEnv(t)
	token, id := e.register(user.RoleStudent, "student@example.com")

	rec, _ := e.do(http.MethodPut, "/api/v1/users/"+id+"/profile/student", token, map[string]interface{}{
		"first_name":    "Grace",
		"last_name":     "Hopper",
		"major":         "Mathematics",
		"year_of_study": 2,
		"gpa":           3.8,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := e.do(http.MethodGet, "/api/v1/users/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var u struct {
		StudentProfile *struct {
			Major string `json:"major"`
		} `json:"student_profile"`
	}
	decodeData(t, env, &u)
	require.NotNil(t, u.StudentProfile)
	assert.Equal(t, "Mathematics", u.StudentProfile.Major)
}

// ══════════════════════════════════════════════════════════════════════════════
// INFRASTRUCTURE
// ══════════════════════════════════════════════════════════════════════════════

func TestHealthEndpoints(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	healthy := true
	checker.AddCheck("storage", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("connection refused")
	})

	e := newTestEnv(t, func(_ *Config, d *Dependencies) { d.HealthChecker = checker })

	rec, _ := e.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = e.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec, env := e.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
}

func TestMetricsRoute(t *testing.T) {
	e := newTestEnv(t, func(_ *Config, d *Dependencies) {
		d.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	e := newTestEnv(t, func(c *Config, _ *Dependencies) {
		c.RateLimitRPS = 1
		c.RateLimitBurst = 1
	})

	rec, _ := e.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := e.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, env.Error.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-123", env.RequestID)

	rec, _ = e.do(http.MethodGet, "/health/live", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)

	rec, env := e.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{shared.NewDomainError("x", "op", shared.ErrNotFound, "gone"), http.StatusNotFound, CodeNotFound},
		{shared.NewDomainError("x", "op", shared.ErrAlreadyExists, "dup"), http.StatusConflict, CodeConflict},
		{shared.NewDomainError("x", "op", shared.ErrInvalidState, "no"), http.StatusUnprocessableEntity, CodeInvalidState},
		{shared.NewDomainError("x", "op", shared.ErrCapacityExceeded, "full"), http.StatusConflict, CodeCapacityExceeded},
		{shared.NewDomainError("x", "op", shared.ErrInvalidID, "bad id"), http.StatusBadRequest, CodeValidation},
		{ErrInvalidToken, http.StatusUnauthorized, CodeUnauthorized},
		{user.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{fmt.Errorf("wrapped: %w", shared.ErrConcurrentModification), http.StatusConflict, CodeConcurrentModification},
		{errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := statusFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestWriteErrorHidesInternalErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	writeError(rec, req, errors.New("pq: password authentication failed"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", env.Error.Message)
}
