package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/application/query"
	"github.com/scholar-hub/scholarship-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH
// ══════════════════════════════════════════════════════════════════════════════

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	User        query.UserDTO `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.commands.AuthenticateUser.Handle(r.Context(), command.AuthenticateUserCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        query.NewUserDTO(u),
	})
}

type registerRequest struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      user.Role `json:"role"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.commands.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewUserDTO(u))
}

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	dto, err := s.queries.GetUser.Handle(r.Context(), query.GetUserQuery{Actor: actorFrom(r.Context())})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	dto, err := s.queries.GetUser.Handle(r.Context(), query.GetUserQuery{
		UserID: s.userParam(r),
		Actor:  actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	err := s.commands.ChangePassword.Handle(r.Context(), command.ChangePasswordCommand{
		UserID:          actor.ID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Actor:           actor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changeUserStatusRequest struct {
	Action command.UserStatusAction `json:"action"`
}

func (s *Server) handleChangeUserStatus(w http.ResponseWriter, r *http.Request) {
	var req changeUserStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := s.commands.ChangeUserStatus.Handle(r.Context(), command.ChangeUserStatusCommand{
		UserID: s.userParam(r),
		Action: req.Action,
		Actor:  actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewUserDTO(u))
}

type studentProfileRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Nationality string     `json:"nationality"`
	Major       string     `json:"major"`
	YearOfStudy *int       `json:"year_of_study"`
	GPA         *float64   `json:"gpa"`
	University  string     `json:"university"`
}

func (s *Server) handleUpsertStudentProfile(w http.ResponseWriter, r *http.Request) {
	var req studentProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.commands.UpsertStudentProfile.Handle(r.Context(), command.UpsertStudentProfileCommand{
		UserID:      s.userParam(r),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Nationality: req.Nationality,
		Major:       req.Major,
		YearOfStudy: req.YearOfStudy,
		GPA:         req.GPA,
		University:  req.University,
		Actor:       actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewStudentProfileDTO(p))
}

type sponsorProfileRequest struct {
	OrganizationName string `json:"organization_name"`
	Website          string `json:"website"`
	Description      string `json:"description"`
	Verified         *bool  `json:"verified"`
}

func (s *Server) handleUpsertSponsorProfile(w http.ResponseWriter, r *http.Request) {
	var req sponsorProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.commands.UpsertSponsorProfile.Handle(r.Context(), command.UpsertSponsorProfileCommand{
		UserID:           s.userParam(r),
		OrganizationName: req.OrganizationName,
		Website:          req.Website,
		Description:      req.Description,
		Verified:         req.Verified,
		Actor:            actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewSponsorProfileDTO(p))
}

// userParam resolves the {id} path segment; "me" stands for the caller.
func (s *Server) userParam(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if id == "me" {
		return actorFrom(r.Context()).ID
	}
	return id
}
