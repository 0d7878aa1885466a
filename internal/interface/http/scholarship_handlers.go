package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/application/query"
	"github.com/scholar-hub/scholarship-hub/internal/domain/scholarship"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP READS
// ══════════════════════════════════════════════════════════════════════════════

// handleListScholarships serves GET /scholarships.
func (s *Server) handleListScholarships(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.queries.ListScholarships.Handle(r.Context(), query.ListScholarshipsQuery{
		Status:   scholarship.Status(q.Get("status")),
		OwnerID:  q.Get("owner_id"),
		Featured: queryBoolPtr(r, "featured"),
		Tag:      q.Get("tag"),
		Search:   q.Get("q"),
		SortBy:   scholarship.SortField(q.Get("sort")),
		SortDesc: q.Get("order") == "desc",
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", shared.DefaultPageLimit),
		Actor:    actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, res.Items, res.Page)
}

// handleGetScholarship serves GET /scholarships/{ref}, ref being an id or a slug.
func (s *Server) handleGetScholarship(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	q := query.GetScholarshipQuery{CountView: s.config.CountViews, Actor: actorFrom(r.Context())}
	if shared.IsUUID(ref) {
		q.ID = ref
	} else {
		q.Slug = ref
	}

	res, err := s.queries.GetScholarship.Handle(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleGetEligibility(w http.ResponseWriter, r *http.Request) {
	res, err := s.queries.GetEligibility.Handle(r.Context(), query.GetEligibilityQuery{
		ScholarshipID: chi.URLParam(r, "ref"),
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHOLARSHIP WRITES
// ══════════════════════════════════════════════════════════════════════════════

type createScholarshipRequest struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Slug          string     `json:"slug"`
	Amount        int64      `json:"amount"`
	Currency      string     `json:"currency"`
	NumberOfSlots int        `json:"number_of_slots"`
	Deadline      time.Time  `json:"deadline"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Featured      bool       `json:"featured"`
	Tags          []string   `json:"tags"`
	OwnerID       string     `json:"owner_id"`
}

func (s *Server) handleCreateScholarship(w http.ResponseWriter, r *http.Request) {
	var req createScholarshipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.commands.CreateScholarship.Handle(r.Context(), command.CreateScholarshipCommand{
		Title:         req.Title,
		Description:   req.Description,
		Slug:          req.Slug,
		Amount:        req.Amount,
		Currency:      req.Currency,
		NumberOfSlots: req.NumberOfSlots,
		Deadline:      req.Deadline,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Featured:      req.Featured,
		Tags:          req.Tags,
		OwnerID:       req.OwnerID,
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, query.NewScholarshipDTO(res.Scholarship))
}

type updateScholarshipRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Amount          *int64     `json:"amount"`
	Currency        *string    `json:"currency"`
	Deadline        *time.Time `json:"deadline"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Featured        *bool      `json:"featured"`
	Tags            []string   `json:"tags"`
	ExpectedVersion *int       `json:"version"`
}

func (s *Server) handleUpdateScholarship(w http.ResponseWriter, r *http.Request) {
	var req updateScholarshipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.commands.UpdateScholarship.Handle(r.Context(), command.UpdateScholarshipCommand{
		ScholarshipID:   chi.URLParam(r, "ref"),
		Title:           req.Title,
		Description:     req.Description,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Deadline:        req.Deadline,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Featured:        req.Featured,
		Tags:            req.Tags,
		ExpectedVersion: req.ExpectedVersion,
		Actor:           actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewScholarshipDTO(updated))
}

func (s *Server) handleDeleteScholarship(w http.ResponseWriter, r *http.Request) {
	err := s.commands.DeleteScholarship.Handle(r.Context(), command.DeleteScholarshipCommand{
		ScholarshipID: chi.URLParam(r, "ref"),
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleChangeScholarshipStatus serves POST /scholarships/{ref}/{action}.
func (s *Server) handleChangeScholarshipStatus(action command.ScholarshipAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.commands.ChangeScholarshipStatus.Handle(r.Context(), command.ChangeScholarshipStatusCommand{
			ScholarshipID: chi.URLParam(r, "ref"),
			Action:        action,
			Actor:         actorFrom(r.Context()),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, query.NewScholarshipDTO(res.Scholarship))
	}
}

type adjustSlotsRequest struct {
	AvailableSlots int `json:"available_slots"`
}

func (s *Server) handleAdjustSlots(w http.ResponseWriter, r *http.Request) {
	var req adjustSlotsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.commands.AdjustAvailableSlots.Handle(r.Context(), command.AdjustAvailableSlotsCommand{
		ScholarshipID:  chi.URLParam(r, "ref"),
		AvailableSlots: req.AvailableSlots,
		Actor:          actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewScholarshipDTO(updated))
}

type eligibilityRequest struct {
	MinGPA              *float64 `json:"min_gpa"`
	MaxGPA              *float64 `json:"max_gpa"`
	AllowedMajors       []string `json:"allowed_majors"`
	AllowedYearsOfStudy []int    `json:"allowed_years_of_study"`
	MinAge              *int     `json:"min_age"`
	MaxAge              *int     `json:"max_age"`
	Nationality         string   `json:"nationality"`
}

func (s *Server) handleSetEligibility(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := s.commands.SetEligibility.Handle(r.Context(), command.SetEligibilityCriteriaCommand{
		ScholarshipID:       chi.URLParam(r, "ref"),
		MinGPA:              req.MinGPA,
		MaxGPA:              req.MaxGPA,
		AllowedMajors:       req.AllowedMajors,
		AllowedYearsOfStudy: req.AllowedYearsOfStudy,
		MinAge:              req.MinAge,
		MaxAge:              req.MaxAge,
		Nationality:         req.Nationality,
		Actor:               actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.NewEligibilityDTO(c))
}

func (s *Server) handleRemoveEligibility(w http.ResponseWriter, r *http.Request) {
	err := s.commands.RemoveEligibility.Handle(r.Context(), command.RemoveEligibilityCriteriaCommand{
		ScholarshipID: chi.URLParam(r, "ref"),
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
