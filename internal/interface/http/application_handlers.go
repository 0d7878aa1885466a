package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scholar-hub/scholarship-hub/internal/application/command"
	"github.com/scholar-hub/scholarship-hub/internal/application/query"
	"github.com/scholar-hub/scholarship-hub/internal/domain/application"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATIONS
// ══════════════════════════════════════════════════════════════════════════════

type submitApplicationRequest struct {
	CoverLetter    *string        `json:"cover_letter"`
	AdditionalInfo map[string]any `json:"additional_info"`
	Documents      []string       `json:"documents"`
}

type submitApplicationResponse struct {
	Application       query.ApplicationDTO `json:"application"`
	AvailableSlots    int                  `json:"available_slots"`
	ScholarshipClosed bool                 `json:"scholarship_closed"`
}

// handleSubmitApplication serves POST /scholarships/{ref}/applications.
// The applicant is always the authenticated actor.
func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	actor := actorFrom(r.Context())
	res, err := s.commands.SubmitApplication.Handle(r.Context(), command.SubmitApplicationCommand{
		ScholarshipID:  chi.URLParam(r, "ref"),
		ApplicantID:    actor.ID,
		CoverLetter:    req.CoverLetter,
		AdditionalInfo: req.AdditionalInfo,
		Documents:      req.Documents,
		Actor:          actor,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, submitApplicationResponse{
		Application:       query.NewApplicationDTO(res.Application),
		AvailableSlots:    res.Scholarship.AvailableSlots,
		ScholarshipClosed: res.ScholarshipClosed,
	})
}

func (s *Server) handleListScholarshipApplications(w http.ResponseWriter, r *http.Request) {
	s.listApplications(w, r, query.ListApplicationsQuery{
		ScholarshipID: chi.URLParam(r, "ref"),
	})
}

// handleListApplications serves GET /applications. Without filters only an
// administrator may list; students pass applicant_id=<own id>.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	s.listApplications(w, r, query.ListApplicationsQuery{
		ScholarshipID: r.URL.Query().Get("scholarship_id"),
		ApplicantID:   r.URL.Query().Get("applicant_id"),
	})
}

func (s *Server) listApplications(w http.ResponseWriter, r *http.Request, q query.ListApplicationsQuery) {
	q.Status = application.Status(r.URL.Query().Get("status"))
	q.Page = queryInt(r, "page", 1)
	q.Limit = queryInt(r, "limit", shared.DefaultPageLimit)
	q.Actor = actorFrom(r.Context())

	res, err := s.queries.ListApplications.Handle(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writePage(w, r, res.Items, res.Page)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	dto, err := s.queries.GetApplication.Handle(r.Context(), query.GetApplicationQuery{
		ApplicationID: chi.URLParam(r, "id"),
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

type reviewApplicationRequest struct {
	Decision command.ReviewDecision `json:"decision"`
	Note     *string                `json:"note"`
}

type transitionResponse struct {
	Application  query.ApplicationDTO `json:"application"`
	SlotReleased bool                 `json:"slot_released"`
}

func (s *Server) handleReviewApplication(w http.ResponseWriter, r *http.Request) {
	var req reviewApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.commands.ReviewApplication.Handle(r.Context(), command.ReviewApplicationCommand{
		ApplicationID: chi.URLParam(r, "id"),
		Decision:      req.Decision,
		Note:          req.Note,
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, transitionResponse{
		Application:  query.NewApplicationDTO(res.Application),
		SlotReleased: res.SlotReleased,
	})
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	res, err := s.commands.WithdrawApplication.Handle(r.Context(), command.WithdrawApplicationCommand{
		ApplicationID: chi.URLParam(r, "id"),
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, transitionResponse{
		Application:  query.NewApplicationDTO(res.Application),
		SlotReleased: res.SlotReleased,
	})
}

func (s *Server) handleCancelApplication(w http.ResponseWriter, r *http.Request) {
	res, err := s.commands.CancelApplication.Handle(r.Context(), command.CancelApplicationCommand{
		ApplicationID: chi.URLParam(r, "id"),
		Actor:         actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, transitionResponse{
		Application:  query.NewApplicationDTO(res.Application),
		SlotReleased: res.SlotReleased,
	})
}
