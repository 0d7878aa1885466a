package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/scholar-hub/scholarship-hub/internal/application/query"
	"github.com/scholar-hub/scholarship-hub/internal/domain/shared"
	"github.com/scholar-hub/scholarship-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total,omitempty"`
	Page      int       `json:"page,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	HasMore   bool      `json:"has_more,omitempty"`
}

// Error codes returned to clients.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeConflict               = "CONFLICT"
	CodeInvalidState           = "INVALID_STATE"
	CodeCapacityExceeded       = "CAPACITY_EXCEEDED"
	CodeValidation             = "VALIDATION_ERROR"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternal               = "INTERNAL_ERROR"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeEnvelope(w, r, status, JSONResponse{Success: true, Data: data})
}

func writePage(w http.ResponseWriter, r *http.Request, data interface{}, page query.PageInfo) {
	writeEnvelope(w, r, http.StatusOK, JSONResponse{
		Success: true,
		Data:    data,
		Meta: &ResponseMeta{
			Total:   page.Total,
			Page:    page.Page,
			Limit:   page.Limit,
			HasMore: page.HasMore,
		},
	})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, JSONResponse{Error: &APIError{Code: code, Message: message}})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, body JSONResponse) {
	if body.Meta == nil {
		body.Meta = &ResponseMeta{}
	}
	body.Meta.Timestamp = time.Now().UTC()
	body.RequestID = requestIDFrom(r.Context())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// statusFor classifies an error by its domain kind.
func statusFor(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, CodeConflict
	case shared.IsInvalidState(err):
		return http.StatusUnprocessableEntity, CodeInvalidState
	case shared.IsCapacityExceeded(err):
		return http.StatusConflict, CodeCapacityExceeded
	case shared.IsValidation(err):
		return http.StatusBadRequest, CodeValidation
	case shared.IsUnauthorized(err):
		return http.StatusUnauthorized, CodeUnauthorized
	case shared.IsForbidden(err):
		return http.StatusForbidden, CodeForbidden
	case shared.IsConcurrentModification(err):
		return http.StatusConflict, CodeConcurrentModification
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError maps err onto a status and code. Internal errors are logged
// and never echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	message := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}

	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		message = "internal server error"
	}

	writeJSONError(w, r, status, code, message)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

var errBadBody = shared.NewDomainError("http", "Decode", shared.ErrInvalidFormat, "request body must be a valid JSON object")

// decodeJSON reads a JSON body and rejects unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.WrapError("http", "Decode", shared.ErrInvalidFormat, "malformed request body: "+err.Error(), err)
	}
	if dec.More() {
		return errBadBody
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryBoolPtr(r *http.Request, key string) *bool {
	v := strings.ToLower(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	b := v == "true" || v == "1" || v == "yes"
	return &b
}
