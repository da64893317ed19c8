package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// errorMapping is checked in order; the first sentinel matched by errors.Is
// wins. Insufficient capacity comes before not bookable because a fully
// booked trip carries both.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
	{domain.ErrInsufficientCapacity, http.StatusConflict, "insufficient_capacity"},
	{domain.ErrNotBookable, http.StatusConflict, "not_bookable"},
	{domain.ErrDuplicateActiveBooking, http.StatusConflict, "duplicate_active_booking"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrTransientConflict, http.StatusServiceUnavailable, "transient_conflict"},
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// respondErr translates a service error into an HTTP response. Unknown
// errors are logged and reported as 500 without detail.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, detail(err, m.err))
			return
		}
	}
	s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// detail extracts the human-readable part that follows a wrapped sentinel.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func detail(err, sentinel error) string {
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}

// badRequest reports a request rejected before reaching the service layer
// (e.g. missing or malformed body, unparsable parameter).
func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, "validation_error", message)
}
