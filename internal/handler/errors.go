package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/chargelog/chargelog/internal/domain"
	"github.com/chargelog/chargelog/internal/session"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON writes v as the JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck — nothing useful to do with a failed response write.
	json.NewEncoder(w).Encode(v)
}

// respondError maps a domain or auth error onto its HTTP status and body.
// Every sentinel in the error taxonomy is recoverable here; anything
// unrecognized is a 500 with a generic message so internals never leak.
func respondError(w http.ResponseWriter, err error) {
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: ErrorDetail{Code: string(authErr.Code), Message: session.MapAuthError(err)},
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		respondJSON(w, http.StatusUnauthorized, errorBody("not_authenticated", err))
	case errors.Is(err, domain.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody("not_found", err))
	case errors.Is(err, domain.ErrValidation):
		respondJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", err))
	case errors.Is(err, domain.ErrInvalidFormat):
		respondJSON(w, http.StatusBadRequest, errorBody("invalid_format", err))
	case errors.Is(err, domain.ErrStoreUnavailable):
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{Code: "store_unavailable", Message: "storage is temporarily unavailable"},
		})
	default:
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "internal", Message: "internal server error"},
		})
	}
}

// requestError writes a 422 for a request rejected before reaching any
// lower layer (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: ErrorDetail{Code: "validation_error", Message: message},
	})
}

func errorBody(code string, err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: unwrapMessage(err)}}
}

// unwrapMessage strips the "pkg.Type.Method: " call-site prefixes from a
// wrapped sentinel error, leaving the human-readable tail.
// e.g. "tracker.Tracker.AddVisit: validation error: location is required"
// becomes "validation error: location is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			return msg
		}
		prefix := msg[:i]
		// Call-site prefixes look like "pkg.Type.Method"; message text has
		// spaces and stops the stripping.
		if strings.ContainsAny(prefix, " \t") {
			return msg
		}
		msg = msg[i+2:]
	}
}
