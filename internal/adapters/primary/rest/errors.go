package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jupiterclapton/cenackle/services/discovery-service/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// statusClientClosedRequest is nginx's 499: the client went away before the
// answer was ready. Nobody reads the body.
const statusClientClosedRequest = 499

// apiError is the transport view of a domain failure.
type apiError struct {
	status  int
	code    string
	message string
	field   string
}

// mapDomainError is the only place where domain errors become status codes.
func mapDomainError(err error) apiError {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return apiError{http.StatusBadRequest, "validation_failed", ve.Error(), ve.Field}
	case errors.Is(err, domain.ErrValidation):
		return apiError{http.StatusBadRequest, "validation_failed", err.Error(), ""}
	case errors.Is(err, domain.ErrNotFound):
		return apiError{http.StatusNotFound, "not_found", "resource not found", ""}
	case errors.Is(err, domain.ErrConflict):
		return apiError{http.StatusConflict, "conflict", "already exists", ""}
	case errors.Is(err, domain.ErrUnauthenticated):
		return apiError{http.StatusUnauthorized, "unauthenticated", "authentication required", ""}
	case errors.Is(err, domain.ErrUnauthorized):
		return apiError{http.StatusForbidden, "forbidden", "not allowed", ""}
	case errors.Is(err, domain.ErrRateLimited):
		return apiError{http.StatusTooManyRequests, "rate_limited", "too many requests", ""}
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return apiError{http.StatusServiceUnavailable, "upstream_unavailable", "a dependency is unavailable, retry later", ""}
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apiError{http.StatusGatewayTimeout, "timeout", "request timed out", ""}
	case errors.Is(err, domain.ErrCanceled), errors.Is(err, context.Canceled):
		return apiError{statusClientClosedRequest, "canceled", "request canceled", ""}
	default:
		return apiError{http.StatusInternalServerError, "internal", "internal error", ""}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := mapDomainError(err)
	if e.status == http.StatusInternalServerError {
		slog.Error("Unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("Request rejected", "path", r.URL.Path, "code", e.code, "error", err)
	}
	writeJSON(w, e.status, errorResponse{Error: e.code, Message: e.message, Field: e.field})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
