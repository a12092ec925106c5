package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Details  string            `json:"details,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Toasts   []toast.Toast     `json:"toasts,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	writeError(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	writeError(w, statusCode, ErrorResponse{Error: message, Code: code, Details: details})
}

// WriteAPIError maps a classified error to its HTTP status and writes it
// together with the pending toasts and redirect of the session.
func WriteAPIError(w http.ResponseWriter, err error, toasts []toast.Toast, redirect string) {
	status, code := StatusFor(err)
	resp := ErrorResponse{
		Error:    apierr.Message(err),
		Code:     code,
		Toasts:   toasts,
		Redirect: redirect,
	}
	var e *apierr.Error
	if errors.As(err, &e) {
		resp.Fields = e.Fields
		if e.Status != 0 {
			resp.Details = e.Detail
		}
	}
	writeError(w, status, resp)
}

// StatusFor picks the HTTP status and error code for err. Upstream 4xx
// answers pass through; anything else upstream is reported as a bad gateway.
func StatusFor(err error) (int, string) {
	var e *apierr.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, CodeInternalError
	}

	switch e.Kind {
	case apierr.KindValidation:
		return http.StatusUnprocessableEntity, CodeInvalidInput
	case apierr.KindInvariant:
		return http.StatusConflict, CodeConflict
	case apierr.KindAuth, apierr.KindSubmission, apierr.KindUpstream:
		switch {
		case e.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, CodeUnauthorized
		case e.Status == http.StatusForbidden:
			return http.StatusForbidden, CodeForbidden
		case e.Status == http.StatusNotFound:
			return http.StatusNotFound, CodeNotFound
		case e.Status == http.StatusConflict:
			return http.StatusConflict, CodeConflict
		case e.Status >= 400 && e.Status < 500:
			return e.Status, CodeInvalidInput
		}
		return http.StatusBadGateway, CodeUpstreamError
	default:
		return http.StatusBadGateway, CodeUpstreamUnavailable
	}
}

func writeError(w http.ResponseWriter, statusCode int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// Common error codes
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeRateLimit           = "RATE_LIMIT_EXCEEDED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeUpstreamError       = "UPSTREAM_ERROR"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInFlight            = "REQUEST_IN_FLIGHT"
	CodeWrongStep           = "WRONG_STEP"
	CodeUnsupported         = "UNSUPPORTED"
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}
