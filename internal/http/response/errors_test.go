package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/toast"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apierr.Validation(apierr.OpBooking, map[string]string{"date": "Please select a date"}), 422, CodeInvalidInput},
		{"invariant", apierr.Invariant(apierr.OpBooking, "no user"), 409, CodeConflict},
		{"login 401", apierr.Auth(apierr.OpLogin, &apierr.StatusError{Status: 401}), 401, CodeUnauthorized},
		{"register 400", apierr.Auth(apierr.OpRegister, &apierr.StatusError{Status: 400}), 400, CodeInvalidInput},
		{"booking 422", apierr.Submission(&apierr.StatusError{Status: 422}), 422, CodeInvalidInput},
		{"booking 500", apierr.Submission(&apierr.StatusError{Status: 500}), 502, CodeUpstreamError},
		{"upstream 404", apierr.Classify(apierr.OpGeneric, &apierr.StatusError{Status: 404}), 404, CodeNotFound},
		{"upstream 503", apierr.Classify(apierr.OpGeneric, &apierr.StatusError{Status: 503}), 502, CodeUpstreamError},
		{"transport", apierr.Classify(apierr.OpGeneric, &apierr.TransportError{Op: "GET /x", Err: errors.New("refused")}), 502, CodeUpstreamUnavailable},
		{"unclassified", errors.New("boom"), 500, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := StatusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteAPIError_CarriesFieldsAndToasts(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apierr.Validation(apierr.OpLogin, map[string]string{"email": "Email is required"})

	WriteAPIError(rec, err, []toast.Toast{{Level: toast.LevelError, Message: "Please fix the highlighted fields"}}, "")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Please fix the highlighted fields", body.Error)
	assert.Equal(t, "Email is required", body.Fields["email"])
	require.Len(t, body.Toasts, 1)
	assert.Empty(t, body.Redirect)
}

func TestWriteAPIError_UpstreamDetail(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteAPIError(rec, apierr.Submission(&apierr.StatusError{Status: 400, Detail: "Slot taken"}), nil, "")

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Slot taken", body.Error)
	assert.Equal(t, "Slot taken", body.Details)
}
