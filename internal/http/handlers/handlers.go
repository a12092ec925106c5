// Package handlers exposes the session, booking flow, public site and
// admin screens to the browser as JSON over chi routes.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/http/middleware"
	"github.com/diagnosis/concierge/internal/http/response"
	"github.com/diagnosis/concierge/internal/session"
	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/pkg/logger"
)

const maxUploadBytes = 10 << 20

// respond writes data in the envelope, draining the session's toasts and
// pending navigation.
func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	s := middleware.Session(r)
	env := response.Envelope{Data: data}
	if s != nil {
		env.Toasts = s.Toasts.Drain()
		env.Redirect = s.Nav.Take()
	}
	response.WriteJSON(w, status, env)
}

// fail writes a classified error with the session's pending toasts.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	s := middleware.Session(r)
	if s == nil {
		response.WriteAPIError(w, err, nil, "")
		return
	}
	status, _ := response.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}
	response.WriteAPIError(w, err, s.Toasts.Drain(), s.Nav.Take())
}

func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := middleware.Session(r)
	if s == nil {
		response.InternalError(w, "session unavailable")
		return nil, false
	}
	return s, true
}

// currentToasts is the session's tray, or a throwaway one outside a session.
func currentToasts(r *http.Request) *toast.Tray {
	if s := middleware.Session(r); s != nil {
		return s.Toasts
	}
	return toast.NewTray()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid json")
		return false
	}
	return true
}

// readUpload pulls the "file" part and every plain form field from a
// multipart request. Callers must close the returned upload body.
func readUpload(w http.ResponseWriter, r *http.Request) (api.Upload, io.Closer, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return api.Upload{}, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "file is required")
		return api.Upload{}, nil, false
	}

	fields := map[string]string{}
	for k, vs := range r.MultipartForm.Value {
		if len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
			fields[k] = vs[0]
		}
	}
	return api.Upload{Field: "file", Filename: header.Filename, Body: file, Fields: fields}, file, true
}
