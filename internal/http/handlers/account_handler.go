package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/http/response"
)

// AccountHandler serves the signed-in client's own records.
type AccountHandler struct{}

func NewAccountHandler() *AccountHandler {
	return &AccountHandler{}
}

func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/bookings", h.bookings)
	r.Get("/subscriptions", h.subscriptions)
	r.Get("/documents", h.documents)
	r.Post("/documents", h.uploadDocument)
	r.Delete("/documents/{id}", h.deleteDocument)
	r.Post("/alerts", h.raiseAlert)
	return r
}

// client returns the session's client, rejecting anonymous sessions.
func (h *AccountHandler) client(w http.ResponseWriter, r *http.Request) (*api.Client, bool) {
	s, ok := currentSession(w, r)
	if !ok {
		return nil, false
	}
	if !s.Store.IsAuthenticated() {
		response.Unauthorized(w, "login required")
		return nil, false
	}
	return s.Store.API(), true
}

func (h *AccountHandler) bookings(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	out, err := c.ListMyBookings(r.Context())
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	respond(w, r, http.StatusOK, out)
}

func (h *AccountHandler) subscriptions(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	out, err := c.ListMySubscriptions(r.Context())
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	respond(w, r, http.StatusOK, out)
}

func (h *AccountHandler) documents(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	out, err := c.ListDocuments(r.Context())
	if err != nil {
		fail(w, r, apierr.Classify(apierr.OpGeneric, err))
		return
	}
	respond(w, r, http.StatusOK, out)
}

func (h *AccountHandler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	up, closer, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer closer.Close()

	s := currentToasts(r)
	doc, err := c.UploadDocument(r.Context(), up.Filename, up.Body, up.Fields["type"])
	if err != nil {
		e := apierr.Classify(apierr.OpGeneric, err)
		s.Error(apierr.Message(e))
		fail(w, r, e)
		return
	}
	s.Success("Document uploaded successfully")
	respond(w, r, http.StatusCreated, doc)
}

func (h *AccountHandler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	s := currentToasts(r)
	if err := c.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
		e := apierr.Classify(apierr.OpGeneric, err)
		s.Error(apierr.Message(e))
		fail(w, r, e)
		return
	}
	s.Success("Document deleted successfully")
	respond(w, r, http.StatusOK, nil)
}

func (h *AccountHandler) raiseAlert(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	var in struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		fail(w, r, apierr.Validation(apierr.OpGeneric, map[string]string{"message": "Message is required"}))
		return
	}

	s := currentToasts(r)
	alert, err := c.CreateEmergencyAlert(r.Context(), domain.EmergencyAlert{
		Message:  strings.TrimSpace(in.Message),
		Location: strings.TrimSpace(in.Location),
	})
	if err != nil {
		e := apierr.Classify(apierr.OpGeneric, err)
		s.Error(apierr.Message(e))
		fail(w, r, e)
		return
	}
	s.Success("Emergency alert sent. Our team has been notified.")
	respond(w, r, http.StatusCreated, alert)
}
