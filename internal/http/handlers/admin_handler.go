package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/concierge/internal/admin"
	"github.com/diagnosis/concierge/internal/http/middleware"
	"github.com/diagnosis/concierge/internal/http/response"
	"github.com/diagnosis/concierge/internal/session"
)

const workspaceKey = "admin.workspace"

// AdminHandler exposes the management screens. Each admin session keeps
// its own workspace so search, filter and the local lists survive between
// requests.
type AdminHandler struct{}

func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequireAdmin)
	r.Get("/", h.screens)
	r.Get("/dashboard", h.dashboard)
	r.Route("/{resource}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/upload", h.upload)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/image", h.image)
	})
	return r
}

func workspace(s *session.Session) *admin.Workspace {
	return s.Attach(workspaceKey, func() any {
		return admin.NewWorkspace(s.Store.API(), s.Toasts)
	}).(*admin.Workspace)
}

func (h *AdminHandler) screens(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, workspace(s).Names())
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}
	dash := workspace(s).Dashboard
	if err := dash.Load(r.Context()); err != nil {
		s.Toasts.Error("Failed to load dashboard data")
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, dash.View())
}

func (h *AdminHandler) resource(w http.ResponseWriter, r *http.Request) (admin.Resource, bool) {
	s, ok := currentSession(w, r)
	if !ok {
		return nil, false
	}
	res, ok := workspace(s).Resource(chi.URLParam(r, "resource"))
	if !ok {
		response.NotFound(w, "unknown admin screen")
		return nil, false
	}
	return res, true
}

// list loads the screen on first visit or when refresh=true, then applies
// the q and filter parameters.
func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	refresh, _ := strconv.ParseBool(q.Get("refresh"))
	if !res.Loaded() || refresh {
		if err := res.Load(r.Context()); err != nil {
			fail(w, r, err)
			return
		}
	}
	if _, ok := q["q"]; ok {
		res.SetSearch(q.Get("q"))
	}
	if _, ok := q["filter"]; ok {
		filter := q.Get("filter")
		if filter == "" {
			filter = admin.FilterAll
		}
		res.SetFilter(filter)
	}
	respond(w, r, http.StatusOK, res.View())
}

func (h *AdminHandler) create(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	raw, ok := readRaw(w, r)
	if !ok {
		return
	}
	item, err := res.CreateJSON(r.Context(), raw)
	if err != nil {
		adminError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, item)
}

func (h *AdminHandler) update(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	raw, ok := readRaw(w, r)
	if !ok {
		return
	}
	item, err := res.UpdateJSON(r.Context(), chi.URLParam(r, "id"), raw)
	if err != nil {
		adminError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, item)
}

func (h *AdminHandler) remove(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	if err := res.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		adminError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, nil)
}

func (h *AdminHandler) upload(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	up, closer, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer closer.Close()

	item, err := res.CreateWithFile(r.Context(), up)
	if err != nil {
		adminError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, item)
}

func (h *AdminHandler) image(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resource(w, r)
	if !ok {
		return
	}
	up, closer, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer closer.Close()

	item, err := res.AttachImage(r.Context(), chi.URLParam(r, "id"), up)
	if err != nil {
		adminError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, item)
}

func adminError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, admin.ErrUnsupported) {
		response.WriteError(w, http.StatusMethodNotAllowed, "This screen does not support that action", response.CodeUnsupported)
		return
	}
	fail(w, r, err)
}

func readRaw(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		response.BadRequest(w, "invalid body")
		return nil, false
	}
	return json.RawMessage(raw), true
}
