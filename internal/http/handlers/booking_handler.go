package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/diagnosis/concierge/internal/booking"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/http/middleware"
	"github.com/diagnosis/concierge/internal/http/response"
	"github.com/diagnosis/concierge/internal/session"
	"github.com/diagnosis/concierge/pkg/config"
	"github.com/diagnosis/concierge/pkg/logger"
)

type BookingHandler struct {
	Flows    *booking.Registry
	Notifier booking.Notifier
	Site     config.SiteConfig

	loc *time.Location
}

func NewBookingHandler(flows *booking.Registry, notifier booking.Notifier, site config.SiteConfig) *BookingHandler {
	return &BookingHandler{Flows: flows, Notifier: notifier, Site: site, loc: site.Location()}
}

// Routes mounts the flow endpoints. submit is wrapped separately so the
// idempotency replay applies only to it.
func (h *BookingHandler) Routes(submit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.start)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Post("/mode", h.mode)
		r.Post("/auth", h.auth)
		r.Post("/categories", h.reloadCategories)
		r.Post("/selection", h.selection)
		r.Post("/next", h.next)
		r.Post("/back", h.back)
		r.With(submit).Post("/submit", h.submit)
	})
	return r
}

func (h *BookingHandler) newFlow(s *session.Session) *booking.Flow {
	return booking.New(uuid.NewString(), booking.InitialStep(s.Store.IsAuthenticated()), booking.Deps{
		API:              s.Store.API(),
		Session:          s.Store,
		Nav:              s.Nav,
		Toasts:           s.Toasts,
		Notifier:         h.Notifier,
		ConfirmationPath: h.Site.ConfirmationPath,
		Location:         h.loc,
	})
}

// start resolves the entry query. Tier visits are redirected to the tiered
// booking page; everything else opens a new consultation flow.
func (h *BookingHandler) start(w http.ResponseWriter, r *http.Request) {
	s, ok := currentSession(w, r)
	if !ok {
		return
	}

	entry := booking.ParseEntry(r.URL.Query(), h.Site.TieredBookingPath)
	if entry.Redirect != "" {
		s.Nav.Navigate(entry.Redirect)
		respond(w, r, http.StatusOK, nil)
		return
	}

	f := h.newFlow(s)
	h.Flows.Put(s.ID, f)
	ctx := flowContext(r, f)

	// A failed catalog fetch has already queued its toast; the flow still opens.
	_ = f.LoadCategories(ctx)
	f.Preselect(entry.CategoryID)

	logger.InfoContext(ctx, "Booking flow started", "step", f.Step())
	respond(w, r, http.StatusCreated, f.Snapshot())
}

func flowContext(r *http.Request, f *booking.Flow) context.Context {
	return context.WithValue(r.Context(), logger.FlowIDKey, f.ID())
}

func (h *BookingHandler) flow(w http.ResponseWriter, r *http.Request) (*booking.Flow, bool) {
	s, ok := currentSession(w, r)
	if !ok {
		return nil, false
	}
	f, ok := h.Flows.Get(s.ID, chi.URLParam(r, "id"))
	if !ok {
		response.NotFound(w, "booking flow not found")
		return nil, false
	}
	return f, true
}

func (h *BookingHandler) get(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	respond(w, r, http.StatusOK, f.Snapshot())
}

func (h *BookingHandler) mode(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var in struct {
		Mode booking.AuthMode `json:"mode"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	f.SetMode(in.Mode)
	respond(w, r, http.StatusOK, f.Snapshot())
}

type credentialsRequest struct {
	Mode            booking.AuthMode `json:"mode,omitempty"`
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	Password        string           `json:"password"`
	ConfirmPassword string           `json:"confirmPassword"`
}

func (h *BookingHandler) auth(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var in credentialsRequest
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.Mode != "" {
		f.SetMode(in.Mode)
	}
	f.SetCredentials(booking.Credentials{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Phone:           in.Phone,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	})

	ctx := flowContext(r, f)
	if err := f.Continue(ctx); err != nil {
		h.flowError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, f.Snapshot())
}

func (h *BookingHandler) reloadCategories(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	ctx := flowContext(r, f)
	if err := f.LoadCategories(ctx); err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, f.Snapshot())
}

type selectionRequest struct {
	CategoryID        *string `json:"categoryId"`
	Date              *string `json:"date"`
	Time              *string `json:"time"`
	SpecialRequests   *string `json:"specialRequests"`
	ContactPreference *string `json:"contactPreference"`
}

func (h *BookingHandler) selection(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var in selectionRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	sel := booking.Selection{
		CategoryID:        in.CategoryID,
		Time:              in.Time,
		SpecialRequests:   in.SpecialRequests,
		ContactPreference: in.ContactPreference,
	}
	if in.Date != nil && *in.Date != "" {
		d, err := booking.ParseDate(*in.Date, h.loc)
		if err != nil {
			response.BadRequest(w, "date must be formatted as YYYY-MM-DD")
			return
		}
		sel.Date = &d
	}
	f.Select(sel)
	respond(w, r, http.StatusOK, f.Snapshot())
}

func (h *BookingHandler) next(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	ctx := flowContext(r, f)
	if err := f.Next(ctx); err != nil {
		h.flowError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, f.Snapshot())
}

func (h *BookingHandler) back(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	f.Back()
	respond(w, r, http.StatusOK, f.Snapshot())
}

type submitView struct {
	Booking *domain.Booking `json:"booking"`
	Flow    booking.State   `json:"flow"`
}

func (h *BookingHandler) submit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	ctx := flowContext(r, f)
	b, err := f.Submit(ctx)
	if err != nil {
		h.flowError(w, r, err)
		return
	}
	h.Flows.Delete(f.ID())
	respond(w, r, http.StatusCreated, submitView{Booking: b, Flow: f.Snapshot()})
}

// flowError maps the flow's guard errors; everything else is classified.
func (h *BookingHandler) flowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrInFlight):
		response.WriteError(w, http.StatusConflict, "A request is already in progress", response.CodeInFlight)
	case errors.Is(err, booking.ErrWrongStep), errors.Is(err, booking.ErrCompleted):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeWrongStep)
	case errors.Is(err, booking.ErrSignedOut):
		resp := response.ErrorResponse{Error: "Please sign in to continue", Code: response.CodeUnauthorized}
		if s := middleware.Session(r); s != nil {
			resp.Toasts = s.Toasts.Drain()
			resp.Redirect = s.Nav.Take()
		}
		response.WriteJSON(w, http.StatusUnauthorized, resp)
	default:
		fail(w, r, err)
	}
}
