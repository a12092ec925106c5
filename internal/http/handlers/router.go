package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/concierge/internal/booking"
	"github.com/diagnosis/concierge/internal/content"
	"github.com/diagnosis/concierge/internal/http/middleware"
	"github.com/diagnosis/concierge/pkg/config"
	mw "github.com/diagnosis/concierge/pkg/middleware"
)

const idempotencyTTL = 24 * time.Hour

// Notifier is the side channel for bookings and contact messages.
type Notifier interface {
	booking.Notifier
	ContactNotifier
}

type RouterDeps struct {
	Config      *config.Config
	Sessions    middleware.SessionLoader
	Flows       *booking.Registry
	Notifier    Notifier
	Blogs       *content.Renderer
	Idempotency mw.IdempotencyStore
	Limiter     *mw.RateLimiter
}

// NewRouter assembles the BFF surface under /v1.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("concierge"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(mw.CORS(d.Config.Server.AllowedOrigins))
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware())
	}

	submit := func(next http.Handler) http.Handler { return next }
	if d.Idempotency != nil {
		submit = mw.IdempotencyMiddleware(d.Idempotency, idempotencyTTL, sessionScope)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RequireSession(d.Sessions, d.Config.Session))

		r.Mount("/session", NewSessionHandler().Routes())
		r.Mount("/account", NewAccountHandler().Routes())
		r.Mount("/booking", NewBookingHandler(d.Flows, d.Notifier, d.Config.Site).Routes(submit))
		r.Mount("/admin", NewAdminHandler().Routes())
		r.Mount("/", NewPublicHandler(d.Blogs, d.Notifier).Routes())
	})

	return r
}

// sessionScope keys idempotent replays by browser session so a replay never
// crosses sessions.
func sessionScope(r *http.Request) string {
	if s := middleware.Session(r); s != nil {
		return s.ID
	}
	return ""
}
