package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/diagnosis/concierge/internal/http/response"
	"github.com/diagnosis/concierge/internal/session"
	"github.com/diagnosis/concierge/pkg/config"
	"github.com/diagnosis/concierge/pkg/logger"
)

type ctxKey string

const CtxSession ctxKey = "session"

// SessionLoader resolves the browser session behind a cookie id.
type SessionLoader interface {
	Get(ctx context.Context, sid string) (*session.Session, error)
}

// RequireSession attaches the browser session named by the cookie, minting
// a new cookie when the browser has none.
func RequireSession(sessions SessionLoader, cfg config.SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			s, err := sessions.Get(r.Context(), sid)
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to load session", "error", err)
				response.InternalError(w, "session unavailable")
				return
			}

			ctx := context.WithValue(r.Context(), CtxSession, s)
			if u := s.Store.User(); u != nil {
				ctx = context.WithValue(ctx, logger.UserIDKey, u.ID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects sessions without an admin user.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := Session(r)
		if s == nil || !s.Store.IsAuthenticated() {
			response.Unauthorized(w, "login required")
			return
		}
		if u := s.Store.User(); u == nil || !u.IsAdmin() {
			response.Forbidden(w, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func Session(r *http.Request) *session.Session {
	if v := r.Context().Value(CtxSession); v != nil {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}
