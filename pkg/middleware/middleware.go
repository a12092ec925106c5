package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/diagnosis/concierge/pkg/logger"
)

// RequestID tags the request with the caller's X-Request-ID, or a fresh uuid
// when absent or malformed. The id is forwarded to the upstream API.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), logger.RequestIDKey, id)))
	})
}

// Logging emits one structured line per request, keyed by the matched chi
// route so /v1/booking/{id}/next aggregates across flows.
func Logging(next http.Handler) http.Handler {
	return middleware.RequestLogger(requestLogger{})(next)
}

type requestLogger struct{}

func (requestLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestEntry{r: r}
}

type requestEntry struct {
	r *http.Request
}

func (e *requestEntry) route() string {
	if rctx := chi.RouteContext(e.r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return e.r.URL.Path
}

func (e *requestEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}
	logger.WithContext(e.r.Context()).Log(e.r.Context(), level, "request",
		"method", e.r.Method,
		"route", e.route(),
		"path", e.r.URL.Path,
		"status", status,
		"bytes", bytes,
		"duration_ms", elapsed.Milliseconds(),
		"client_ip", ClientIP(e.r),
	)
}

func (e *requestEntry) Panic(v any, stack []byte) {
	logger.ErrorContext(e.r.Context(), "request panicked",
		"panic", v,
		"route", e.route(),
		"stack", string(stack),
	)
}

// CORS allows the browser app's origins to call the API with credentials,
// which the session cookie needs.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// ServiceName stamps every log line of the request with the service name.
func ServiceName(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), logger.ServiceKey, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Health answers /healthz before sessions or rate limits are consulted.
func Health(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","service":"concierge","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	})
}
