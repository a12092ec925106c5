// Package logger is the concierge service's JSON slog logger. Request
// scoped values (request id, signed-in user, booking flow) ride on the
// context and are attached to every line logged with a *Context helper.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

// Context keys read by WithContext. The middleware stack sets the request
// id and service name, the session middleware the user id, and the booking
// handlers the flow id.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	ServiceKey   contextKey = "service"
	FlowIDKey    contextKey = "flow_id"
)

var scopedKeys = []contextKey{RequestIDKey, ServiceKey, UserIDKey, FlowIDKey}

var defaultLogger = New(os.Stdout, os.Getenv("LOG_LEVEL"))

// New builds a JSON logger writing to w. level is one of debug, info, warn
// or error; anything else means info.
func New(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func Default() *slog.Logger {
	return defaultLogger
}

// SetDefault swaps the package logger, e.g. to silence output in tests.
func SetDefault(l *slog.Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// WithContext returns the default logger annotated with whichever request,
// service, user and flow ids ctx carries.
func WithContext(ctx context.Context) *slog.Logger {
	l := defaultLogger
	for _, key := range scopedKeys {
		if v := ctx.Value(key); v != nil {
			l = l.With(string(key), v)
		}
	}
	return l
}

// RequestID returns the request id carried by ctx, or "". The upstream
// client and the event bus forward it as X-Request-ID.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// Startup and background jobs have no request context; they use these.

func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }

func InfoContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Info(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Error(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Debug(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	WithContext(ctx).Warn(msg, args...)
}
