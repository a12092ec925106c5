package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/concierge/pkg/logger"
)

// IdempotencyStore caches successful responses by hashed key
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisIdempotencyStore keeps replayable responses in Redis
type RedisIdempotencyStore struct {
	rdb *redis.Client
}

func NewRedisIdempotencyStore(rdb *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// cachedResponse is what a replay sends back.
type cachedResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// IdempotencyMiddleware replays the stored response of a POST whose
// Idempotency-Key was already answered successfully. Keys are scoped to the
// request path and to whatever scope returns for the request, typically the
// caller's session id; a nil scope means path only.
func IdempotencyMiddleware(store IdempotencyStore, ttl time.Duration, scope func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			owner := ""
			if scope != nil {
				owner = scope(r)
			}
			hashedKey := fmt.Sprintf("idempotency:%x", sha256.Sum256([]byte(owner+"\x00"+r.URL.Path+"\x00"+key)))

			if existing, err := store.Get(r.Context(), hashedKey); err == nil && existing != "" {
				var cached cachedResponse
				if err := json.Unmarshal([]byte(existing), &cached); err == nil && cached.Status != 0 {
					logger.InfoContext(r.Context(), "Replaying idempotent response", "path", r.URL.Path, "status", cached.Status)
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write([]byte(cached.Body))
					return
				}
				logger.WarnContext(r.Context(), "Discarding unreadable idempotent response", "path", r.URL.Path)
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode < 200 || recorder.statusCode >= 300 {
				return
			}
			payload, err := json.Marshal(cachedResponse{Status: recorder.statusCode, Body: string(recorder.body)})
			if err != nil {
				logger.WarnContext(r.Context(), "Failed to encode idempotent response", "error", err)
				return
			}
			if err := store.Set(r.Context(), hashedKey, string(payload), ttl); err != nil {
				logger.WarnContext(r.Context(), "Failed to cache idempotent response", "error", err)
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}
