package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second)
}

func TestLogin_PostsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ada@example.com", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		assert.Empty(t, r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-1",
			"token_type":   "bearer",
			"user":         map[string]any{"id": "u1", "email": "ada@example.com", "role": "client"},
		})
	})

	out, err := c.Login(context.Background(), "ada@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "tok-1", out.AccessToken)
	require.NotNil(t, out.User)
	assert.Equal(t, "u1", out.User.ID)
}

func TestCreateBooking_SendsHeaders(t *testing.T) {
	var got domain.BookingCreate
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bookings", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b1","status":"pending"}`))
	})

	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-1")
	in := domain.BookingCreate{UserID: "u1", ServiceID: "cat-1", Status: domain.BookingPending, PaymentRequired: true}

	b, err := c.WithToken("tok-1").CreateBooking(ctx, in, "key-1")

	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "cat-1", got.ServiceID)
	assert.True(t, got.PaymentRequired)
}

func TestWithToken_DoesNotMutateParent(t *testing.T) {
	c := New("http://x", time.Second)
	bound := c.WithToken("abc")

	assert.Equal(t, "", c.tokens.AccessToken())
	assert.Equal(t, "abc", bound.tokens.AccessToken())
}

func TestListServiceCategories_EncodesFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/service-categories", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("active_only"))
		assert.Equal(t, "contact_only", r.URL.Query().Get("category_type"))
		_, _ = w.Write([]byte(`[{"id":"cat-1","name":"Concierge","category_type":"contact_only","is_active":true}]`))
	})

	cats, err := c.ListServiceCategories(context.Background(), domain.CategoryFilter{ActiveOnly: true, CategoryType: domain.CategoryContactOnly})

	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.True(t, cats[0].Bookable())
}

func TestErrorDecoding(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"string detail", 400, `{"detail":"Email already registered"}`, "Email already registered"},
		{"validation list", 422, `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"}]}`, "email: value is not a valid email address"},
		{"message field", 500, `{"message":"boom"}`, "boom"},
		{"plain text", 502, `bad gateway`, "bad gateway"},
		{"empty", 404, ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Me(context.Background())

			var se *apierr.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.detail, se.Detail)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Me(context.Background())

	var te *apierr.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "GET /auth/me", te.Op)
}

func TestUploadProfileImage_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/profile-image", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "me.png", hdr.Filename)
		assert.Equal(t, "png-bytes", string(data))
		_, _ = w.Write([]byte(`{"id":"u1","profileImage":"https://cdn/me.png"}`))
	})

	u, err := c.WithToken("tok").UploadProfileImage(context.Background(), "me.png", strings.NewReader("png-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn/me.png", u.ProfileImage)
}

func TestDelete_NoContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/crm/clients/c%201", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteCRMClient(context.Background(), "c 1"))
}
