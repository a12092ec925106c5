package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/booking"
	"github.com/diagnosis/concierge/internal/content"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/session"
	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/pkg/config"
)

// ---------- Fakes ----------

type fakeNotifier struct {
	mu       sync.Mutex
	bookings []domain.Booking
	contacts []domain.ContactMessage
}

func (n *fakeNotifier) BookingCreated(_ context.Context, b domain.Booking, _ domain.User, _ domain.ServiceCategory) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, b)
}

func (n *fakeNotifier) ContactSubmitted(_ context.Context, msg domain.ContactMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, msg)
}

type memIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memIdempotency) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// upstream fakes the REST API. Tokens are "tok-<userID>".
type upstream struct {
	mu             sync.Mutex
	bookingCalls   int
	idempotencyKey string
	contactCalls   int
}

var upstreamUsers = map[string]string{
	"jane@example.com":  `{"id":"u1","email":"jane@example.com","firstName":"Jane","lastName":"Doe","role":"client"}`,
	"admin@example.com": `{"id":"a1","email":"admin@example.com","firstName":"Ada","lastName":"Admin","role":"admin"}`,
}

func (u *upstream) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		user, ok := upstreamUsers[r.PostForm.Get("username")]
		if !ok || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
			return
		}
		var parsed domain.User
		require.NoError(t, json.Unmarshal([]byte(user), &parsed))
		fmt.Fprintf(w, `{"access_token":"tok-%s","token_type":"bearer","user":%s}`, parsed.ID, user)
	})
	mux.HandleFunc("GET /service-categories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"cat-1","name":"Estate Management","category_type":"contact_only","is_active":true},
			{"id":"cat-2","name":"Chauffeur","category_type":"tiered","is_active":true}
		]`))
	})
	mux.HandleFunc("POST /bookings", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.bookingCalls++
		u.idempotencyKey = r.Header.Get("Idempotency-Key")
		u.mu.Unlock()
		assert.Equal(t, "Bearer tok-u1", r.Header.Get("Authorization"))

		var in domain.BookingCreate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "cat-1", in.ServiceID)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b-1","userId":"u1","serviceId":"cat-1","status":"pending"}`))
	})
	mux.HandleFunc("GET /crm/clients", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-a1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"id":"c1","name":"Acme Holdings","email":"ops@acme.test","status":"active"},
			{"id":"c2","name":"Birch Family Office","email":"hello@birch.test","status":"lead"}
		]`))
	})
	mux.HandleFunc("GET /blogs/{slug}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"p1","slug":%q,"title":"Hello","content":"# Welcome\n\nSome words here.","published":true}`, r.PathValue("slug"))
	})
	mux.HandleFunc("POST /contact", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.contactCalls++
		u.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// ---------- Harness ----------

type harness struct {
	t        *testing.T
	router   http.Handler
	upstream *upstream
	notifier *fakeNotifier
	flows    *booking.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	up := &upstream{}
	srv := httptest.NewServer(up.handler(t))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Server:  config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Session: config.SessionConfig{CookieName: "sid", TTL: time.Hour},
		Site: config.SiteConfig{
			LoginPath:         "/login",
			DashboardPath:     "/dashboard",
			AdminPath:         "/admin",
			ConfirmationPath:  "/booking/confirmation",
			TieredBookingPath: "/booking/tier",
			Timezone:          "UTC",
		},
	}
	routes := session.Routes{Login: cfg.Site.LoginPath, Dashboard: cfg.Site.DashboardPath, Admin: cfg.Site.AdminPath}
	notifier := &fakeNotifier{}
	flows := booking.NewRegistry(time.Hour)

	router := NewRouter(RouterDeps{
		Config:      cfg,
		Sessions:    session.NewManager(api.New(srv.URL, 5*time.Second), session.MemoryStorageFactory(), routes, time.Hour),
		Flows:       flows,
		Notifier:    notifier,
		Blogs:       content.NewRenderer(),
		Idempotency: &memIdempotency{data: map[string]string{}},
	})
	return &harness{t: t, router: router, upstream: up, notifier: notifier, flows: flows}
}

// browser carries one session cookie across requests.
type browser struct {
	h      *harness
	cookie *http.Cookie
}

func (h *harness) browser() *browser {
	return &browser{h: h}
}

type envelope struct {
	Data     json.RawMessage   `json:"data"`
	Toasts   []toast.Toast     `json:"toasts"`
	Redirect string            `json:"redirect"`
	Error    string            `json:"error"`
	Code     string            `json:"code"`
	Fields   map[string]string `json:"fields"`
}

func (b *browser) do(method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	b.h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(b.h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	rec := httptest.NewRecorder()
	b.h.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			b.cookie = c
		}
	}

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(b.h.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (b *browser) login(email string) envelope {
	b.h.t.Helper()
	rec, env := b.do(http.MethodPost, "/v1/session/login", map[string]string{"email": email, "password": "secret"})
	require.Equal(b.h.t, http.StatusOK, rec.Code, rec.Body.String())
	return env
}

func toastMessages(ts []toast.Toast) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Message
	}
	return out
}

// ---------- Tests ----------

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.browser().do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_LoginRedirectsHome(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	rec, env := b.do(http.MethodGet, "/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, b.cookie)
	assert.JSONEq(t, `{"authenticated":false}`, string(env.Data))

	env = b.login("jane@example.com")
	assert.Equal(t, "/dashboard", env.Redirect)
	assert.Contains(t, toastMessages(env.Toasts), "Welcome back!")

	_, env = b.do(http.MethodGet, "/v1/session", nil)
	var view sessionView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.Authenticated)
	assert.Equal(t, "u1", view.User.ID)

	admin := h.browser()
	env = admin.login("admin@example.com")
	assert.Equal(t, "/admin", env.Redirect)
}

func TestSession_LoginFailure(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	rec, env := b.do(http.MethodPost, "/v1/session/login", map[string]string{"email": "jane@example.com", "password": "nope"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", env.Error)
	assert.Equal(t, []string{"Invalid email or password"}, toastMessages(env.Toasts))
	assert.Empty(t, env.Redirect)
}

func TestSession_LoginValidation(t *testing.T) {
	h := newHarness(t)

	rec, env := h.browser().do(http.MethodPost, "/v1/session/login", map[string]string{"email": "not-an-email"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Email is invalid", env.Fields["email"])
	assert.Equal(t, "Password is required", env.Fields["password"])
}

func TestSession_Logout(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.login("jane@example.com")

	rec, env := b.do(http.MethodPost, "/v1/session/logout", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login", env.Redirect)
	_, env = b.do(http.MethodGet, "/v1/session", nil)
	assert.JSONEq(t, `{"authenticated":false}`, string(env.Data))
}

func decodeState(t *testing.T, env envelope) booking.State {
	t.Helper()
	var st booking.State
	require.NoError(t, json.Unmarshal(env.Data, &st))
	return st
}

func TestBooking_FullFlow(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	rec, env := b.do(http.MethodPost, "/v1/booking?categoryId=cat-1", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	st := decodeState(t, env)
	assert.Equal(t, booking.StepAuth, st.Step)
	require.Len(t, st.Categories, 1)
	assert.Equal(t, "cat-1", st.Categories[0].ID)
	assert.Equal(t, "cat-1", st.Draft.CategoryID)

	base := "/v1/booking/" + st.ID

	rec, env = b.do(http.MethodPost, base+"/auth", map[string]string{"email": "jane@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, booking.StepCategory, decodeState(t, env).Step)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	rec, _ = b.do(http.MethodPost, base+"/selection", map[string]string{"date": tomorrow, "time": "10:00 AM", "specialRequests": "Gate code 1234"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = b.do(http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decodeState(t, env)
	assert.Equal(t, booking.StepConfirm, st.Step)
	assert.Empty(t, st.Errors)

	rec, env = b.do(http.MethodPost, base+"/submit", nil, "Idempotency-Key", "key-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/booking/confirmation?bookingId=b-1", env.Redirect)
	assert.Contains(t, toastMessages(env.Toasts), "Booking request submitted! We'll contact you shortly.")
	require.Len(t, h.notifier.bookings, 1)
	assert.NotEmpty(t, h.upstream.idempotencyKey)

	// Replayed by the idempotency layer; the flow itself is gone.
	rec, _ = b.do(http.MethodPost, base+"/submit", nil, "Idempotency-Key", "key-1")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, h.upstream.bookingCalls)

	// Another browser reusing the key on the same path is not served the booking.
	rec, _ = h.browser().do(http.MethodPost, base+"/submit", nil, "Idempotency-Key", "key-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))

	rec, _ = b.do(http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBooking_AuthenticatedStartsOnCategoryStep(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.login("jane@example.com")

	_, env := b.do(http.MethodPost, "/v1/booking", nil)
	st := decodeState(t, env)
	assert.Equal(t, booking.StepCategory, st.Step)

	_, env = b.do(http.MethodPost, "/v1/booking/"+st.ID+"/back", nil)
	assert.Equal(t, booking.StepCategory, decodeState(t, env).Step)
}

func TestBooking_NextValidates(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.login("jane@example.com")
	_, env := b.do(http.MethodPost, "/v1/booking", nil)
	st := decodeState(t, env)

	rec, env := b.do(http.MethodPost, "/v1/booking/"+st.ID+"/next", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Please select a service", env.Fields["categoryId"])
	assert.Equal(t, "Please select a date", env.Fields["date"])
	assert.Equal(t, "Please select a time", env.Fields["time"])
}

func TestBooking_SubmitOnWrongStep(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.login("jane@example.com")
	_, env := b.do(http.MethodPost, "/v1/booking", nil)
	st := decodeState(t, env)

	rec, env := b.do(http.MethodPost, "/v1/booking/"+st.ID+"/submit", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "WRONG_STEP", env.Code)
	assert.Zero(t, h.upstream.bookingCalls)
}

func TestBooking_BadDate(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	_, env := b.do(http.MethodPost, "/v1/booking", nil)
	st := decodeState(t, env)

	rec, _ := b.do(http.MethodPost, "/v1/booking/"+st.ID+"/selection", map[string]string{"date": "17/10/2026"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooking_TierRedirect(t *testing.T) {
	h := newHarness(t)

	rec, env := h.browser().do(http.MethodPost, "/v1/booking?tierId=t-9&categoryId=cat-2", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/booking/tier?categoryId=cat-2&tierId=t-9", env.Redirect)
	assert.Zero(t, h.flows.Len())
}

func TestBooking_FlowsArePerSession(t *testing.T) {
	h := newHarness(t)
	_, env := h.browser().do(http.MethodPost, "/v1/booking", nil)
	st := decodeState(t, env)

	rec, _ := h.browser().do(http.MethodGet, "/v1/booking/"+st.ID, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Guarded(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.browser().do(http.MethodGet, "/v1/admin/crm", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	client := h.browser()
	client.login("jane@example.com")
	rec, _ = client.do(http.MethodGet, "/v1/admin/crm", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_SearchScreen(t *testing.T) {
	h := newHarness(t)
	b := h.browser()
	b.login("admin@example.com")

	rec, env := b.do(http.MethodGet, "/v1/admin/crm?q=ACME", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var clients []domain.CRMClient
	require.NoError(t, json.Unmarshal(env.Data, &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "c1", clients[0].ID)

	// Search sticks to the session's screen until cleared.
	_, env = b.do(http.MethodGet, "/v1/admin/crm?filter=lead&q=", nil)
	require.NoError(t, json.Unmarshal(env.Data, &clients))
	require.Len(t, clients, 1)
	assert.Equal(t, "c2", clients[0].ID)

	rec, _ = b.do(http.MethodGet, "/v1/admin/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContact(t *testing.T) {
	h := newHarness(t)
	b := h.browser()

	rec, env := b.do(http.MethodPost, "/v1/contact", map[string]string{"name": "Sam"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Email is required", env.Fields["email"])
	assert.Equal(t, "Message is required", env.Fields["message"])

	rec, env = b.do(http.MethodPost, "/v1/contact", map[string]string{
		"name": "Sam", "email": "Sam@Example.com", "message": "Please call me",
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, toastMessages(env.Toasts), "Message sent! We'll get back to you soon.")
	assert.Equal(t, 1, h.upstream.contactCalls)
	require.Len(t, h.notifier.contacts, 1)
	assert.Equal(t, "sam@example.com", h.notifier.contacts[0].Email)
}

func TestBlog_Rendered(t *testing.T) {
	h := newHarness(t)

	rec, env := h.browser().do(http.MethodGet, "/v1/blogs/hello", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var post content.Post
	require.NoError(t, json.Unmarshal(env.Data, &post))
	assert.Contains(t, post.HTML, "<h1>Welcome</h1>")
	assert.Equal(t, 1, post.ReadingMinutes)
}
