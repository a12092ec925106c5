package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/navigation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Fakes ----------

type fakeAuthAPI struct {
	loginResp   *domain.TokenResponse
	loginErr    error
	registerErr error
	me          *domain.User
	meErr       error

	loginCalls int
	meCalls    int
	registered []domain.RegisterRequest
}

func (f *fakeAuthAPI) Login(_ context.Context, _, _ string) (*domain.TokenResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAuthAPI) Register(_ context.Context, in domain.RegisterRequest) (*domain.User, error) {
	f.registered = append(f.registered, in)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: "u-new", Email: in.Email}, nil
}

func (f *fakeAuthAPI) Me(_ context.Context) (*domain.User, error) {
	f.meCalls++
	return f.me, f.meErr
}

func (f *fakeAuthAPI) UpdateMe(_ context.Context, in domain.UserUpdate) (*domain.User, error) {
	u := *f.me
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	return &u, nil
}

func (f *fakeAuthAPI) UploadProfileImage(_ context.Context, filename string, _ io.Reader) (*domain.User, error) {
	u := *f.me
	u.ProfileImage = "https://cdn/" + filename
	return &u, nil
}

var testRoutes = Routes{Login: "/login", Dashboard: "/dashboard", Admin: "/admin"}

func newTestStore(fake *fakeAuthAPI, storage TokenStorage) (*Store, *navigation.Recorder) {
	nav := &navigation.Recorder{}
	return &Store{
		api:     fake,
		storage: storage,
		nav:     nav,
		routes:  testRoutes,
		now:     time.Now,
	}, nav
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

// ---------- Restore ----------

func TestRestore_NoToken_NoNetwork(t *testing.T) {
	fake := &fakeAuthAPI{}
	s, nav := newTestStore(fake, NewMemoryStorage())

	require.NoError(t, s.Restore(context.Background()))

	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, fake.meCalls)
	assert.Zero(t, nav.Count())
}

func TestRestore_ExpiredToken_Discarded(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, signed(t, time.Now().Add(-time.Hour))))
	fake := &fakeAuthAPI{}
	s, _ := newTestStore(fake, storage)

	require.NoError(t, s.Restore(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, fake.meCalls)
	stored, _ := storage.Get(ctx)
	assert.Empty(t, stored)
}

func TestRestore_ValidToken_FetchesProfile(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	token := signed(t, time.Now().Add(time.Hour))
	require.NoError(t, storage.Set(ctx, token))
	fake := &fakeAuthAPI{me: &domain.User{ID: "u1", Role: domain.RoleClient}}
	s, nav := newTestStore(fake, storage)

	require.NoError(t, s.Restore(ctx))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, token, s.Token())
	assert.Equal(t, "u1", s.User().ID)
	assert.Zero(t, nav.Count())
}

func TestRestore_ProfileFailure_LogsOutAndRedirects(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, "opaque-token"))
	fake := &fakeAuthAPI{meErr: &apierr.StatusError{Status: 401}}
	s, nav := newTestStore(fake, storage)

	require.NoError(t, s.Restore(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Token())
	assert.Equal(t, "/login", nav.Take())
	assert.Equal(t, 1, fake.meCalls)
	stored, _ := storage.Get(ctx)
	assert.Empty(t, stored)
}

// ---------- Login / Register ----------

func TestLogin_RedirectsByRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{domain.RoleAdmin, "/admin"},
		{domain.RoleClient, "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			fake := &fakeAuthAPI{loginResp: &domain.TokenResponse{
				AccessToken: "tok",
				User:        &domain.User{ID: "u1", Role: tt.role},
			}}
			storage := NewMemoryStorage()
			s, nav := newTestStore(fake, storage)

			require.NoError(t, s.Login(context.Background(), "a@b.co", "pw"))

			assert.True(t, s.IsAuthenticated())
			assert.Equal(t, tt.want, nav.Take())
			stored, _ := storage.Get(context.Background())
			assert.Equal(t, "tok", stored)
		})
	}
}

func TestLogin_WithoutEmbeddedUser_FetchesMe(t *testing.T) {
	fake := &fakeAuthAPI{
		loginResp: &domain.TokenResponse{AccessToken: "tok"},
		me:        &domain.User{ID: "u2"},
	}
	s, _ := newTestStore(fake, NewMemoryStorage())

	require.NoError(t, s.Login(context.Background(), "a@b.co", "pw"))

	assert.Equal(t, 1, fake.meCalls)
	assert.Equal(t, "u2", s.User().ID)
}

func TestLogin_Failure_LeavesSessionUnset(t *testing.T) {
	fake := &fakeAuthAPI{loginErr: &apierr.StatusError{Status: 401}}
	s, nav := newTestStore(fake, NewMemoryStorage())

	err := s.Login(context.Background(), "a@b.co", "bad")

	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", apierr.Message(err))
	assert.False(t, s.IsAuthenticated())
	assert.Zero(t, nav.Count())
}

func TestEstablish_ProfileFailure_StoresNothing(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	fake := &fakeAuthAPI{meErr: &apierr.StatusError{Status: 500}}
	s, nav := newTestStore(fake, storage)

	_, err := s.Establish(ctx, &domain.TokenResponse{AccessToken: "tok-xyz"})

	require.Error(t, err)
	assert.Empty(t, s.Token())
	assert.False(t, s.IsAuthenticated())
	stored, _ := storage.Get(ctx)
	assert.Empty(t, stored)
	assert.Zero(t, nav.Count())
}

func TestLogin_ProfileRejected_MapsToCredentials(t *testing.T) {
	fake := &fakeAuthAPI{
		loginResp: &domain.TokenResponse{AccessToken: "tok"},
		meErr:     &apierr.StatusError{Status: 401},
	}
	s, _ := newTestStore(fake, NewMemoryStorage())

	err := s.Login(context.Background(), "a@b.co", "pw")

	assert.Equal(t, "Invalid email or password", apierr.Message(err))
	assert.Empty(t, s.Token())
}

func TestRefreshUser_FailureIsUpstream(t *testing.T) {
	fake := &fakeAuthAPI{meErr: &apierr.StatusError{Status: 503}}
	s, _ := newTestStore(fake, NewMemoryStorage())

	_, err := s.RefreshUser(context.Background())

	var e *apierr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, apierr.KindUpstream, e.Kind)
	assert.Equal(t, "Something went wrong. Please try again.", apierr.Message(err))
}

func TestRegister_LogsInAfterCreate(t *testing.T) {
	fake := &fakeAuthAPI{loginResp: &domain.TokenResponse{
		AccessToken: "tok",
		User:        &domain.User{ID: "u-new", Role: domain.RoleClient},
	}}
	s, nav := newTestStore(fake, NewMemoryStorage())

	err := s.Register(context.Background(), domain.RegisterRequest{Email: "ada@example.com", Password: "longenough1"})

	require.NoError(t, err)
	assert.Len(t, fake.registered, 1)
	assert.Equal(t, 1, fake.loginCalls)
	assert.Equal(t, "/dashboard", nav.Take())
}

func TestRegister_Failure_MapsDetail(t *testing.T) {
	fake := &fakeAuthAPI{registerErr: &apierr.StatusError{Status: 400, Detail: "Email already registered"}}
	s, _ := newTestStore(fake, NewMemoryStorage())

	err := s.Register(context.Background(), domain.RegisterRequest{Email: "ada@example.com"})

	assert.Equal(t, "Email already registered", apierr.Message(err))
	assert.Zero(t, fake.loginCalls)
}

func TestSetAuthData_NoRedirect(t *testing.T) {
	s, nav := newTestStore(&fakeAuthAPI{}, NewMemoryStorage())

	require.NoError(t, s.SetAuthData(context.Background(), "tok", &domain.User{ID: "u1"}))

	assert.True(t, s.IsAuthenticated())
	assert.Zero(t, nav.Count())
	assert.Equal(t, "tok", s.AccessToken())
}

func TestLogout_ClearsAndRedirects(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s, nav := newTestStore(&fakeAuthAPI{}, storage)
	require.NoError(t, s.SetAuthData(ctx, "tok", &domain.User{ID: "u1"}))

	require.NoError(t, s.Logout(ctx))

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "/login", nav.Take())
	stored, _ := storage.Get(ctx)
	assert.Empty(t, stored)
}

func TestUpdateUserAndUpload(t *testing.T) {
	ctx := context.Background()
	fake := &fakeAuthAPI{me: &domain.User{ID: "u1", FirstName: "Ada"}}
	s, _ := newTestStore(fake, NewMemoryStorage())
	require.NoError(t, s.SetAuthData(ctx, "tok", fake.me))

	name := "Augusta"
	_, err := s.UpdateUser(ctx, domain.UserUpdate{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", s.User().FirstName)

	_, err = s.UploadProfileImage(ctx, "me.png", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/me.png", s.User().ProfileImage)
}

func TestUser_ReturnsCopy(t *testing.T) {
	s, _ := newTestStore(&fakeAuthAPI{}, NewMemoryStorage())
	require.NoError(t, s.SetAuthData(context.Background(), "tok", &domain.User{ID: "u1"}))

	s.User().ID = "mutated"

	assert.Equal(t, "u1", s.User().ID)
}

// ---------- Redis storage ----------

type fakeRedis struct {
	data map[string]string
	ttl  time.Duration
	err  error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.(string)
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisStorage(t *testing.T) {
	ctx := context.Background()
	rdb := &fakeRedis{data: map[string]string{}}
	st := NewRedisStorage(rdb, "sid-1", time.Hour)

	got, err := st.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, st.Set(ctx, "tok"))
	assert.Equal(t, "tok", rdb.data["session:sid-1:access_token"])
	assert.Equal(t, time.Hour, rdb.ttl)

	got, err = st.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, st.Delete(ctx))
	assert.Empty(t, rdb.data)
}

func TestRedisStorage_ErrorPropagates(t *testing.T) {
	rdb := &fakeRedis{data: map[string]string{}, err: errors.New("conn refused")}

	_, err := NewRedisStorage(rdb, "sid", time.Hour).Get(context.Background())

	assert.ErrorContains(t, err, "conn refused")
}
