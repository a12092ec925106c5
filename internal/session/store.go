// Package session holds the authenticated user and bearer token of one
// browser session, backed by a TokenStorage.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/navigation"
	"github.com/diagnosis/concierge/pkg/auth"
	"github.com/diagnosis/concierge/pkg/logger"
)

// AuthAPI is the part of the upstream API the session needs.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.TokenResponse, error)
	Register(ctx context.Context, in domain.RegisterRequest) (*domain.User, error)
	Me(ctx context.Context) (*domain.User, error)
	UpdateMe(ctx context.Context, in domain.UserUpdate) (*domain.User, error)
	UploadProfileImage(ctx context.Context, filename string, body io.Reader) (*domain.User, error)
}

// Routes are the browser paths the session navigates to.
type Routes struct {
	Login     string
	Dashboard string
	Admin     string
}

type Store struct {
	mu    sync.RWMutex
	user  *domain.User
	token string

	api     AuthAPI
	client  *api.Client
	storage TokenStorage
	nav     navigation.Navigator
	routes  Routes
	now     func() time.Time
}

// NewStore binds client to the new store so every upstream call carries
// the store's current token.
func NewStore(client *api.Client, storage TokenStorage, nav navigation.Navigator, routes Routes) *Store {
	s := &Store{
		storage: storage,
		nav:     nav,
		routes:  routes,
		now:     time.Now,
	}
	s.client = client.WithTokenSource(s)
	s.api = s.client
	return s
}

// AccessToken implements api.TokenSource.
func (s *Store) AccessToken() string {
	return s.Token()
}

// API returns the upstream client authenticated as this session.
func (s *Store) API() *api.Client {
	return s.client
}

func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// Restore loads the stored token and resolves the user behind it. A token
// whose exp has passed is discarded without a network call. Any failure of
// the profile fetch logs the session out and navigates to the login route.
func (s *Store) Restore(ctx context.Context) error {
	token, err := s.storage.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if token == "" {
		return nil
	}

	if auth.Expired(token, s.now()) {
		logger.InfoContext(ctx, "Stored token expired, discarding")
		return s.storage.Delete(ctx)
	}

	s.set(token, nil)

	user, err := s.api.Me(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Profile fetch failed, logging out", "error", err)
		return s.Logout(ctx)
	}

	s.set(token, user)
	logger.DebugContext(ctx, "Session restored", "user_id", user.ID)
	return nil
}

// Clear drops in-memory state without touching storage.
func (s *Store) Clear(_ context.Context) {
	s.set("", nil)
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return apierr.Auth(apierr.OpLogin, err)
	}

	user, err := s.Establish(ctx, resp)
	if err != nil {
		return apierr.Auth(apierr.OpLogin, err)
	}

	logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	s.redirectHome(user)
	return nil
}

// Register creates the account, then logs in with the same credentials.
func (s *Store) Register(ctx context.Context, in domain.RegisterRequest) error {
	if _, err := s.api.Register(ctx, in); err != nil {
		return apierr.Auth(apierr.OpRegister, err)
	}

	resp, err := s.api.Login(ctx, in.Email, in.Password)
	if err != nil {
		return apierr.Auth(apierr.OpRegister, err)
	}

	user, err := s.Establish(ctx, resp)
	if err != nil {
		return apierr.Auth(apierr.OpRegister, err)
	}

	logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	s.redirectHome(user)
	return nil
}

func (s *Store) Logout(ctx context.Context) error {
	s.set("", nil)
	err := s.storage.Delete(ctx)
	s.nav.Navigate(s.routes.Login)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SetAuthData installs token and user without the post-login redirect.
func (s *Store) SetAuthData(ctx context.Context, token string, user *domain.User) error {
	if err := s.storage.Set(ctx, token); err != nil {
		return err
	}
	s.set(token, user)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, in domain.UserUpdate) (*domain.User, error) {
	user, err := s.api.UpdateMe(ctx, in)
	if err != nil {
		return nil, apierr.Classify(apierr.OpGeneric, err)
	}
	s.setUser(user)
	return user, nil
}

func (s *Store) UploadProfileImage(ctx context.Context, filename string, body io.Reader) (*domain.User, error) {
	user, err := s.api.UploadProfileImage(ctx, filename, body)
	if err != nil {
		return nil, apierr.Classify(apierr.OpGeneric, err)
	}
	s.setUser(user)
	return user, nil
}

func (s *Store) RefreshUser(ctx context.Context) (*domain.User, error) {
	user, err := s.api.Me(ctx)
	if err != nil {
		return nil, apierr.Classify(apierr.OpGeneric, err)
	}
	s.setUser(user)
	return user, nil
}

// Establish resolves the user behind a fresh token response and only then
// persists the token. Token responses without an embedded user need a
// follow-up profile fetch; if it fails nothing is stored and the in-memory
// state is left signed out.
func (s *Store) Establish(ctx context.Context, resp *domain.TokenResponse) (*domain.User, error) {
	user := resp.User
	if user == nil {
		s.set(resp.AccessToken, nil)
		me, err := s.api.Me(ctx)
		if err != nil {
			s.set("", nil)
			return nil, err
		}
		user = me
	}

	if err := s.SetAuthData(ctx, resp.AccessToken, user); err != nil {
		s.set("", nil)
		return nil, err
	}
	return user, nil
}

func (s *Store) redirectHome(user *domain.User) {
	if user.IsAdmin() {
		s.nav.Navigate(s.routes.Admin)
		return
	}
	s.nav.Navigate(s.routes.Dashboard)
}

func (s *Store) set(token string, user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Store) setUser(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}
