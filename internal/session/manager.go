package session

import (
	"context"
	"sync"
	"time"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/diagnosis/concierge/internal/navigation"
	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/pkg/logger"
)

// Session is one browser session: its auth store plus the navigation and
// toasts produced while serving it.
type Session struct {
	ID     string
	Store  *Store
	Nav    *navigation.Recorder
	Toasts *toast.Tray

	lastSeen time.Time

	attachMu    sync.Mutex
	attachments map[string]any
}

// Attach returns the value stored under key, building it on first use.
// Attachments live as long as the session.
func (s *Session) Attach(key string, build func() any) any {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	if v, ok := s.attachments[key]; ok {
		return v
	}
	if s.attachments == nil {
		s.attachments = make(map[string]any)
	}
	v := build()
	s.attachments[key] = v
	return v
}

// Manager maps browser-session ids to sessions and evicts idle ones.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	client  *api.Client
	storage StorageFactory
	routes  Routes
	idle    time.Duration
	now     func() time.Time
}

func NewManager(client *api.Client, storage StorageFactory, routes Routes, idle time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		client:   client,
		storage:  storage,
		routes:   routes,
		idle:     idle,
		now:      time.Now,
	}
}

// Get returns the session for sid, creating and restoring it on first use.
func (m *Manager) Get(ctx context.Context, sid string) (*Session, error) {
	now := m.now()

	m.mu.Lock()
	if s, ok := m.sessions[sid]; ok && now.Sub(s.lastSeen) < m.idle {
		s.lastSeen = now
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	nav := &navigation.Recorder{}
	s := &Session{
		ID:       sid,
		Store:    NewStore(m.client, m.storage(sid), nav, m.routes),
		Nav:      nav,
		Toasts:   toast.NewTray(),
		lastSeen: now,
	}
	if err := s.Store.Restore(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sid]; ok && now.Sub(existing.lastSeen) < m.idle {
		return existing, nil
	}
	m.sessions[sid] = s
	return s, nil
}

// Drop tears the session down in memory; stored tokens are left alone.
func (m *Manager) Drop(ctx context.Context, sid string) {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	delete(m.sessions, sid)
	m.mu.Unlock()

	if ok {
		s.Store.Clear(ctx)
	}
}

// Sweep evicts sessions idle for longer than the configured duration.
func (m *Manager) Sweep(ctx context.Context) int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for sid, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.idle {
			expired = append(expired, s)
			delete(m.sessions, sid)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Store.Clear(ctx)
	}
	if len(expired) > 0 {
		logger.DebugContext(ctx, "Evicted idle sessions", "count", len(expired))
	}
	return len(expired)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
