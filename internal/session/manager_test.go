package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diagnosis/concierge/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RestoresOnceAndEvicts(t *testing.T) {
	var meCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer opaque", r.Header.Get("Authorization"))
		meCalls++
		_, _ = w.Write([]byte(`{"id":"u1","role":"client"}`))
	}))
	defer srv.Close()

	storages := map[string]*MemoryStorage{}
	factory := func(sid string) TokenStorage {
		st := NewMemoryStorage()
		_ = st.Set(context.Background(), "opaque")
		storages[sid] = st
		return st
	}

	now := time.Now()
	m := NewManager(api.New(srv.URL, time.Second), factory, testRoutes, time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	s1, err := m.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, s1.Store.IsAuthenticated())

	s2, err := m.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, meCalls)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.Sweep(ctx))
	assert.Zero(t, m.Len())
	assert.False(t, s1.Store.IsAuthenticated())
}

func TestManager_Drop(t *testing.T) {
	m := NewManager(api.New("http://unused", time.Second), MemoryStorageFactory(), testRoutes, time.Minute)
	ctx := context.Background()

	_, err := m.Get(ctx, "sid")
	require.NoError(t, err)
	m.Drop(ctx, "sid")

	assert.Zero(t, m.Len())
}

func TestSession_Attach(t *testing.T) {
	s := &Session{}
	builds := 0
	build := func() any { builds++; return builds }

	assert.Equal(t, 1, s.Attach("admin", build))
	assert.Equal(t, 1, s.Attach("admin", build))
	assert.Equal(t, 1, builds)
}
