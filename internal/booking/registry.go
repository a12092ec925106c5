package booking

import (
	"sync"
	"time"
)

type registryEntry struct {
	flow     *Flow
	owner    string
	lastSeen time.Time
}

// Registry keeps live flows per browser session and expires idle ones.
type Registry struct {
	mu    sync.Mutex
	flows map[string]*registryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		flows: make(map[string]*registryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *Registry) Put(owner string, f *Flow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[f.ID()] = &registryEntry{flow: f, owner: owner, lastSeen: r.now()}
}

// Get returns the flow only to the session that created it.
func (r *Registry) Get(owner, id string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.flows[id]
	if !ok || e.owner != owner {
		return nil, false
	}
	now := r.now()
	if now.Sub(e.lastSeen) >= r.ttl {
		delete(r.flows, id)
		return nil, false
	}
	e.lastSeen = now
	return e.flow, true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, id)
}

// Sweep drops flows idle for longer than the TTL.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, e := range r.flows {
		if now.Sub(e.lastSeen) >= r.ttl {
			delete(r.flows, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
