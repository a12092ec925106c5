// Package navigation records browser navigations requested by the session
// and booking flows so the HTTP layer can hand them back as redirects.
package navigation

import (
	"net/url"
	"sync"
)

type Navigator interface {
	Navigate(path string)
}

// Recorder is a Navigator that keeps the last requested target until taken.
type Recorder struct {
	mu     sync.Mutex
	target string
	count  int
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = path
	r.count++
}

// Take returns the pending target and clears it.
func (r *Recorder) Take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.target
	r.target = ""
	return t
}

// Count is the number of navigations requested so far.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// WithQuery appends key=value to path.
func WithQuery(path, key, value string) string {
	v := url.Values{}
	v.Set(key, value)
	return path + "?" + v.Encode()
}
