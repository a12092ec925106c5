// Package admin backs the back-office management screens. Every screen
// mirrors one upstream collection in memory, filters it locally and splices
// create/update/delete results into place.
package admin

import (
	"context"
	"strings"
	"sync"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/pkg/logger"
	"golang.org/x/text/cases"
)

// FilterAll disables the dropdown facet.
const FilterAll = "all"

// Spec describes how a screen identifies, searches and facets its items.
type Spec[T any] struct {
	Noun   string
	ID     func(T) string
	Fields func(T) []string
	Facet  func(T) string
}

type Screen[T any] struct {
	mu     sync.RWMutex
	items  []T
	search string
	filter string
	loaded bool

	spec     Spec[T]
	load     func(ctx context.Context) ([]T, error)
	toasts   toast.Notifier
	onChange func(ctx context.Context)
}

func NewScreen[T any](spec Spec[T], load func(ctx context.Context) ([]T, error), toasts toast.Notifier) *Screen[T] {
	return &Screen[T]{
		spec:   spec,
		load:   load,
		toasts: toasts,
	}
}

// OnChange registers a hook run after every successful mutation.
func (s *Screen[T]) OnChange(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Screen[T]) Load(ctx context.Context) error {
	items, err := s.load(ctx)
	if err != nil {
		e := apierr.Classify(apierr.OpGeneric, err)
		s.toasts.Error(apierr.Message(e))
		logger.ErrorContext(ctx, "Failed to load admin screen", "screen", s.spec.Noun, "error", err)
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.loaded = true
	return nil
}

func (s *Screen[T]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Screen[T]) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = strings.TrimSpace(q)
}

func (s *Screen[T]) SetFilter(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = strings.TrimSpace(v)
}

// Items is the full local mirror.
func (s *Screen[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Visible applies the search box and the dropdown facet. Search is a
// case-insensitive substring match over the screen's fields.
func (s *Screen[T]) Visible() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fold := cases.Fold()
	query := fold.String(s.search)
	filter := s.filter
	if strings.EqualFold(filter, FilterAll) {
		filter = ""
	}

	out := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filter != "" && s.spec.Facet != nil && !strings.EqualFold(s.spec.Facet(item), filter) {
			continue
		}
		if query != "" && !matches(fold, s.spec.Fields(item), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matches(fold cases.Caser, fields []string, query string) bool {
	for _, f := range fields {
		if strings.Contains(fold.String(f), query) {
			return true
		}
	}
	return false
}

// Create runs fn and appends its result.
func (s *Screen[T]) Create(ctx context.Context, fn func(ctx context.Context) (*T, error)) (*T, error) {
	item, err := fn(ctx)
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	s.mu.Lock()
	s.items = append(s.items, *item)
	s.mu.Unlock()

	s.succeed(ctx, "created")
	return item, nil
}

// Update runs fn and replaces the item with the same id in place.
func (s *Screen[T]) Update(ctx context.Context, id string, fn func(ctx context.Context) (*T, error)) (*T, error) {
	item, err := fn(ctx)
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items[i] = *item
	} else {
		s.items = append(s.items, *item)
	}
	s.mu.Unlock()

	s.succeed(ctx, "updated")
	return item, nil
}

// Delete runs fn and removes the item with id.
func (s *Screen[T]) Delete(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return s.fail(ctx, "delete", err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()

	s.succeed(ctx, "deleted")
	return nil
}

// indexOf must hold s.mu.
func (s *Screen[T]) indexOf(id string) int {
	for i := range s.items {
		if s.spec.ID(s.items[i]) == id {
			return i
		}
	}
	return -1
}

func (s *Screen[T]) succeed(ctx context.Context, verb string) {
	s.toasts.Success(s.spec.Noun + " " + verb + " successfully")

	s.mu.RLock()
	hook := s.onChange
	s.mu.RUnlock()
	if hook != nil {
		hook(ctx)
	}
}

func (s *Screen[T]) fail(ctx context.Context, action string, err error) error {
	e := apierr.Classify(apierr.OpGeneric, err)
	s.toasts.Error(apierr.Message(e))
	logger.WarnContext(ctx, "Admin action failed", "screen", s.spec.Noun, "action", action, "error", err)
	return e
}
