// Package toast collects the short notifications shown to the user.
package toast

import "sync"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier is what flows and screens report results to.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Tray buffers toasts until the HTTP layer drains them into a response.
type Tray struct {
	mu     sync.Mutex
	toasts []Toast
}

func NewTray() *Tray {
	return &Tray{}
}

func (t *Tray) Push(level Level, msg string) {
	if msg == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts = append(t.toasts, Toast{Level: level, Message: msg})
}

func (t *Tray) Success(msg string) { t.Push(LevelSuccess, msg) }
func (t *Tray) Error(msg string)   { t.Push(LevelError, msg) }
func (t *Tray) Info(msg string)    { t.Push(LevelInfo, msg) }

// Drain returns every pending toast and empties the tray. A drained toast
// is never shown again.
func (t *Tray) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.toasts
	t.toasts = nil
	if out == nil {
		return []Toast{}
	}
	return out
}
