// Package window tracks open auxiliary windows so that each logical role
// is backed by at most one instance. Opening an already open role focuses
// the existing window instead of spawning a duplicate.
package window

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Role identifies a logical window. Person detail windows embed the person
// id so each person gets its own singleton slot.
type Role string

// Well-known roles.
const (
	RoleChart  Role = "chart"
	RoleStats  Role = "stats"
	RoleFilter Role = "filter"
)

// PersonRole returns the role for a person detail window.
func PersonRole(personID string) Role {
	return Role("person:" + personID)
}

// Window is one live instance. Focus and Close are supplied by the UI
// layer; the registry only sequences them.
type Window struct {
	Instance string // unique per open, survives focus
	Role     Role
	OpenedAt time.Time

	focus func()
	close func()
}

// Registry is the singleton bookkeeper. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	open   map[Role]*Window
	logger *log.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		open:   make(map[Role]*Window),
		logger: logger,
	}
}

// Open returns the window for the role, creating it via build on first
// open. A second Open for the same role focuses the existing instance and
// reports created=false; build is not called.
func (r *Registry) Open(role Role, build func() (focus, close func())) (w *Window, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.open[role]; ok {
		r.logger.Debug("focusing existing window", "role", role, "instance", existing.Instance)
		if existing.focus != nil {
			existing.focus()
		}
		return existing, false
	}

	focus, closeFn := build()
	w = &Window{
		Instance: uuid.NewString(),
		Role:     role,
		OpenedAt: time.Now(),
		focus:    focus,
		close:    closeFn,
	}
	r.open[role] = w
	r.logger.Debug("opened window", "role", role, "instance", w.Instance)
	return w, true
}

// Close tears down the role's window if open. Reports whether a window was
// actually closed.
func (r *Registry) Close(role Role) bool {
	r.mu.Lock()
	w, ok := r.open[role]
	if ok {
		delete(r.open, role)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if w.close != nil {
		w.close()
	}
	return true
}

// CloseAll closes every open window, in no particular order.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	windows := make([]*Window, 0, len(r.open))
	for _, w := range r.open {
		windows = append(windows, w)
	}
	r.open = make(map[Role]*Window)
	r.mu.Unlock()

	for _, w := range windows {
		if w.close != nil {
			w.close()
		}
	}
}

// Get returns the open window for a role, or nil.
func (r *Registry) Get(role Role) *Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open[role]
}

// Len returns the number of open windows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}
