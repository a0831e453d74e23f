package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/codecanvas/codecanvas/internal/metrics"
	"github.com/codecanvas/codecanvas/pkg/types"
)

// Registry tracks live sessions by id so multiple sessions run
// independently of each other; nothing is process-global.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
}

// NewRegistry creates a registry whose sessions share the given base
// options (runner, store, debounce, signal URL builder).
func NewRegistry(opts Options) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create starts a session, resuming a persisted project when the config
// names one.
func (r *Registry) Create(cfg types.SessionConfig) (*Session, error) {
	opts := r.opts
	opts.Name = cfg.Name

	if cfg.ProjectID != "" {
		if opts.Store == nil {
			return nil, fmt.Errorf("no snapshot store configured")
		}
		p, err := opts.Store.Load(cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("resume project: %w", err)
		}
		opts.Project = p
	}

	id := uuid.New().String()[:8]
	s := New(id, opts)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	metrics.SessionsActive.Inc()
	return s, nil
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns info for all live sessions.
func (r *Registry) List() []types.SessionInfo {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	infos := make([]types.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	metrics.SessionsActive.Dec()
	return true
}

// Close shuts down all sessions.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		metrics.SessionsActive.Dec()
	}
}
