package loader

import (
	"context"
	"errors"
	"sync"

	"github.com/pavitra93/go-rental-management/shared/models"
)

// ErrStaleLoad is returned for a load that a newer Reload superseded
var ErrStaleLoad = errors.New("load superseded by a newer request")

// Session holds the latest view for one signed-in user. Every Reload takes
// a new token and cancels the load in flight; only the load holding the
// latest token may publish its view.
type Session struct {
	loader *Loader

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	view   *View
}

func NewSession(l *Loader) *Session {
	return &Session{loader: l}
}

// Reload loads a fresh view for actor. Actor may differ between calls, as
// when an admin switches the user they are viewing as.
func (s *Session) Reload(ctx context.Context, actor models.Actor) (*View, error) {
	s.mu.Lock()
	s.token++
	token := s.token
	if s.cancel != nil {
		s.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	view, err := s.loader.Load(lctx, actor)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if token != s.token {
		return nil, ErrStaleLoad
	}
	s.cancel = nil
	s.view = view
	return view, err
}

// Current returns the last published view, or nil before the first load.
func (s *Session) Current() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Token is the token of the most recent Reload.
func (s *Session) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Close cancels the load in flight and drops the view.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.view = nil
}

// Registry keeps one session per signed-in user.
type Registry struct {
	loader *Loader

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(l *Loader) *Registry {
	return &Registry{loader: l, sessions: make(map[string]*Session)}
}

func (r *Registry) Session(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = NewSession(r.loader)
		r.sessions[userID] = s
	}
	return s
}

// Drop closes and forgets the user's session, used when their profile
// changes or they log out.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
