package viewer

import (
	"sync"
	"time"

	"imsystem/internal/inventory/grid"
)

const (
	DefaultIdleTTL = 24 * time.Hour
	sweepEvery     = time.Minute
)

// Session is one viewer's grid state. Handlers for the same session may run
// concurrently, so every transition happens under mu.
type Session struct {
	ID string

	mu       sync.Mutex
	state    grid.GridState
	flash    *grid.Flash
	lastSeen time.Time
}

func (s *Session) State() grid.GridState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// update applies fn to the state under the session lock.
func (s *Session) update(fn func(grid.GridState) grid.GridState) grid.GridState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

func (s *Session) FlashColumn() string {
	return s.flash.Column()
}

// Registry maps session ids to viewer sessions and forgets sessions that
// have been idle longer than ttl.
type Registry struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	ttl        time.Duration
	flashDelay time.Duration
	now        func() time.Time
	lastSweep  time.Time
}

func NewRegistry(ttl, flashDelay time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		flashDelay: flashDelay,
		now:        time.Now,
	}
}

// Get returns the session for id, creating it in the default state.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= sweepEvery {
		r.sweepLocked(now)
	}

	s, ok := r.sessions[id]
	if !ok {
		s = &Session{
			ID:    id,
			state: grid.DefaultState(),
			flash: grid.NewFlash(r.flashDelay),
		}
		r.sessions[id] = s
	}
	s.lastSeen = now
	return s
}

// Remove drops the session and cancels its pending flash.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.flash.Stop()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every pending flash timer.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.flash.Stop()
	}
}

func (r *Registry) sweepLocked(now time.Time) {
	r.lastSweep = now
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.ttl {
			s.flash.Stop()
			delete(r.sessions, id)
		}
	}
}
