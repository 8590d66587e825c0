package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/restroom-map/internal/mapview"
	"github.com/jengzang/restroom-map/internal/models"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for an unknown or closed session id
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned by Create when the session cap is reached
	ErrTooManySessions = errors.New("too many sessions")
)

// Limits bounds the sessions a registry keeps. A zero field disables that
// bound.
type Limits struct {
	MaxSessions int           // Running sessions at most
	IdleTimeout time.Duration // A session not looked up for this long is closed
}

// Session is one map client with its own controller and marker state
type Session struct {
	ID        string
	CreatedAt time.Time

	controller *mapview.Controller
	presenter  *Presenter
	cancel     context.CancelFunc
	done       chan struct{}

	lastSeen time.Time // guarded by Registry.mu
}

// Submit forwards a map event to the session's controller
func (s *Session) Submit(ctx context.Context, ev mapview.Event) error {
	return s.controller.Submit(ctx, ev)
}

// Markers returns the session's current marker snapshot
func (s *Session) Markers() models.MarkersResponse {
	return s.presenter.Snapshot()
}

func (s *Session) stop() {
	s.cancel()
	<-s.done
}

// Registry owns the running sessions
type Registry struct {
	source mapview.PointSource
	opts   mapview.Options
	limits Limits
	log    *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a registry whose controllers read and write source.
// With an idle timeout set, a janitor goroutine closes idle sessions until
// Close.
func NewRegistry(source mapview.PointSource, opts mapview.Options, limits Limits, log *zap.Logger) *Registry {
	r := &Registry{
		source:   source,
		opts:     opts,
		limits:   limits,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}

	if limits.IdleTimeout > 0 {
		go r.janitor(limits.IdleTimeout / 2)
	}

	return r
}

func (r *Registry) janitor(every time.Duration) {
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

// reap closes every session idle for longer than the timeout
func (r *Registry) reap() int {
	if r.limits.IdleTimeout <= 0 {
		return 0
	}

	r.mu.Lock()
	now := r.now()
	var idle []*Session
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.limits.IdleTimeout {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.stop()
		r.log.Info("Idle session closed", zap.String("session", s.ID))
	}
	return len(idle)
}

// Create starts a new session. It runs until Delete, Close or the idle
// timeout.
func (r *Registry) Create() (*Session, error) {
	if r.full() {
		r.reap()
	}

	presenter := NewPresenter()
	ctx, cancel := context.WithCancel(context.Background())

	now := r.now()
	s := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		controller: mapview.NewController(r.source, presenter, r.opts, r.log),
		presenter:  presenter,
		cancel:     cancel,
		done:       make(chan struct{}),
		lastSeen:   now,
	}

	r.mu.Lock()
	if r.fullLocked() {
		r.mu.Unlock()
		cancel()
		r.log.Warn("Session limit reached", zap.Int("max", r.limits.MaxSessions))
		return nil, ErrTooManySessions
	}
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	go func() {
		defer close(s.done)
		if err := s.controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error("Session controller stopped", zap.String("session", s.ID), zap.Error(err))
		}
	}()

	r.log.Info("Session created", zap.String("session", s.ID), zap.Int("active", n))
	return s, nil
}

func (r *Registry) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fullLocked()
}

func (r *Registry) fullLocked() bool {
	return r.limits.MaxSessions > 0 && len(r.sessions) >= r.limits.MaxSessions
}

// Get returns a running session and marks it as in use
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s, nil
}

// Delete stops a session and forgets it
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.stop()
	r.log.Info("Session closed", zap.String("session", id))
	return nil
}

// Len returns the number of running sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops every session and the janitor
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
}
