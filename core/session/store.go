package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
)

// Transition is the ambient auth transition. At most one is active at a time.
type Transition int

const (
	TransitionIdle Transition = iota
	TransitionLoggingIn
	TransitionLoggingOut
)

func (t Transition) String() string {
	switch t {
	case TransitionLoggingIn:
		return "logging-in"
	case TransitionLoggingOut:
		return "logging-out"
	default:
		return "idle"
	}
}

// Auth-state event names, matching what the remote provider emits.
type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
	EventRestored  EventType = "SESSION_RESTORED"
)

type Event struct {
	Type     EventType
	Identity *identity.Identity
}

// Store holds the current authenticated identity and transition state,
// and exposes the credential-exchange operations. Long-lived for the life
// of the application.
type Store struct {
	provider AuthProvider
	resolver *identity.Resolver
	logger   core.Logger

	signInTimeout  time.Duration
	signOutTimeout time.Duration
	teardownDelay  time.Duration

	mu         sync.Mutex
	current    *identity.Identity
	transition Transition
	generation uint64 // bumped on every mutation; stale results check it before applying
	signingOut bool   // sign-out in-flight flag; reset teardownDelay after completion

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSubID   int
	events      chan Event
	done        chan struct{}
	closeOnce   sync.Once
}

func NewStore(provider AuthProvider, resolver *identity.Resolver, logger core.Logger, conf *core.Config) *Store {
	s := &Store{
		provider:       provider,
		resolver:       resolver,
		logger:         logger,
		signInTimeout:  conf.Auth.SignInTimeout,
		signOutTimeout: conf.Auth.SignOutTimeout,
		teardownDelay:  conf.Auth.TeardownDelay,
		subscribers:    make(map[int]chan Event),
		events:         make(chan Event, 16),
		done:           make(chan struct{}),
	}
	go s.dispatch()
	return s
}

func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Init determines the initial session state by asking the provider for an
// existing session. Failure to restore degrades to the logged-out state.
func (s *Store) Init(ctx context.Context) error {
	p, err := s.provider.CurrentPrincipal(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNoSession {
			return nil
		}
		s.logger.Warn(fmt.Sprintf("session restore failed: %v", err), err)
		return nil
	}

	gen := s.gen()
	ident, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("restored session has no usable identity: %v", err), err)
		return nil
	}
	if s.apply(gen, ident, EventRestored) {
		s.logger.Info("session restored for " + ident.Email)
	}
	return nil
}

func (s *Store) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Authenticated holds exactly when a current identity is present.
func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

func (s *Store) Transition() Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition
}

func (s *Store) IsLoggingIn() bool  { return s.Transition() == TransitionLoggingIn }
func (s *Store) IsLoggingOut() bool { return s.Transition() == TransitionLoggingOut }

// Subscribe registers for auth-state events. The returned func cancels the
// subscription. Delivery is best-effort: a slow subscriber misses events
// rather than blocking the store.
func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// dispatch fans events out from its own goroutine. Mutating calls only
// enqueue; subscribers are never invoked from inside the call stack that
// holds the store lock. The remote provider SDK has the same reentrancy
// hazard around its internal locking, so notifications must stay deferred.
func (s *Store) dispatch() {
	for {
		select {
		case ev := <-s.events:
			s.subMu.Lock()
			for _, ch := range s.subscribers {
				select {
				case ch <- ev:
				default:
				}
			}
			s.subMu.Unlock()
		case <-s.done:
			return
		}
	}
}

func (s *Store) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("auth event dropped: queue full")
	}
}

func (s *Store) gen() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// apply installs ident as the current identity unless a newer mutation won
// in the meantime; a late-losing resolution must never resurrect state a
// subsequent operation has already replaced.
func (s *Store) apply(gen uint64, ident *identity.Identity, evType EventType) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Warn("stale auth result discarded")
		return false
	}
	s.current = ident
	s.generation++
	s.mu.Unlock()

	s.publish(Event{Type: evType, Identity: ident})
	return true
}

// begin enters a transition; concurrent entry while one is active is
// rejected.
func (s *Store) begin(t Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transition != TransitionIdle {
		return ErrBusy
	}
	s.transition = t
	return nil
}

func (s *Store) end() {
	s.mu.Lock()
	s.transition = TransitionIdle
	s.mu.Unlock()
}
