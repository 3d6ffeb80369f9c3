package session

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
)

// Login signs in against the remote provider, racing the call against the
// configured bound, and resolves the principal into an Identity.
func (s *Store) Login(ctx context.Context, email, password string) (*identity.Identity, error) {
	email = core.CleanString(email, true)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if err := s.begin(TransitionLoggingIn); err != nil {
		s.logger.Warn("sign-in rejected: " + s.Transition().String() + " in progress")
		return nil, err
	}
	defer s.end()

	p, err := s.racePrincipal(ctx, s.signInTimeout, func(ctx context.Context) (identity.Principal, error) {
		return s.provider.SignIn(ctx, email, password)
	})
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, p, nil)
}

// LoginDemo signs in a registered demo account. The account's declared role
// is appended to the resolved role set even when the backend profile
// disagrees: demo accounts must always land on their intended dashboard.
func (s *Store) LoginDemo(ctx context.Context, acct identity.DemoAccount) (*identity.Identity, error) {
	if _, ok := identity.DemoAccountByEmail(acct.Email); !ok {
		return nil, ErrUnknownDemoAccount
	}

	if err := s.begin(TransitionLoggingIn); err != nil {
		s.logger.Warn("demo sign-in rejected: " + s.Transition().String() + " in progress")
		return nil, err
	}
	defer s.end()

	p, err := s.racePrincipal(ctx, s.signInTimeout, func(ctx context.Context) (identity.Principal, error) {
		return s.provider.SignIn(ctx, acct.Email, acct.Password)
	})
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, p, &acct)
}

// Register signs up a new account and establishes its session.
func (s *Store) Register(ctx context.Context, acct NewAccount) (*identity.Identity, error) {
	if err := s.begin(TransitionLoggingIn); err != nil {
		s.logger.Warn("sign-up rejected: " + s.Transition().String() + " in progress")
		return nil, err
	}
	defer s.end()

	p, err := s.racePrincipal(ctx, s.signInTimeout, func(ctx context.Context) (identity.Principal, error) {
		return s.provider.SignUp(ctx, acct)
	})
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, p, nil)
}

// Logout tears the local session down before the remote call resolves, so
// callers are immediately logged out, then races the remote sign-out
// against its bound. All remote outcomes are swallowed: local state wins
// over remote confirmation, and the user is never left stuck logged in.
// Concurrent calls while one is in flight are no-ops.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.signingOut {
		s.mu.Unlock()
		s.logger.Debug("sign-out already in progress")
		return nil
	}
	if s.transition != TransitionIdle {
		t := s.transition
		s.mu.Unlock()
		s.logger.Warn("sign-out rejected: " + t.String() + " in progress")
		return nil
	}
	s.transition = TransitionLoggingOut
	s.signingOut = true
	s.current = nil
	s.generation++
	s.mu.Unlock()

	s.resolver.Cache().Clear()
	s.publish(Event{Type: EventSignedOut})

	if err := s.raceSignOut(ctx); err != nil {
		s.logger.Warn(fmt.Sprintf("remote sign-out failed: %v", err), err)
	}

	s.end()

	// Clear once more after a short delay so a resolution that was already
	// in flight cannot leave a zombie entry behind. The delayed reset of
	// the in-flight flag keeps rapid double logouts idempotent without
	// locking the operation up for good after an error.
	time.AfterFunc(s.teardownDelay, func() {
		s.resolver.Cache().Clear()
		s.mu.Lock()
		s.signingOut = false
		s.mu.Unlock()
	})
	return nil
}

// ResetPassword asks the provider to start a password reset. It reports
// success even for unknown emails so callers cannot probe which addresses
// are registered; only transport-level failures surface.
func (s *Store) ResetPassword(ctx context.Context, email string) error {
	email = core.CleanString(email, true)
	if email == "" {
		return core.NewValidationError(errors.New("email is required"),
			core.FieldError{Field: "email", Error: "this field is required"})
	}

	if err := s.provider.ResetPassword(ctx, email); err != nil {
		cause := errors.Cause(err)
		if cause == ErrTransport || cause == ErrTimeout {
			return err
		}
		s.logger.Debug(fmt.Sprintf("password reset for %s swallowed: %v", email, err))
	}
	return nil
}

// ConfirmResetPassword completes a reset when the provider supports it.
func (s *Store) ConfirmResetPassword(ctx context.Context, uid, token, password string) error {
	confirmer, ok := s.provider.(ResetConfirmer)
	if !ok {
		return errors.New("password reset confirmation is handled by the auth provider")
	}
	return confirmer.ConfirmResetPassword(ctx, uid, token, password)
}

// establish resolves the principal and installs the identity.
func (s *Store) establish(ctx context.Context, p identity.Principal, demo *identity.DemoAccount) (*identity.Identity, error) {
	gen := s.gen()

	ident, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return nil, errors.Wrap(ErrProfileUnavailable, err.Error())
	}

	if demo != nil {
		forced := ident.WithRole(demo.Role)
		forced.IsDemo = true
		s.resolver.Cache().Put(forced) // most recent resolution wins
		ident = forced
	}

	if !s.apply(gen, ident, EventSignedIn) {
		return nil, ErrBusy
	}
	return ident, nil
}

// racePrincipal races call against bound. The losing call keeps running in
// the background; it can only ever win its own buffered channel, never
// mutate shared state after losing.
func (s *Store) racePrincipal(
	ctx context.Context,
	bound time.Duration,
	call func(context.Context) (identity.Principal, error),
) (identity.Principal, error) {
	ctx, cancel := context.WithTimeout(ctx, bound)
	defer cancel()

	type result struct {
		p   identity.Principal
		err error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := call(ctx)
		ch <- result{p, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil && errors.Cause(res.err) == context.DeadlineExceeded {
			return identity.Principal{}, ErrTimeout
		}
		return res.p, res.err
	case <-ctx.Done():
		return identity.Principal{}, ErrTimeout
	}
}

func (s *Store) raceSignOut(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.signOutTimeout)
	defer cancel()

	ch := make(chan error, 1)
	go func() { ch <- s.provider.SignOut(ctx) }()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ErrTimeout
	}
}
