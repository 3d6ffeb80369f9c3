package session

import "github.com/pkg/errors"

var (
	// ErrInvalidCredentials means the provider explicitly rejected the
	// email/password pair. Surfaced to the user, never retried automatically.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTimeout means a bounded wait elapsed before the provider call
	// settled. Retryable on sign-in; swallowed on sign-out.
	ErrTimeout = errors.New("auth provider timed out")

	// ErrProfileUnavailable means auth succeeded but no usable identity
	// could be resolved, not even a minimal one.
	ErrProfileUnavailable = errors.New("profile unavailable")

	// ErrTransport is a network-level failure distinct from an explicit
	// rejection.
	ErrTransport = errors.New("auth provider unreachable")

	// ErrBusy means another auth transition is already in flight.
	ErrBusy = errors.New("another auth operation is in progress")

	// ErrNoSession is returned by providers when no session exists.
	ErrNoSession = errors.New("no active session")

	// ErrEmailExists is returned by providers on duplicate sign-up.
	ErrEmailExists = errors.New("an account with this email already exists")

	// ErrUnknownDemoAccount means the demo email is not in the registry.
	ErrUnknownDemoAccount = errors.New("unknown demo account")
)
