package session

import (
	"context"

	"github.com/schoolier/backend/core/identity"
)

type (
	// AuthProvider wraps the remote auth backend. Implementations map their
	// transport failures onto this package's sentinel errors.
	AuthProvider interface {
		SignIn(ctx context.Context, email, password string) (identity.Principal, error)
		SignUp(ctx context.Context, acct NewAccount) (identity.Principal, error)
		SignOut(ctx context.Context) error
		ResetPassword(ctx context.Context, email string) error
		// CurrentPrincipal returns the principal of an existing session,
		// or ErrNoSession.
		CurrentPrincipal(ctx context.Context) (identity.Principal, error)
	}

	// ResetConfirmer is implemented by providers that complete password
	// resets themselves instead of delegating to hosted pages.
	ResetConfirmer interface {
		ConfirmResetPassword(ctx context.Context, uid, token, password string) error
	}
)
