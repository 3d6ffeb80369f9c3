package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/schoolier/backend/core"
)

var (
	// errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrMissingPrincipalID = errors.New("principal has no id")
)

type (
	// ProfileRepository reads the profile table keyed by principal ID.
	ProfileRepository interface {
		GetProfileByID(ctx context.Context, id string) (Profile, error)
		UpsertProfile(ctx context.Context, prof Profile) (Profile, error)
	}

	// Resolver turns a raw remote-auth Principal into an Identity.
	//
	// Resolution degrades instead of failing: when the profile fetch errors,
	// times out or finds no row, a minimal Identity is built from the
	// principal alone. An unauthenticated-looking session is worse than one
	// with a best-guess role. Only a principal without an ID is fatal.
	Resolver struct {
		repo       ProfileRepository
		cache      *Cache
		logger     core.Logger
		timeout    time.Duration
		demoDomain string
	}
)

func NewResolver(repo ProfileRepository, cache *Cache, logger core.Logger, conf *core.Config) *Resolver {
	return &Resolver{
		repo:       repo,
		cache:      cache,
		logger:     logger,
		timeout:    conf.Auth.ProfileTimeout,
		demoDomain: conf.Auth.DemoDomain,
	}
}

func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve maps a principal to its Identity, consulting the cache first.
func (r *Resolver) Resolve(ctx context.Context, p Principal) (*Identity, error) {
	if p.ID == "" {
		return nil, ErrMissingPrincipalID
	}
	if ident, ok := r.cache.Get(p.ID); ok {
		return ident, nil
	}

	var ident *Identity
	prof, err := r.fetchProfile(ctx, p.ID)
	if err != nil {
		if !(errors.Cause(err) == ErrProfileNotFound || errors.Cause(err) == context.DeadlineExceeded) {
			r.logger.Warn(fmt.Sprintf("profile fetch failed, using minimal identity: %v", err), err)
		}
		ident = r.minimalIdentity(p)
	} else {
		ident = r.fromProfile(p, prof)
	}

	r.cache.Put(ident)
	return ident, nil
}

// fetchProfile races the repository lookup against the configured bound.
// The losing call keeps running in the background; it can only ever write
// to its own buffered channel, never to shared state.
func (r *Resolver) fetchProfile(ctx context.Context, id string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		prof Profile
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		prof, err := r.repo.GetProfileByID(ctx, id)
		ch <- result{prof, err}
	}()

	select {
	case res := <-ch:
		return res.prof, res.err
	case <-ctx.Done():
		return Profile{}, errors.Wrap(context.DeadlineExceeded, "fetching profile")
	}
}

func (r *Resolver) fromProfile(p Principal, prof Profile) *Identity {
	name := core.CleanString(prof.Name)
	if name == "" {
		name = defaultName
	}
	avatar := prof.AvatarURL
	if avatar == "" {
		avatar = AvatarURLFor(name)
	}
	email := core.CleanString(prof.Email, true)
	if email == "" {
		email = core.CleanString(p.Email, true)
	}

	role := CoerceRole(prof.Role)
	return &Identity{
		ID:        p.ID,
		Email:     email,
		Name:      name,
		AvatarURL: avatar,
		Role:      role,
		Roles:     []Role{role},
		IsDemo:    p.IsDemo(r.demoDomain),
		CompanyID: prof.CompanyID,
	}
}

// minimalIdentity builds an Identity from the principal alone. Role
// inference from the email only applies to demo accounts; anyone else
// without a resolvable profile defaults plainly to student.
func (r *Resolver) minimalIdentity(p Principal) *Identity {
	role := RoleStudent
	demo := p.IsDemo(r.demoDomain)
	if demo {
		role = InferDemoRole(p.Email)
	}

	name := core.CleanString(p.Metadata["full_name"])
	if name == "" {
		name = defaultName
	}

	return &Identity{
		ID:        p.ID,
		Email:     core.CleanString(p.Email, true),
		Name:      name,
		AvatarURL: AvatarURLFor(name),
		Role:      role,
		Roles:     []Role{role},
		IsDemo:    demo,
	}
}
