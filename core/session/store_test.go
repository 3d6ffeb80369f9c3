package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
	dummydb "github.com/schoolier/backend/storage/database/dummy"
	testutil "github.com/schoolier/backend/tests"
)

type fakeProvider struct {
	mu           sync.Mutex
	signInDelay  time.Duration
	signInErr    error
	signUpErr    error
	signOutDelay time.Duration
	signOutErr   error
	resetErr     error
	currentFn    func(ctx context.Context) (identity.Principal, error)

	signInCalls  int
	signOutCalls int
	resetCalls   int

	release chan struct{} // when set, SignIn blocks until closed
}

func (p *fakeProvider) principal(email string) identity.Principal {
	return identity.Principal{ID: "p-" + email, Email: email}
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (identity.Principal, error) {
	p.mu.Lock()
	p.signInCalls++
	release := p.release
	p.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return identity.Principal{}, ctx.Err()
		}
	}
	if p.signInDelay > 0 {
		select {
		case <-time.After(p.signInDelay):
		case <-ctx.Done():
			return identity.Principal{}, ctx.Err()
		}
	}
	if p.signInErr != nil {
		return identity.Principal{}, p.signInErr
	}
	return p.principal(email), nil
}

func (p *fakeProvider) SignUp(ctx context.Context, acct NewAccount) (identity.Principal, error) {
	if p.signUpErr != nil {
		return identity.Principal{}, p.signUpErr
	}
	return p.principal(acct.Email), nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.signOutCalls++
	p.mu.Unlock()

	if p.signOutDelay > 0 {
		select {
		case <-time.After(p.signOutDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.signOutErr
}

func (p *fakeProvider) ResetPassword(ctx context.Context, email string) error {
	p.mu.Lock()
	p.resetCalls++
	p.mu.Unlock()
	return p.resetErr
}

func (p *fakeProvider) CurrentPrincipal(ctx context.Context) (identity.Principal, error) {
	if p.currentFn != nil {
		return p.currentFn(ctx)
	}
	return identity.Principal{}, ErrNoSession
}

func (p *fakeProvider) counts() (signIn, signOut, reset int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signInCalls, p.signOutCalls, p.resetCalls
}

func newTestStore(t *testing.T, provider AuthProvider) *Store {
	t.Helper()

	conf := &core.Config{
		Auth: core.AuthConfig{
			SignInTimeout:  150 * time.Millisecond,
			SignOutTimeout: 80 * time.Millisecond,
			ProfileTimeout: 40 * time.Millisecond,
			TeardownDelay:  20 * time.Millisecond,
			DemoDomain:     "schoolier.com",
		},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	resolver := identity.NewResolver(dummydb.NewProfileRepository(db), identity.NewCache(), testutil.NopLogger{}, conf)

	s := NewStore(provider, resolver, testutil.NopLogger{}, conf)
	t.Cleanup(s.Close)
	return s
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStore_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s := newTestStore(t, &fakeProvider{})

		ident, err := s.Login(ctx, "Jane@Example.COM ", "pwd")
		if err != nil {
			t.Fatalf("Login() failed: %v", err)
		}
		if ident.Email != "jane@example.com" {
			t.Errorf("Login() email = %q, want cleaned input", ident.Email)
		}
		if !s.Authenticated() {
			t.Error("Login() left store unauthenticated")
		}
		if s.Current() != ident {
			t.Error("Current() does not hold the signed-in identity")
		}
		if s.Transition() != TransitionIdle {
			t.Errorf("Transition() = %v after Login, want idle", s.Transition())
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		s := newTestStore(t, &fakeProvider{signInErr: ErrInvalidCredentials})

		if _, err := s.Login(ctx, "jane@example.com", "nope"); err != ErrInvalidCredentials {
			t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
		}
		if s.Authenticated() {
			t.Error("Login() failure left the store authenticated")
		}
	})

	t.Run("empty credentials rejected without provider call", func(t *testing.T) {
		p := &fakeProvider{}
		s := newTestStore(t, p)

		if _, err := s.Login(ctx, "  ", "pwd"); err != ErrInvalidCredentials {
			t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
		}
		if _, err := s.Login(ctx, "jane@example.com", ""); err != ErrInvalidCredentials {
			t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
		}
		if calls, _, _ := p.counts(); calls != 0 {
			t.Errorf("Login() hit the provider %d times on empty credentials", calls)
		}
	})

	t.Run("hung provider times out within bound", func(t *testing.T) {
		s := newTestStore(t, &fakeProvider{signInDelay: time.Second})

		start := time.Now()
		_, err := s.Login(ctx, "jane@example.com", "pwd")
		if err != ErrTimeout {
			t.Fatalf("Login() error = %v, want ErrTimeout", err)
		}
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Errorf("Login() took %v, want around the 150ms bound", elapsed)
		}
		if s.Authenticated() {
			t.Error("timed-out Login() left the store authenticated")
		}
		if s.Transition() != TransitionIdle {
			t.Errorf("Transition() = %v after timeout, want idle", s.Transition())
		}

		// the losing call must not resurrect a session later
		time.Sleep(time.Second)
		if s.Authenticated() {
			t.Error("late provider result resurrected the session")
		}
	})

	t.Run("concurrent login rejected busy", func(t *testing.T) {
		release := make(chan struct{})
		p := &fakeProvider{release: release}
		s := newTestStore(t, p)

		done := make(chan error, 1)
		go func() {
			_, err := s.Login(ctx, "first@example.com", "pwd")
			done <- err
		}()
		waitFor(t, time.Second, s.IsLoggingIn, "first Login() never entered the logging-in transition")

		if _, err := s.Login(ctx, "second@example.com", "pwd"); err != ErrBusy {
			t.Errorf("concurrent Login() error = %v, want ErrBusy", err)
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("first Login() failed: %v", err)
		}
		if got := s.Current(); got == nil || got.Email != "first@example.com" {
			t.Errorf("Current() = %+v, want the first login's identity", got)
		}
	})
}

func TestStore_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears local state and cache", func(t *testing.T) {
		p := &fakeProvider{signOutDelay: 40 * time.Millisecond}
		s := newTestStore(t, p)
		if _, err := s.Login(ctx, "jane@example.com", "pwd"); err != nil {
			t.Fatalf("Login() failed: %v", err)
		}

		if err := s.Logout(ctx); err != nil {
			t.Fatalf("Logout() failed: %v", err)
		}
		if s.Authenticated() {
			t.Error("Logout() left the store authenticated")
		}
		if s.resolver.Cache().Len() != 0 {
			t.Error("Logout() left cached identities behind")
		}
	})

	t.Run("remote failure swallowed", func(t *testing.T) {
		p := &fakeProvider{signOutErr: ErrTransport}
		s := newTestStore(t, p)
		if _, err := s.Login(ctx, "jane@example.com", "pwd"); err != nil {
			t.Fatalf("Login() failed: %v", err)
		}

		if err := s.Logout(ctx); err != nil {
			t.Errorf("Logout() error = %v, want nil on remote failure", err)
		}
		if s.Authenticated() {
			t.Error("Logout() left the store authenticated after remote failure")
		}
	})

	t.Run("rapid double logout hits provider once", func(t *testing.T) {
		p := &fakeProvider{signOutDelay: 30 * time.Millisecond}
		s := newTestStore(t, p)
		if _, err := s.Login(ctx, "jane@example.com", "pwd"); err != nil {
			t.Fatalf("Login() failed: %v", err)
		}

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Logout(ctx)
			}()
		}
		wg.Wait()

		if _, signOut, _ := p.counts(); signOut != 1 {
			t.Errorf("Logout() hit the provider %d times, want 1", signOut)
		}

		// operational again once the teardown delay passes
		waitFor(t, time.Second, func() bool {
			_, err := s.Login(ctx, "jane@example.com", "pwd")
			return err == nil
		}, "store never became operational after double logout")
	})

	t.Run("logout while logging in is a no-op", func(t *testing.T) {
		release := make(chan struct{})
		p := &fakeProvider{release: release}
		s := newTestStore(t, p)

		done := make(chan error, 1)
		go func() {
			_, err := s.Login(ctx, "jane@example.com", "pwd")
			done <- err
		}()
		waitFor(t, time.Second, s.IsLoggingIn, "Login() never entered the logging-in transition")

		if err := s.Logout(ctx); err != nil {
			t.Errorf("Logout() during login error = %v, want nil", err)
		}
		if _, signOut, _ := p.counts(); signOut != 0 {
			t.Error("Logout() during login hit the provider")
		}

		close(release)
		if err := <-done; err != nil {
			t.Fatalf("Login() failed: %v", err)
		}
		if !s.Authenticated() {
			t.Error("rejected Logout() still tore the session down")
		}
	})
}

func TestStore_events(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, &fakeProvider{})

	events, cancel := s.Subscribe()
	defer cancel()

	next := func() Event {
		select {
		case ev := <-events:
			return ev
		case <-time.After(time.Second):
			t.Fatal("no event delivered")
			return Event{}
		}
	}

	if _, err := s.Login(ctx, "jane@example.com", "pwd"); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}
	if ev := next(); ev.Type != EventSignedIn || ev.Identity == nil {
		t.Errorf("event = %+v, want SIGNED_IN with identity", ev)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if ev := next(); ev.Type != EventSignedOut {
		t.Errorf("event = %+v, want SIGNED_OUT", ev)
	}
}

func TestStore_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("no existing session", func(t *testing.T) {
		s := newTestStore(t, &fakeProvider{})
		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if s.Authenticated() {
			t.Error("Init() authenticated with no session")
		}
	})

	t.Run("restores existing session", func(t *testing.T) {
		p := &fakeProvider{}
		p.currentFn = func(ctx context.Context) (identity.Principal, error) {
			return p.principal("jane@example.com"), nil
		}
		s := newTestStore(t, p)

		events, cancel := s.Subscribe()
		defer cancel()

		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if got := s.Current(); got == nil || got.Email != "jane@example.com" {
			t.Errorf("Current() = %+v after Init", got)
		}

		select {
		case ev := <-events:
			if ev.Type != EventRestored {
				t.Errorf("event = %v, want SESSION_RESTORED", ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("no restore event delivered")
		}
	})

	t.Run("restore failure degrades to logged out", func(t *testing.T) {
		p := &fakeProvider{}
		p.currentFn = func(ctx context.Context) (identity.Principal, error) {
			return identity.Principal{}, ErrTransport
		}
		s := newTestStore(t, p)

		if err := s.Init(ctx); err != nil {
			t.Fatalf("Init() failed: %v", err)
		}
		if s.Authenticated() {
			t.Error("Init() authenticated after a restore failure")
		}
	})
}
