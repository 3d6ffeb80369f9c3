package localauth

import (
	"context"
	"strings"
	"testing"

	"github.com/schoolier/backend/core/identity"
	"github.com/schoolier/backend/core/session"
	emailsvc "github.com/schoolier/backend/services/email"
	testutil "github.com/schoolier/backend/tests"
)

func setup(t *testing.T) *Provider {
	t.Helper()
	conf := testutil.NewConfig()
	emailsvc.ResetSentMessages()
	return NewProvider(emailsvc.NewDummyService(conf), testutil.NopLogger{})
}

func TestProvider_SignIn(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	t.Run("seeded demo accounts", func(t *testing.T) {
		for _, demo := range identity.DemoAccounts {
			principal, err := p.SignIn(ctx, demo.Email, demo.Password)
			if err != nil {
				t.Fatalf("SignIn(%s) failed: %v", demo.Email, err)
			}
			if principal.Email != demo.Email {
				t.Errorf("SignIn() email = %q, want %q", principal.Email, demo.Email)
			}
			if principal.Metadata["demo"] != "true" {
				t.Errorf("SignIn(%s) principal not flagged demo", demo.Email)
			}
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := p.SignIn(ctx, "student@schoolier.com", "wrong"); err != session.ErrInvalidCredentials {
			t.Errorf("SignIn() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		if _, err := p.SignIn(ctx, "nobody@example.com", "x"); err != session.ErrInvalidCredentials {
			t.Errorf("SignIn() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("email cleaned", func(t *testing.T) {
		if _, err := p.SignIn(ctx, " Student@Schoolier.COM ", "schoolier-demo"); err != nil {
			t.Errorf("SignIn() with uncleaned email failed: %v", err)
		}
	})
}

func TestProvider_SignUp(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	principal, err := p.SignUp(ctx, session.NewAccount{Name: "Jane", Email: "jane@example.com", Password: "Str0ng!pass"})
	if err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}
	if principal.Metadata["full_name"] != "Jane" {
		t.Errorf("SignUp() metadata = %v", principal.Metadata)
	}

	// new sign-up is the current session
	current, err := p.CurrentPrincipal(ctx)
	if err != nil {
		t.Fatalf("CurrentPrincipal() failed: %v", err)
	}
	if current.ID != principal.ID {
		t.Error("CurrentPrincipal() is not the signed-up account")
	}

	if _, err = p.SignUp(ctx, session.NewAccount{Name: "Other", Email: "jane@example.com", Password: "x"}); err != session.ErrEmailExists {
		t.Errorf("SignUp() duplicate error = %v, want ErrEmailExists", err)
	}
}

func TestProvider_SignOut(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	if _, err := p.SignIn(ctx, "student@schoolier.com", "schoolier-demo"); err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() failed: %v", err)
	}
	if _, err := p.CurrentPrincipal(ctx); err != session.ErrNoSession {
		t.Errorf("CurrentPrincipal() error = %v, want ErrNoSession", err)
	}
}

func TestProvider_passwordResetFlow(t *testing.T) {
	p := setup(t)
	ctx := context.Background()

	if _, err := p.SignUp(ctx, session.NewAccount{Name: "Jane", Email: "jane@example.com", Password: "Old1!pass"}); err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}

	t.Run("unknown email errors for the store to swallow", func(t *testing.T) {
		if err := p.ResetPassword(ctx, "nobody@example.com"); err != ErrAccountNotFound {
			t.Errorf("ResetPassword() error = %v, want ErrAccountNotFound", err)
		}
	})

	t.Run("full reset round trip", func(t *testing.T) {
		emailsvc.ResetSentMessages()

		if err := p.ResetPassword(ctx, "jane@example.com"); err != nil {
			t.Fatalf("ResetPassword() failed: %v", err)
		}
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("ResetPassword() sent %d messages, want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if msg.To[0].Address != "jane@example.com" {
			t.Errorf("reset email sent to %q", msg.To[0].Address)
		}
		data, ok := msg.TemplateData.(struct{ Name, UID, Token string })
		if !ok {
			t.Fatalf("unexpected template data %T", msg.TemplateData)
		}
		if !strings.Contains(msg.TextContent, data.Token) {
			t.Error("rendered reset email does not contain the token")
		}

		if err := p.ConfirmResetPassword(ctx, data.UID, data.Token, "New1!pass"); err != nil {
			t.Fatalf("ConfirmResetPassword() failed: %v", err)
		}

		if _, err := p.SignIn(ctx, "jane@example.com", "Old1!pass"); err != session.ErrInvalidCredentials {
			t.Error("old password still accepted after reset")
		}
		if _, err := p.SignIn(ctx, "jane@example.com", "New1!pass"); err != nil {
			t.Errorf("SignIn() with new password failed: %v", err)
		}

		// token is single-use: the password hash changed
		if err := p.ConfirmResetPassword(ctx, data.UID, data.Token, "Another1!pass"); err != errInvalidToken {
			t.Errorf("ConfirmResetPassword() reuse error = %v, want errInvalidToken", err)
		}
	})

	t.Run("garbage uid or token rejected", func(t *testing.T) {
		if err := p.ConfirmResetPassword(ctx, "%%%", "tok", "New1!pass"); err != errInvalidToken {
			t.Errorf("ConfirmResetPassword() error = %v, want errInvalidToken", err)
		}
	})
}
