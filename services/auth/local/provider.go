package localauth

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
	"github.com/schoolier/backend/core/session"
)

var (
	// errors
	ErrAccountNotFound = errors.New("account not found")

	passwordResetTemplate = "password-reset"
)

type account struct {
	id        string
	email     string
	name      string
	demo      bool
	pwdHash   []byte
	lastLogin time.Time
}

func (a *account) setPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.pwdHash = hash
	return nil
}

func (a *account) checkPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.pwdHash, []byte(pwd))
}

func (a *account) principal() identity.Principal {
	meta := map[string]string{"full_name": a.name}
	if a.demo {
		meta["demo"] = "true"
	}
	return identity.Principal{ID: a.id, Email: a.email, Metadata: meta}
}

// Provider is an in-process auth provider used in DEV/TEST mode and by the
// test-suite. It keeps accounts in memory, seeds the demo registry at
// startup and completes password resets itself (signed token via email).
type Provider struct {
	mu      sync.RWMutex
	byEmail map[string]*account
	byID    map[string]*account
	current string // signed-in account id

	mailSvc core.EmailService
	logger  core.Logger
}

var (
	_ session.AuthProvider   = (*Provider)(nil)
	_ session.ResetConfirmer = (*Provider)(nil)
)

func NewProvider(mailSvc core.EmailService, logger core.Logger) *Provider {
	p := &Provider{
		byEmail: make(map[string]*account),
		byID:    make(map[string]*account),
		mailSvc: mailSvc,
		logger:  logger,
	}
	for _, demo := range identity.DemoAccounts {
		if _, err := p.addAccount(demo.Email, demo.Name, demo.Password, true); err != nil {
			logger.Error(fmt.Sprintf("seeding demo account %s: %v", demo.Email, err), err)
		}
	}
	return p
}

func (p *Provider) addAccount(email, name, pwd string, demo bool) (*account, error) {
	acct := &account{
		id:    uuid.New().String(),
		email: core.CleanString(email, true /* lower */),
		name:  core.CleanString(name),
		demo:  demo,
	}
	if err := acct.setPassword(pwd); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[acct.email]; exists {
		return nil, session.ErrEmailExists
	}
	p.byEmail[acct.email] = acct
	p.byID[acct.id] = acct
	return acct, nil
}

func (p *Provider) findByEmail(email string) (*account, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	acct, ok := p.byEmail[core.CleanString(email, true)]
	return acct, ok
}

func (p *Provider) SignIn(_ context.Context, email, password string) (identity.Principal, error) {
	acct, ok := p.findByEmail(email)
	if !ok {
		return identity.Principal{}, session.ErrInvalidCredentials
	}
	if err := acct.checkPassword(password); err != nil {
		return identity.Principal{}, session.ErrInvalidCredentials
	}

	p.mu.Lock()
	acct.lastLogin = time.Now().UTC()
	p.current = acct.id
	p.mu.Unlock()
	return acct.principal(), nil
}

func (p *Provider) SignUp(_ context.Context, na session.NewAccount) (identity.Principal, error) {
	acct, err := p.addAccount(na.Email, na.Name, na.Password, false)
	if err != nil {
		return identity.Principal{}, err
	}

	p.mu.Lock()
	acct.lastLogin = time.Now().UTC()
	p.current = acct.id
	p.mu.Unlock()
	return acct.principal(), nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.current = ""
	p.mu.Unlock()
	return nil
}

func (p *Provider) CurrentPrincipal(_ context.Context) (identity.Principal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == "" {
		return identity.Principal{}, session.ErrNoSession
	}
	acct, ok := p.byID[p.current]
	if !ok {
		return identity.Principal{}, session.ErrNoSession
	}
	return acct.principal(), nil
}

// ResetPassword emails a signed reset token. Unknown emails error so the
// caller can decide what to leak; the session store swallows it.
func (p *Provider) ResetPassword(_ context.Context, email string) error {
	acct, ok := p.findByEmail(email)
	if !ok {
		return ErrAccountNotFound
	}

	token, err := makeToken(acct)
	if err != nil {
		return errors.Wrap(err, "generating reset token")
	}
	p.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: acct.name, Address: acct.email}},
		Subject:      "Password Reset",
		TemplateName: passwordResetTemplate,
		TemplateData: struct{ Name, UID, Token string }{acct.name, encodeUID(acct), token},
	})
	return nil
}

func (p *Provider) ConfirmResetPassword(_ context.Context, uid, token, password string) error {
	id, err := decodeUID(uid)
	if err != nil {
		return errInvalidToken
	}

	p.mu.RLock()
	acct, ok := p.byID[id]
	p.mu.RUnlock()
	if !ok {
		return errInvalidToken
	}
	if err = verifyToken(acct, token); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return acct.setPassword(password)
}
