package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
	"github.com/schoolier/backend/core/session"
)

// gotrueProvider talks to a GoTrue-style auth REST API (the auth component
// of the hosted backend): password grant, signup, logout and recover.
type gotrueProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  core.Logger

	mu          sync.Mutex
	accessToken string
}

var _ session.AuthProvider = (*gotrueProvider)(nil)

func NewGoTrueProvider(conf *core.Config, logger core.Logger) *gotrueProvider {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &gotrueProvider{
		baseURL: conf.Auth.ProviderURL,
		apiKey:  conf.Auth.ProviderAPIKey,
		client:  &http.Client{Transport: transport},
		logger:  logger,
	}
}

type (
	gotrueUser struct {
		ID           string                 `json:"id"`
		Email        string                 `json:"email"`
		UserMetadata map[string]interface{} `json:"user_metadata"`
	}

	tokenResponse struct {
		AccessToken string     `json:"access_token"`
		User        gotrueUser `json:"user"`
	}

	gotrueError struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
		Message     string `json:"msg"`
	}
)

func (u gotrueUser) principal() identity.Principal {
	meta := make(map[string]string, len(u.UserMetadata))
	for k, v := range u.UserMetadata {
		if s, ok := v.(string); ok {
			meta[k] = s
		} else if b, ok := v.(bool); ok && b {
			meta[k] = "true"
		}
	}
	return identity.Principal{ID: u.ID, Email: u.Email, Metadata: meta}
}

func (p *gotrueProvider) SignIn(ctx context.Context, email, password string) (identity.Principal, error) {
	body := map[string]string{"email": email, "password": password}
	var res tokenResponse
	status, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", body, false, &res)
	if err != nil {
		return identity.Principal{}, err
	}
	switch {
	case status == http.StatusOK:
		p.setToken(res.AccessToken)
		return res.User.principal(), nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return identity.Principal{}, session.ErrInvalidCredentials
	default:
		return identity.Principal{}, errors.Wrapf(session.ErrTransport, "auth provider returned status %d", status)
	}
}

func (p *gotrueProvider) SignUp(ctx context.Context, acct session.NewAccount) (identity.Principal, error) {
	body := map[string]interface{}{
		"email":    acct.Email,
		"password": acct.Password,
		"data":     map[string]string{"full_name": acct.Name},
	}
	// signup returns either {access_token, user} or the bare user object,
	// depending on whether email confirmation is enabled
	var res struct {
		tokenResponse
		gotrueUser
	}
	status, err := p.do(ctx, http.MethodPost, "/signup", body, false, &res)
	if err != nil {
		return identity.Principal{}, err
	}
	switch {
	case status == http.StatusOK:
		if res.AccessToken != "" {
			p.setToken(res.AccessToken)
		}
		usr := res.User
		if usr.ID == "" {
			usr = res.gotrueUser
		}
		return usr.principal(), nil
	case status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		return identity.Principal{}, session.ErrEmailExists
	case status == http.StatusBadRequest:
		return identity.Principal{}, session.ErrInvalidCredentials
	default:
		return identity.Principal{}, errors.Wrapf(session.ErrTransport, "auth provider returned status %d", status)
	}
}

func (p *gotrueProvider) SignOut(ctx context.Context) error {
	token := p.token()
	if token == "" {
		return nil
	}
	p.setToken("") // local session is gone regardless of what the remote says

	status, err := p.do(ctx, http.MethodPost, "/logout", nil, true, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return errors.Wrapf(session.ErrTransport, "auth provider returned status %d", status)
	}
	return nil
}

func (p *gotrueProvider) ResetPassword(ctx context.Context, email string) error {
	status, err := p.do(ctx, http.MethodPost, "/recover", map[string]string{"email": email}, false, nil)
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return errors.Wrapf(session.ErrTransport, "auth provider returned status %d", status)
	}
	// 4xx (unknown email) is deliberately not surfaced
	return nil
}

func (p *gotrueProvider) CurrentPrincipal(ctx context.Context) (identity.Principal, error) {
	if p.token() == "" {
		return identity.Principal{}, session.ErrNoSession
	}
	var usr gotrueUser
	status, err := p.do(ctx, http.MethodGet, "/user", nil, true, &usr)
	if err != nil {
		return identity.Principal{}, err
	}
	switch {
	case status == http.StatusOK:
		return usr.principal(), nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return identity.Principal{}, session.ErrNoSession
	default:
		return identity.Principal{}, errors.Wrapf(session.ErrTransport, "auth provider returned status %d", status)
	}
}

func (p *gotrueProvider) token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accessToken
}

func (p *gotrueProvider) setToken(token string) {
	p.mu.Lock()
	p.accessToken = token
	p.mu.Unlock()
}

// do performs the request and decodes a 2xx body into out when provided.
// Network failures map to ErrTransport; HTTP statuses are the caller's to
// interpret.
func (p *gotrueProvider) do(ctx context.Context, method, path string, body interface{}, authed bool, out interface{}) (int, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "marshalling request body")
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rdr)
	if err != nil {
		return 0, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("apikey", p.apiKey)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+p.token())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, errors.Wrap(context.DeadlineExceeded, "calling auth provider")
		}
		return 0, errors.Wrapf(session.ErrTransport, "calling auth provider: %v", err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < http.StatusBadRequest {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, errors.Wrap(err, "decoding auth provider response")
		}
	} else if resp.StatusCode >= http.StatusBadRequest {
		// surface the provider's message in debug logs only
		if data, rErr := ioutil.ReadAll(resp.Body); rErr == nil && len(data) > 0 {
			var gErr gotrueError
			if json.Unmarshal(data, &gErr) == nil && (gErr.Error != "" || gErr.Message != "") {
				p.logger.Debug(fmt.Sprintf("auth provider error (%d): %s %s", resp.StatusCode, gErr.Error, gErr.Message))
			}
		}
	}
	return resp.StatusCode, nil
}
