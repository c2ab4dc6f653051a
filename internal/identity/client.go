package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shutterhub/api/internal/config"
)

var ErrNotSignedIn = errors.New("not signed in")

// Provider is the slice of the identity provider the session store needs.
// The concrete Client implements it; tests substitute a fake.
type Provider interface {
	// Notifications delivers full-replacement principal snapshots. The
	// channel coalesces: only the latest unconsumed snapshot is retained,
	// so a slow consumer always observes the provider's newest state.
	Notifications() <-chan *Principal
	// Token returns the current ID token, exchanging the refresh token for
	// a fresh one when force is set or the cached token is near expiry.
	Token(ctx context.Context, force bool) (string, error)
	// Reload fetches fresh claims for the signed-in principal.
	Reload(ctx context.Context) (*Principal, error)
	SignOut(ctx context.Context) error
}

// Client is a per-principal HTTP client for the external identity
// provider. One Client holds the credentials of exactly one sign-in.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger

	mu           sync.Mutex
	principal    *Principal
	idToken      string
	refreshToken string
	expiresAt    time.Time

	notify chan *Principal
}

func NewClient(cfg config.IdentityConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
		notify:  make(chan *Principal, 1),
	}
}

func (c *Client) Notifications() <-chan *Principal {
	return c.notify
}

// publish replaces any pending snapshot so the consumer only ever sees the
// latest provider state.
func (c *Client) publish(p *Principal) {
	select {
	case <-c.notify:
	default:
	}
	c.notify <- p
}

type credentialResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	var resp credentialResponse
	err := c.post(ctx, "/v1/accounts/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.adopt(resp)
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Principal, error) {
	var resp credentialResponse
	err := c.post(ctx, "/v1/accounts/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.adopt(resp)
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/v1/accounts/reset", map[string]string{"email": email}, nil)
}

func (c *Client) adopt(resp credentialResponse) (*Principal, error) {
	principal, err := ParseIDToken(resp.IDToken)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.principal = principal
	c.idToken = resp.IDToken
	c.refreshToken = resp.RefreshToken
	c.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	c.mu.Unlock()

	c.publish(principal)
	return principal, nil
}

func (c *Client) Principal() *Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

func (c *Client) Token(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	refreshToken := c.refreshToken
	if !force && c.idToken != "" && time.Until(c.expiresAt) > 30*time.Second {
		token := c.idToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	if refreshToken == "" {
		return "", ErrNotSignedIn
	}

	var resp credentialResponse
	err := c.post(ctx, "/v1/token", map[string]string{
		"refreshToken": refreshToken,
	}, &resp)
	if err != nil {
		return "", err
	}

	principal, err := ParseIDToken(resp.IDToken)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.principal = principal
	c.idToken = resp.IDToken
	if resp.RefreshToken != "" {
		c.refreshToken = resp.RefreshToken
	}
	c.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	c.mu.Unlock()

	return resp.IDToken, nil
}

type lookupResponse struct {
	Subject       string `json:"subject"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// Reload fetches fresh claims for the current principal. The in-memory
// principal is fully replaced by the provider's answer.
func (c *Client) Reload(ctx context.Context) (*Principal, error) {
	c.mu.Lock()
	idToken := c.idToken
	expiresAt := c.expiresAt
	c.mu.Unlock()

	if idToken == "" {
		return nil, ErrNotSignedIn
	}

	var resp lookupResponse
	err := c.post(ctx, "/v1/accounts/lookup", map[string]string{
		"idToken": idToken,
	}, &resp)
	if err != nil {
		return nil, err
	}

	principal := &Principal{
		Subject:       resp.Subject,
		Email:         resp.Email,
		EmailVerified: resp.EmailVerified,
		ExpiresAt:     expiresAt,
	}

	c.mu.Lock()
	c.principal = principal
	c.mu.Unlock()

	return principal, nil
}

// SignOut clears local credentials before talking to the provider, so the
// client ends up signed out even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	refreshToken := c.refreshToken
	c.principal = nil
	c.idToken = ""
	c.refreshToken = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	c.publish(nil)

	if refreshToken == "" {
		return nil
	}
	if err := c.post(ctx, "/v1/token/revoke", map[string]string{
		"refreshToken": refreshToken,
	}, nil); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var pe providerError
		if json.Unmarshal(raw, &pe) == nil && pe.Error.Message != "" {
			return fmt.Errorf("identity provider: %s", pe.Error.Message)
		}
		return fmt.Errorf("identity provider: status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
