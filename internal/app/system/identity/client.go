// internal/app/system/identity/client.go
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to the identity provider's admin REST API. Requests carry the
// tenant API key; when OAuth client credentials are configured the underlying
// http.Client also attaches a bearer token per request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	ClientID     string // OAuth client credentials; optional
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// NewClient builds the admin API client.
func NewClient(cfg ClientConfig, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("identity: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc := &http.Client{Timeout: timeout}
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		hc = cc.Client(context.Background())
		hc.Timeout = timeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    hc,
		log:     log,
	}, nil
}

func (c *Client) CreateAccount(ctx context.Context, email, password, displayName string) (Account, error) {
	var out accountBody
	err := c.do(ctx, http.MethodPost, "/v1/accounts", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": displayName,
	}, &out)
	if err != nil {
		return Account{}, err
	}
	return out.account(), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	var out struct {
		accountBody
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/sessions", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: out.account(), Token: out.Token}, nil
}

func (c *Client) SignOut(ctx context.Context, subject string) error {
	return c.do(ctx, http.MethodDelete, "/v1/accounts/"+subject+"/sessions", nil, nil)
}

func (c *Client) VerifyToken(ctx context.Context, token string) (Account, error) {
	var out accountBody
	err := c.do(ctx, http.MethodPost, "/v1/sessions/verify", map[string]string{
		"token": token,
	}, &out)
	if err != nil {
		return Account{}, err
	}
	return out.account(), nil
}

func (c *Client) UpdateDisplayName(ctx context.Context, subject, displayName string) error {
	return c.do(ctx, http.MethodPatch, "/v1/accounts/"+subject, map[string]string{
		"display_name": displayName,
	}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, subject string) error {
	return c.do(ctx, http.MethodDelete, "/v1/accounts/"+subject, nil, nil)
}

// Secondary returns a fresh client over the same endpoint. The REST API is
// stateless per request, but provisioning still goes through its own
// instance so its timeouts and token refresh never contend with the
// request-path client.
func (c *Client) Secondary() Provider {
	cp := *c
	hc := *c.http
	cp.http = &hc
	return &cp
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("identity provider unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		if err == ErrUnavailable {
			c.log.Warn("identity provider error",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode))
		}
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("identity: decode response: %w", err)
		}
	}
	return nil
}

// classifyStatus maps provider HTTP statuses onto the package sentinels.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusConflict:
		return ErrEmailExists
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrInvalidCredentials
	case code == http.StatusNotFound:
		return ErrAccountNotFound
	case code >= 500, code == http.StatusTooManyRequests:
		return ErrUnavailable
	default:
		return fmt.Errorf("identity: unexpected status %d", code)
	}
}

type accountBody struct {
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func (b accountBody) account() Account {
	return Account{Subject: b.Subject, Email: b.Email, DisplayName: b.DisplayName}
}
