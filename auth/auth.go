// Package auth authorizes outgoing HTTP requests, either with a static bearer
// token or with OAuth2 client credentials.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Authorizer sets the Authorization header of a request.
type Authorizer interface {
	SetAuthHeader(ctx context.Context, r *http.Request) error
}

// StaticToken sends a fixed bearer token. An empty token sends nothing.
type StaticToken string

func (t StaticToken) SetAuthHeader(_ context.Context, r *http.Request) error {
	if t != "" {
		r.Header.Set("Authorization", "Bearer "+string(t))
	}
	return nil
}

// ClientCred fetches and caches tokens with the client credentials grant.
type ClientCred struct {
	conf Conf

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf}
}

// GetToken returns the cached access token, fetching a new one when it is
// missing or expired.
func (c *ClientCred) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	if err := c.fetch(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

// ForceRefresh discards the cached token and fetches a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetch(ctx); err != nil {
		return "", err
	}
	return c.token.AccessToken, nil
}

func (c *ClientCred) fetch(ctx context.Context) error {
	cfg := c.conf.toOauth2Config()
	tok, err := cfg.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return nil
}

// SetAuthHeader implements Authorizer.
func (c *ClientCred) SetAuthHeader(ctx context.Context, r *http.Request) error {
	if _, err := c.GetToken(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.token.SetAuthHeader(r)
	c.mu.Unlock()
	return nil
}
