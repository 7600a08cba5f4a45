package marketcheck

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/joelkehle/vehicle-advisor/internal/upstream"
)

const (
	// A token is refreshed once it is within this window of expiry.
	tokenRefreshBuffer = 60 * time.Second
	// Bounds a shared refresh, which outlives any single caller's context.
	tokenFetchTimeout = 30 * time.Second
)

type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Header renders the Authorization header value.
func (t Token) Header() string {
	typ := strings.TrimSpace(t.TokenType)
	if typ == "" {
		typ = "Bearer"
	}
	return typ + " " + t.AccessToken
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// TokenCache holds the OAuth2 client-credentials token for one client.
// Concurrent callers that find the token stale share a single refresh.
type TokenCache struct {
	http         *resty.Client
	url          string
	clientID     string
	clientSecret string
	now          func() time.Time

	mu    sync.Mutex
	token Token
	group singleflight.Group
}

func NewTokenCache(http *resty.Client, tokenURL, clientID, clientSecret string) *TokenCache {
	return &TokenCache{
		http:         http,
		url:          tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

func (c *TokenCache) cached() (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.AccessToken == "" || !c.now().Add(tokenRefreshBuffer).Before(c.token.ExpiresAt) {
		return Token{}, false
	}
	return c.token, true
}

// ValidToken returns a token that stays valid for at least the refresh
// buffer, fetching a new one when needed. A caller whose ctx ends stops
// waiting without failing the refresh for the others.
func (c *TokenCache) ValidToken(ctx context.Context) (Token, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}
	ch := c.group.DoChan("token", func() (any, error) {
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tokenFetchTimeout)
		defer cancel()
		tok, err := c.fetch(fetchCtx)
		if err != nil {
			return Token{}, err
		}
		c.mu.Lock()
		c.token = tok
		c.mu.Unlock()
		return tok, nil
	})
	select {
	case <-ctx.Done():
		return Token{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		return res.Val.(Token), nil
	}
}

// Invalidate drops the cached token, e.g. after a 401.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = Token{}
	c.mu.Unlock()
}

func (c *TokenCache) fetch(ctx context.Context) (Token, error) {
	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
		}).
		SetResult(&out).
		Post(c.url)
	if err := upstream.Check(serviceName, "token", resp, err); err != nil {
		return Token{}, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return Token{}, upstream.MalformedError("marketcheck token", fmt.Errorf("empty access_token"))
	}
	return Token{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		ExpiresAt:   c.now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}, nil
}
