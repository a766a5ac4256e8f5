package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSet is the result of a successful code exchange or refresh grant.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// ExpiresAt converts the relative expires_in to an absolute epoch second.
func (t *TokenSet) ExpiresAt(now time.Time) int64 {
	return now.Unix() + t.ExpiresIn
}

// IdentityClaims are the claims extracted from a verified ID token.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// Client talks to the identity provider's token endpoint. Exchange and
// refresh are single network round trips: a failure is surfaced to the caller
// as an authentication failure and is never retried here.
type Client struct {
	providers    *ProviderCache
	clientID     string
	clientSecret string
	httpClient   *http.Client

	jwksMu sync.Mutex
	jwks   *JWKSCache
}

// NewClient creates a token client against the given provider cache.
func NewClient(providers *ProviderCache, clientID, clientSecret string) *Client {
	return &Client{
		providers:    providers,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// ExchangeCode redeems an authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenSet, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	return c.tokenRequest(ctx, form)
}

// Refresh exchanges a refresh token for a new token set. On failure the
// caller must invalidate the session and require a fresh login.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*TokenSet, error) {
	provider, err := c.providers.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve provider config: %w", err)
	}

	form.Set("client_id", c.clientID)
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		provider.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The provider's error body is for server logs only; callers
		// translate any failure into a generic auth failure.
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var tokens TokenSet
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &tokens, nil
}

// VerifyIDToken validates the ID token signature against the provider's JWKS
// and checks issuer and audience. It returns the identity claims.
func (c *Client) VerifyIDToken(ctx context.Context, rawToken string) (*IdentityClaims, error) {
	provider, err := c.providers.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve provider config: %w", err)
	}

	c.jwksMu.Lock()
	if c.jwks == nil {
		c.jwks = NewJWKSCache(provider.JWKSURI, 0)
	}
	jwks := c.jwks
	c.jwksMu.Unlock()

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, jwks.KeyFunc(),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(provider.Issuer),
		jwt.WithAudience(c.clientID),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("id token missing sub claim")
	}

	return claims, nil
}

// ClientID returns the relying party client identifier.
func (c *Client) ClientID() string {
	return c.clientID
}
