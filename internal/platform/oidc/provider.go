// Package oidc implements the OpenID Connect relying-party pieces: provider
// discovery with a TTL cache, JWKS-based ID token verification, and the
// authorization-code and refresh-token grants.
package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ProviderConfig represents the OpenID Connect provider metadata discovered
// via the .well-known/openid-configuration endpoint.
type ProviderConfig struct {
	Issuer                   string   `json:"issuer"`
	AuthorizationEndpoint    string   `json:"authorization_endpoint"`
	TokenEndpoint            string   `json:"token_endpoint"`
	UserinfoEndpoint         string   `json:"userinfo_endpoint"`
	EndSessionEndpoint       string   `json:"end_session_endpoint"`
	JWKSURI                  string   `json:"jwks_uri"`
	ScopesSupported          []string `json:"scopes_supported"`
	ResponseTypesSupported   []string `json:"response_types_supported"`
	GrantTypesSupported      []string `json:"grant_types_supported"`
	IDTokenSigningAlgValues  []string `json:"id_token_signing_alg_values_supported"`
	TokenEndpointAuthMethods []string `json:"token_endpoint_auth_methods_supported"`
}

// defaultProviderCacheTTL bounds how long a discovery document is reused
// before it is fetched again.
const defaultProviderCacheTTL = time.Hour

// ProviderCache fetches and caches the provider metadata for a bounded time
// window. It is an injected value, not a package singleton, so tests can
// point it at a fake provider. Concurrent first-use fetches are
// last-write-wins; the document is idempotent.
type ProviderCache struct {
	issuer string
	ttl    time.Duration
	client *http.Client

	mu        sync.RWMutex
	cfg       *ProviderConfig
	fetchedAt time.Time
}

// NewProviderCache creates a cache for the given issuer URL. A ttl of zero
// selects the default one-hour window.
func NewProviderCache(issuerURL string, ttl time.Duration) *ProviderCache {
	if ttl <= 0 {
		ttl = defaultProviderCacheTTL
	}
	return &ProviderCache{
		issuer: strings.TrimRight(issuerURL, "/"),
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Get returns the provider metadata, fetching the discovery document only
// when the cached copy is absent or older than the TTL.
func (p *ProviderCache) Get(ctx context.Context) (*ProviderConfig, error) {
	p.mu.RLock()
	cfg := p.cfg
	fresh := cfg != nil && time.Since(p.fetchedAt) < p.ttl
	p.mu.RUnlock()

	if fresh {
		return cfg, nil
	}

	fetched, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cfg = fetched
	p.fetchedAt = time.Now()
	p.mu.Unlock()

	return fetched, nil
}

func (p *ProviderCache) fetch(ctx context.Context) (*ProviderConfig, error) {
	discoveryURL := p.issuer + "/.well-known/openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build discovery request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching OIDC discovery document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OIDC discovery endpoint returned status %d", resp.StatusCode)
	}

	var cfg ProviderConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding OIDC discovery document: %w", err)
	}

	if cfg.TokenEndpoint == "" {
		return nil, fmt.Errorf("OIDC discovery document missing token_endpoint")
	}
	if cfg.JWKSURI == "" {
		return nil, fmt.Errorf("OIDC discovery document missing jwks_uri")
	}

	return &cfg, nil
}

// Issuer returns the configured issuer URL.
func (p *ProviderCache) Issuer() string {
	return p.issuer
}
