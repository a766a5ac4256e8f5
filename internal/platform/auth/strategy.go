package auth

import (
	"net"
	"strings"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/domain/user"
)

// Strategy is the OIDC client configuration for one (domain, role) pair.
// The callback URL is fixed per role so the identity provider can be
// registered with an enumerable redirect-URI allowlist.
type Strategy struct {
	Domain      string
	Role        user.Role
	ClientID    string
	CallbackURL string
}

// StrategyTable holds every strategy the deployment supports, built once
// from configuration at startup. Lookups happen at request time by host.
type StrategyTable struct {
	byKey map[string]Strategy
}

const (
	providerCallbackPath = "/api/callback"
	patientCallbackPath  = "/api/patient/callback"
)

// NewStrategyTable enumerates (domain, role) strategies for the configured
// application domains.
func NewStrategyTable(domains []string, clientID string) *StrategyTable {
	t := &StrategyTable{byKey: make(map[string]Strategy)}
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		scheme := "https"
		if isLoopback(d) {
			scheme = "http"
		}
		t.add(Strategy{
			Domain:      d,
			Role:        user.RoleProvider,
			ClientID:    clientID,
			CallbackURL: scheme + "://" + d + providerCallbackPath,
		})
		t.add(Strategy{
			Domain:      d,
			Role:        user.RolePatient,
			ClientID:    clientID,
			CallbackURL: scheme + "://" + d + patientCallbackPath,
		})
	}
	return t
}

func (t *StrategyTable) add(s Strategy) {
	t.byKey[strategyKey(s.Domain, s.Role)] = s
}

// Lookup resolves the strategy for a request host and flow role. The host is
// matched as-is first, then with any port stripped.
func (t *StrategyTable) Lookup(host string, role user.Role) (Strategy, bool) {
	if s, ok := t.byKey[strategyKey(host, role)]; ok {
		return s, true
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		if s, ok := t.byKey[strategyKey(h, role)]; ok {
			return s, true
		}
	}
	return Strategy{}, false
}

// Domains returns the configured domain list.
func (t *StrategyTable) Domains() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range t.byKey {
		if !seen[s.Domain] {
			seen[s.Domain] = true
			out = append(out, s.Domain)
		}
	}
	return out
}

func strategyKey(domain string, role user.Role) string {
	return domain + "|" + string(role)
}

func isLoopback(domain string) bool {
	host := domain
	if h, _, err := net.SplitHostPort(domain); err == nil {
		host = h
	}
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
