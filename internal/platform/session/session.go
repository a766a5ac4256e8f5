// Package session provides the server-side session layer. Session payloads
// live exclusively in the store; the browser only ever holds an opaque,
// HMAC-signed session identifier.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the session cookie issued to browsers.
const CookieName = "emr_session"

// Claims carries the identity attributes asserted by the identity provider.
type Claims struct {
	Subject         string `json:"sub"`
	Email           string `json:"email,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Session is the serialized payload stored against a session id. During the
// login handshake it carries the OIDC state and the role the flow will
// provision; after the callback it carries the token set and claims.
type Session struct {
	Claims       Claims `json:"claims"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // access token expiry, epoch seconds
	State        string `json:"state,omitempty"`
	FlowRole     string `json:"flow_role,omitempty"`
}

// Authenticated reports whether the session holds a completed login.
func (s *Session) Authenticated() bool {
	return s != nil && s.Claims.Subject != "" && s.ExpiresAt != 0
}

// Expired reports whether the access token expiry has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.Unix() > s.ExpiresAt
}

// Store persists sessions keyed by session id. Get returns (nil, nil) for a
// missing or expired session. Save has upsert semantics; concurrent writes to
// the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, sid string) (*Session, error)
	Save(ctx context.Context, sid string, s *Session) error
	Delete(ctx context.Context, sid string) error
	Cleanup(ctx context.Context) error
}

// NewID generates a random session identifier.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CookieManager signs session ids into cookies and verifies them back out.
type CookieManager struct {
	secret []byte
	secure bool
	maxAge time.Duration
}

func NewCookieManager(secret string, secure bool, maxAge time.Duration) *CookieManager {
	return &CookieManager{secret: []byte(secret), secure: secure, maxAge: maxAge}
}

func (m *CookieManager) sign(sid string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(sid))
	return hex.EncodeToString(mac.Sum(nil))
}

// Set writes the signed session cookie on the response.
func (m *CookieManager) Set(c echo.Context, sid string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    sid + "." + m.sign(sid),
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session id from the request cookie, verifying its
// signature. A missing or tampered cookie yields ("", false).
func (m *CookieManager) Read(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	sid, sig := parts[0], parts[1]
	if subtle.ConstantTimeCompare([]byte(sig), []byte(m.sign(sid))) != 1 {
		return "", false
	}
	return sid, true
}

// Clear expires the session cookie.
func (m *CookieManager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
