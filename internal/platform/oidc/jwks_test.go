package oidc

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func jwksKeyFor(t *testing.T, kid string, key *rsa.PublicKey) JWKSKey {
	t.Helper()
	return JWKSKey{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		Alg: "RS256",
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}
}

func TestJWKSCache_GetKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JWKSResponse{Keys: []JWKSKey{jwksKeyFor(t, "kid-1", &priv.PublicKey)}})
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, time.Minute)
	key, err := cache.GetKey("kid-1")
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if key.N.Cmp(priv.PublicKey.N) != 0 {
		t.Error("returned key does not match served key")
	}

	if _, err := cache.GetKey("unknown-kid"); err == nil {
		t.Error("expected error for unknown kid")
	}
}

func TestJWKSCache_KeyFuncVerifiesToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JWKSResponse{Keys: []JWKSKey{jwksKeyFor(t, "kid-sign", &priv.PublicKey)}})
	}))
	defer server.Close()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = "kid-sign"
	signed, err := token.SignedString(priv)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cache := NewJWKSCache(server.URL, time.Minute)
	parsed, err := jwt.Parse(signed, cache.KeyFunc(), jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !parsed.Valid {
		t.Fatalf("expected token to verify, got %v", err)
	}
}

func TestJWKSCache_SkipsNonRSAKeys(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(JWKSResponse{Keys: []JWKSKey{
			{Kty: "EC", Kid: "ec-key"},
			jwksKeyFor(t, "rsa-key", &priv.PublicKey),
		}})
	}))
	defer server.Close()

	cache := NewJWKSCache(server.URL, time.Minute)
	if _, err := cache.GetKey("rsa-key"); err != nil {
		t.Fatalf("GetKey rsa-key: %v", err)
	}
	if _, err := cache.GetKey("ec-key"); err == nil {
		t.Error("expected EC key to be skipped")
	}
}
