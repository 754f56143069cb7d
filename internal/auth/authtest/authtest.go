// Package authtest mints bearer tokens accepted by an auth.Verifier built from
// Issuer.OIDC. For tests only.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/config"
)

const (
	ServerURL = "https://sso.example.com/auth"
	Realm     = "standard"
)

// Issuer signs RS256 tokens with a throwaway key.
type Issuer struct {
	key  *rsa.PrivateKey
	OIDC config.OIDC
}

func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return &Issuer{
		key: key,
		OIDC: config.OIDC{
			PublicKey: base64.StdEncoding.EncodeToString(der),
			ServerURL: ServerURL,
			Realm:     Realm,
		},
	}
}

// Verifier returns a verifier trusting this issuer.
func (i *Issuer) Verifier() *auth.Verifier { return auth.NewVerifier(i.OIDC) }

// Token returns a valid one-hour token for username.
func (i *Issuer) Token(t testing.TB, username string) string {
	t.Helper()
	return i.Sign(t, jwt.MapClaims{
		"iss":                auth.ExpectedIssuer(ServerURL, Realm),
		"sub":                "sub-" + username,
		"preferred_username": username,
		"exp":                time.Now().Add(time.Hour).Unix(),
	})
}

// Sign signs arbitrary claims.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// Header returns "Bearer <token>" for username.
func (i *Issuer) Header(t testing.TB, username string) string {
	return "Bearer " + i.Token(t, username)
}

// Identity returns a verified bearer identity for username, for handlers tested
// without the CurrentUser middleware in front of them.
func (i *Issuer) Identity(t testing.TB, username string) auth.Identity {
	t.Helper()
	id, err := i.Verifier().Authenticate(i.Header(t, username), "/")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return id
}
