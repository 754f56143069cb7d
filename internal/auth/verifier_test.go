package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/geo-catalog/internal/config"
)

const (
	testServerURL = "https://sso.example.com/auth"
	testRealm     = "standard"
)

func newRSAKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, base64.StdEncoding.EncodeToString(der)
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":                ExpectedIssuer(testServerURL, testRealm),
		"sub":                "8d3c2f1e-0000-4000-8000-000000000001",
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Hour).Unix(),
	}
}

func newTestVerifier(publicKey string) *Verifier {
	return NewVerifier(config.OIDC{PublicKey: publicKey, ServerURL: testServerURL, Realm: testRealm})
}

func TestWrapPublicKey(t *testing.T) {
	assert.Equal(t,
		"-----BEGIN PUBLIC KEY-----\nMIIBIjAN\n-----END PUBLIC KEY-----",
		WrapPublicKey("MIIBIjAN"))
}

func TestExpectedIssuer(t *testing.T) {
	assert.Equal(t, "https://sso.example.com/auth/realms/standard", ExpectedIssuer(testServerURL, testRealm))
}

func TestAuthenticate_NoHeader(t *testing.T) {
	_, spki := newRSAKey(t)
	v := newTestVerifier(spki)

	id, err := v.Authenticate("", "/v1/layer")
	require.NoError(t, err)
	assert.Equal(t, AuthTypeNone, id.AuthType())
	assert.Nil(t, id.Claim())
	assert.False(t, id.IsAuthenticated())
}

func TestAuthenticate_NonBearerScheme(t *testing.T) {
	_, spki := newRSAKey(t)
	v := newTestVerifier(spki)

	for _, header := range []string{"Basic YWxpY2U6c2VjcmV0", "Token token=\"abc\"", "Bearer"} {
		id, err := v.Authenticate(header, "/v1/layer")
		require.NoError(t, err, header)
		assert.Equal(t, AuthTypeNone, id.AuthType(), header)
		assert.Nil(t, id.Claim(), header)
	}
}

func TestAuthenticate_BareKeyRoundTrip(t *testing.T) {
	key, spki := newRSAKey(t)
	v := newTestVerifier(spki)
	require.NoError(t, v.KeyError())

	id, err := v.Authenticate("Bearer "+signRS256(t, key, validClaims()), "/v1/layer")
	require.NoError(t, err)
	assert.Equal(t, AuthTypeBearer, id.AuthType())
	require.NotNil(t, id.Claim())
	assert.Equal(t, "alice", id.Username())
	assert.Equal(t, ExpectedIssuer(testServerURL, testRealm), id.Claim().Issuer())
	assert.Equal(t, "8d3c2f1e-0000-4000-8000-000000000001", id.Claim().Subject())
	assert.False(t, id.Claim().ExpiresAt().IsZero())
}

func TestAuthenticate_PEMKey(t *testing.T) {
	key, _ := newRSAKey(t)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	v := newTestVerifier(pemKey)

	id, err := v.Authenticate("bearer "+signRS256(t, key, validClaims()), "/v1/layer")
	require.NoError(t, err)
	assert.True(t, id.IsAuthenticated())
}

func TestAuthenticate_ECKey(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	v := newTestVerifier(base64.StdEncoding.EncodeToString(der))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, validClaims()).SignedString(key)
	require.NoError(t, err)

	id, err := v.Authenticate("Bearer "+signed, "/v1/feature")
	require.NoError(t, err)
	assert.True(t, id.IsAuthenticated())
}

func TestAuthenticate_Failures(t *testing.T) {
	key, spki := newRSAKey(t)
	otherKey, _ := newRSAKey(t)

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = ExpectedIssuer(testServerURL, testRealm) + "-other"
	prefixIssuer := validClaims()
	prefixIssuer["iss"] = testServerURL + "/realms/stand"
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noIssuer := validClaims()
	delete(noIssuer, "iss")

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"foreign signing key", signRS256(t, otherKey, validClaims()), "invalid token signature"},
		{"issuer suffix", signRS256(t, key, wrongIssuer), "token issuer invalid"},
		{"issuer prefix", signRS256(t, key, prefixIssuer), "token issuer invalid"},
		{"issuer missing", signRS256(t, key, noIssuer), "token issuer invalid"},
		{"expired", signRS256(t, key, expired), "token has expired"},
		{"malformed", "not-a-jwt", "malformed token"},
		{"empty token", "", "malformed token"},
	}

	v := newTestVerifier(spki)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Authenticate("Bearer "+tt.token, "/v1/layer/3")
			require.Error(t, err)

			var authErr *AuthenticationError
			require.True(t, errors.As(err, &authErr))
			assert.Contains(t, authErr.Reason, tt.reason)
			assert.Equal(t, "/v1/layer/3", authErr.Path)
			assert.Nil(t, id.Claim())
			assert.False(t, id.IsAuthenticated())
			if tt.token != "" {
				assert.False(t, strings.Contains(err.Error(), tt.token), "error must not echo the token")
			}
		})
	}
}

func TestAuthenticate_MissingKeyConfig(t *testing.T) {
	key, _ := newRSAKey(t)
	v := newTestVerifier("")
	require.Error(t, v.KeyError())

	// anonymous requests still pass
	id, err := v.Authenticate("", "/v1")
	require.NoError(t, err)
	assert.False(t, id.IsAuthenticated())

	_, err = v.Authenticate("Bearer "+signRS256(t, key, validClaims()), "/v1/layer")
	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Reason, "SERVER_OIDC_PUBLICKEY")
}

func TestAuthenticate_GarbageKeyConfig(t *testing.T) {
	v := newTestVerifier("definitely-not-a-key")
	require.Error(t, v.KeyError())

	_, err := v.Authenticate("Bearer abc.def.ghi", "/v1/layer")
	var authErr *AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.NotContains(t, authErr.Reason, "definitely-not-a-key")
}

func TestIdentityContext(t *testing.T) {
	assert.Equal(t, AuthTypeNone, FromContext(context.Background()).AuthType())

	c := &Claim{subject: "sub-1", values: map[string]any{"sub": "sub-1"}}
	ctx := WithIdentity(context.Background(), bearer(c))
	id := FromContext(ctx)
	assert.True(t, id.IsAuthenticated())
	assert.Equal(t, "sub-1", id.Username())

	values := id.Claim().Values()
	values["sub"] = "tampered"
	got, _ := id.Claim().Get("sub")
	assert.Equal(t, "sub-1", got)
}
