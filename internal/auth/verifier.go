package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crucial707/geo-catalog/internal/config"
)

const (
	pemHeader    = "-----BEGIN PUBLIC KEY-----"
	pemFooter    = "-----END PUBLIC KEY-----"
	bearerPrefix = "bearer "
)

var validMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"}

var errMissingKey = errors.New("OIDC environment variable SERVER_OIDC_PUBLICKEY or server.oidc.publicKey must be defined")

// AuthenticationError is returned when a bearer credential was presented but could
// not be verified. It maps to 403 at the HTTP boundary.
type AuthenticationError struct {
	Reason string
	Path   string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// WrapPublicKey wraps a bare base64 SPKI key with the PEM public key header and footer.
func WrapPublicKey(spki string) string {
	return pemHeader + "\n" + spki + "\n" + pemFooter
}

// ExpectedIssuer builds the issuer string tokens must carry.
func ExpectedIssuer(serverURL, realm string) string {
	return serverURL + "/realms/" + realm
}

// Verifier checks bearer tokens against a single public key and issuer.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	key    any
	keyErr error
	issuer string
}

// NewVerifier parses the key configuration once. A missing or unparsable key does
// not fail construction; every bearer request is rejected instead. Use KeyError to
// report the problem at startup.
func NewVerifier(cfg config.OIDC) *Verifier {
	v := &Verifier{issuer: ExpectedIssuer(cfg.ServerURL, cfg.Realm)}
	v.key, v.keyErr = parsePublicKey(cfg.PublicKey)
	return v
}

// KeyError reports why the configured key cannot be used, or nil.
func (v *Verifier) KeyError() error { return v.keyErr }

// Issuer returns the exact issuer string tokens must declare.
func (v *Verifier) Issuer() string { return v.issuer }

func parsePublicKey(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errMissingKey
	}
	pemKey := raw
	if !strings.HasPrefix(raw, "-----BEGIN") {
		pemKey = WrapPublicKey(raw)
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey)); err == nil {
		return key, nil
	}
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("invalid OIDC public key: %w", err)
	}
	return key, nil
}

// Authenticate turns a raw Authorization header into an Identity. An empty header or
// a non-bearer scheme yields an anonymous identity and no error.
func (v *Verifier) Authenticate(header, path string) (Identity, error) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Anonymous(), nil
	}
	raw := strings.TrimSpace(header[len(bearerPrefix):])

	claim, err := v.verify(raw)
	if err != nil {
		return Identity{}, &AuthenticationError{Reason: err.Error(), Path: path}
	}
	return bearer(claim), nil
}

func (v *Verifier) verify(raw string) (*Claim, error) {
	if v.keyErr != nil {
		return nil, v.keyErr
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, jwt.WithValidMethods(validMethods), jwt.WithIssuer(v.issuer))
	if err != nil {
		return nil, describe(err, v.issuer)
	}
	if !token.Valid {
		return nil, errors.New("invalid authorization token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	c := &Claim{values: map[string]any(mc)}
	c.subject, _ = mc.GetSubject()
	c.issuer, _ = mc.GetIssuer()
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		c.expiresAt = exp.Time
	}
	return c, nil
}

// describe turns a jwt error into reason text that never echoes the token.
func describe(err error, issuer string) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.New("malformed token")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.New("invalid token signature")
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.New("token has expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return errors.New("token is not valid yet")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		// iss is the only claim marked required
		return fmt.Errorf("token issuer invalid, expected %s", issuer)
	default:
		return errors.New("invalid authorization token")
	}
}
