package auth

import (
	"context"
	"maps"
	"time"
)

// AuthType says how the caller authenticated.
type AuthType string

const (
	AuthTypeNone   AuthType = "NONE"
	AuthTypeBearer AuthType = "BEARER"
)

// Claim is the decoded payload of a verified bearer token.
type Claim struct {
	subject   string
	issuer    string
	expiresAt time.Time
	values    map[string]any
}

func (c *Claim) Subject() string      { return c.subject }
func (c *Claim) Issuer() string       { return c.issuer }
func (c *Claim) ExpiresAt() time.Time { return c.expiresAt }

// Get returns a single claim value.
func (c *Claim) Get(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Values returns a copy of the full claim map.
func (c *Claim) Values() map[string]any {
	return maps.Clone(c.values)
}

// Username is the name stamped into updated_by/created_by columns:
// preferred_username when the token carries one, otherwise the subject.
func (c *Claim) Username() string {
	if v, ok := c.values["preferred_username"].(string); ok && v != "" {
		return v
	}
	return c.subject
}

// Identity is the per-request view of who is calling. The zero value is an
// anonymous identity. A BEARER identity always carries a verified claim.
type Identity struct {
	authType AuthType
	claim    *Claim
}

// Anonymous returns the identity used when no bearer credential was presented.
func Anonymous() Identity {
	return Identity{authType: AuthTypeNone}
}

func bearer(c *Claim) Identity {
	return Identity{authType: AuthTypeBearer, claim: c}
}

func (i Identity) AuthType() AuthType {
	if i.authType == "" {
		return AuthTypeNone
	}
	return i.authType
}

// Claim returns nil for anonymous identities.
func (i Identity) Claim() *Claim { return i.claim }

func (i Identity) IsAuthenticated() bool {
	return i.authType == AuthTypeBearer && i.claim != nil
}

// Username returns the stamp value for this identity, or "" when anonymous.
func (i Identity) Username() string {
	if !i.IsAuthenticated() {
		return ""
	}
	return i.claim.Username()
}

type contextKeyIdentity struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, id)
}

// FromContext returns the identity stored on ctx, or Anonymous when none was set.
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(contextKeyIdentity{}).(Identity)
	if !ok {
		return Anonymous()
	}
	return id
}
