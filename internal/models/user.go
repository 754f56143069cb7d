package models

import "github.com/google/uuid"

// SystemUserID is the nil UUID of the seeded "system" user.
var SystemUserID = uuid.Nil

type User struct {
	UserID     uuid.UUID  `json:"userId"`
	IdentityID *uuid.UUID `json:"identityId,omitempty"`
	IDP        *string    `json:"idp,omitempty"`
	Username   string     `json:"username"`
	Email      *string    `json:"email,omitempty"`
	FirstName  *string    `json:"firstName,omitempty"`
	FullName   *string    `json:"fullName,omitempty"`
	LastName   *string    `json:"lastName,omitempty"`
	Active     bool       `json:"active"`
	Stamps
}

// IdentityProvider is an external login source (e.g. "idir", "bceid").
type IdentityProvider struct {
	IDP    string `json:"idp"`
	Active bool   `json:"active"`
	Stamps
}
