package session

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level attached to a profile. Every authenticated
// session carries exactly one role.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Session is the authenticated principal attached to a request or held by
// the session manager between requests.
type Session struct {
	IdentityID  string    `json:"identity_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Identity is a credential record. The password never leaves this package
// in clear text.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the user-facing record joined to an identity.
type Profile struct {
	IdentityID string    `json:"identity_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
}

// fallbackProfile derives a usable profile when the profile store has no
// record for an identity: the display name falls back to the email
// local-part and the role to patient.
func fallbackProfile(identity *Identity) *Profile {
	name := identity.Email
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	return &Profile{
		IdentityID: identity.ID,
		Email:      identity.Email,
		Name:       name,
		Role:       RolePatient,
		CreatedAt:  identity.CreatedAt,
	}
}
