// Package domain defines the authenticated caller as seen by the card API.
package domain

import "github.com/allisson/cardledger/internal/errors"

// Role is the authorization role carried by a bearer token.
type Role string

const (
	// RoleAdmin may manage every card.
	RoleAdmin Role = "ADMIN"
	// RoleUser may only act on their own cards.
	RoleUser Role = "USER"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// HasRole reports whether the principal may use endpoints restricted to role.
// Administrators satisfy every role.
func (p *Principal) HasRole(role Role) bool {
	return p.IsAdmin() || p.Role == role
}

// Authentication errors.
var (
	// ErrInvalidToken indicates a missing, malformed, expired or wrongly signed token.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrInsufficientRole indicates the caller's role does not allow the endpoint.
	ErrInsufficientRole = errors.Wrap(errors.ErrForbidden, "insufficient role")
)
