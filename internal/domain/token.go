package domain

import (
	"context"
	"time"
)

// Principal is the authenticated caller as asserted by a token.
type Principal struct {
	UserID uint `json:"id"`
	Role   Role `json:"role"`
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// AccessToken is a signed bearer token and its expiry.
type AccessToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenService issues, verifies, and revokes bearer tokens.
type TokenService interface {
	Issue(p Principal) (*AccessToken, error)
	Parse(ctx context.Context, token string) (*Principal, error)
	Revoke(ctx context.Context, token string) error
}
