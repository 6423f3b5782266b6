package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/pos-backoffice/internal/permission"
)

// Claims represents JWT access token claims; Subject carries the username.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Username() string {
	return c.Subject
}

// TokenValidator turns a bearer token into verified claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Gate answers point authorization checks.
type Gate interface {
	HasPermission(ctx context.Context, username, menuCode string, required permission.Level) bool
}
