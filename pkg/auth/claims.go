package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/greenbasket/storefront/pkg/enums"
)

// AccessTokenClaims is the typed JWT minted by the auth service. The
// gateway only verifies and reads it; issuing stays upstream.
type AccessTokenClaims struct {
	UserID string     `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
