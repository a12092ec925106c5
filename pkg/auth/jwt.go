package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the upstream access token this service reads.
// Tokens are issued and verified by the upstream API; signatures are
// never checked here.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var ErrNotJWT = errors.New("token is not a JWT")

// Inspect decodes the token payload without verifying it.
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return claims, nil
}

// Expired reports whether token carries an exp claim that is not after now.
// Opaque tokens and tokens without exp are never considered expired; the
// upstream API is the authority on those.
func Expired(token string, now time.Time) bool {
	claims, err := Inspect(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}
