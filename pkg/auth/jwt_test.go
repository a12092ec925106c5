package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return tok
}

func TestInspect_ReadsClaimsWithoutSecret(t *testing.T) {
	tok := sign(t, Claims{Sub: "user-1", Email: "ada@example.com", Role: "admin"})

	claims, err := Inspect(tok)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "admin", claims.Role)
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	past := sign(t, Claims{Sub: "u", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}})
	future := sign(t, Claims{Sub: "u", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}})
	noExp := sign(t, Claims{Sub: "u"})

	assert.True(t, Expired(past, now))
	assert.False(t, Expired(future, now))
	assert.False(t, Expired(noExp, now))
	assert.False(t, Expired("opaque-token", now))
}
