package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akarshrajput/evidark-v2-sub001/internal/core"
)

// userIDClaims are checked in order; the first non-empty string wins.
var userIDClaims = []string{"userId", "user_id", "id", "sub"}

// Claims is the subset of token claims the client reads.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token had expired at now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes token without verifying its signature. The server
// verifies every token during the handshake.
func ParseClaims(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: parse token: %w", core.ErrAuthentication, err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("%w: invalid token claims", core.ErrAuthentication)
	}

	var claims Claims
	for _, name := range userIDClaims {
		if id, ok := mc[name].(string); ok && id != "" {
			claims.UserID = id
			break
		}
	}
	if claims.UserID == "" {
		return Claims{}, fmt.Errorf("%w: token has no user id", core.ErrAuthentication)
	}

	exp, err := mc.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", core.ErrAuthentication, err)
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
