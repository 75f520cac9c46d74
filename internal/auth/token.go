package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by Inspect for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// TokenInfo is what the client can learn from a token without the signing key.
type TokenInfo struct {
	UserID    int64
	TokenType string
	ExpiresAt time.Time
}

// Inspect decodes a JWT without verifying its signature. The client never
// holds the server key, so the result is advisory: it only drives
// pre-emptive refresh and is never used for authorization.
func Inspect(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, fmt.Errorf("token is empty")
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}

	info := TokenInfo{UserID: claims.UserID, TokenType: claims.TokenType}
	if claims.ExpiresAt == nil {
		return info, ErrNoExpiry
	}
	info.ExpiresAt = claims.ExpiresAt.Time

	return info, nil
}

// ExpiresWithin reports whether token expires within skew of now.
// Tokens that cannot be decoded or carry no expiry are reported as not
// expiring; the server stays the authority and answers 401 if needed.
func ExpiresWithin(token string, skew time.Duration, now time.Time) bool {
	info, err := Inspect(token)
	if err != nil {
		return false
	}
	return !info.ExpiresAt.After(now.Add(skew))
}
