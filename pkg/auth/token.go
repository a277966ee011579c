package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueCredential marks a credential that is not a JWT.
var ErrOpaqueCredential = errors.New("credential is not a jwt")

// CredentialClaims mirrors the claims the auth backend embeds in its bearer tokens.
type CredentialClaims struct {
	UserID   int    `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseCredential decodes the bearer token's claims without verifying the signature;
// the storefront never holds the backend's signing key.
func ParseCredential(token string) (*CredentialClaims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueCredential
	}

	claims := &CredentialClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing credential: %w", err)
	}
	return claims, nil
}

// CredentialExpiry returns the exp claim, or the zero time when the token carries none
// or cannot be decoded.
func CredentialExpiry(token string) time.Time {
	claims, err := ParseCredential(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Expired reports whether a known expiry has passed at now. Unknown expiry never expires.
func Expired(expiresAt, now time.Time) bool {
	if expiresAt.IsZero() {
		return false
	}
	return !now.Before(expiresAt)
}
