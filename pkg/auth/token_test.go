package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintCredential(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := CredentialClaims{
		UserID:   1,
		Username: "emilys",
		Email:    "emily.johnson@x.dummyjson.com",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestParseCredentialReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)
	token := mintCredential(t, exp)

	claims, err := ParseCredential(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "emilys" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if got := CredentialExpiry(token); !got.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, got)
	}
}

func TestParseCredentialExpiredTokenStillDecodes(t *testing.T) {
	exp := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	token := mintCredential(t, exp)
	if got := CredentialExpiry(token); !got.Equal(exp) {
		t.Fatalf("expected expired token to decode, got %v", got)
	}
	if !Expired(CredentialExpiry(token), time.Now()) {
		t.Fatal("expected token to be expired")
	}
}

func TestParseCredentialOpaque(t *testing.T) {
	if _, err := ParseCredential("opaque-token"); !errors.Is(err, ErrOpaqueCredential) {
		t.Fatalf("expected ErrOpaqueCredential, got %v", err)
	}
	if _, err := ParseCredential("a.b.c"); err == nil {
		t.Fatal("expected malformed jwt error")
	}
	if !CredentialExpiry("opaque-token").IsZero() {
		t.Fatal("opaque token should have zero expiry")
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if Expired(time.Time{}, now) {
		t.Fatal("zero expiry must never expire")
	}
	if !Expired(now, now) {
		t.Fatal("expiry equal to now is expired")
	}
	if Expired(now.Add(time.Minute), now) {
		t.Fatal("future expiry is not expired")
	}
}
