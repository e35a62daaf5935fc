package internal

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestInspectToken(t *testing.T) {
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(30 * 24 * time.Hour)
	token := signToken(t, jwt.MapClaims{
		"id":  "u0001",
		"iat": issued.Unix(),
		"exp": expires.Unix(),
	})

	info, ok := InspectToken(token)
	if !ok {
		t.Fatal("InspectToken() ok = false for a JWT")
	}
	if info.Subject != "u0001" {
		t.Errorf("Subject = %q, want u0001 from the id claim", info.Subject)
	}
	if !info.IssuedAt.Equal(issued) {
		t.Errorf("IssuedAt = %v, want %v", info.IssuedAt, issued)
	}
	if !info.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, expires)
	}
	if info.Expired(issued) {
		t.Error("token should not be expired at issue time")
	}
	if !info.Expired(expires.Add(time.Second)) {
		t.Error("token should be expired after exp")
	}
}

func TestInspectToken_SubjectClaim(t *testing.T) {
	info, ok := InspectToken(signToken(t, jwt.MapClaims{"sub": "abc", "id": "ignored"}))
	if !ok {
		t.Fatal("InspectToken() ok = false")
	}
	if info.Subject != "abc" {
		t.Errorf("Subject = %q, want sub claim to win", info.Subject)
	}
	if info.Expired(time.Now()) {
		t.Error("token without exp never expires")
	}
}

func TestInspectToken_Opaque(t *testing.T) {
	for _, token := range []string{"", "opaque-token", "a.b.c"} {
		if _, ok := InspectToken(token); ok {
			t.Errorf("InspectToken(%q) ok = true, want false", token)
		}
	}
}
