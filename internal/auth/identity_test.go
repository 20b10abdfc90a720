package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("test-key", "https://id.example.com")
	token, err := v.Sign(Identity{UserID: "user_1", Email: "alice@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	id, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "user_1" || id.Email != "alice@example.com" {
		t.Errorf("identity = %+v", id)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("test-key", "https://id.example.com")

	expired, _ := v.Sign(Identity{UserID: "user_1"}, -time.Minute)
	wrongKey, _ := NewVerifier("other-key", "https://id.example.com").Sign(Identity{UserID: "user_1"}, time.Hour)
	wrongIssuer, _ := NewVerifier("test-key", "https://evil.example.com").Sign(Identity{UserID: "user_1"}, time.Hour)
	noSubject, _ := v.Sign(Identity{}, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "user_1",
		Issuer:  "https://id.example.com",
	}).SignedString([]byte("test-key"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user_1",
		Issuer:    "https://id.example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-key"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong key", wrongKey},
		{"wrong issuer", wrongIssuer},
		{"no subject", noSubject},
		{"no expiry", noExpiry},
		{"wrong algorithm", wrongAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestVerifyMissingToken(t *testing.T) {
	_, err := NewVerifier("test-key", "").Verify("")
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("err = %v, want ErrMissingToken", err)
	}
}

func TestVerifyWithoutIssuerCheck(t *testing.T) {
	token, _ := NewVerifier("test-key", "anyone").Sign(Identity{UserID: "user_1"}, time.Hour)

	if _, err := NewVerifier("test-key", "").Verify(token); err != nil {
		t.Errorf("verify: %v", err)
	}
}
