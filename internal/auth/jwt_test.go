package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-chars!"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func claimsFor(email, role string, exp time.Time) *AccessTokenClaims {
	c := &AccessTokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "https://auth.example.com",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return c
}

func TestJWTVerifier_Valid(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{Secret: testSecret})
	token := signToken(t, testSecret, jwt.SigningMethodHS256, claimsFor("a@x.com", "authenticated", time.Now().Add(time.Hour)))

	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Email != "a@x.com" || id.UserID != "user-1" {
		t.Errorf("unexpected identity %+v", id)
	}
	if id.IsAdmin() {
		t.Error("expected non-admin")
	}
}

func TestJWTVerifier_AppMetadataRole(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{Secret: testSecret})
	claims := claimsFor("boss@x.com", "authenticated", time.Now().Add(time.Hour))
	claims.AppMetadata.Role = "admin"

	id, err := v.Verify(context.Background(), signToken(t, testSecret, jwt.SigningMethodHS256, claims))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !id.IsAdmin() {
		t.Errorf("expected admin from app_metadata, got role %q", id.Role)
	}
}

func TestJWTVerifier_Errors(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{Secret: testSecret, Issuer: "https://auth.example.com"})
	future := time.Now().Add(time.Hour)

	wrongIssuer := claimsFor("a@x.com", "", future)
	wrongIssuer.Issuer = "https://evil.example.com"
	noExpiry := claimsFor("a@x.com", "", future)
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"expired", signToken(t, testSecret, jwt.SigningMethodHS256, claimsFor("a@x.com", "", time.Now().Add(-time.Minute))), ErrTokenExpired},
		{"wrong secret", signToken(t, "another-secret-entirely-32-chars!!", jwt.SigningMethodHS256, claimsFor("a@x.com", "", future)), ErrTokenInvalid},
		{"malformed", "not.a.jwt", ErrTokenMalformed},
		{"garbage", "garbage", ErrTokenMalformed},
		{"no email", signToken(t, testSecret, jwt.SigningMethodHS256, claimsFor("", "", future)), ErrTokenInvalid},
		{"wrong issuer", signToken(t, testSecret, jwt.SigningMethodHS256, wrongIssuer), ErrTokenInvalid},
		{"no expiry", signToken(t, testSecret, jwt.SigningMethodHS256, noExpiry), ErrTokenInvalid},
		{"none algorithm", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claimsFor("a@x.com", "", future)).SignedString(jwt.UnsafeAllowNoneSignatureType)
			return s
		}(), ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestJWTVerifier_NoSecret(t *testing.T) {
	v := NewJWTVerifier(JWTConfig{})
	token := signToken(t, testSecret, jwt.SigningMethodHS256, claimsFor("a@x.com", "", time.Now().Add(time.Hour)))
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid without a secret, got %v", err)
	}
}
