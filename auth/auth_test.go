// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/servicoja/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestValidateAdminKey(t *testing.T) {
	tests := []struct {
		name     string
		provided string
		expected string
		wantErr  bool
	}{
		{"valid key", "admin-secret", "admin-secret", false},
		{"wrong key", "wrong", "admin-secret", true},
		{"empty provided", "", "admin-secret", true},
		{"admin disabled", "anything", "", true},
		{"both empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminKey(tt.provided, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminKey {
				t.Errorf("ValidateAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestGenerateResetToken(t *testing.T) {
	token, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken() error = %v", err)
	}

	// Should be URL-safe (no padding)
	if strings.ContainsAny(token, "=+/") {
		t.Errorf("GenerateResetToken() not URL-safe: %s", token)
	}

	// 32 bytes base64 encoded without padding
	if len(token) != 43 {
		t.Errorf("GenerateResetToken() length = %d, want 43", len(token))
	}

	other, _ := GenerateResetToken()
	if token == other {
		t.Error("GenerateResetToken() produced duplicate tokens (extremely unlikely)")
	}
}

func TestHashResetToken(t *testing.T) {
	h1 := HashResetToken("token-a")
	h2 := HashResetToken("token-a")
	h3 := HashResetToken("token-b")

	if h1 != h2 {
		t.Error("HashResetToken() is not deterministic")
	}
	if h1 == h3 {
		t.Error("HashResetToken() produced same hash for different tokens")
	}
	if len(h1) != 64 {
		t.Errorf("HashResetToken() length = %d, want 64", len(h1))
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("123456", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "123456" {
		t.Fatal("HashPassword() returned plaintext")
	}

	if err := CheckPassword(hash, "123456"); err != nil {
		t.Errorf("CheckPassword() correct password error = %v", err)
	}
	if err := CheckPassword(hash, "654321"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("CheckPassword() wrong password error = %v, want ErrPasswordMismatch", err)
	}
}

func TestHashPassword_InvalidCost(t *testing.T) {
	if _, err := HashPassword("123456", 2); err == nil {
		t.Error("HashPassword() accepted cost below minimum")
	}
	if _, err := HashPassword("123456", 40); err == nil {
		t.Error("HashPassword() accepted cost above maximum")
	}
}

func TestNewTokenIssuer(t *testing.T) {
	if _, err := NewTokenIssuer("short", time.Hour); err == nil {
		t.Error("NewTokenIssuer() accepted short secret")
	}
	if _, err := NewTokenIssuer(testSecret, 0); err == nil {
		t.Error("NewTokenIssuer() accepted zero ttl")
	}
	if _, err := NewTokenIssuer(testSecret, time.Hour); err != nil {
		t.Errorf("NewTokenIssuer() error = %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	user := models.User{ID: "user-1", Email: "ana@example.com", Role: models.RoleProvider}
	token, expiresAt, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("Issue() returned expiry in the past")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID() != "user-1" {
		t.Errorf("UserID() = %q, want user-1", claims.UserID())
	}
	if claims.Role != models.RoleProvider {
		t.Errorf("Role = %q, want provider", claims.Role)
	}
	if claims.Email != "ana@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestParse_Rejects(t *testing.T) {
	issuer, _ := NewTokenIssuer(testSecret, time.Hour)
	user := models.User{ID: "user-1", Role: models.RoleClient}

	// Expired
	expiredIssuer, _ := NewTokenIssuer(testSecret, time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiredIssuer.Issue(user)

	// Signed with another secret
	otherIssuer, _ := NewTokenIssuer(strings.Repeat("x", 32), time.Hour)
	foreign, _, _ := otherIssuer.Issue(user)

	// alg=none
	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	// No subject
	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	noSubjectToken, _ := noSubject.SignedString([]byte(testSecret))

	// Wrong issuer
	wrongIss := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongIssToken, _ := wrongIss.SignedString([]byte(testSecret))

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"foreign secret", foreign},
		{"alg none", noneToken},
		{"no subject", noSubjectToken},
		{"wrong issuer", wrongIssToken},
		{"garbage", "not.a.jwt"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
