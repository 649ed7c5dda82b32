package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateVerifyAccess(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour, 24*time.Hour, "eventforge")
	token, err := manager.GenerateAccess(42, RoleAdmin)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	claims, err := manager.VerifyAccess(token)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("unexpected role claim: %q", claims.Role)
	}
	userID, err := claims.UserID()
	if err != nil || userID != 42 {
		t.Fatalf("unexpected subject: %q err %v", claims.Subject, err)
	}
}

func TestRefreshTokenNotValidAsAccess(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour, 24*time.Hour, "eventforge")
	refresh, err := manager.GenerateRefresh(7)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	if _, err := manager.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
	if _, err := manager.VerifyRefresh(refresh); err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	manager := NewTokenManager("secret", -time.Minute, 24*time.Hour, "eventforge")
	token, err := manager.GenerateAccess(1, RoleUser)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	if _, err := manager.VerifyAccess(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestVerifyMissing(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour, 24*time.Hour, "eventforge")
	if _, err := manager.VerifyAccess("  "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	manager := NewTokenManager("secret", time.Hour, 24*time.Hour, "eventforge")
	other := NewTokenManager("other", time.Hour, 24*time.Hour, "eventforge")

	token, err := manager.GenerateAccess(1, RoleUser)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	if _, err := other.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestTokenFromHeader(t *testing.T) {
	if _, err := TokenFromHeader("nope"); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if token, err := TokenFromHeader("Bearer token"); err != nil || token != "token" {
		t.Fatalf("expected token, got %s err %v", token, err)
	}
}
