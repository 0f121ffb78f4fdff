package auth

import (
	"testing"
	"time"

	"watchtower/internal/entity"
)

func TestNewManagerAndTokenLifecycle(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	account := &entity.DbAccount{ID: 42, Username: "operator", Role: entity.RoleAdmin}
	token, expiresAt, err := mgr.GenerateToken(account)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.AccountID != account.ID {
		t.Fatalf("expected account id %d, got %d", account.ID, claims.AccountID)
	}
	if claims.Username != account.Username {
		t.Fatalf("expected username %s, got %s", account.Username, claims.Username)
	}
	if claims.Role != account.Role {
		t.Fatalf("expected role %s, got %s", account.Role, claims.Role)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", "", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}
	// Managers clamp non-positive expiry to a day, so craft the short one
	// directly.
	mgr.expiry = -time.Minute

	account := &entity.DbAccount{ID: 7, Username: "cam", Role: entity.RoleUser}
	token, _, err := mgr.GenerateToken(account)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if _, err := mgr.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	issuerMgr, _ := NewManager("secret-a", "issuer", time.Minute)
	verifierMgr, _ := NewManager("secret-b", "issuer", time.Minute)

	token, _, err := issuerMgr.GenerateToken(&entity.DbAccount{ID: 1, Username: "x", Role: entity.RoleUser})
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if _, err := verifierMgr.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
	if _, err := verifierMgr.ParseToken("not-a-token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
