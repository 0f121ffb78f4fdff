package api

import (
	"net/http"
	"testing"

	"watchtower/internal/entity"

	"github.com/gin-gonic/gin"
)

func TestListAccountsExcludesRoot(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)
	ts.seedAccount(t, "alice", "alicep4ssword", entity.RoleUser, false)
	_, adminToken := ts.seedAccount(t, "supervisor", "adminp4ssword", entity.RoleAdmin, false)

	w := ts.do(t, http.MethodGet, "/api/users", nil, adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp entity.AccountListResponse
	decodeBody(t, w, &resp)
	if len(resp.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(resp.Accounts))
	}
	for _, account := range resp.Accounts {
		if account.Username == "admin" {
			t.Error("the root account must never appear in listings")
		}
	}
}

func TestListAccountsRequiresAdmin(t *testing.T) {
	ts := newTestServer(t, nil)
	_, userToken := ts.seedAccount(t, "alice", "alicep4ssword", entity.RoleUser, false)

	w := ts.do(t, http.MethodGet, "/api/users", nil, userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestCreateAccountRootOnly(t *testing.T) {
	ts := newTestServer(t, nil)
	_, rootToken := ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)
	_, adminToken := ts.seedAccount(t, "supervisor", "adminp4ssword", entity.RoleAdmin, false)

	body := gin.H{
		"username": "operator2",
		"password": "sup3rsecret",
		"role":     entity.RoleAdmin,
		"email":    "Op2@Example.COM",
	}

	// A non-root administrator is refused.
	w := ts.do(t, http.MethodPost, "/api/users", body, adminToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-root admin: expected 403, got %d", w.Code)
	}

	w = ts.do(t, http.MethodPost, "/api/users", body, rootToken, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("root: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := ts.repo.GetAccountByUsername(t.Context(), "operator2")
	if err != nil {
		t.Fatalf("account not stored: %v", err)
	}
	if stored.Role != entity.RoleAdmin {
		t.Errorf("expected role admin, got %s", stored.Role)
	}
	if stored.EmailValue() != "op2@example.com" {
		t.Errorf("email must be lower-cased, got %q", stored.EmailValue())
	}
	if stored.IsRoot {
		t.Error("created accounts must never be root")
	}
}

func TestCreateAccountValidation(t *testing.T) {
	ts := newTestServer(t, nil)
	_, rootToken := ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)
	ts.seedAccount(t, "alice", "alicep4ssword", entity.RoleUser, false)

	tests := []struct {
		name         string
		body         gin.H
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "InvalidRole",
			body:         gin.H{"username": "x1", "password": "sup3rsecret", "role": "superuser"},
			expectedCode: http.StatusBadRequest,
			expectedErr:  ErrCodeInvalidRole,
		},
		{
			name:         "InvalidEmail",
			body:         gin.H{"username": "x2", "password": "sup3rsecret", "role": "user", "email": "nope"},
			expectedCode: http.StatusBadRequest,
			expectedErr:  ErrCodeInvalidEmail,
		},
		{
			name:         "ReservedUsername",
			body:         gin.H{"username": "Admin", "password": "sup3rsecret", "role": "user"},
			expectedCode: http.StatusConflict,
			expectedErr:  ErrCodeUsernameReserved,
		},
		{
			name:         "DuplicateUsername",
			body:         gin.H{"username": "alice", "password": "sup3rsecret", "role": "user"},
			expectedCode: http.StatusConflict,
			expectedErr:  ErrCodeUsernameExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/users", tt.body, rootToken, nil)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if code := errorCode(t, w); code != tt.expectedErr {
				t.Errorf("expected %s, got %s", tt.expectedErr, code)
			}
		})
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	ts := newTestServer(t, nil)
	_, rootToken := ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)

	first := ts.do(t, http.MethodPost, "/api/users", gin.H{
		"username": "op1", "password": "sup3rsecret", "role": "user", "email": "shared@example.com",
	}, rootToken, nil)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := ts.do(t, http.MethodPost, "/api/users", gin.H{
		"username": "op2", "password": "sup3rsecret", "role": "user", "email": "shared@example.com",
	}, rootToken, nil)
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", second.Code)
	}
	if code := errorCode(t, second); code != ErrCodeEmailExists {
		t.Errorf("expected %s, got %s", ErrCodeEmailExists, code)
	}
}

func TestUpdateAccountRole(t *testing.T) {
	ts := newTestServer(t, nil)
	root, rootToken := ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)
	alice, _ := ts.seedAccount(t, "alice", "alicep4ssword", entity.RoleUser, false)

	w := ts.do(t, http.MethodPatch, "/api/users/"+itoa(alice.ID)+"/role", gin.H{
		"role": entity.RoleAdmin,
	}, rootToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, err := ts.repo.GetAccountByID(t.Context(), alice.ID)
	if err != nil {
		t.Fatalf("failed to reload account: %v", err)
	}
	if stored.Role != entity.RoleAdmin {
		t.Errorf("expected promoted role, got %s", stored.Role)
	}

	// The root account's role is immutable, no matter the caller.
	w = ts.do(t, http.MethodPatch, "/api/users/"+itoa(root.ID)+"/role", gin.H{
		"role": entity.RoleUser,
	}, rootToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("root role change: expected 403, got %d", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeRootProtected {
		t.Errorf("expected %s, got %s", ErrCodeRootProtected, code)
	}
}

func TestDeleteAccount(t *testing.T) {
	ts := newTestServer(t, nil)
	root, rootToken := ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)
	alice, _ := ts.seedAccount(t, "alice", "alicep4ssword", entity.RoleUser, false)

	// Deleting the root account is always refused.
	w := ts.do(t, http.MethodDelete, "/api/users/"+itoa(root.ID), nil, rootToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("root self-delete: expected 400, got %d", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeCannotDeleteSelf {
		t.Errorf("expected %s, got %s", ErrCodeCannotDeleteSelf, code)
	}

	w = ts.do(t, http.MethodDelete, "/api/users/"+itoa(alice.ID), nil, rootToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := ts.repo.GetAccountByID(t.Context(), alice.ID); err == nil {
		t.Error("account should be gone")
	}

	w = ts.do(t, http.MethodDelete, "/api/users/9999", nil, rootToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeAccountNotFound {
		t.Errorf("expected %s, got %s", ErrCodeAccountNotFound, code)
	}
}

func TestDeleteRootByAnotherRootlikeAdmin(t *testing.T) {
	ts := newTestServer(t, nil)
	root, _ := ts.seedAccount(t, "admin", "rootp4ssword", entity.RoleAdmin, true)

	// Root-only endpoints answer 403 for every non-root caller, so the only
	// path to the root target is another root session; that one trips on the
	// self-delete check first and can never reach the target. Simulate a
	// hypothetical second root to exercise the target-side guard directly.
	second := &entity.DbAccount{
		Username:     "admin2",
		PasswordHash: "irrelevant",
		Role:         entity.RoleAdmin,
		IsRoot:       true,
		EmailAlerts:  true,
	}
	if err := ts.repo.CreateAccount(t.Context(), second); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	token, _, err := ts.handler.authManager.GenerateToken(second)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	w := ts.do(t, http.MethodDelete, "/api/users/"+itoa(root.ID), nil, token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeRootProtected {
		t.Errorf("expected %s, got %s", ErrCodeRootProtected, code)
	}
}
