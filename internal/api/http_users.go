package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"watchtower/internal/auth"
	"watchtower/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListAccounts returns every account except the root administrator, oldest
// first. Admin only.
func (h *HTTPHandler) ListAccounts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	accounts, err := h.repo.ListAccounts(ctx, true)
	if err != nil {
		logrus.WithError(err).Error("failed to list accounts")
		InternalError(c, "failed to list accounts")
		return
	}

	summaries := make([]entity.AccountSummary, 0, len(accounts))
	for i := range accounts {
		summaries = append(summaries, makeAccountSummary(&accounts[i]))
	}

	c.JSON(http.StatusOK, entity.AccountListResponse{Accounts: summaries})
}

// CreateAccount provisions an account with an explicit role. Root only.
func (h *HTTPHandler) CreateAccount(c *gin.Context) {
	var req entity.AccountCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	role := strings.ToLower(strings.TrimSpace(req.Role))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" || password == "" {
		BadRequest(c, ErrCodeMissingField, "username and password are required")
		return
	}
	if strings.EqualFold(username, entity.RootUsername) {
		Conflict(c, ErrCodeUsernameReserved, "username is reserved")
		return
	}
	if role != entity.RoleAdmin && role != entity.RoleUser {
		BadRequest(c, ErrCodeInvalidRole, "role must be admin or user")
		return
	}
	if email != "" && !emailPattern.MatchString(email) {
		BadRequest(c, ErrCodeInvalidEmail, "please provide a valid email address")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to create account")
		return
	}

	account := &entity.DbAccount{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		EmailAlerts:  true,
	}
	if email != "" {
		account.Email = &email
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Username and email carry separate unique indexes; figure out
			// which one collided so the client gets an actionable code.
			if existing, lookupErr := h.repo.GetAccountByUsername(ctx, username); lookupErr == nil && existing != nil {
				Conflict(c, ErrCodeUsernameExists, "username already exists")
				return
			}
			Conflict(c, ErrCodeEmailExists, "email already in use")
			return
		}
		logrus.WithError(err).Error("failed to create account")
		InternalError(c, "failed to create account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "account created successfully",
		"account": makeAccountSummary(account),
	})
}

// UpdateAccountRole changes an account's role. The root account's role is
// immutable. Root only.
func (h *HTTPHandler) UpdateAccountRole(c *gin.Context) {
	targetID, ok := accountIDParam(c)
	if !ok {
		return
	}

	var req entity.RoleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != entity.RoleAdmin && role != entity.RoleUser {
		BadRequest(c, ErrCodeInvalidRole, "role must be admin or user")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	target, err := h.repo.GetAccountByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeAccountNotFound, "account not found")
			return
		}
		logrus.WithError(err).WithField("account_id", targetID).Error("failed to load account for role change")
		InternalError(c, "failed to update role")
		return
	}

	if target.IsRoot {
		ErrorResponse(c, http.StatusForbidden, ErrCodeRootProtected, "the root account cannot be modified")
		return
	}

	if err := h.repo.UpdateAccount(ctx, target.ID, map[string]interface{}{"role": role}); err != nil {
		logrus.WithError(err).WithField("account_id", target.ID).Error("failed to update role")
		InternalError(c, "failed to update role")
		return
	}
	target.Role = role

	c.JSON(http.StatusOK, gin.H{
		"message": "role updated successfully",
		"account": makeAccountSummary(target),
	})
}

// DeleteAccount removes an account. The root account and the caller's own
// account are both refused. Root only.
func (h *HTTPHandler) DeleteAccount(c *gin.Context) {
	caller := CurrentAccount(c)
	if caller == nil {
		Unauthorized(c, "authentication required")
		return
	}

	targetID, ok := accountIDParam(c)
	if !ok {
		return
	}

	if caller.ID == targetID {
		BadRequest(c, ErrCodeCannotDeleteSelf, "you cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	target, err := h.repo.GetAccountByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeAccountNotFound, "account not found")
			return
		}
		logrus.WithError(err).WithField("account_id", targetID).Error("failed to load account for deletion")
		InternalError(c, "failed to delete account")
		return
	}

	if target.IsRoot {
		ErrorResponse(c, http.StatusForbidden, ErrCodeRootProtected, "the root account cannot be deleted")
		return
	}

	if err := h.repo.DeleteAccount(ctx, target.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeAccountNotFound, "account not found")
			return
		}
		logrus.WithError(err).WithField("account_id", target.ID).Error("failed to delete account")
		InternalError(c, "failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "account deleted successfully"})
}

func accountIDParam(c *gin.Context) (uint, bool) {
	idValue := strings.TrimSpace(c.Param("userId"))
	id, err := strconv.ParseUint(idValue, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid account id")
		return 0, false
	}
	return uint(id), true
}
