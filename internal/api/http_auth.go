package api

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"watchtower/internal/auth"
	"watchtower/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Register creates an ordinary operator account. The role field of the
// payload is ignored: self-registration never grants more than `user`, and
// the reserved root username is refused outright.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req entity.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		BadRequest(c, ErrCodeMissingField, "username and password are required")
		return
	}

	if strings.EqualFold(username, entity.RootUsername) {
		Conflict(c, ErrCodeUsernameReserved, "username is reserved")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to register account")
		return
	}

	account := &entity.DbAccount{
		Username:     username,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		EmailAlerts:  true,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeUsernameExists, "username already exists")
			return
		}
		logrus.WithError(err).Error("failed to create account")
		InternalError(c, "failed to register account")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "account registered successfully",
		"account": makeAccountSummary(account),
	})
}

// Login verifies credentials by username and issues a session token carried
// both in the body and as an HTTP-only cookie. The failure response is
// identical for an unknown username and a wrong password.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		BadRequest(c, ErrCodeMissingField, "username and password are required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	account, err := h.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).Error("failed to load account for login")
			InternalError(c, "failed to log in")
			return
		}
		logrus.WithField("username", username).Warn("login attempt failed")
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
		return
	}

	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		logrus.WithField("username", username).Warn("login attempt failed")
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
		return
	}

	token, expiresAt, err := h.authManager.GenerateToken(account)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		InternalError(c, "failed to create session")
		return
	}

	h.setSessionCookie(c, token, expiresAt)

	c.JSON(http.StatusOK, entity.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   makeAccountSummary(account),
	})
}

// Logout clears the cookie carrier. Tokens are stateless, so the bearer copy
// simply expires on its own.
func (h *HTTPHandler) Logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// GetSettings returns the alert preferences of one account.
func (h *HTTPHandler) GetSettings(c *gin.Context) {
	_, targetID, ok := h.settingsTarget(c)
	if !ok {
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
		logrus.WithError(err).WithField("account_id", targetID).Error("failed to load settings")
		InternalError(c, "failed to fetch settings")
		return
	}

	c.JSON(http.StatusOK, makeSettings(target))
}

// UpdateSettings applies alert-preference and password changes. A password
// change requires the current password to verify against the stored hash.
func (h *HTTPHandler) UpdateSettings(c *gin.Context) {
	_, targetID, ok := h.settingsTarget(c)
	if !ok {
		return
	}

	var req entity.SettingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
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
		logrus.WithError(err).WithField("account_id", targetID).Error("failed to load account for settings update")
		InternalError(c, "failed to update settings")
		return
	}

	updates := make(map[string]interface{})

	if req.NewPassword != nil {
		newPassword := strings.TrimSpace(*req.NewPassword)
		if newPassword == "" {
			BadRequest(c, ErrCodeInvalidRequest, "new password must not be empty")
			return
		}
		if req.CurrentPassword == nil || strings.TrimSpace(*req.CurrentPassword) == "" {
			BadRequest(c, ErrCodeMissingField, "current password is required to change password")
			return
		}
		if err := auth.VerifyPassword(target.PasswordHash, strings.TrimSpace(*req.CurrentPassword)); err != nil {
			ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "current password is incorrect")
			return
		}
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			logrus.WithError(err).Error("failed to hash new password")
			InternalError(c, "failed to update settings")
			return
		}
		updates["password_hash"] = hash
	}

	if req.EmailAlerts != nil {
		updates["email_alerts"] = *req.EmailAlerts
	}

	if req.AlertEmail != nil {
		alertEmail := strings.ToLower(strings.TrimSpace(*req.AlertEmail))
		if alertEmail != "" && !emailPattern.MatchString(alertEmail) {
			BadRequest(c, ErrCodeInvalidEmail, "please provide a valid email address")
			return
		}
		updates["alert_email"] = alertEmail
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateAccount(ctx, target.ID, updates); err != nil {
			logrus.WithError(err).WithField("account_id", target.ID).Error("failed to update settings")
			InternalError(c, "failed to update settings")
			return
		}
	}

	updated, err := h.repo.GetAccountByID(ctx, target.ID)
	if err != nil {
		logrus.WithError(err).WithField("account_id", target.ID).Error("failed to reload settings")
		InternalError(c, "failed to load updated settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "settings updated successfully",
		"settings": makeSettings(updated),
	})
}

// settingsTarget resolves and authorises the :userId path parameter: the
// caller must be the target account or an administrator.
func (h *HTTPHandler) settingsTarget(c *gin.Context) (*RequestAccount, uint, bool) {
	account := CurrentAccount(c)
	if account == nil {
		Unauthorized(c, "authentication required")
		return nil, 0, false
	}

	id, ok := accountIDParam(c)
	if !ok {
		return nil, 0, false
	}

	if account.ID != id && !account.IsAdmin() {
		Forbidden(c, "access denied")
		return nil, 0, false
	}

	return account, id, true
}

func (h *HTTPHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookieName, token, maxAge, "/", "", h.cfg.CookieSecure, true)
}

func (h *HTTPHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
}

func makeAccountSummary(account *entity.DbAccount) entity.AccountSummary {
	if account == nil {
		return entity.AccountSummary{}
	}
	return entity.AccountSummary{
		ID:          account.ID,
		Username:    account.Username,
		Email:       account.EmailValue(),
		Role:        account.Role,
		EmailAlerts: account.EmailAlerts,
		AlertEmail:  account.AlertEmail,
		CreatedAt:   account.CreatedAt,
		UpdatedAt:   account.UpdatedAt,
	}
}

func makeSettings(account *entity.DbAccount) entity.SettingsResponse {
	if account == nil {
		return entity.SettingsResponse{}
	}
	return entity.SettingsResponse{
		Email:       account.EmailValue(),
		EmailAlerts: account.EmailAlerts,
		AlertEmail:  account.AlertRecipient(),
	}
}
