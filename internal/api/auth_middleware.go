package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"watchtower/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	currentAccountContextKey = "current-account"

	// TokenCookieName is the HTTP-only cookie carrying the session token.
	TokenCookieName = "token"
)

// RequestAccount is the authenticated identity attached to the request
// context. The password hash is stripped before it gets here.
type RequestAccount struct {
	ID       uint
	Username string
	Role     string
	IsRoot   bool
}

// IsAdmin reports whether the account has administrator privileges.
func (a *RequestAccount) IsAdmin() bool {
	if a == nil {
		return false
	}
	return a.Role == entity.RoleAdmin
}

// extractToken pulls the session token from the Authorization header or the
// cookie carrier. The bearer header wins when both are present.
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// AuthMiddleware authenticates the request from its session token and loads
// the account it names.
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}

		claims, err := h.authManager.ParseToken(tokenString)
		if err != nil {
			logrus.WithError(err).Warn("failed to parse session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeSessionExpired,
				Message: "token invalid or expired",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		account, err := h.repo.GetAccountByID(ctx, claims.AccountID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
					Code:    ErrCodeAccountNotFound,
					Message: "account no longer exists",
				})
				return
			}
			logrus.WithError(err).WithField("account_id", claims.AccountID).Error("failed to load account")
			c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
				Code:    ErrCodeInternalError,
				Message: "failed to verify account",
			})
			return
		}

		c.Set(currentAccountContextKey, &RequestAccount{
			ID:       account.ID,
			Username: account.Username,
			Role:     account.Role,
			IsRoot:   account.IsRoot,
		})
		c.Next()
	}
}

// RequireRole guards an endpoint behind a role. Administrators satisfy a
// user-level requirement.
func (h *HTTPHandler) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "authentication required",
			})
			return
		}
		allowed := account.Role == role || (role == entity.RoleUser && account.IsAdmin())
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "insufficient privileges",
			})
			return
		}
		c.Next()
	}
}

// RequireRoot guards an endpoint behind the distinguished root account.
func (h *HTTPHandler) RequireRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil || !account.IsRoot {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "root privileges required",
			})
			return
		}
		c.Next()
	}
}

// DeviceMiddleware gates the sensor-facing endpoints behind a shared device
// token when one is configured. Without configuration the check is skipped.
func (h *HTTPHandler) DeviceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := strings.TrimSpace(h.cfg.DeviceToken)
		if expected == "" {
			c.Next()
			return
		}
		if strings.TrimSpace(c.GetHeader("X-Device-Token")) != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "device token required",
			})
			return
		}
		c.Next()
	}
}

// CurrentAccount reads the authenticated account from the gin context.
func CurrentAccount(c *gin.Context) *RequestAccount {
	value, exists := c.Get(currentAccountContextKey)
	if !exists {
		return nil
	}
	account, ok := value.(*RequestAccount)
	if !ok {
		return nil
	}
	return account
}
