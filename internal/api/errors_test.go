package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		status         int
		code           string
		message        string
		expectedStatus int
		expectedCode   string
		expectedMsg    string
	}{
		{
			name:           "BadRequest",
			status:         http.StatusBadRequest,
			code:           ErrCodeInvalidRequest,
			message:        "invalid request",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
			expectedMsg:    "invalid request",
		},
		{
			name:           "NotFound",
			status:         http.StatusNotFound,
			code:           ErrCodeEventNotFound,
			message:        "event not found",
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeEventNotFound,
			expectedMsg:    "event not found",
		},
		{
			name:           "InternalError",
			status:         http.StatusInternalServerError,
			code:           ErrCodeInternalError,
			message:        "internal server error",
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			ErrorResponse(c, tt.status, tt.code, tt.message)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}

			if response.Message != tt.expectedMsg {
				t.Errorf("expected message %s, got %s", tt.expectedMsg, response.Message)
			}
		})
	}
}

func TestErrorResponseWithDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	details := map[string]string{"field": "username"}
	ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeMissingField, "missing required field", details)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}

	var response APIError
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if response.Code != ErrCodeMissingField {
		t.Errorf("expected code %s, got %s", ErrCodeMissingField, response.Code)
	}

	if response.Details == nil {
		t.Error("expected details to be set")
	}
}

func TestShortcutFunctions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	shortcuts := []struct {
		name           string
		invoke         func(c *gin.Context)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "BadRequest",
			invoke:         func(c *gin.Context) { BadRequest(c, ErrCodeInvalidRequest, "bad request") },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
		},
		{
			name:           "Unauthorized",
			invoke:         func(c *gin.Context) { Unauthorized(c, "login required") },
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   ErrCodeUnauthorized,
		},
		{
			name:           "Forbidden",
			invoke:         func(c *gin.Context) { Forbidden(c, "no access") },
			expectedStatus: http.StatusForbidden,
			expectedCode:   ErrCodeForbidden,
		},
		{
			name:           "NotFound",
			invoke:         func(c *gin.Context) { NotFound(c, ErrCodeAccountNotFound, "no such account") },
			expectedStatus: http.StatusNotFound,
			expectedCode:   ErrCodeAccountNotFound,
		},
		{
			name:           "Conflict",
			invoke:         func(c *gin.Context) { Conflict(c, ErrCodeUsernameExists, "username taken") },
			expectedStatus: http.StatusConflict,
			expectedCode:   ErrCodeUsernameExists,
		},
		{
			name:           "InternalError",
			invoke:         func(c *gin.Context) { InternalError(c, "server error") },
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   ErrCodeInternalError,
		},
		{
			name:           "ServiceUnavailable",
			invoke:         func(c *gin.Context) { ServiceUnavailable(c, "unavailable") },
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   ErrCodeServiceUnavailable,
		},
		{
			name:           "MissingField",
			invoke:         func(c *gin.Context) { MissingField(c, "username") },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeMissingField,
		},
		{
			name:           "InvalidPayload",
			invoke:         func(c *gin.Context) { InvalidPayload(c) },
			expectedStatus: http.StatusBadRequest,
			expectedCode:   ErrCodeInvalidRequest,
		},
	}

	for _, tt := range shortcuts {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.invoke(c)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response APIError
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if response.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, response.Code)
			}
		})
	}
}
