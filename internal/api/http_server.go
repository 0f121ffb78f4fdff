package api

import (
	"fmt"
	"strings"
	"time"

	"watchtower/internal/auth"
	"watchtower/internal/config"
	"watchtower/internal/mailer"
	"watchtower/internal/model"
	"watchtower/internal/service"
	"watchtower/internal/storage"
)

// HTTPHandler carries the wired collaborators for all endpoints.
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	authManager       *auth.Manager
	metrics           *Metrics

	eventService *service.EventService
}

// NewHTTPHandler creates the handler with its collaborators. metrics may be
// nil, in which case no instruments are recorded.
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage, mail mailer.Mailer, metrics *Metrics) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	eventService := service.NewEventService(repo, store, mail, cfg)
	if metrics != nil {
		eventService.UseAlertCounter(metrics.AlertsSentTotal)
	}

	handler := &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		authManager:       authManager,
		metrics:           metrics,
		eventService:      eventService,
	}

	return handler, nil
}

// normalisePublicBase normalises the public URL base path.
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// publicURL resolves a storage-relative key to a client-retrievable URL.
func (h *HTTPHandler) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := h.storagePublicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}
