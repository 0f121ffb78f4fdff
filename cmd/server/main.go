package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"watchtower/internal/api"
	"watchtower/internal/config"
	"watchtower/internal/entity"
	"watchtower/internal/mailer"
	"watchtower/internal/model"
	"watchtower/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("failed to parse config")
		return
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	if err := model.SeedRootAccount(context.Background(), repo, cfg); err != nil {
		logrus.WithError(err).Error("failed to seed root account")
		return
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	mail, err := mailer.NewMailer(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise mailer")
		return
	}

	metrics := api.NewMetrics("watchtower")

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store, mail, metrics)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(metrics.Middleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(api.MetricsHandler()))

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", httpHandler.Register)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.POST("/logout", httpHandler.Logout)
	authGroup.GET("/settings/:userId", httpHandler.AuthMiddleware(), httpHandler.GetSettings)
	authGroup.PUT("/settings/:userId", httpHandler.AuthMiddleware(), httpHandler.UpdateSettings)

	userAdmin := apiGroup.Group("/users")
	userAdmin.Use(httpHandler.AuthMiddleware())
	userAdmin.GET("", httpHandler.RequireRole(entity.RoleAdmin), httpHandler.ListAccounts)
	userAdmin.POST("", httpHandler.RequireRoot(), httpHandler.CreateAccount)
	userAdmin.PATCH("/:userId/role", httpHandler.RequireRoot(), httpHandler.UpdateAccountRole)
	userAdmin.DELETE("/:userId", httpHandler.RequireRoot(), httpHandler.DeleteAccount)

	events := apiGroup.Group("/events")
	events.POST("/upload", httpHandler.DeviceMiddleware(), httpHandler.UploadEvent)
	events.GET("/logs", httpHandler.AuthMiddleware(), httpHandler.ListEvents)
	events.GET("/logs/:id", httpHandler.AuthMiddleware(), httpHandler.GetEvent)
	events.DELETE("/bulk", httpHandler.AuthMiddleware(), httpHandler.DeleteEvents)
	events.DELETE("/:id", httpHandler.AuthMiddleware(), httpHandler.DeleteEvent)

	// Locally stored captures are served straight from disk; remote backends
	// hand out their own URLs.
	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logrus.WithField("host", serverHost).Info("server starting")
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Error("server failed")
	}
}

// CORSMiddleware allows the browser console to call the API from another
// origin during development.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Device-Token")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware emits one structured line per request.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
