// Package server is a development backend for the shop back-office API.
//
// @title Shop Admin API
// @version 1.0
// @description Back-office API for the shop admin panel
// @host localhost:8000
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shopadmin-dev/shopadmin/internal/auth"
	"github.com/shopadmin-dev/shopadmin/internal/config"
	"github.com/shopadmin-dev/shopadmin/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	tokens    *auth.TokenIssuer
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	if len(cfg.Server.AllowedOrigins) == 0 {
		return nil, config.ErrNoAllowedOrigins
	}

	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	secret, err := loadJWTSecret(db, cfg, zlog)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	if err := seed(db, cfg, zlog); err != nil {
		return nil, err
	}

	validate := validator.New()
	registerValidators(validate)

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: validate,
		tokens:    tokens,
		version:   version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// registerValidators adds the custom rules and reports fields by their json
// names
func registerValidators(validate *validator.Validate) {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		_, ok := orderStatusComplete[fl.Field().String()]
		return ok
	})
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8         // Reduced for SQLite efficiency
		maxIdleConns      = 4         // Reduced proportionally
		connMaxLifetime   = 300       // 5 minutes
		busyTimeout       = 5000      // 5 seconds
		cacheSize         = 10000     // 10MB
		mmapSize          = 134217728 // 128MB
		walAutocheckpoint = 1000      // WAL auto-checkpoint pages
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stderr, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Every connection to an in-memory database sees its own empty database
	if strings.Contains(cfg.Database.URL, ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint),
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
		fmt.Sprintf("PRAGMA mmap_size=%d", mmapSize),
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	var journalMode string
	db.Raw("PRAGMA journal_mode").Scan(&journalMode)
	zlog.Debug().Str("journal_mode", journalMode).Str("database", cfg.Database.URL).Msg("Database ready")

	return db, nil
}

// loadJWTSecret returns the configured secret, or the one persisted in the
// database, generating it on first start
func loadJWTSecret(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}

	var stored models.Config
	err := db.First(&stored).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return stored.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	stored = models.Config{JWTSecret: hex.EncodeToString(secretBytes)}
	if err := db.Create(&stored).Error; err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}
	zlog.Info().Msg("Generated JWT secret")
	return stored.JWTSecret, nil
}

func seed(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger) error {
	if cfg.Seed.AdminEmail != "" && cfg.Seed.AdminPassword != "" {
		hash, err := auth.HashPassword(cfg.Seed.AdminPassword)
		if err != nil {
			return err
		}
		created, err := models.EnsureAdmin(db, cfg.Seed.AdminEmail, hash)
		if err != nil {
			return err
		}
		if created {
			zlog.Info().Str("email", cfg.Seed.AdminEmail).Msg("Created admin user")
		}
	}

	if !cfg.Seed.DemoData {
		return nil
	}
	hash, err := auth.HashPassword("customer123")
	if err != nil {
		return err
	}
	if err := models.SeedDemoData(db, hash); err != nil {
		if errors.Is(err, models.ErrAlreadySeeded) {
			return nil
		}
		return err
	}
	zlog.Info().Msg("Seeded demo catalogue")
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	// Trailing slashes are part of every route
	s.router.RedirectTrailingSlash = false

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Token endpoints (no auth required)
	s.router.POST("/auth/login/", s.login)
	s.router.POST("/auth/refresh/", s.refresh)

	// Back-office routes (staff access token required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.tokens, s.db, s.logger))
	api.Use(AdminOnlyMiddleware(s.logger))
	{
		api.GET("/categories/", s.listCategories)
		api.GET("/categories/:id/", s.getCategory)

		api.GET("/products/", s.listProducts)
		api.POST("/products/", s.createProduct)
		api.GET("/products/statistics/", s.productStatistics)
		api.POST("/products/bulk_update/", s.bulkUpdateProducts)
		api.GET("/products/:id/", s.getProduct)
		api.PUT("/products/:id/", s.updateProduct)
		api.PATCH("/products/:id/", s.updateProduct)
		api.DELETE("/products/:id/", s.deleteProduct)

		api.GET("/orders/", s.listOrders)
		api.GET("/orders/statistics/", s.orderStatistics)
		api.GET("/orders/:id/", s.getOrder)
		api.PATCH("/orders/:id/update_status/", s.updateOrderStatus)

		api.GET("/customers/", s.listCustomers)
		api.GET("/customers/:id/", s.getCustomer)
		api.GET("/customers/:id/orders/", s.customerOrders)
		api.PATCH("/customers/:id/toggle_active/", s.toggleCustomerActive)

		api.GET("/reviews/", s.listReviews)
		api.GET("/reviews/:id/", s.getReview)
		api.DELETE("/reviews/:id/", s.deleteReview)

		api.GET("/dashboard/overview/", s.dashboardOverview)
		api.GET("/dashboard/recent_orders/", s.recentOrders)
		api.GET("/dashboard/top_products/", s.topProducts)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "shopadmin-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Close closes the database connection
func (s *Server) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	addr := s.config.Server.Address

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		s.closeDatabase()
		return err
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}
	s.logger.Info().Msg("Server shutdown complete")

	s.closeDatabase()
	return nil
}

// closeDatabase flushes WAL writes on exit
func (s *Server) closeDatabase() {
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
		return
	}
	s.logger.Info().Msg("Database closed successfully")
}
