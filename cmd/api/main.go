package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/admin_api/internal/cache"
	"github.com/GTDGit/admin_api/internal/config"
	"github.com/GTDGit/admin_api/internal/database"
	"github.com/GTDGit/admin_api/internal/handler"
	"github.com/GTDGit/admin_api/internal/middleware"
	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/repository"
	"github.com/GTDGit/admin_api/internal/service"
	"github.com/GTDGit/admin_api/internal/utils"
	"github.com/GTDGit/admin_api/internal/worker"
)

// main is the application entrypoint for the admin API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting admin api")

	// 3. Configure JWT signing
	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// 4. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 4b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	tokenCache := cache.NewTokenCache(redisClient)

	// 5. Initialize repositories
	adminRepo := repository.NewAdminUserRepository(db)

	// 6. Initialize services
	userSvc := service.NewAdminUserService(adminRepo)
	authSvc := service.NewAdminAuthService(adminRepo, tokenCache)

	// 7. Initialize handlers and middleware
	loginLimiter := middleware.NewInvalidAuthRateLimiter()
	handlers := &Handlers{
		Health: handler.NewHealthHandler(db),
		Auth:   handler.NewAuthHandler(authSvc, userSvc, loginLimiter),
		Users:  handler.NewAdminUserHandler(userSvc),
	}
	jwtMw := middleware.NewJWTMiddleware(tokenCache)

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewPasswordExpiryWorker(adminRepo, cfg.Worker.PasswordExpiryInterval).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health *handler.HealthHandler
	Auth   *handler.AuthHandler
	Users  *handler.AdminUserHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		admin.POST("/auth/logout", handlers.Auth.Logout)
		admin.POST("/auth/password", handlers.Auth.ChangePassword)
		admin.GET("/me", handlers.Auth.Me)

		// Account management requires the manage_users capability
		// (currently only sysadmin holds it).
		users := admin.Group("/users")
		users.GET("", handlers.Users.List)
		users.GET("/:id", handlers.Users.Get)
		users.Use(middleware.RequireCapability(models.CapManageUsers))
		{
			users.POST("", handlers.Users.Create)
			users.PUT("/:id", handlers.Users.Update)
			users.PUT("/:id/role", handlers.Users.ChangeRole)
			users.PUT("/:id/status", handlers.Users.SetStatus)
			users.DELETE("/:id", handlers.Users.Delete)
		}
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
