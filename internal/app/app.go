package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"yamdb/docs"
	"yamdb/internal/config"
	"yamdb/internal/handlers"
	"yamdb/internal/logger"
	"yamdb/internal/middleware"
	"yamdb/internal/migrations"
	"yamdb/internal/repositories"
	"yamdb/internal/routes"
	"yamdb/internal/services"
)

// Run loads the config, wires every component and serves until SIGINT or
// SIGTERM.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := openDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("db close", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	limiter, closeLimiter, err := newAttemptLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	// === Services ===
	codeKey, tokenKey, err := cfg.Security.Keys()
	if err != nil {
		return fmt.Errorf("security keys: %w", err)
	}
	codes := services.NewCodeGenerator(codeKey, cfg.Security.CodeTTL)
	notifier := services.NewNotifier(cfg.Email, log)
	issuer := services.NewTokenIssuer(tokenKey, cfg.Security.Issuer, cfg.Security.TokenTTL)

	registrar := services.NewRegistrar(userRepo, codes, notifier, log)
	verifier := services.NewVerifier(userRepo, codes, limiter, log)
	authService := services.NewAuthService(registrar, verifier, issuer)
	userService := services.NewUserService(userRepo, log)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)

	router := NewRouter(cfg.Server, log, db, authHandler, userHandler, issuer)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// NewRouter builds the gin engine with the middleware chain, swagger,
// the health check and the API routes.
func NewRouter(
	cfg config.ServerConfig,
	log *zap.Logger,
	db pinger,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokens middleware.TokenParser,
) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	router := gin.New()
	router.Use(logger.GinMiddleware(log))
	router.Use(logger.Recovery(log))
	router.Use(corsMiddleware())
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Swagger
	docs.SwaggerInfo.BasePath = "/api/v1"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/healthz", healthz(db))

	routes.SetupRoutes(router, authHandler, userHandler, tokens)
	return router
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func healthz(db pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func openDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// newAttemptLimiter uses Redis when an address is configured and falls back
// to a per-process counter otherwise.
func newAttemptLimiter(ctx context.Context, cfg *config.Config, log *zap.Logger) (repositories.AttemptLimiter, func(), error) {
	sec := cfg.Security
	if cfg.Redis.Addr == "" {
		log.Warn("redis not configured, attempt counter is per process")
		return repositories.NewInMemoryAttemptLimiter(sec.MaxAttempts, sec.LockoutWindow), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close", zap.Error(err))
		}
	}
	return repositories.NewRedisAttemptLimiter(client, sec.MaxAttempts, sec.LockoutWindow), closeFn, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
