package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"seribro_backend/database"
	"seribro_backend/internal/alerts"
	"seribro_backend/internal/config"
	"seribro_backend/internal/email"
	"seribro_backend/internal/handlers"
	"seribro_backend/internal/logger"
	"seribro_backend/internal/middleware"
	"seribro_backend/internal/repositories"
	"seribro_backend/internal/repositories/memory"
	"seribro_backend/internal/routes"
	"seribro_backend/internal/services"
	"seribro_backend/internal/storage"
	"seribro_backend/internal/validator"
	"seribro_backend/internal/workers"
	"seribro_backend/pkg/apperrors"
	"seribro_backend/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// App - собранное приложение: роутер, сервисы и фоновые процессы
type App struct {
	Config    *config.Config
	Router    *gin.Engine
	Services  *services.ServiceContainer
	Store     repositories.Store
	WSManager *ws.WebSocketManager

	closers []func() error
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize application", "error", err)
	}
	defer application.Close()

	if err := application.Serve(ctx); err != nil {
		logger.Fatal("Server error", "error", err)
	}
}

// New собирает зависимости. Фоновые процессы запускает Start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, err := a.initializeStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	storageInstance, err := storage.NewStorage(storage.ConfigFromApp(cfg))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	a.WSManager = ws.NewWebSocketManager()
	a.Services = a.initializeServices(store, storageInstance)

	if err := a.seedFirstAdmin(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Router = a.SetupRouter(storageInstance)
	return a, nil
}

func (a *App) initializeStore(ctx context.Context) (repositories.Store, error) {
	cfg := a.Config
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store. Data is lost on restart.")
		return memory.NewStore(), nil
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB from GORM: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		err = database.AutoMigrate(gormDB)
	} else {
		err = database.Migrate(ctx, gormDB)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repositories.NewGormStore(gormDB), nil
}

func (a *App) initializeServices(store repositories.Store, storageInstance storage.Storage) *services.ServiceContainer {
	cfg := a.Config

	emailService := email.NewProvider(cfg)
	if err := emailService.Validate(); err != nil {
		logger.Warn("Email provider misconfigured, OTP emails will fail", "error", err)
	}
	a.closers = append(a.closers, emailService.Close)

	alerter, err := alerts.New(cfg)
	if err != nil {
		logger.Warn("Discord alerts disabled", "error", err)
		alerter = alerts.NoopAlerter{}
	}

	return services.NewServiceContainer(services.Dependencies{
		Store:     store,
		Storage:   storageInstance,
		Email:     emailService,
		Alerter:   alerter,
		Publisher: a.WSManager,
		Options:   services.OptionsFromConfig(cfg),
	})
}

func (a *App) seedFirstAdmin(ctx context.Context) error {
	adminEmail := a.Config.FirstAdminEmail
	adminPassword := a.Config.FirstAdminPassword
	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}
	if err := a.Services.AuthService.EnsureAdmin(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("failed to seed first admin user: %w", err)
	}
	return nil
}

func (a *App) SetupRouter(storageInstance storage.Storage) *gin.Engine {
	cfg := a.Config

	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator, cfg.Upload.MaxSize, cfg.Upload.AllowedTypes)
	appHandlers := handlers.NewAppHandlers(baseHandler, a.Services, handlers.SessionCookie{
		Name:   cfg.JWT.CookieName,
		Secure: cfg.Server.CookieSecure,
	})
	wsHandler := ws.NewWebSocketHandler(a.WSManager, cfg.Server.CORSOrigins)

	guards := handlers.RouteGuards{
		Auth:          middleware.AuthMiddleware(a.Services.AuthService, cfg.JWT.CookieName),
		AuthRateLimit: middleware.RateLimit(a.initializeLimiter(), "auth", cfg.RateLimit.AuthLimit, cfg.RateLimit.AuthWindow),
	}

	// Локальные файлы раздаются самим сервером
	uploadsDir := ""
	if local, ok := storageInstance.(*storage.LocalStorage); ok {
		uploadsDir = local.BasePath()
	}

	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler, guards, uploadsDir)
	return ginRouter
}

// initializeLimiter - Redis, если настроен и отвечает, иначе счетчики в памяти
func (a *App) initializeLimiter() middleware.Limiter {
	cfg := a.Config
	if cfg.Redis.Addr == "" {
		return middleware.NewMemoryLimiter()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, using in-memory rate limiter", "addr", cfg.Redis.Addr, "error", err)
		_ = client.Close()
		return middleware.NewMemoryLimiter()
	}
	a.closers = append(a.closers, client.Close)
	logger.Info("Redis rate limiter enabled", "addr", cfg.Redis.Addr)
	return middleware.NewRedisLimiter(client)
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.CustomRecovery(apperrors.RecoveryHandler))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	return router
}

// Start запускает WebSocket hub и воркеры до отмены ctx
func (a *App) Start(ctx context.Context) {
	go a.WSManager.Run(ctx)
	workers.NewProjectWorker(a.Services.ProjectService, a.Config.Workers.ProjectAutoCloseInterval).Start(ctx)
	workers.NewCleanupWorker(a.Store, a.Config.Workers.CleanupInterval).Start(ctx)
}

// Serve слушает порт до отмены ctx и корректно завершает запросы
func (a *App) Serve(ctx context.Context) error {
	a.Start(ctx)

	address := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// Close освобождает соединения в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
