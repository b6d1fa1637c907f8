package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	identityapp "github.com/posvenda/backend/internal/application/identity"
	syncapp "github.com/posvenda/backend/internal/application/sync"
	"github.com/posvenda/backend/internal/infrastructure/auth"
	"github.com/posvenda/backend/internal/infrastructure/config"
	"github.com/posvenda/backend/internal/infrastructure/hubsoft"
	"github.com/posvenda/backend/internal/infrastructure/logger"
	"github.com/posvenda/backend/internal/infrastructure/migration"
	"github.com/posvenda/backend/internal/infrastructure/persistence"
	"github.com/posvenda/backend/internal/infrastructure/scheduler"
	"github.com/posvenda/backend/internal/infrastructure/telemetry"
	"github.com/posvenda/backend/internal/interfaces/http/handler"
	"github.com/posvenda/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("starting posvenda backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	if cfg.Migration.AutoOnBoot {
		migrator, err := migration.NewFromURL(cfg.Database.DSN(), cfg.Migration.Path, log)
		if err != nil {
			log.Fatal("failed to initialize migrator", zap.Error(err))
		}
		if err := migrator.Up(); err != nil {
			log.Fatal("boot migration failed", zap.Error(err))
		}
		_ = migrator.Close()
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	if err := telemetry.RegisterDBTracing(db.DB, tracerProvider.IsEnabled() && cfg.Telemetry.DBTraceEnabled, log); err != nil {
		log.Fatal("failed to register database tracing", zap.Error(err))
	}

	// The token cache only needs redis when configured that way.
	var redisClient *redis.Client
	if cfg.Hubsoft.TokenStore == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	hubsoftCfg := &hubsoft.Config{
		BaseURL:               cfg.Hubsoft.BaseURL,
		ClientID:              cfg.Hubsoft.ClientID,
		ClientSecret:          cfg.Hubsoft.ClientSecret,
		Username:              cfg.Hubsoft.Username,
		Password:              cfg.Hubsoft.Password,
		TokenStore:            cfg.Hubsoft.TokenStore,
		TokenFile:             cfg.Hubsoft.TokenFile,
		GrantTimeoutSeconds:   cfg.Hubsoft.GrantTimeoutSeconds,
		RequestTimeoutSeconds: cfg.Hubsoft.RequestTimeoutSeconds,
	}
	tokenStore, err := hubsoft.NewTokenStore(hubsoftCfg, redisClient)
	if err != nil {
		log.Fatal("failed to initialize hubsoft token store", zap.Error(err))
	}
	tokenManager := hubsoft.NewTokenManager(hubsoftCfg, tokenStore, log)
	hubsoftClient, err := hubsoft.NewClient(hubsoftCfg, tokenManager, log)
	if err != nil {
		log.Fatal("failed to initialize hubsoft client", zap.Error(err))
	}

	orderRepo := persistence.NewGormServiceOrderRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	orchestrator := syncapp.NewOrchestrator(hubsoftClient, orderRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)

	if cfg.Scheduler.Enabled {
		dailySync, err := scheduler.NewDailySyncScheduler(cfg.Scheduler, orchestrator, log)
		if err != nil {
			log.Fatal("failed to initialize scheduler", zap.Error(err))
		}
		if err := dailySync.Start(ctx); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = dailySync.Stop(stopCtx)
		}()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	serviceName := ""
	if tracerProvider.IsEnabled() {
		serviceName = cfg.Telemetry.ServiceName
	}
	engine := router.New(router.Dependencies{
		Logger:      log,
		JWTService:  jwtService,
		Auth:        handler.NewAuthHandler(authService),
		Sync:        handler.NewSyncHandler(orchestrator),
		Orders:      handler.NewOrdersHandler(orderRepo),
		System:      handler.NewSystemHandler(db),
		ServiceName: serviceName,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
