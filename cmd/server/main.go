package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"myfi.backend/internal/config"
	"myfi.backend/internal/infrastructure/accord"
	"myfi.backend/internal/infrastructure/datasources/postgres"
	"myfi.backend/internal/infrastructure/jobs"
	"myfi.backend/internal/infrastructure/repositories"
	"myfi.backend/internal/interfaces/http/handlers"
	"myfi.backend/internal/interfaces/http/middleware"
	"myfi.backend/internal/usecases"
	"myfi.backend/pkg/crypto"
	"myfi.backend/pkg/jwt"
	"myfi.backend/pkg/logger"
	"myfi.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		sqlDB, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.NewGorm(sqlDB)
	}
	migrateDB      = postgres.Migrate
	newRecordStore = redis.NewRecordStore
	runServer      = serveHTTP
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := migrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(ctx, "Connected to PostgreSQL")

	records, err := newRecordStore(cfg.Security.IdentityEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize identity store: %w", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.SessionExpiry)

	identityUsecase := usecases.NewIdentityUsecase(
		repositories.NewIdentityStore(records),
		repositories.NewSessionRepository(records),
		crypto.NewOTPGenerator(cfg.Identity.OTPDigits),
		nil,
		jwtService,
		cfg.Identity.PendingTTL,
	)
	referenceUsecase := usecases.NewReferenceDataUsecase(
		repositories.NewAmcRepository(db),
		repositories.NewSchemeRepository(db),
		repositories.NewSchemeNavRepository(db),
		repositories.NewUnitOfWork(db),
		cfg.Sync.Workers,
	)
	accordClient := accord.NewClientWithBaseURL(cfg.Accord.Token, cfg.Accord.BaseURL, cfg.Accord.Timeout)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sync.Enabled {
		syncJob := jobs.NewReferenceDataSyncJob(accordClient, referenceUsecase, cfg.Sync.Interval, cfg.Accord.FeedDate).
			WithFeedLocker(jobs.RedisFeedLocker)
		go syncJob.Start(runCtx)
	}

	r := newRouter(routeDeps{
		identityHandler:    handlers.NewIdentityHandler(identityUsecase),
		referenceHandler:   handlers.NewReferenceHandler(referenceUsecase),
		adminIngestHandler: handlers.NewAdminIngestHandler(referenceUsecase, accordClient),
		sessionAuth:        middleware.SessionAuthMiddleware(identityUsecase),
		adminAuth:          middleware.AdminTokenMiddleware(cfg.Server.AdminToken),
	})

	logger.Info(ctx, "MyFi backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Bool("sync_enabled", cfg.Sync.Enabled),
		zap.Int("routes", len(r.Routes())),
	)
	if err := runServer(runCtx, r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info(ctx, "Server stopped")
	_ = logger.Sync()
	return nil
}

// serveHTTP serves until ctx is cancelled, then drains in-flight requests
func serveHTTP(ctx context.Context, handler http.Handler, port string) error {
	srv := &http.Server{Addr: ":" + port, Handler: handler}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
