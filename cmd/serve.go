package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"tajeats-api/auth"
	"tajeats-api/config"
	"tajeats-api/events"
	"tajeats-api/handlers"
	"tajeats-api/logger"
	"tajeats-api/middleware"
	"tajeats-api/routes"
	"tajeats-api/services"
	"tajeats-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	blacklist, err := newBlacklist(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	if closer, ok := blacklist.(io.Closer); ok {
		defer closer.Close()
	}

	publisher, err := newPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	images, err := newImageStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)
	h := &handlers.Handler{
		Accounts:      services.NewAccountService(db, auth.NewBcryptHasher(), tokens, log),
		Catalog:       services.NewCatalogService(db, images, log),
		Cart:          services.NewCartService(db, log),
		Orders:        services.NewOrderService(db, publisher, log),
		Reviews:       services.NewReviewService(db, log),
		Tokens:        tokens,
		Blacklist:     blacklist,
		MaxImageBytes: cfg.Storage.MaxImageBytes,
		Ping:          sqlDB.PingContext,
		Service:       cfg.App.Name,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	r := gin.New()
	r.Use(logger.GinMiddleware(log), logger.Recovery(log), middleware.CORS(cfg.HTTP.CORSAllowOrigins))

	opts := routes.Options{Tokens: tokens, Revoked: blacklist, Staff: h.Accounts}
	if cfg.Storage.Driver == "local" {
		opts.ImageDir = cfg.Storage.LocalDir
		opts.ImagePath = cfg.Storage.PublicPath
	}
	routes.SetupRoutes(r, h, opts)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

func newBlacklist(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (auth.TokenBlacklist, error) {
	if !cfg.Enabled {
		log.Info("Using in-memory token blacklist")
		return auth.NewMemoryBlacklist(), nil
	}
	b, err := auth.NewRedisBlacklist(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to Redis", zap.String("addr", cfg.Addr))
	return b, nil
}

func newPublisher(cfg config.KafkaConfig, log *zap.Logger) (events.Publisher, error) {
	if !cfg.Enabled {
		return events.NewLogPublisher(log), nil
	}
	p, err := events.NewKafkaPublisher(cfg.Brokers, cfg.Topic, cfg.ClientID, log)
	if err != nil {
		return nil, err
	}
	log.Info("Publishing order events to Kafka", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return p, nil
}

func newImageStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (storage.ImageStore, error) {
	switch cfg.Driver {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PublicURL:    cfg.S3PublicURL,
			UsePathStyle: cfg.S3PathStyle,
			MaxBytes:     cfg.MaxImageBytes,
		}, log)
	case "local", "":
		return storage.NewLocalStore(cfg.LocalDir, cfg.PublicPath, cfg.MaxImageBytes, log), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
