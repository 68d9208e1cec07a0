// server/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/api/handlers"
	"waste-collection-api-server/internal/api/routes"
	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/contamination"
	"waste-collection-api-server/internal/database"
	"waste-collection-api-server/internal/events"
	"waste-collection-api-server/internal/notify"
	"waste-collection-api-server/internal/pickup"
	"waste-collection-api-server/internal/s3"
	"waste-collection-api-server/internal/socket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		slog.Error("could not load config", "err", err)
		os.Exit(1)
	}
	logger := cfg.Server.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// 2. MongoDB
	client, db, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}()
	if err := database.EnsureIndexes(ctx, db, logger); err != nil {
		return err
	}

	// 3. Contamination scoring
	provider, err := contamination.NewProvider(ctx, cfg.Scoring)
	if err != nil {
		return err
	}
	scorer := contamination.NewPipeline(provider, cfg.Scoring.Timeout, logger)
	logger.Info("contamination scoring ready", "provider", provider.Name(), "timeout", cfg.Scoring.Timeout)

	// 4. Image storage is optional; without it multipart images are scored
	// from the upload buffer only.
	var images handlers.ImageStore
	if cfg.S3.Bucket != "" {
		uploader, err := s3.NewUploader(ctx, cfg.S3)
		if err != nil {
			return err
		}
		images = uploader
	} else {
		logger.Warn("s3 bucket not configured, uploaded images will not be stored")
	}

	// 5. Event fan-out: in-app notifications, plus Kafka when configured.
	hub := socket.NewHub(logger)
	publishers := events.Multi{
		notify.NewDispatcher(database.NewNotificationStore(db), database.NewUserStore(db), hub, logger),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafka.Close()
		publishers = append(publishers, kafka)
		logger.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	// 6. Pickup service
	facilities := database.NewFacilityStore(db)
	service, err := pickup.NewService(pickup.Config{
		Store:      database.NewPickupStore(db),
		Scorer:     scorer,
		Publisher:  publishers,
		Facilities: facilities,
		Alerts:     contamination.NewAlertPolicy(cfg.Scoring.AlertThreshold),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	tokens, err := auth.NewManager(cfg.JWT)
	if err != nil {
		return err
	}

	// 7. Router
	router := routes.SetupRouter(routes.Dependencies{
		Config:        cfg,
		Pickups:       service,
		Images:        images,
		Facilities:    facilities,
		Notifications: database.NewNotificationStore(db),
		Users:         database.NewUserStore(db),
		Tokens:        tokens,
		Hub:           hub,
		Logger:        logger,
	})

	// 8. Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "port", cfg.Server.Port)
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
	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
