package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"brewspot/cmd/api/router"
	"brewspot/cmd/api/services"
	"brewspot/config"
	"brewspot/db"
	"brewspot/eventbus"
	"brewspot/repositories"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	if err := db.Init(ctx); err != nil {
		config.Logger.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer db.Disconnect(context.Background())

	brokers, err := eventbus.Brokers(cfg.Kafka)
	if err != nil {
		config.Logger.Errorf("%v", err)
		os.Exit(1)
	}
	topic := eventbus.ListingTopic(cfg.Kafka)
	if err := eventbus.EnsureTopics(brokers, topic, cfg.Kafka.Partitions); err != nil {
		config.Logger.Errorf("failed to ensure eventbus topics: %v", err)
	}
	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		config.Logger.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	database := db.Database()
	listingSvc := services.NewListingService(repositories.NewListingRepository(database), bus, topic)
	adminSvc := services.NewAdminService(listingSvc, repositories.NewAuditLogRepository(database))

	engine := router.New(router.Deps{
		Listings:   listingSvc,
		Admin:      adminSvc,
		AdminToken: cfg.AdminAPIToken,
	})
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           router.WithCORS(engine, cfg.API.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		config.Logger.Infof("api listening on %s", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Logger.Errorf("api server error: %v", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	config.Logger.Info("received shutdown signal, shutting down api...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.Logger.Errorf("api shutdown error: %v", err)
	}
	config.Logger.Info("api stopped")
}
