package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brewspot/audit"
	"brewspot/cmd/processor/event/dispatcher"
	"brewspot/cmd/processor/event/handler"
	"brewspot/config"
	"brewspot/db"
	"brewspot/eventbus"
	"brewspot/generator"
	"brewspot/lock"
	"brewspot/pipeline"
	"brewspot/quota"
	"brewspot/repositories"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	config.InitLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB 초기화
	if err := db.Init(ctx); err != nil {
		config.Logger.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer db.Disconnect(context.Background())

	// Redis (리스팅별 생성 락)
	rdb, err := lock.NewClient(ctx, cfg.Redis)
	if err != nil {
		config.Logger.Errorf("failed to connect redis: %v", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// EventBus 초기화 및 토픽 보장
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

	provider, err := generator.NewGeminiProvider(ctx, cfg, generator.NewPhotoFetcher(cfg.LLM))
	if err != nil {
		config.Logger.Errorf("failed to create generation provider: %v", err)
		os.Exit(1)
	}

	database := db.Database()
	listingRepo := repositories.NewListingRepository(database)
	eventDispatcher := dispatcher.NewEventDispatcher(bus, topic)
	emitter := audit.NewEmitter(
		audit.NewMongoSink(repositories.NewAuditLogRepository(database)),
		audit.WithWriteTimeout(time.Duration(cfg.Audit.WriteTimeoutSeconds)*time.Second),
	)

	refresher := pipeline.NewRefresher(
		listingRepo,
		provider,
		emitter,
		pipeline.OptionsFromConfig(cfg),
		pipeline.WithLocker(lock.NewRedisLocker(rdb, time.Duration(cfg.AIMeta.LockTTLSeconds)*time.Second)),
		pipeline.WithQuota(quota.NewGenerationQuotaLimiter(cfg.GenerationQuota)),
		pipeline.WithNotifier(eventDispatcher),
	)
	eventHandler := handler.NewEventHandlers(refresher)

	// 미처리/구버전 리스팅 재발행
	if cfg.Processor.BackfillOnStart && cfg.AIMeta.Enabled {
		if _, err := pipeline.Backfill(ctx, listingRepo, eventDispatcher, cfg.AIMeta.DataVersion, cfg.Processor.BackfillLimit); err != nil {
			config.Logger.Errorf("backfill failed: %v", err)
		}
	}

	metricsSrv := &http.Server{Addr: cfg.Processor.MetricsAddr, Handler: promhttp.Handler()}

	config.Logger.Infof("starting processor service (ai_meta enabled=%v, data_version=%s)...", cfg.AIMeta.Enabled, cfg.AIMeta.DataVersion)

	// Graceful shutdown 설정
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		groupID := eventbus.GroupID(cfg.Kafka, "brewspot-processor")
		if err := bus.Subscribe(ctx, groupID, topic, eventHandler.Handle); err != nil && !errors.Is(err, context.Canceled) {
			config.Logger.Errorf("eventbus subscribe error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.Logger.Errorf("metrics server error: %v", err)
		}
	}()

	// 종료 신호 대기
	<-sigChan
	config.Logger.Info("received shutdown signal, shutting down processor service...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)
	wg.Wait()

	// 진행 중인 감사 로그 기록이 끝날 때까지 대기
	emitter.Wait()

	config.Logger.Info("processor service stopped")
}
