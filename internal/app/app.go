package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/catalog/internal/service/catalog"
	"github.com/vladislavdragonenkov/catalog/internal/service/outbox"
)

const cacheJanitorInterval = time.Minute

// Config описывает настройки запуска приложения.
type Config struct {
	MetricsAddr string

	// PostgresDSN пустой — репозитории живут в памяти.
	PostgresDSN string

	// KafkaBrokers пустой — события не публикуются, кеш инвалидируется
	// только локально.
	KafkaBrokers string
	KafkaGroupID string

	CacheTTL time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
}

// DefaultConfig возвращает базовые настройки сервиса.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:        ":9090",
		KafkaGroupID:       "catalog-service",
		CacheTTL:           5 * time.Minute,
		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
	}
}

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	services := NewServices(deps, cfg)

	go deps.Cache.RunJanitor(ctx, cacheJanitorInterval)

	// Прогреваем первую страницу каталога, чтобы первый запрос после
	// деплоя не упирался в холодный кеш.
	if _, err := services.Catalog.ListOffset(ctx, catalog.ListParams{Page: 1, PageSize: 20}); err != nil {
		logger.WithError(err).Warn("cache warmup failed")
	}

	// Kafka опционален: без брокеров сервис остаётся однонодовым.
	var consumer *kafka.Consumer
	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err == nil && producer != nil {
		worker := outbox.NewWorker(
			deps.Outbox,
			kafka.NewOutboxPublisher(producer),
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		)
		go worker.Run(ctx)

		consumer, err = initInvalidationConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, deps.Cache, logger)
		if err == nil && consumer != nil {
			if startErr := consumer.Start(ctx); startErr != nil {
				logger.WithError(startErr).Warn("failed to start invalidation consumer")
				consumer = nil
			}
		}
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger)

	logger.Info("catalog service запущен")
	<-ctx.Done()
	logger.Info("получен сигнал остановки, завершаем работу")

	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.WithError(err).Warn("failed to stop invalidation consumer")
		}
	}
	closeKafka(producer, logger)
	shutdownHTTP(metricsSrv, logger)

	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
