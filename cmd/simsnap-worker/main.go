// simsnap Worker — выполняет запрошенные snapshot runs.
//
// Worker:
//   - Получает run ID из очереди snapshots.requested
//   - Забирает PENDING runs из БД (polling, если брокер недоступен)
//   - Проводит симуляцию через стадии до CreateSnapshot
//   - Публикует итог в snapshots.completed
//
// Runs внутри одного worker выполняются по одному.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/simsnap/internal/config"
	"github.com/shaiso/simsnap/internal/controller"
	"github.com/shaiso/simsnap/internal/mq"
	"github.com/shaiso/simsnap/internal/repo"
	"github.com/shaiso/simsnap/internal/runner"
	"github.com/shaiso/simsnap/internal/telemetry"
	"github.com/shaiso/simsnap/internal/weaver"
	"github.com/shaiso/simsnap/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting simsnap-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURLOrDefault())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	runRepo := repo.NewRunRepo(pool)

	client, err := weaver.New(ctx, weaver.Options{
		Region:   cfg.AWSRegion,
		Endpoint: cfg.AWSEndpoint,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		logger.Error("failed to create simspaceweaver client", "error", err)
		os.Exit(1)
	}

	driver := controller.New(controller.Config{
		API:      client,
		Domain:   cfg.Domain,
		App:      cfg.App,
		Wait:     &cfg.Wait,
		Snapshot: cfg.Snapshot,
		Logger:   logger,
		Metrics:  metrics,
	})

	runnerCfg := runner.Config{
		Driver:  driver,
		Store:   runRepo,
		Metrics: metrics,
		Logger:  logger,
	}

	// RabbitMQ
	var mqConn *mq.Connection
	mqConn, err = mq.NewConnection(cfg.RabbitMQURLOrDefault(), "simsnap-worker", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		runnerCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	w := worker.New(worker.Config{
		Store:        runRepo,
		Executor:     runner.New(runnerCfg),
		Conn:         mqConn,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":" + cfg.WorkerPort

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("simsnap-worker stopped")
}
