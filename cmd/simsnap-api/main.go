package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/simsnap/internal/api"
	"github.com/shaiso/simsnap/internal/config"
	"github.com/shaiso/simsnap/internal/mq"
	"github.com/shaiso/simsnap/internal/repo"
	"github.com/shaiso/simsnap/internal/telemetry"
	"github.com/shaiso/simsnap/internal/weaver"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simsnap_api_health_requests_total",
		Help: "Total /healthz requests handled by simsnap-api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting simsnap-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background(), cfg.DBURLOrDefault())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	handlerCfg := api.Config{
		Runs:   repo.NewRunRepo(pool),
		Domain: cfg.Domain,
		App:    cfg.App,
		Logger: logger,
	}

	// Без брокера runs подхватит polling worker'а
	mqConn, err := mq.NewConnection(cfg.RabbitMQURLOrDefault(), "simsnap-api", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, requests are queued in the database only", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(context.Background(), mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		handlerCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	// Без AWS credentials API всё равно отдаёт историю runs
	client, err := weaver.New(context.Background(), weaver.Options{
		Region:   cfg.AWSRegion,
		Endpoint: cfg.AWSEndpoint,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		logger.Warn("simspaceweaver client not available", "error", err)
	} else {
		handlerCfg.Simulations = client
	}

	handler := api.NewHandler(handlerCfg)

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.APIPort

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
