// simsnap Scheduler — создаёт snapshot runs по расписанию.
//
// Несколько экземпляров могут работать одновременно: runs создаёт только
// лидер, удерживающий advisory lock в PostgreSQL.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/simsnap/internal/config"
	"github.com/shaiso/simsnap/internal/mq"
	"github.com/shaiso/simsnap/internal/repo"
	"github.com/shaiso/simsnap/internal/scheduler"
	"github.com/shaiso/simsnap/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting simsnap-scheduler")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURLOrDefault())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	lock := repo.NewAdvisoryLock(pool, repo.SchedulerLockKey)
	defer func() {
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer releaseCancel()
		if err := lock.Release(releaseCtx); err != nil {
			logger.Warn("failed to release scheduler lock", "error", err)
		}
	}()

	schedCfg := scheduler.Config{
		Store:       repo.NewRunRepo(pool),
		Leader:      lock,
		Schedule:    cfg.Schedule,
		Simulations: cfg.Simulations,
		Logger:      logger,
	}

	mqConn, err := mq.NewConnection(cfg.RabbitMQURLOrDefault(), "simsnap-scheduler", logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, runs will be picked up by worker polling", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		schedCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	s, err := scheduler.New(schedCfg)
	if err != nil {
		logger.Error("invalid schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}

	if err := s.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":" + cfg.SchedPort

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	s.Stop()
	logger.Info("simsnap-scheduler stopped")
}
