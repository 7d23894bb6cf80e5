// simsnap Lambda — доводит симуляцию до snapshot по событию.
//
// Событие: {"simulation_name": "..."} или EventBridge с detail.simulation_name.
// Ответ: {"SnapshotTaken": bool, ...}.
//
// Lambda не ждёт стадий: если WAIT_MODE не задан, используется режим once,
// и повторный вызов (расписание EventBridge) продолжает с того места,
// где симуляция сейчас находится.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/simsnap/internal/config"
	"github.com/shaiso/simsnap/internal/controller"
	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/function"
	"github.com/shaiso/simsnap/internal/mq"
	"github.com/shaiso/simsnap/internal/repo"
	"github.com/shaiso/simsnap/internal/runner"
	"github.com/shaiso/simsnap/internal/telemetry"
	"github.com/shaiso/simsnap/internal/weaver"
)

func main() {
	logger := telemetry.SetupLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if _, ok := os.LookupEnv("WAIT_MODE"); !ok {
		cfg.Wait.Mode = domain.WaitModeOnce
	}
	logger.Info("starting simsnap-lambda",
		"domain", cfg.Domain,
		"app", cfg.App,
		"wait_mode", cfg.Wait.Mode,
		"destination", cfg.Snapshot.Destination.String(),
		"aws_data_path", cfg.DataPath,
	)

	// Init-фаза Lambda: клиенты переживают вызовы одного экземпляра
	ctx := context.Background()

	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

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
		Metrics: metrics,
		Logger:  logger,
	}

	// Журнал и события опциональны
	if cfg.DBURL != "" {
		pool, err := repo.NewPool(ctx, cfg.DBURL)
		if err != nil {
			logger.Warn("database not available, runs are not recorded", "error", err)
		} else {
			defer pool.Close()
			runnerCfg.Store = repo.NewRunRepo(pool)
		}
	}
	if cfg.RabbitMQURL != "" {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, "simsnap-lambda", logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, results are not published", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			runnerCfg.Publisher = mq.NewPublisher(conn, logger)
		}
	}

	handler := function.NewHandler(runner.New(runnerCfg), logger)

	lambda.Start(handler.Handle)
}
