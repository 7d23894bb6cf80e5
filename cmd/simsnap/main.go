// simsnap CLI — доводит симуляцию SimSpace Weaver до snapshot
// и управляет историей runs через HTTP API.
//
// Использование:
//
//	simsnap [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	snapshot    Запустить app и часы, затем сделать snapshot
//	status      Статус симуляции, app и часов
//	simulation  Запуск симуляций
//	runs        История runs через API
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/shaiso/simsnap/internal/cli"
	"github.com/shaiso/simsnap/internal/config"
	"github.com/shaiso/simsnap/internal/repo"
	"github.com/shaiso/simsnap/internal/telemetry"
	"github.com/shaiso/simsnap/internal/weaver"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var journal bool

	rootCmd := &cobra.Command{
		Use:           "simsnap",
		Short:         "simsnap — SimSpace Weaver snapshot driver",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&journal, "journal", true, "Record runs in the database when DB_URL is set")

	var pool *pgxpool.Pool
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	localFn := func(ctx context.Context) (*cli.Local, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}

		logger := telemetry.SetupLogger()
		logger.Debug("configuration loaded", "domain", cfg.Domain, "app", cfg.App, "aws_data_path", cfg.DataPath)

		client, err := weaver.New(ctx, weaver.Options{
			Region:   cfg.AWSRegion,
			Endpoint: cfg.AWSEndpoint,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}

		local := &cli.Local{Config: cfg, API: client, Logger: logger}

		if journal && cfg.DBURL != "" {
			p, err := repo.NewPool(ctx, cfg.DBURL)
			if err != nil {
				logger.Warn("database not available, runs are not recorded", "error", err)
			} else {
				pool = p
				local.Store = repo.NewRunRepo(p)
			}
		}

		return local, nil
	}

	rootCmd.AddCommand(
		cli.NewSnapshotCmd(localFn, outputFn),
		cli.NewStatusCmd(localFn, outputFn),
		cli.NewSimulationCmd(localFn, outputFn),
		cli.NewRunsCmd(clientFn, outputFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cli.NewOutput(false).Error(cli.ErrorMessage(err))
		cancel()
		if pool != nil {
			pool.Close()
		}
		os.Exit(1)
	}
}
