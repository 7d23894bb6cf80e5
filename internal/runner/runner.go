package runner

import (
	"context"
	"log/slog"

	"github.com/shaiso/simsnap/internal/controller"
	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/mq"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// Driver — то, что доводит симуляцию до snapshot (controller.Driver).
type Driver interface {
	Run(ctx context.Context, simulation string) (*controller.Result, error)
}

// Store — журнал runs (repo.RunRepo).
type Store interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
}

// Publisher — публикация итогов (mq.Publisher).
type Publisher interface {
	PublishSnapshotCompleted(ctx context.Context, payload mq.SnapshotCompletedPayload) error
}

// Runner оборачивает Driver журналом run: статусы, история, события.
//
// Store и Publisher опциональны. Их ошибки только логируются:
// snapshot уже мог быть запрошен, и результат драйвера важнее журнала.
type Runner struct {
	driver    Driver
	store     Store
	publisher Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Config — зависимости Runner.
type Config struct {
	Driver    Driver
	Store     Store
	Publisher Publisher
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// New создаёт Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		driver:    cfg.Driver,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Start создаёт PENDING run и сразу выполняет его.
func (r *Runner) Start(ctx context.Context, simulation string, trigger domain.Trigger) (*domain.Run, *controller.Result, error) {
	run := domain.NewRun(simulation, trigger)

	if r.store != nil {
		if err := r.store.Create(ctx, run); err != nil {
			r.logger.Warn("failed to record run", "run_id", run.ID, "error", err)
		}
	}

	res, err := r.Execute(ctx, run)
	return run, res, err
}

// Execute выполняет run и записывает его итог.
//
// Возвращает ошибку драйвера без изменений; run к этому моменту уже FAILED.
func (r *Runner) Execute(ctx context.Context, run *domain.Run) (*controller.Result, error) {
	logger := telemetry.WithRunID(r.logger, run.ID.String())
	logger = telemetry.WithSimulation(logger, run.Simulation)

	// Журнал пишем даже после отмены ctx
	bookCtx := context.WithoutCancel(ctx)

	if run.Status == domain.RunStatusPending {
		run.MarkRunning()
		r.save(bookCtx, logger, run)
	}

	logger.Info("run started", "trigger", run.Trigger)

	res, err := r.driver.Run(telemetry.WithLogger(ctx, logger), run.Simulation)
	finish(run, res, err)

	r.save(bookCtx, logger, run)
	r.publish(bookCtx, logger, run)
	r.metrics.ObserveRun(outcome(run), run.Duration())

	logger.Info("run finished",
		"status", run.Status,
		"stage", run.Stage,
		"snapshot_taken", run.SnapshotTaken,
		"duration", run.Duration(),
	)

	return res, err
}

// finish переводит run в финальный статус по результату драйвера.
func finish(run *domain.Run, res *controller.Result, err error) {
	if res == nil {
		res = &controller.Result{Stage: domain.StageSimulation}
	}

	switch {
	case err != nil:
		run.MarkFailed(res.Stage, err.Error())
		run.SnapshotTaken = res.SnapshotTaken
	case !res.Ready():
		run.MarkNotReady(res.NotReady)
		run.SnapshotTaken = res.SnapshotTaken
	default:
		run.MarkSucceeded(res.Destination.String())
		return
	}

	if run.SnapshotTaken {
		run.Destination = res.Destination.String()
	}
}

// outcome — значение label result для simsnap_snapshots_total.
func outcome(run *domain.Run) string {
	switch run.Status {
	case domain.RunStatusSucceeded:
		return "taken"
	case domain.RunStatusNotReady:
		return "not_ready"
	default:
		return "failed"
	}
}

func (r *Runner) save(ctx context.Context, logger *slog.Logger, run *domain.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.Update(ctx, run); err != nil {
		logger.Warn("failed to update run", "status", run.Status, "error", err)
	}
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, run *domain.Run) {
	if r.publisher == nil {
		return
	}

	err := r.publisher.PublishSnapshotCompleted(ctx, mq.SnapshotCompletedPayload{
		RunID:         run.ID,
		Simulation:    run.Simulation,
		Status:        string(run.Status),
		Stage:         string(run.Stage),
		SnapshotTaken: run.SnapshotTaken,
		Destination:   run.Destination,
		Error:         run.Error,
	})
	if err != nil {
		logger.Warn("failed to publish run result", "error", err)
	}
}
