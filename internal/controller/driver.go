package controller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// API — вызовы SimSpace Weaver, которые нужны драйверу.
//
// Реализация: weaver.Client.
type API interface {
	DescribeSimulation(ctx context.Context, simulation string) (*domain.Simulation, error)
	StartApp(ctx context.Context, simulation, domainName, app string) (domain.StartOutcome, error)
	DescribeApp(ctx context.Context, simulation, domainName, app string) (*domain.App, error)
	StartClock(ctx context.Context, simulation string) error
	CreateSnapshot(ctx context.Context, simulation string, dest domain.Destination) error
}

// Driver ведёт симуляцию по стадиям до snapshot.
//
// Driver не хранит состояние между вызовами Run: всё состояние
// симуляции принадлежит сервису, драйвер только запрашивает переходы
// и ждёт, пока они станут видны.
type Driver struct {
	api      API
	domain   string
	app      string
	wait     domain.WaitPolicy
	snapshot domain.SnapshotPolicy
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// Config — конфигурация Driver.
type Config struct {
	API API

	// Domain и App — какой app запускать.
	Domain string
	App    string

	// Wait — политика ожидания стадий (по умолчанию DefaultWaitPolicy).
	Wait *domain.WaitPolicy

	// Snapshot — пауза до snapshot, назначение, ожидание завершения.
	Snapshot domain.SnapshotPolicy

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// Result — итог одного Run.
type Result struct {
	Simulation string `json:"simulation"`

	// Stage — последняя стадия, до которой дошёл драйвер.
	Stage domain.Stage `json:"stage"`

	// NotReady — стадия, оказавшаяся не готовой в режиме once.
	NotReady domain.Stage `json:"not_ready,omitempty"`

	// AppOutcome — ответ на StartApp.
	AppOutcome domain.StartOutcome `json:"-"`

	// ClockStartRequested — был ли вызван StartClock.
	ClockStartRequested bool `json:"clock_start_requested"`

	// SnapshotTaken — был ли вызван CreateSnapshot.
	SnapshotTaken bool `json:"snapshot_taken"`

	// SnapshotComplete — дождались выхода из SNAPSHOT_IN_PROGRESS.
	SnapshotComplete bool `json:"snapshot_complete"`

	Destination domain.Destination `json:"destination"`

	// Polls — сколько запросов статуса было сделано.
	Polls int `json:"polls"`
}

// Ready возвращает true, если все стадии были готовы.
func (r *Result) Ready() bool {
	return r.NotReady == ""
}

// New создаёт Driver.
func New(cfg Config) *Driver {
	wait := domain.DefaultWaitPolicy()
	if cfg.Wait != nil {
		wait = *cfg.Wait
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		api:      cfg.API,
		domain:   cfg.Domain,
		app:      cfg.App,
		wait:     wait,
		snapshot: cfg.Snapshot,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// Run проводит симуляцию через стадии:
//
//  1. ждёт, пока симуляция станет STARTED
//  2. запрашивает запуск app (конфликт = уже запущен)
//  3. ждёт, пока app станет STARTED
//  4. если часы не STARTED — запускает их и ждёт
//  5. выжидает PreSnapshotDelay
//  6. запрашивает CreateSnapshot
//  7. если WaitForCompletion — ждёт окончания snapshot
//
// StartApp, StartClock и CreateSnapshot вызываются не более одного раза.
// В режиме once неготовая стадия возвращается в Result.NotReady без ошибки.
func (d *Driver) Run(ctx context.Context, simulation string) (*Result, error) {
	if simulation == "" {
		return nil, ErrSimulationRequired
	}

	logger := telemetry.WithSimulation(d.logger, simulation)
	res := &Result{
		Simulation:  simulation,
		Destination: d.snapshot.Destination,
	}

	// 1. Симуляция
	res.Stage = domain.StageSimulation
	logger.Info("waiting for simulation to be STARTED")
	ready, err := d.waitFor(ctx, res, domain.StageSimulation, false, d.simulationStarted(simulation))
	if err != nil {
		return res, err
	}
	if !ready {
		return d.notReady(logger, res, domain.StageSimulation), nil
	}
	logger.Info("simulation is STARTED")

	// 2. Запуск app
	res.Stage = domain.StageApp
	logger.Info("starting app", "domain", d.domain, "app", d.app)
	outcome, err := d.api.StartApp(ctx, simulation, d.domain, d.app)
	if err != nil {
		return res, err
	}
	res.AppOutcome = outcome
	if outcome == domain.AlreadyStarted {
		logger.Info("app already started", "app", d.app)
	}

	// 3. Ожидание app
	ready, err = d.waitFor(ctx, res, domain.StageApp, false, d.appStarted(simulation))
	if err != nil {
		return res, err
	}
	if !ready {
		return d.notReady(logger, res, domain.StageApp), nil
	}
	logger.Info("app is STARTED", "app", d.app)

	// 4. Часы
	res.Stage = domain.StageClock
	sim, err := d.api.DescribeSimulation(ctx, simulation)
	if err != nil {
		return res, err
	}
	res.Polls++
	if !sim.ClockStatus.IsStarted() {
		logger.Info("starting clock", "clock_status", sim.ClockStatus)
		if err := d.api.StartClock(ctx, simulation); err != nil {
			return res, err
		}
		res.ClockStartRequested = true

		ready, err = d.waitFor(ctx, res, domain.StageClock, false, d.clockStarted(simulation))
		if err != nil {
			return res, err
		}
		if !ready {
			return d.notReady(logger, res, domain.StageClock), nil
		}
	}
	logger.Info("clock is STARTED")

	// 5. Пауза перед snapshot
	if delay := d.snapshot.PreSnapshotDelay; delay > 0 {
		logger.Info("waiting before snapshot", "delay", delay)
		if err := sleep(ctx, delay); err != nil {
			return res, err
		}
	}

	// 6. Snapshot
	res.Stage = domain.StageSnapshot
	logger.Info("taking snapshot", "destination", d.snapshot.Destination.String())
	if err := d.api.CreateSnapshot(ctx, simulation, d.snapshot.Destination); err != nil {
		return res, err
	}
	res.SnapshotTaken = true
	logger.Info("snapshot requested")

	// 7. Ожидание завершения snapshot
	if !d.snapshot.WaitForCompletion {
		return res, nil
	}

	// Сразу после CreateSnapshot статус ещё STARTED: в режиме once
	// завершение наблюдать не из чего
	if d.wait.Mode == domain.WaitModeOnce {
		return d.notReady(logger, res, domain.StageSnapshot), nil
	}

	ready, err = d.waitFor(ctx, res, domain.StageSnapshot, true, d.snapshotDone(simulation))
	if err != nil {
		return res, err
	}
	if !ready {
		return d.notReady(logger, res, domain.StageSnapshot), nil
	}
	res.SnapshotComplete = true
	logger.Info("snapshot created")

	return res, nil
}

func (d *Driver) notReady(logger *slog.Logger, res *Result, stage domain.Stage) *Result {
	res.NotReady = stage
	logger.Info("stage is not ready", "stage", stage)
	return res
}

func (d *Driver) simulationStarted(simulation string) checkFunc {
	return func(ctx context.Context) (bool, error) {
		sim, err := d.api.DescribeSimulation(ctx, simulation)
		if err != nil {
			return false, err
		}
		if sim.Status.IsTerminal() {
			return false, fmt.Errorf("%w: %s is %s", ErrSimulationUnavailable, simulation, sim.Status)
		}
		return sim.Status.IsStarted(), nil
	}
}

func (d *Driver) appStarted(simulation string) checkFunc {
	return func(ctx context.Context) (bool, error) {
		app, err := d.api.DescribeApp(ctx, simulation, d.domain, d.app)
		if err != nil {
			return false, err
		}
		return app.Status.IsStarted(), nil
	}
}

func (d *Driver) clockStarted(simulation string) checkFunc {
	return func(ctx context.Context) (bool, error) {
		sim, err := d.api.DescribeSimulation(ctx, simulation)
		if err != nil {
			return false, err
		}
		return sim.ClockStatus.IsStarted(), nil
	}
}

// snapshotDone — snapshot завершён, когда симуляция побывала
// в SNAPSHOT_IN_PROGRESS и вернулась в STARTED.
// STARTED до первого SNAPSHOT_IN_PROGRESS означает, что сервис ещё
// не начал запись.
func (d *Driver) snapshotDone(simulation string) checkFunc {
	var inProgressSeen bool
	return func(ctx context.Context) (bool, error) {
		sim, err := d.api.DescribeSimulation(ctx, simulation)
		if err != nil {
			return false, err
		}
		if sim.Status.IsTerminal() {
			return false, fmt.Errorf("%w: %s is %s", ErrSimulationUnavailable, simulation, sim.Status)
		}
		if sim.SnapshotInProgress() {
			inProgressSeen = true
			return false, nil
		}
		return inProgressSeen && sim.Status.IsStarted(), nil
	}
}
