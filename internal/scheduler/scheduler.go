package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/simsnap/internal/domain"
)

// ErrNoSimulations — расписание задано, а симуляций нет.
var ErrNoSimulations = errors.New("no simulations to snapshot")

// RunStore — запись новых runs (repo.RunRepo).
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
}

// Publisher — уведомление worker'ов (mq.Publisher).
type Publisher interface {
	PublishSnapshotRequested(ctx context.Context, runID uuid.UUID, simulation string) error
}

// Leader — лидерство среди экземпляров scheduler (repo.AdvisoryLock).
type Leader interface {
	TryAcquire(ctx context.Context) (bool, error)
}

// Scheduler по cron-расписанию создаёт PENDING runs.
type Scheduler struct {
	store       RunStore
	publisher   Publisher
	leader      Leader
	spec        string
	simulations []string
	logger      *slog.Logger

	cron *cron.Cron
}

// Config — конфигурация Scheduler.
type Config struct {
	Store RunStore

	// Publisher — опционально; без него runs подхватит polling worker'а.
	Publisher Publisher

	// Leader — опционально; без него каждый экземпляр считает себя лидером.
	Leader Leader

	// Schedule — cron-выражение или дескриптор (@every 1h).
	Schedule string

	// Simulations — для каких симуляций создавать runs.
	Simulations []string

	Logger *slog.Logger
}

// New проверяет расписание и создаёт Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if err := ValidateCronExpr(cfg.Schedule); err != nil {
		return nil, err
	}
	if len(cfg.Simulations) == 0 {
		return nil, ErrNoSimulations
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:       cfg.Store,
		publisher:   cfg.Publisher,
		leader:      cfg.Leader,
		spec:        cfg.Schedule,
		simulations: cfg.Simulations,
		logger:      logger,
	}, nil
}

// Start запускает cron. Тики выполняются в горутине cron
// и пропускаются, если предыдущий ещё не закончился.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := cronLogger{s: s}

	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	s.cron.Start()

	s.logger.Info("scheduler started",
		"schedule", s.spec,
		"simulations", s.simulations,
	)
	return nil
}

// Stop останавливает cron и ждёт текущий тик.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// Tick создаёт по одному PENDING run на каждую симуляцию.
//
// Возвращает количество созданных runs.
// Ошибка одной симуляции не блокирует остальные.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	if s.leader != nil {
		ok, err := s.leader.TryAcquire(ctx)
		if err != nil {
			return 0, fmt.Errorf("leader election: %w", err)
		}
		if !ok {
			s.logger.Debug("not a leader, skipping tick")
			return 0, nil
		}
	}

	var created int
	var errs []error
	for _, sim := range s.simulations {
		if err := s.enqueue(ctx, sim); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sim, err))
			continue
		}
		created++
	}

	s.logger.Info("scheduler tick completed",
		"simulations", len(s.simulations),
		"runs_created", created,
	)

	return created, errors.Join(errs...)
}

// enqueue создаёт run и уведомляет worker'ов.
func (s *Scheduler) enqueue(ctx context.Context, simulation string) error {
	run := domain.NewRun(simulation, domain.TriggerScheduler)

	if err := s.store.Create(ctx, run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	s.logger.Info("created run from schedule",
		"run_id", run.ID,
		"simulation", simulation,
	)

	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.PublishSnapshotRequested(ctx, run.ID, simulation); err != nil {
		// Не фатально: run уже в БД, worker заберёт его через polling
		s.logger.Warn("failed to publish snapshot.requested",
			"run_id", run.ID,
			"error", err,
		)
	}
	return nil
}
