package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/repo"
)

// RunStore — журнал runs (repo.RunRepo).
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
}

// Publisher — уведомление worker'ов (mq.Publisher).
type Publisher interface {
	PublishSnapshotRequested(ctx context.Context, runID uuid.UUID, simulation string) error
}

// Simulations — чтение состояния симуляций (weaver.Client).
type Simulations interface {
	DescribeSimulation(ctx context.Context, simulation string) (*domain.Simulation, error)
	DescribeApp(ctx context.Context, simulation, domainName, app string) (*domain.App, error)
}

// Handler — обработчики API с зависимостями.
type Handler struct {
	runs        RunStore
	publisher   Publisher
	simulations Simulations
	domain      string
	app         string
	logger      *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Runs RunStore

	// Publisher — опционально; без него runs подхватит polling worker'а.
	Publisher Publisher

	// Simulations — опционально; без него GET /simulations/{name} отвечает 503.
	Simulations Simulations

	// Domain и App — какой app показывать в статусе симуляции.
	Domain string
	App    string

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		runs:        cfg.Runs,
		publisher:   cfg.Publisher,
		simulations: cfg.Simulations,
		domain:      cfg.Domain,
		app:         cfg.App,
		logger:      logger,
	}
}
