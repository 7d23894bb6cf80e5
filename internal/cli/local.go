package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/simsnap/internal/config"
	"github.com/shaiso/simsnap/internal/controller"
	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/runner"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// ErrSimulationNameRequired — команде не передали имя симуляции.
var ErrSimulationNameRequired = errors.New("simulation name argument is required")

// WeaverAPI — вызовы SimSpace Weaver, нужные локальным командам (weaver.Client).
type WeaverAPI interface {
	controller.API
	StartSimulation(ctx context.Context, req domain.StartSimulationRequest) (string, error)
}

// Local — окружение команд, которые работают с SimSpace Weaver напрямую,
// без API.
type Local struct {
	Config *config.Config
	API    WeaverAPI

	// Store — журнал runs. nil, если DB_URL не задан.
	Store runner.Store

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// LocalFn лениво собирает Local: AWS конфигурация нужна не всем командам.
type LocalFn func(ctx context.Context) (*Local, error)

// simulationArg проверяет, что имя симуляции передано.
func simulationArg(_ *cobra.Command, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return ErrSimulationNameRequired
	}
	if len(args) > 1 {
		return errors.New("only one simulation name is accepted")
	}
	return nil
}
