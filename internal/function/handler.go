package function

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/shaiso/simsnap/internal/controller"
	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// ErrSimulationNameMissing — в событии нет simulation_name.
var ErrSimulationNameMissing = errors.New("event has no simulation_name")

// Event — входное событие Lambda.
//
// Имя симуляции берётся из simulation_name верхнего уровня
// или из detail.simulation_name (событие EventBridge).
type Event struct {
	SimulationName string       `json:"simulation_name"`
	Detail         *EventDetail `json:"detail,omitempty"`
}

// EventDetail — поле detail события EventBridge.
type EventDetail struct {
	SimulationName string `json:"simulation_name"`
}

// Simulation возвращает имя симуляции из события.
func (e Event) Simulation() string {
	if name := strings.TrimSpace(e.SimulationName); name != "" {
		return name
	}
	if e.Detail != nil {
		return strings.TrimSpace(e.Detail.SimulationName)
	}
	return ""
}

// Response — ответ Lambda.
type Response struct {
	SnapshotTaken bool   `json:"SnapshotTaken"`
	RunID         string `json:"RunID,omitempty"`
	NotReadyStage string `json:"NotReadyStage,omitempty"`
}

// Starter выполняет run (runner.Runner).
type Starter interface {
	Start(ctx context.Context, simulation string, trigger domain.Trigger) (*domain.Run, *controller.Result, error)
}

// Handler — обработчик Lambda.
type Handler struct {
	runner Starter
	logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(runner Starter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, logger: logger}
}

// Handle проводит симуляцию до snapshot.
//
// Неготовая стадия — не ошибка: ответ SnapshotTaken=false с NotReadyStage,
// следующий вызов по расписанию продолжит с того же места.
func (h *Handler) Handle(ctx context.Context, ev Event) (Response, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With("aws_request_id", lc.AwsRequestID)
	}

	simulation := ev.Simulation()
	if simulation == "" {
		logger.Error("invalid event", "error", ErrSimulationNameMissing)
		return Response{}, ErrSimulationNameMissing
	}

	logger.Info("event received", "simulation", simulation)

	run, res, err := h.runner.Start(telemetry.WithLogger(ctx, logger), simulation, domain.TriggerLambda)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		SnapshotTaken: run.SnapshotTaken,
		RunID:         run.ID.String(),
	}
	if res != nil && !res.Ready() {
		resp.NotReadyStage = string(res.NotReady)
	}

	return resp, nil
}
