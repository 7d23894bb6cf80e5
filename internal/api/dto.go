package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/simsnap/internal/domain"
)

// CreateSnapshotRequest — запрос на snapshot.
type CreateSnapshotRequest struct {
	Simulation string `json:"simulation"`
}

// RunResponse — ответ с run.
type RunResponse struct {
	ID            uuid.UUID        `json:"id"`
	Simulation    string           `json:"simulation"`
	Trigger       domain.Trigger   `json:"trigger"`
	Status        domain.RunStatus `json:"status"`
	Stage         domain.Stage     `json:"stage,omitempty"`
	SnapshotTaken bool             `json:"snapshot_taken"`
	Destination   string           `json:"destination,omitempty"`
	Error         string           `json:"error,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	FinishedAt    *time.Time       `json:"finished_at,omitempty"`
	DurationMs    int64            `json:"duration_ms,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:            r.ID,
		Simulation:    r.Simulation,
		Trigger:       r.Trigger,
		Status:        r.Status,
		Stage:         r.Stage,
		SnapshotTaken: r.SnapshotTaken,
		Destination:   r.Destination,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		DurationMs:    r.Duration().Milliseconds(),
		CreatedAt:     r.CreatedAt,
	}
}

// SimulationResponse — живое состояние симуляции и app.
type SimulationResponse struct {
	Simulation domain.Simulation `json:"simulation"`

	// App — nil, если app ещё не создан в домене.
	App *domain.App `json:"app,omitempty"`

	// ReadyForSnapshot — симуляция, app и часы в STARTED.
	ReadyForSnapshot bool `json:"ready_for_snapshot"`
}
