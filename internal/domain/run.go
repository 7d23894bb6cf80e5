package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trigger — источник запуска run.
type Trigger string

const (
	TriggerCLI       Trigger = "cli"
	TriggerLambda    Trigger = "lambda"
	TriggerAPI       Trigger = "api"
	TriggerScheduler Trigger = "scheduler"
)

// Run — один проход драйвера по симуляции.
//
// Run создаётся когда:
// - Пользователь запускает snapshot из CLI
// - Срабатывает Lambda
// - Приходит запрос через API
// - Scheduler создаёт run по расписанию
//
// Сама симуляция нигде не хранится: run — это только журнал попытки.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Simulation — имя симуляции.
	Simulation string `json:"simulation"`

	// Trigger — кто запустил run.
	Trigger Trigger `json:"trigger"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Stage — последняя стадия, до которой дошёл драйвер.
	// Для NOT_READY — стадия, которая оказалась не готова.
	Stage Stage `json:"stage,omitempty"`

	// SnapshotTaken — был ли запрошен CreateSnapshot.
	SnapshotTaken bool `json:"snapshot_taken"`

	// Destination — адрес назначения snapshot (s3://bucket/prefix).
	Destination string `json:"destination,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения (когда статус стал RUNNING).
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(simulation string, trigger Trigger) *Run {
	return &Run{
		ID:         uuid.New(),
		Simulation: simulation,
		Trigger:    trigger,
		Status:     RunStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded(destination string) {
	now := time.Now().UTC()
	r.Status = RunStatusSucceeded
	r.Stage = StageSnapshot
	r.SnapshotTaken = true
	r.Destination = destination
	r.FinishedAt = &now
}

// MarkNotReady переводит run в статус NOT_READY.
func (r *Run) MarkNotReady(stage Stage) {
	now := time.Now().UTC()
	r.Status = RunStatusNotReady
	r.Stage = stage
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(stage Stage, err string) {
	now := time.Now().UTC()
	r.Status = RunStatusFailed
	r.Stage = stage
	r.FinishedAt = &now
	r.Error = err
}
