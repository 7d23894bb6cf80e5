package domain

import "strings"

// SimulationStatus — статус симуляции в SimSpace Weaver.
//
// Жизненный цикл (управляется сервисом, мы только наблюдаем):
//
//	STARTING → STARTED ⇄ SNAPSHOT_IN_PROGRESS
//	         ↘ FAILED
//	STARTED → STOPPING → STOPPED → DELETING → DELETED
type SimulationStatus string

const (
	SimulationStatusUnknown            SimulationStatus = "UNKNOWN"
	SimulationStatusStarting           SimulationStatus = "STARTING"
	SimulationStatusStarted            SimulationStatus = "STARTED"
	SimulationStatusStopping           SimulationStatus = "STOPPING"
	SimulationStatusStopped            SimulationStatus = "STOPPED"
	SimulationStatusFailed             SimulationStatus = "FAILED"
	SimulationStatusDeleting           SimulationStatus = "DELETING"
	SimulationStatusDeleted            SimulationStatus = "DELETED"
	SimulationStatusSnapshotInProgress SimulationStatus = "SNAPSHOT_IN_PROGRESS"
)

// IsStarted возвращает true, если симуляция в статусе STARTED.
func (s SimulationStatus) IsStarted() bool {
	return s == SimulationStatusStarted
}

// IsTerminal возвращает true, если симуляция уже не сможет стать STARTED.
func (s SimulationStatus) IsTerminal() bool {
	switch s {
	case SimulationStatusFailed, SimulationStatusStopped, SimulationStatusDeleting, SimulationStatusDeleted:
		return true
	default:
		return false
	}
}

// AppStatus — статус приложения (app) внутри домена симуляции.
type AppStatus string

const (
	AppStatusUnknown  AppStatus = "UNKNOWN"
	AppStatusStarting AppStatus = "STARTING"
	AppStatusStarted  AppStatus = "STARTED"
	AppStatusStopping AppStatus = "STOPPING"
	AppStatusStopped  AppStatus = "STOPPED"
	AppStatusError    AppStatus = "ERROR"
)

// IsStarted возвращает true, если app в статусе STARTED.
func (s AppStatus) IsStarted() bool {
	return s == AppStatusStarted
}

// ClockStatus — статус часов симуляции.
type ClockStatus string

const (
	ClockStatusUnknown  ClockStatus = "UNKNOWN"
	ClockStatusStarting ClockStatus = "STARTING"
	ClockStatusStarted  ClockStatus = "STARTED"
	ClockStatusStopping ClockStatus = "STOPPING"
	ClockStatusStopped  ClockStatus = "STOPPED"
)

// IsStarted возвращает true, если часы в статусе STARTED.
func (s ClockStatus) IsStarted() bool {
	return s == ClockStatusStarted
}

// RunStatus — статус выполнения run (одного вызова драйвера).
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ NOT_READY (режим once: предусловие не выполнено)
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — драйвер ведёт симуляцию по стадиям.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — snapshot запрошен (и, если нужно, дождались завершения).
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusNotReady — одна из стадий не готова, snapshot не делали.
	RunStatusNotReady RunStatus = "NOT_READY"

	// RunStatusFailed — run завершился ошибкой.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusNotReady, RunStatusFailed:
		return true
	default:
		return false
	}
}

// ParseRunStatus парсит строку в RunStatus.
// Второе значение false, если строка не является известным статусом.
func ParseRunStatus(s string) (RunStatus, bool) {
	status := RunStatus(strings.ToUpper(s))
	switch status {
	case RunStatusPending, RunStatusRunning, RunStatusSucceeded, RunStatusNotReady, RunStatusFailed:
		return status, true
	default:
		return "", false
	}
}
