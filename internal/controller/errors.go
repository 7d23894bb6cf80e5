package controller

import "errors"

// Ошибки драйвера.
var (
	// ErrSimulationRequired — не передано имя симуляции.
	ErrSimulationRequired = errors.New("simulation name is required")

	// ErrWaitExhausted — стадия не стала готовой за MaxAttempts опросов.
	ErrWaitExhausted = errors.New("wait attempts exhausted")

	// ErrSimulationUnavailable — симуляция в статусе, из которого
	// она уже не станет STARTED (FAILED, STOPPED, DELETED).
	ErrSimulationUnavailable = errors.New("simulation is not available")
)
