package domain

import (
	"fmt"
	"time"
)

// WaitMode — поведение драйвера, когда стадия ещё не готова.
type WaitMode string

const (
	// WaitModePoll — опрашивать статус, пока стадия не станет STARTED.
	WaitModePoll WaitMode = "poll"

	// WaitModeOnce — проверить один раз и вернуть not-ready без повторов.
	WaitModeOnce WaitMode = "once"
)

// Стратегии задержки между опросами.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Значения по умолчанию: повторяют поведение опрашивающего контроллера.
const (
	DefaultWaitInterval = 30 * time.Second
	DefaultWaitMaxDelay = 5 * time.Minute
)

// WaitPolicy — политика ожидания стадии.
type WaitPolicy struct {
	// Mode — poll или once.
	Mode WaitMode `json:"mode"`

	// MaxAttempts — максимальное количество запросов статуса (включая первый).
	// 0 — без ограничения: ожидание может длиться бесконечно,
	// прервать его можно только через context.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Backoff — стратегия задержки: "fixed", "exponential".
	Backoff string `json:"backoff,omitempty"`

	// InitialDelay — задержка после первого неудачного опроса.
	InitialDelay time.Duration `json:"initial_delay,omitempty"`

	// MaxDelay — верхняя граница задержки для exponential.
	MaxDelay time.Duration `json:"max_delay,omitempty"`
}

// DefaultWaitPolicy возвращает политику опрашивающего варианта:
// бесконечный poll с фиксированным интервалом 30 секунд.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Mode:         WaitModePoll,
		Backoff:      BackoffFixed,
		InitialDelay: DefaultWaitInterval,
		MaxDelay:     DefaultWaitMaxDelay,
	}
}

// Validate проверяет политику.
func (p WaitPolicy) Validate() error {
	switch p.Mode {
	case WaitModePoll, WaitModeOnce:
	default:
		return fmt.Errorf("unknown wait mode %q", p.Mode)
	}
	switch p.Backoff {
	case "", BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("unknown backoff %q", p.Backoff)
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must be >= 0, got %d", p.MaxAttempts)
	}
	if p.InitialDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// CanRetry проверяет, можно ли сделать ещё один опрос после attempt.
func (p WaitPolicy) CanRetry(attempt int) bool {
	if p.Mode == WaitModeOnce {
		return false
	}
	return p.MaxAttempts == 0 || attempt < p.MaxAttempts
}

// Delay вычисляет задержку перед следующим опросом.
// attempt — номер уже выполненного опроса (начиная с 1).
func (p WaitPolicy) Delay(attempt int) time.Duration {
	initialDelay := p.InitialDelay
	if initialDelay <= 0 {
		initialDelay = DefaultWaitInterval
	}

	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultWaitMaxDelay
	}

	var delay time.Duration
	switch p.Backoff {
	case BackoffExponential:
		// delay = initialDelay * 2^(attempt-1)
		delay = initialDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
				break
			}
		}
	default:
		delay = initialDelay
	}

	if delay > maxDelay {
		delay = maxDelay
	}

	return delay
}

// SnapshotPolicy — что делать вокруг CreateSnapshot.
type SnapshotPolicy struct {
	// PreSnapshotDelay — пауза перед CreateSnapshot (0 — без паузы).
	PreSnapshotDelay time.Duration `json:"pre_snapshot_delay,omitempty"`

	// WaitForCompletion — ждать, пока симуляция выйдет из SNAPSHOT_IN_PROGRESS.
	WaitForCompletion bool `json:"wait_for_completion,omitempty"`

	// Destination — куда экспортировать snapshot.
	Destination Destination `json:"destination"`
}
