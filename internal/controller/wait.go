package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/simsnap/internal/domain"
)

// checkFunc — один запрос статуса. true — стадия готова.
type checkFunc func(ctx context.Context) (bool, error)

// waitFor опрашивает check согласно WaitPolicy.
//
// Возвращает:
//   - (true, nil)  — стадия готова
//   - (false, nil) — режим once, стадия не готова
//   - (false, err) — ошибка запроса, отмена ctx или ErrWaitExhausted
//
// delayFirst — выждать задержку перед первым опросом
// (нужно после CreateSnapshot, пока сервис не сменил статус).
func (d *Driver) waitFor(ctx context.Context, res *Result, stage domain.Stage, delayFirst bool, check checkFunc) (bool, error) {
	if delayFirst && d.wait.Mode == domain.WaitModePoll {
		if err := sleep(ctx, d.wait.Delay(1)); err != nil {
			return false, err
		}
	}

	for attempt := 1; ; attempt++ {
		res.Polls++

		ready, err := check(ctx)
		if err != nil {
			d.metrics.ObservePoll(string(stage), "error")
			return false, err
		}
		if ready {
			d.metrics.ObservePoll(string(stage), "ready")
			return true, nil
		}
		d.metrics.ObservePoll(string(stage), "not_ready")

		if d.wait.Mode == domain.WaitModeOnce {
			return false, nil
		}

		if !d.wait.CanRetry(attempt) {
			return false, fmt.Errorf("%w: %s not ready after %d attempts", ErrWaitExhausted, stage, attempt)
		}

		delay := d.wait.Delay(attempt)
		d.logger.Debug("stage not ready, waiting",
			"stage", stage,
			"attempt", attempt,
			"delay", delay,
		)

		if err := sleep(ctx, delay); err != nil {
			return false, err
		}
	}
}

// sleep ждёт d с учётом отмены ctx.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
