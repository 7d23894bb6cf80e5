package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/mq"
	"github.com/shaiso/simsnap/internal/repo"
)

// handleSnapshotRequested обрабатывает сообщение из snapshots.requested.
func (w *Worker) handleSnapshotRequested(ctx context.Context, msg *mq.Message) error {
	if msg.Type != mq.MessageTypeSnapshotRequested {
		return fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type)
	}

	payload, err := mq.ParsePayload[mq.SnapshotRequestedPayload](msg)
	if err != nil {
		w.logger.Error("failed to parse snapshot.requested payload", "error", err)
		return err
	}

	w.logger.Debug("received snapshot.requested",
		"run_id", payload.RunID,
		"simulation", payload.Simulation,
	)

	if err := w.processRun(ctx, payload.RunID); err != nil {
		// Ожидаемые ситуации — ack
		if isSkip(err) {
			w.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		return err
	}

	return nil
}

// processRun забирает PENDING run и выполняет его.
//
// Ошибка драйвера не считается ошибкой обработки: run уже записан как
// FAILED, и повторная доставка сообщения не должна запрашивать snapshot снова.
func (w *Worker) processRun(ctx context.Context, runID uuid.UUID) error {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	run, err := w.store.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	run.MarkRunning()
	claimed, err := w.store.ClaimPending(ctx, run)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrRunNotPending
	}

	if _, err := w.executor.Execute(ctx, run); err != nil {
		w.logger.Warn("run failed", "run_id", run.ID, "simulation", run.Simulation, "error", err)
	}

	return nil
}

// isSkip — run уже обработан или удалён; сообщение можно подтвердить.
func isSkip(err error) bool {
	return errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotPending)
}
