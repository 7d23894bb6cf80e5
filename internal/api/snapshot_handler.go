package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/telemetry"
)

// RequestSnapshot создаёт PENDING run для симуляции.
// POST /api/v1/snapshots
//
// Сам snapshot выполняет worker; ответ 202 содержит run,
// за статусом которого можно следить через GET /api/v1/runs/{id}.
func (h *Handler) RequestSnapshot(w http.ResponseWriter, r *http.Request) {
	var req CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	simulation := strings.TrimSpace(req.Simulation)
	if simulation == "" {
		BadRequest(w, "simulation is required")
		return
	}

	run := domain.NewRun(simulation, domain.TriggerAPI)
	if err := h.runs.Create(r.Context(), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	logger := telemetry.FromContext(r.Context())
	logger.Info("snapshot requested", "run_id", run.ID, "simulation", simulation)

	if h.publisher != nil {
		if err := h.publisher.PublishSnapshotRequested(r.Context(), run.ID, simulation); err != nil {
			logger.Warn("failed to publish snapshot.requested", "run_id", run.ID, "error", err)
		}
	}

	Accepted(w, RunFromDomain(*run))
}
