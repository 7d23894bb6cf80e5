package api

import (
	"net/http"

	"github.com/shaiso/simsnap/internal/domain"
	"github.com/shaiso/simsnap/internal/weaver"
)

// GetSimulation возвращает живое состояние симуляции.
// GET /api/v1/simulations/{name}
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	if h.simulations == nil {
		ServiceUnavailable(w, "simulation service is not configured")
		return
	}

	name := r.PathValue("name")

	sim, err := h.simulations.DescribeSimulation(r.Context(), name)
	if HandleError(w, h.logger, err, "simulation not found") {
		return
	}

	resp := SimulationResponse{Simulation: *sim}

	if sim.Status.IsStarted() || sim.SnapshotInProgress() {
		app, err := h.simulations.DescribeApp(r.Context(), name, h.domain, h.app)
		switch {
		case err == nil:
			resp.App = app
		case weaver.IsNotFound(err):
			// app ещё не запускали
		default:
			InternalError(w, h.logger, err)
			return
		}
	}

	resp.ReadyForSnapshot = domain.ReadyForSnapshot(sim, resp.App)

	Success(w, resp)
}
