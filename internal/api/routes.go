package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(h.logger),
	)

	// Snapshots
	mux.Handle("POST /api/v1/snapshots", chain(http.HandlerFunc(h.RequestSnapshot)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))

	// Simulations
	mux.Handle("GET /api/v1/simulations/{name}", chain(http.HandlerFunc(h.GetSimulation)))
}
