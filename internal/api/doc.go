// Package api содержит HTTP API simsnap.
//
// Структура:
//   - handler.go            — Handler и его зависимости (интерфейсы)
//   - routes.go             — регистрация маршрутов
//   - middleware.go         — recovery, request id, logging
//   - response.go           — JSON-конверт {"data"} / {"error"}
//   - dto.go                — request/response
//   - snapshot_handler.go   — POST /snapshots
//   - run_handler.go        — /runs
//   - simulation_handler.go — /simulations/{name}
package api
