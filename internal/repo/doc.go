// Package repo хранит историю runs в PostgreSQL (таблица snapshot_runs).
//
// Схема: migrations/001_snapshot_runs.sql.
package repo
