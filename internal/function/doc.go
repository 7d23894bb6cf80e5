// Package function — точка входа AWS Lambda.
//
// Вход: {"simulation_name": "..."} или событие EventBridge
// с detail.simulation_name. Выход: {"SnapshotTaken": bool}.
package function
