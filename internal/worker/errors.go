package worker

import "errors"

// Ошибки воркера.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run уже забран другим процессом или завершён.
	ErrRunNotPending = errors.New("run is not in PENDING status")

	// ErrUnexpectedMessage — в очередь пришло сообщение другого типа.
	ErrUnexpectedMessage = errors.New("unexpected message type")
)
