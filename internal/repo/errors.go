package repo

import "errors"

// Ошибки репозитория.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — run с таким ID уже записан.
	ErrAlreadyExists = errors.New("already exists")
)
