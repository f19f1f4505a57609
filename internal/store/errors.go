package store

import "errors"

// Ошибки хранилища.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState — операция невозможна в текущем состоянии.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnavailable — хранилище работает в degraded режиме без БД.
	ErrUnavailable = errors.New("store unavailable")

	// ErrInitFailed — инициализация не удалась после всех попыток.
	ErrInitFailed = errors.New("store initialization failed")

	// ErrUnsupportedURL — схема DATABASE_URL не поддерживается.
	ErrUnsupportedURL = errors.New("unsupported database url")
)
