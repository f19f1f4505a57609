package provision

import "errors"

// Ошибки провизионера.
var (
	// ErrCapabilityUnavailable — зависимость недоступна, используется stub.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrUnknownCapability — зависимость не зарегистрирована.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrNoInstaller — для зависимости нет автоматической установки.
	ErrNoInstaller = errors.New("no installer for capability")

	// ErrNotFound — бинарник зависимости не найден.
	ErrNotFound = errors.New("executable not found")
)
