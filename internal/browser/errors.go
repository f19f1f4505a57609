package browser

import "errors"

// Ошибки браузерных сессий.
var (
	// ErrLaunch — браузер не удалось запустить.
	ErrLaunch = errors.New("browser launch failed")

	// ErrElementNotFound — элемент по селектору не найден.
	ErrElementNotFound = errors.New("element not found")

	// ErrSessionClosed — операция над закрытой сессией.
	ErrSessionClosed = errors.New("session closed")
)
