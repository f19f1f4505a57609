package agent

import "errors"

// Ошибки агента.
var (
	// ErrStopped — выполнение остановлено внешним сигналом.
	ErrStopped = errors.New("agent stopped")

	// ErrInvalidDecision — ответ модели не удалось разобрать как решение.
	ErrInvalidDecision = errors.New("invalid agent decision")

	// ErrUnknownAction — модель выбрала неизвестное действие.
	ErrUnknownAction = errors.New("unknown action")

	// ErrTooManyFailures — модель подряд вернула слишком много неразборчивых ответов.
	ErrTooManyFailures = errors.New("too many consecutive invalid decisions")
)
