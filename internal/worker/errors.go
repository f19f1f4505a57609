package worker

import "errors"

// Ошибки воркера.
var (
	// ErrEmptyInstructions — задача без инструкции.
	ErrEmptyInstructions = errors.New("task instructions are empty")

	// ErrWorkerStopped — воркер остановлен и не принимает задачи.
	ErrWorkerStopped = errors.New("worker stopped")
)
