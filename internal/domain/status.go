package domain

// TaskStatus — статус задачи автоматизации.
//
// Жизненный цикл:
//
//	created → running → finished
//	                  ↘ failed
//	(или) → stopped (внешний запрос, из created или running)
type TaskStatus string

const (
	// TaskStatusCreated — задача создана, но ещё не запущена.
	TaskStatusCreated TaskStatus = "created"

	// TaskStatusRunning — задача выполняется агентом.
	TaskStatusRunning TaskStatus = "running"

	// TaskStatusFinished — прогон завершился без исключения.
	// Частичный успех с записанными ошибками тоже считается finished.
	TaskStatusFinished TaskStatus = "finished"

	// TaskStatusFailed — прогон прервался ошибкой.
	TaskStatusFailed TaskStatus = "failed"

	// TaskStatusStopped — задача остановлена внешним запросом.
	TaskStatusStopped TaskStatus = "stopped"
)

// IsTerminal возвращает true, если статус финальный.
// Для финальных статусов всегда заполнен FinishedAt.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusFinished, TaskStatusFailed, TaskStatusStopped:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что статус входит в известный набор.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusCreated, TaskStatusRunning, TaskStatusFinished, TaskStatusFailed, TaskStatusStopped:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus парсит строку в TaskStatus.
// Второй результат false, если статус неизвестен.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	status := TaskStatus(s)
	return status, status.IsValid()
}
