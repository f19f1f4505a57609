package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task — одна пользовательская задача автоматизации браузера.
//
// Task создаётся, когда пользователь отправляет инструкцию.
// Статус меняет только Worker (и внешний запрос на остановку).
// Ядро никогда не удаляет задачи: хранение — внешняя забота.
type Task struct {
	// ID — уникальный идентификатор задачи (uuid v4 в строковом виде).
	ID string `json:"id"`

	// Instructions — инструкция на естественном языке.
	Instructions string `json:"task"`

	// Status — текущий статус задачи.
	Status TaskStatus `json:"status"`

	// CreatedAt — время создания задачи.
	CreatedAt time.Time `json:"created_at"`

	// FinishedAt — время перехода в финальный статус.
	// Nil, пока задача не завершена.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// LLMProvider — провайдер LLM (openai, anthropic, ...).
	LLMProvider string `json:"llm_provider"`

	// LLMModel — имя модели у провайдера.
	LLMModel string `json:"llm_model"`

	// Output — итоговый текстовый результат или сообщение об ошибке.
	Output string `json:"output,omitempty"`
}

// NewTaskID генерирует идентификатор новой задачи.
func NewTaskID() string {
	return uuid.New().String()
}

// NewTask создаёт задачу в статусе created.
func NewTask(instructions, provider, model string) *Task {
	return &Task{
		ID:           NewTaskID(),
		Instructions: instructions,
		Status:       TaskStatusCreated,
		CreatedAt:    time.Now().UTC(),
		LLMProvider:  provider,
		LLMModel:     model,
	}
}

// Duration возвращает продолжительность от создания до завершения.
// Возвращает 0, если задача ещё не завершена.
func (t *Task) Duration() time.Duration {
	if t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(t.CreatedAt)
}

// MarkRunning переводит задачу в статус running.
func (t *Task) MarkRunning() {
	t.Status = TaskStatusRunning
	t.FinishedAt = nil
}

// Complete переносит в задачу финальный статус и вывод из Result.
// Если задача уже остановлена, статус stopped сохраняется.
func (t *Task) Complete(res *Result) {
	finishedAt := res.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now().UTC()
	}
	if t.Status != TaskStatusStopped {
		t.Status = res.Status
	}
	t.FinishedAt = &finishedAt
	t.Output = res.Output
}
