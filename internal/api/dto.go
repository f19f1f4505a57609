package api

import (
	"time"

	"github.com/shaiso/Surfer/internal/domain"
)

// Task DTOs

// CreateTaskRequest — запрос на запуск задачи.
type CreateTaskRequest struct {
	Task        string `json:"task"`
	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`

	// APIKey — пустой берётся из сохранённых ключей.
	APIKey   string `json:"api_key,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	// Browser — nil берёт сохранённый browser_config.
	Browser *domain.BrowserSettings `json:"browser,omitempty"`
}

// TaskResponse — задача и, для одиночного запроса, её история.
type TaskResponse struct {
	ID          string              `json:"id"`
	Task        string              `json:"task"`
	Status      domain.TaskStatus   `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
	DurationMs  int64               `json:"duration_ms,omitempty"`
	LLMProvider string              `json:"llm_provider"`
	LLMModel    string              `json:"llm_model"`
	Output      string              `json:"output,omitempty"`
	History     *domain.TaskHistory `json:"history,omitempty"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Task:        t.Instructions,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		FinishedAt:  t.FinishedAt,
		DurationMs:  t.Duration().Milliseconds(),
		LLMProvider: t.LLMProvider,
		LLMModel:    t.LLMModel,
		Output:      t.Output,
	}
}

// Key DTOs

// SetKeyRequest — запрос на сохранение ключа.
type SetKeyRequest struct {
	APIKey string `json:"api_key"`
}

// KeyResponse — ключ провайдера в замаскированном виде.
type KeyResponse struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// KeyFromDomain маскирует ключ.
func KeyFromDomain(k domain.APIKey) KeyResponse {
	return KeyResponse{Provider: k.Provider, APIKey: k.Masked()}
}

// Provider DTOs

// ProviderResponse — провайдер и его модели.
type ProviderResponse struct {
	Name         string   `json:"name"`
	DefaultModel string   `json:"default_model"`
	Models       []string `json:"models"`
}

// HealthResponse — состояние сервиса.
type HealthResponse struct {
	Status   string `json:"status"`
	Store    string `json:"store"`
	Database string `json:"database,omitempty"`
	Engine   string `json:"engine,omitempty"`

	// Capabilities — результаты проверки зависимостей (playwright, chromium).
	Capabilities map[string]bool `json:"capabilities,omitempty"`
}
