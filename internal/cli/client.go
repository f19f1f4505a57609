package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// TaskResponse — задача из API.
type TaskResponse struct {
	ID          string           `json:"id" yaml:"id"`
	Task        string           `json:"task" yaml:"task"`
	Status      string           `json:"status" yaml:"status"`
	CreatedAt   string           `json:"created_at" yaml:"created_at"`
	FinishedAt  string           `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	DurationMs  int64            `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	LLMProvider string           `json:"llm_provider" yaml:"llm_provider"`
	LLMModel    string           `json:"llm_model" yaml:"llm_model"`
	Output      string           `json:"output,omitempty" yaml:"output,omitempty"`
	History     *HistoryResponse `json:"history,omitempty" yaml:"history,omitempty"`
}

// HistoryResponse — история выполнения задачи.
type HistoryResponse struct {
	Steps            []StepResponse `json:"steps" yaml:"steps"`
	URLs             []string       `json:"urls" yaml:"urls"`
	Screenshots      []string       `json:"screenshots" yaml:"screenshots"`
	ExtractedContent []string       `json:"extracted_content" yaml:"extracted_content"`
	Errors           []string       `json:"errors" yaml:"errors"`
}

// StepResponse — шаг агента.
type StepResponse struct {
	ID                     string `json:"id" yaml:"id"`
	Step                   int    `json:"step" yaml:"step"`
	EvaluationPreviousGoal string `json:"evaluation_previous_goal" yaml:"evaluation_previous_goal"`
	NextGoal               string `json:"next_goal" yaml:"next_goal"`
}

// KeyResponse — замаскированный ключ провайдера.
type KeyResponse struct {
	Provider string `json:"provider" yaml:"provider"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// ProviderResponse — провайдер и его модели.
type ProviderResponse struct {
	Name         string   `json:"name" yaml:"name"`
	DefaultModel string   `json:"default_model" yaml:"default_model"`
	Models       []string `json:"models" yaml:"models"`
}

// --- Request types ---

// CreateTaskRequest — запуск задачи.
type CreateTaskRequest struct {
	Task        string `json:"task"`
	LLMProvider string `json:"llm_provider,omitempty"`
	LLMModel    string `json:"llm_model,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
}

// ListTasksOpts — параметры фильтрации задач.
type ListTasksOpts struct {
	Status string
	Limit  int
	Offset int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, возвращённая сервером.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для Surfer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Tasks ---

// ListTasks возвращает задачи и их общее число.
func (c *Client) ListTasks(ctx context.Context, opts ListTasksOpts) ([]TaskResponse, int, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var tasks []TaskResponse
	total, err := c.list(ctx, "/api/v1/tasks", params, &tasks)
	return tasks, total, err
}

// CreateTask запускает задачу.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post(ctx, "/api/v1/tasks", req, &task)
	return &task, err
}

// GetTask возвращает задачу с историей.
func (c *Client) GetTask(ctx context.Context, id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.get(ctx, "/api/v1/tasks/"+url.PathEscape(id), &task)
	return &task, err
}

// StopTask останавливает задачу.
func (c *Client) StopTask(ctx context.Context, id string) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post(ctx, "/api/v1/tasks/"+url.PathEscape(id)+"/stop", nil, &task)
	return &task, err
}

// --- Keys ---

// ListKeys возвращает сохранённые ключи.
func (c *Client) ListKeys(ctx context.Context) ([]KeyResponse, error) {
	var keys []KeyResponse
	_, err := c.list(ctx, "/api/v1/keys", nil, &keys)
	return keys, err
}

// SetKey сохраняет ключ провайдера.
func (c *Client) SetKey(ctx context.Context, provider, key string) (*KeyResponse, error) {
	var resp KeyResponse
	err := c.put(ctx, "/api/v1/keys/"+url.PathEscape(provider), map[string]string{"api_key": key}, &resp)
	return &resp, err
}

// DeleteKey удаляет ключ провайдера.
func (c *Client) DeleteKey(ctx context.Context, provider string) error {
	return c.delete(ctx, "/api/v1/keys/"+url.PathEscape(provider))
}

// --- Providers ---

// ListProviders возвращает каталог провайдеров.
func (c *Client) ListProviders(ctx context.Context) ([]ProviderResponse, error) {
	var providers []ProviderResponse
	_, err := c.list(ctx, "/api/v1/providers", nil, &providers)
	return providers, err
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doData(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.doData(ctx, http.MethodPut, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkError(resp)
}

func (c *Client) list(ctx context.Context, path string, params url.Values, result any) (int, error) {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return 0, err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return lr.Total, json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
