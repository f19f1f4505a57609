package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/store"
	"github.com/shaiso/Surfer/internal/worker"
)

// ListTasks возвращает задачи, новые первыми.
// GET /api/v1/tasks?status=...&limit=...&offset=...
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.TaskFilter{}

	if s := q.Get("status"); s != "" {
		status, ok := domain.ParseTaskStatus(s)
		if !ok {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit"), 50); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset"), 0); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	tasks, err := h.tasks.List(r.Context(), filter)
	if HandleError(w, h.logger, err, "") {
		return
	}
	total, err := h.tasks.Count(r.Context(), filter)
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]TaskResponse, len(tasks))
	for i := range tasks {
		result[i] = TaskFromDomain(&tasks[i])
	}
	List(w, result, total)
}

// CreateTask запускает задачу.
// POST /api/v1/tasks
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	task, err := h.service.Submit(r.Context(), worker.SubmitRequest{
		Instructions: req.Task,
		Provider:     req.LLMProvider,
		Model:        req.LLMModel,
		APIKey:       req.APIKey,
		Endpoint:     req.Endpoint,
		Browser:      req.Browser,
	})
	if HandleError(w, h.logger, err, "") {
		return
	}
	Created(w, TaskFromDomain(task))
}

// GetTask возвращает задачу с историей.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.tasks.GetByID(r.Context(), id)
	if HandleError(w, h.logger, err, "task not found") {
		return
	}

	resp := TaskFromDomain(task)
	hist, err := h.history.GetByTaskID(r.Context(), id)
	switch {
	case err == nil:
		resp.History = hist
	case !errors.Is(err, store.ErrNotFound):
		h.logger.Warn("load task history", "task_id", id, "error", err)
	}
	Success(w, resp)
}

// StopTask останавливает задачу.
// POST /api/v1/tasks/{id}/stop
func (h *Handler) StopTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Stop(r.Context(), r.PathValue("id"))
	if HandleError(w, h.logger, err, "task not found") {
		return
	}
	Success(w, TaskFromDomain(task))
}

func queryInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}
