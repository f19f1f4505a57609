package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fakeAPI — минимальный сервер Surfer API.
type fakeAPI struct {
	polls    atomic.Int32
	lastBody map[string]any
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		tasks := []TaskResponse{{ID: "t-1", Task: "read news", Status: "finished", LLMProvider: "openai", LLMModel: "gpt-4o"}}
		if r.URL.Query().Get("status") == "running" {
			tasks = []TaskResponse{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": tasks, "total": 7})
	})
	mux.HandleFunc("POST /api/v1/tasks", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&f.lastBody)
		writeJSON(w, http.StatusCreated, map[string]any{"data": TaskResponse{ID: "t-2", Task: "x", Status: "created"}})
	})
	mux.HandleFunc("GET /api/v1/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"code": "NOT_FOUND", "message": "task not found"}})
			return
		}
		status := "running"
		if f.polls.Add(1) >= 2 {
			status = "finished"
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": TaskResponse{
			ID:     r.PathValue("id"),
			Status: status,
			Output: "Temperature is 21C",
			History: &HistoryResponse{
				Steps: []StepResponse{{ID: "step-0", Step: 0, NextGoal: "go_to_url"}},
				URLs:  []string{"https://weather.example"},
			},
		}})
	})
	mux.HandleFunc("POST /api/v1/tasks/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "done" {
			writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]string{"code": "INVALID_STATE", "message": "task done is finished"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": TaskResponse{ID: r.PathValue("id"), Status: "stopped"}})
	})
	mux.HandleFunc("GET /api/v1/keys", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []KeyResponse{{Provider: "openai", APIKey: "sk-1...abcd"}}, "total": 1})
	})
	mux.HandleFunc("PUT /api/v1/keys/{provider}", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&f.lastBody)
		writeJSON(w, http.StatusOK, map[string]any{"data": KeyResponse{Provider: r.PathValue("provider"), APIKey: "********"}})
	})
	mux.HandleFunc("DELETE /api/v1/keys/{provider}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/v1/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": []ProviderResponse{
			{Name: "openai", DefaultModel: "gpt-4o", Models: []string{"gpt-4o", "gpt-4o-mini"}},
		}, "total": 1})
	})
	return mux
}

type cliEnv struct {
	api    *fakeAPI
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	format Format
	url    string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return &cliEnv{api: api, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, format: FormatTable, url: srv.URL}
}

func (e *cliEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	e.stdout.Reset()
	e.stderr.Reset()

	clientFn := func() *Client { return NewClient(e.url) }
	outputFn := func() *Output { return NewOutputTo(e.format, e.stdout, e.stderr) }

	root := &cobra.Command{Use: "surfer", SilenceUsage: true, SilenceErrors: true}
	root.SetOut(io.Discard)
	root.AddCommand(
		NewTaskCmd(clientFn, outputFn),
		NewKeyCmd(clientFn, outputFn),
		NewProvidersCmd(clientFn, outputFn),
	)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func TestTaskList(t *testing.T) {
	e := newCLIEnv(t)

	require.NoError(t, e.run(t, "task", "list"))
	assert.Contains(t, e.stdout.String(), "STATUS")
	assert.Contains(t, e.stdout.String(), "t-1")
	assert.Contains(t, e.stderr.String(), "Showing 1 of 7 tasks")
}

func TestTaskList_JSON(t *testing.T) {
	e := newCLIEnv(t)
	e.format = FormatJSON

	require.NoError(t, e.run(t, "task", "list", "--status", "running"))
	var tasks []TaskResponse
	require.NoError(t, json.Unmarshal(e.stdout.Bytes(), &tasks))
	assert.Empty(t, tasks)
	assert.Empty(t, e.stderr.String())
}

func TestTaskRun(t *testing.T) {
	e := newCLIEnv(t)

	require.NoError(t, e.run(t, "task", "run", "find", "the", "weather", "--provider", "anthropic", "--model", "claude-3-5-sonnet-20241022"))
	assert.Equal(t, "find the weather", e.api.lastBody["task"])
	assert.Equal(t, "anthropic", e.api.lastBody["llm_provider"])
	assert.NotContains(t, e.api.lastBody, "api_key")
	assert.Contains(t, e.stderr.String(), "Task started: t-2")
}

func TestTaskRun_Wait(t *testing.T) {
	e := newCLIEnv(t)

	require.NoError(t, e.run(t, "task", "run", "weather", "--wait", "--interval", "10ms"))
	assert.GreaterOrEqual(t, e.api.polls.Load(), int32(2))
	assert.Contains(t, e.stdout.String(), "finished")
	assert.Contains(t, e.stdout.String(), "Temperature is 21C")
}

func TestWaitTask_ContextCancelled(t *testing.T) {
	e := newCLIEnv(t)
	e.api.polls.Store(-100)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := waitTask(ctx, NewClient(e.url), "t-1", 10*time.Millisecond)
	assert.Error(t, err)
}

func TestTaskShow(t *testing.T) {
	e := newCLIEnv(t)
	e.api.polls.Store(5)

	require.NoError(t, e.run(t, "task", "show", "t-9"))
	out := e.stdout.String()
	assert.Contains(t, out, "t-9")
	assert.Contains(t, out, "go_to_url")
	assert.Contains(t, out, "url: https://weather.example")
	assert.Contains(t, out, "Temperature is 21C")
}

func TestTaskShow_YAML(t *testing.T) {
	e := newCLIEnv(t)
	e.api.polls.Store(5)
	e.format = FormatYAML

	require.NoError(t, e.run(t, "task", "show", "t-9"))
	var task TaskResponse
	require.NoError(t, yaml.Unmarshal(e.stdout.Bytes(), &task))
	assert.Equal(t, "t-9", task.ID)
	require.NotNil(t, task.History)
	assert.Equal(t, "go_to_url", task.History.Steps[0].NextGoal)
}

func TestTaskShow_NotFound(t *testing.T) {
	e := newCLIEnv(t)

	err := e.run(t, "task", "show", "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND: task not found", err.Error())
}

func TestTaskStop(t *testing.T) {
	e := newCLIEnv(t)

	require.NoError(t, e.run(t, "task", "stop", "t-3"))
	assert.Contains(t, e.stderr.String(), "Task stopped: t-3")

	err := e.run(t, "task", "stop", "done")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finished")
}

func TestKeyCommands(t *testing.T) {
	e := newCLIEnv(t)

	require.NoError(t, e.run(t, "key", "list"))
	assert.Contains(t, e.stdout.String(), "sk-1...abcd")

	require.NoError(t, e.run(t, "key", "set", "anthropic", "sk-ant-secret"))
	assert.Equal(t, "sk-ant-secret", e.api.lastBody["api_key"])
	assert.Contains(t, e.stderr.String(), "Key saved: anthropic")

	require.NoError(t, e.run(t, "key", "delete", "anthropic"))
	assert.Contains(t, e.stderr.String(), "Key deleted: anthropic")
}

func TestProviders(t *testing.T) {
	e := newCLIEnv(t)

	require.NoError(t, e.run(t, "providers"))
	assert.Contains(t, e.stdout.String(), "gpt-4o, gpt-4o-mini")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
