package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- TaskStatus ---

func TestTaskStatus_IsTerminal(t *testing.T) {
	cases := map[TaskStatus]bool{
		TaskStatusCreated:  false,
		TaskStatusRunning:  false,
		TaskStatusFinished: true,
		TaskStatusFailed:   true,
		TaskStatusStopped:  true,
	}
	for status, want := range cases {
		assert.Equal(t, want, status.IsTerminal(), status)
	}
}

func TestParseTaskStatus(t *testing.T) {
	s, ok := ParseTaskStatus("running")
	assert.True(t, ok)
	assert.Equal(t, TaskStatusRunning, s)

	_, ok = ParseTaskStatus("QUEUED")
	assert.False(t, ok)
}

// --- Task ---

func TestNewTask(t *testing.T) {
	task := NewTask("open example.com", "openai", "gpt-4o")

	assert.Len(t, task.ID, 36)
	assert.Equal(t, TaskStatusCreated, task.Status)
	assert.Nil(t, task.FinishedAt)
	assert.False(t, task.Status.IsTerminal())
	assert.Zero(t, task.Duration())
}

func TestTask_Complete(t *testing.T) {
	task := NewTask("x", "openai", "gpt-4o")
	task.MarkRunning()

	finished := task.CreatedAt.Add(3 * time.Second)
	task.Complete(&Result{Status: TaskStatusFinished, FinishedAt: finished, Output: "done"})

	assert.Equal(t, TaskStatusFinished, task.Status)
	require.NotNil(t, task.FinishedAt)
	assert.Equal(t, finished, *task.FinishedAt)
	assert.Equal(t, "done", task.Output)
	assert.Equal(t, 3*time.Second, task.Duration())
}

func TestTask_CompleteKeepsStopped(t *testing.T) {
	task := NewTask("x", "openai", "gpt-4o")
	task.MarkRunning()
	task.Status = TaskStatusStopped

	task.Complete(&Result{Status: TaskStatusFinished, Output: "late"})

	assert.Equal(t, TaskStatusStopped, task.Status)
	assert.NotNil(t, task.FinishedAt)
	assert.Equal(t, "late", task.Output)
}

// --- Result ---

func TestNewStep(t *testing.T) {
	s := NewStep(2, "page loaded", "click")
	assert.Equal(t, Step{ID: "step-2", Step: 2, EvaluationPreviousGoal: "page loaded", NextGoal: "click"}, s)
}

func TestResult_History(t *testing.T) {
	res := &Result{
		ID:          "t-1",
		Steps:       []Step{NewStep(0, "", "go_to_url")},
		URLs:        []string{"https://a"},
		Screenshots: []string{"/tmp/s.png"},
		Errors:      []string{},
	}
	h := res.History()
	assert.Equal(t, "t-1", h.TaskID)
	assert.Equal(t, res.Steps, h.Steps)
	assert.Equal(t, res.URLs, h.URLs)
	assert.Equal(t, res.Screenshots, h.Screenshots)
}

// --- BrowserSettings ---

func TestParseBrowserSettings_Defaults(t *testing.T) {
	s, err := ParseBrowserSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBrowserSettings(), s)
	assert.Equal(t, 1280, s.WindowWidth)
	assert.Equal(t, 1100, s.WindowHeight)
	assert.True(t, s.HighlightElements)
}

func TestParseBrowserSettings_Partial(t *testing.T) {
	s, err := ParseBrowserSettings(`{"headless":true,"browser_window_width":800,"browser_window_height":0}`)
	require.NoError(t, err)
	assert.True(t, s.Headless)
	assert.True(t, s.DisableSecurity)
	assert.Equal(t, 800, s.WindowWidth)
	assert.Equal(t, DefaultWindowHeight, s.WindowHeight)
}

func TestParseBrowserSettings_Invalid(t *testing.T) {
	s, err := ParseBrowserSettings("{not json")
	assert.Error(t, err)
	assert.Equal(t, DefaultBrowserSettings(), s)
}

func TestBrowserSettings_MarshalRoundTrip(t *testing.T) {
	in := DefaultBrowserSettings()
	in.ChromePath = "/usr/bin/chromium"
	raw, err := in.Marshal()
	require.NoError(t, err)
	assert.Contains(t, raw, `"chrome_instance_path":"/usr/bin/chromium"`)

	out, err := ParseBrowserSettings(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAPIKey_Masked(t *testing.T) {
	assert.Equal(t, "********", APIKey{Value: "short"}.Masked())
	assert.Equal(t, "sk-1...wxyz", APIKey{Value: "sk-1234567890wxyz"}.Masked())
}

// --- Provider ---

func TestParseProvider(t *testing.T) {
	assert.Equal(t, ProviderAnthropic, ParseProvider("Anthropic"))
	assert.Equal(t, ProviderOllama, ParseProvider(" ollama "))
	assert.Equal(t, ProviderOpenAI, ParseProvider(""))
	assert.Equal(t, ProviderOpenAI, ParseProvider("mistral-cloud"))
}

func TestProviders_Catalog(t *testing.T) {
	providers := Providers()
	require.Len(t, providers, 6)
	for _, p := range providers {
		assert.True(t, p.IsKnown())
		assert.NotEmpty(t, p.Models(), p)
	}
	assert.Equal(t, "gpt-4o", ProviderOpenAI.DefaultModel())
	assert.Equal(t, []string{"deepseek-chat", "deepseek-reasoner"}, ProviderDeepSeek.Models())
	assert.Empty(t, Provider("nope").DefaultModel())
}
