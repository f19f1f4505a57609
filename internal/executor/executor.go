package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/shaiso/Surfer/internal/agent"
	"github.com/shaiso/Surfer/internal/browser"
	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/llm"
	"github.com/shaiso/Surfer/internal/telemetry"
)

// StoppedOutput — вывод задачи, остановленной сигналом.
const StoppedOutput = "Task stopped"

// Resolver создаёт ChatCapability по конфигурации LLM.
type Resolver interface {
	Resolve(ctx context.Context, cfg domain.LLMConfig) llm.ChatCapability
}

// SessionOpener открывает браузерную сессию по профилю.
type SessionOpener interface {
	Open(ctx context.Context, p browser.Profile) (browser.Session, error)
}

// Request — один прогон задачи.
type Request struct {
	TaskID       string
	Instructions string
	LLM          domain.LLMConfig
	Browser      domain.BrowserSettings

	// Stop — кооперативный сигнал остановки (опционально).
	Stop *agent.StopSignal
}

// Config — конфигурация Executor.
type Config struct {
	LLM      Resolver
	Browsers SessionOpener
	Env      browser.Environment

	// ArtifactRoot — корень каталогов снимков (default: os.TempDir()/browser_agent_screenshots).
	ArtifactRoot string

	MaxSteps int
	Retry    RetryPolicy

	Logger *slog.Logger
}

// Executor выполняет одну задачу от начала до конца и
// возвращает нормализованный Result.
//
// Execute никогда не возвращает ошибку и не паникует: любой сбой
// превращается в Result со статусом failed.
type Executor struct {
	llm      Resolver
	browsers SessionOpener
	env      browser.Environment
	root     string
	maxSteps int
	retry    RetryPolicy
	logger   *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New создаёт Executor.
func New(cfg Config) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root := cfg.ArtifactRoot
	if root == "" {
		root = filepath.Join(os.TempDir(), ArtifactDirName)
	}

	retry := cfg.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy()
	}

	return &Executor{
		llm:      cfg.LLM,
		browsers: cfg.Browsers,
		env:      cfg.Env,
		root:     root,
		maxSteps: cfg.MaxSteps,
		retry:    retry,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		sleep:    sleepCtx,
	}
}

// ArtifactDir возвращает каталог снимков задачи.
func (e *Executor) ArtifactDir(taskID string) string {
	return filepath.Join(e.root, taskID)
}

// Execute выполняет задачу.
func (e *Executor) Execute(ctx context.Context, req Request) *domain.Result {
	logger := telemetry.WithTaskID(e.logger, req.TaskID)
	res := &domain.Result{
		ID:        req.TaskID,
		Task:      req.Instructions,
		CreatedAt: e.now(),
	}

	// 1. Каталог артефактов. Очистка — забота политики хранения.
	dir := e.ArtifactDir(req.TaskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Warn("create artifact dir", "dir", dir, "error", err)
		dir = ""
	}

	scratch, err := os.MkdirTemp("", "surfer-raw-*")
	if err != nil {
		logger.Warn("create scratch dir", "error", err)
		scratch = ""
	} else {
		defer os.RemoveAll(scratch)
	}

	// 2–4. Прогон агента.
	hist, runErr := e.run(ctx, req, scratch, logger)
	if hist == nil {
		hist = &agent.History{}
	}

	// 5. Снимки.
	shots := hist.Screenshots
	if dir != "" {
		shots = MaterializeScreenshots(dir, req.TaskID, hist.Screenshots, logger)
	}

	// 6. Результат.
	res.Steps = projectSteps(hist.Actions)
	res.URLs = nonNil(hist.URLs)
	res.Screenshots = nonNil(shots)
	res.ExtractedContent = nonNil(hist.ExtractedContent)
	res.FinishedAt = e.now()

	switch {
	case runErr == nil:
		res.Status = domain.TaskStatusFinished
		res.Output = hist.FinalResult
		res.Errors = nonNil(hist.Errors)
		res.IsDone = hist.IsDone
		res.HasErrors = hist.HasErrors()
		logger.Info("task finished",
			"steps", len(res.Steps),
			"is_done", res.IsDone,
			"has_errors", res.HasErrors,
		)

	case errors.Is(runErr, agent.ErrStopped):
		res.Status = domain.TaskStatusStopped
		res.Output = StoppedOutput
		res.Errors = nonNil(hist.Errors)
		res.HasErrors = hist.HasErrors()
		logger.Info("task stopped", "steps", len(res.Steps))

	default:
		msg := runErr.Error()
		res.Status = domain.TaskStatusFailed
		res.Output = "Error: " + msg
		res.Errors = append([]string{msg, diagnose(runErr)}, hist.Errors...)
		res.IsDone = false
		res.HasErrors = true
		logger.Error("task failed", "error", msg)
	}

	return res
}

// panicError — паника, перехваченная на границе задачи.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// run выполняет шаги 2–4. Паника превращается в ошибку со стеком.
func (e *Executor) run(ctx context.Context, req Request, scratch string, logger *slog.Logger) (hist *agent.History, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()

	if e.llm == nil || e.browsers == nil {
		return nil, ErrNotConfigured
	}

	chat := e.llm.Resolve(ctx, req.LLM)
	chat = &retryingChat{inner: chat, policy: e.retry, sleep: e.sleep, logger: logger}

	profile := browser.Build(req.Browser, e.env)
	session, err := e.browsers.Open(ctx, profile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("close browser session", "error", cerr)
		}
	}()

	a := agent.New(chat, session, agent.Config{
		MaxSteps:   e.maxSteps,
		ScratchDir: scratch,
		Logger:     logger,
	})
	return a.Run(ctx, req.Instructions, req.Stop)
}

// diagnose возвращает диагностическую трассу ошибки:
// стек для паники, цепочку обёрток для обычной ошибки.
func diagnose(err error) string {
	var p *panicError
	if errors.As(err, &p) {
		return string(p.stack)
	}

	var b strings.Builder
	b.WriteString("error chain:")
	for i, cur := 0, err; cur != nil; i, cur = i+1, errors.Unwrap(cur) {
		fmt.Fprintf(&b, "\n  #%d %T: %v", i, cur, cur)
	}
	return b.String()
}

// projectSteps проецирует действия агента в шаги истории.
func projectSteps(actions []agent.ActionRecord) []domain.Step {
	steps := make([]domain.Step, 0, len(actions))
	for i, a := range actions {
		steps = append(steps, domain.NewStep(i, a.Thought, a.Name))
	}
	return steps
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
