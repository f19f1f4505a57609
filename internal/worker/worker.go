package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/Surfer/internal/agent"
	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/executor"
	"github.com/shaiso/Surfer/internal/mq"
	"github.com/shaiso/Surfer/internal/store"
	"github.com/shaiso/Surfer/internal/telemetry"
)

// InterruptedOutput — вывод задач, прерванных рестартом процесса.
const InterruptedOutput = "Error: task interrupted by process restart"

// Runner выполняет одну задачу. Реализация: executor.Executor.
type Runner interface {
	Execute(ctx context.Context, req executor.Request) *domain.Result
}

// EventPublisher публикует события задач. Реализация: mq.Publisher.
type EventPublisher interface {
	PublishTaskStarted(ctx context.Context, payload mq.TaskStartedPayload) error
	PublishTaskFinished(ctx context.Context, payload mq.TaskFinishedPayload) error
}

// Worker запускает задачи в фоне и записывает результат.
//
// Каждая задача выполняется в своей горутине; ограничения на число
// одновременных задач нет. Результат (строка tasks и строка
// task_history) пишется одной транзакцией.
type Worker struct {
	db        *store.DB
	tasks     *store.TaskRepo
	keys      *store.APIKeyRepo
	runner    Runner
	publisher EventPublisher
	logger    *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	running map[string]*agent.StopSignal
	closed  bool
}

// Config — конфигурация Worker.
type Config struct {
	DB     *store.DB
	Runner Runner

	// Publisher (опционально; nil — события не публикуются).
	Publisher EventPublisher

	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		db:        cfg.DB,
		tasks:     store.NewTaskRepo(cfg.DB),
		keys:      store.NewAPIKeyRepo(cfg.DB),
		runner:    cfg.Runner,
		publisher: cfg.Publisher,
		logger:    telemetry.WithComponent(logger, "worker"),
		baseCtx:   ctx,
		cancel:    cancel,
		running:   make(map[string]*agent.StopSignal),
	}
}

// SubmitRequest — запрос на запуск задачи.
type SubmitRequest struct {
	Instructions string
	Provider     string
	Model        string

	// APIKey — пустой ключ берётся из сохранённых ключей провайдера.
	APIKey   string
	Endpoint string

	// Browser — nil берёт сохранённые настройки браузера.
	Browser *domain.BrowserSettings
}

// Submit сохраняет задачу в статусе created и запускает её в фоне.
// Возвращённая задача — снимок на момент создания; фоновый прогон её не меняет.
func (w *Worker) Submit(ctx context.Context, req SubmitRequest) (*domain.Task, error) {
	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		return nil, ErrEmptyInstructions
	}

	provider := domain.ParseProvider(req.Provider)
	model := req.Model
	if model == "" {
		model = provider.DefaultModel()
	}

	llmCfg := domain.LLMConfig{
		Provider: provider.String(),
		Model:    model,
		APIKey:   req.APIKey,
		Endpoint: req.Endpoint,
	}
	if llmCfg.APIKey == "" {
		key, err := w.keys.Get(ctx, provider.String())
		switch {
		case err == nil:
			llmCfg.APIKey = key.Value
		case !errors.Is(err, store.ErrNotFound):
			w.logger.Warn("load stored api key", "provider", provider, "error", err)
		}
	}

	settings := domain.DefaultBrowserSettings()
	if req.Browser != nil {
		settings = req.Browser.Normalize()
	} else if stored, err := w.keys.BrowserSettings(ctx); err == nil {
		settings = stored
	} else {
		w.logger.Warn("load browser settings, using defaults", "error", err)
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWorkerStopped
	}
	w.mu.Unlock()

	task := domain.NewTask(instructions, provider.String(), model)
	if err := w.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	telemetry.TasksSubmitted.Inc()

	stop := agent.NewStopSignal()
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrWorkerStopped
	}
	w.running[task.ID] = stop
	w.wg.Add(1)
	w.mu.Unlock()

	// Прогон работает со своей копией: возвращённая задача только для чтения.
	runTask := *task
	go func() {
		defer w.wg.Done()
		w.run(w.baseCtx, &runTask, executor.Request{
			TaskID:       task.ID,
			Instructions: task.Instructions,
			LLM:          llmCfg,
			Browser:      settings,
			Stop:         stop,
		})
	}()

	w.logger.Info("task submitted",
		"task_id", task.ID,
		"provider", task.LLMProvider,
		"model", task.LLMModel,
	)
	return task, nil
}

// run выполняет задачу и записывает результат.
func (w *Worker) run(ctx context.Context, task *domain.Task, req executor.Request) {
	logger := telemetry.WithTaskID(w.logger, task.ID)
	defer w.forget(task.ID)

	switch err := w.tasks.MarkRunning(ctx, task.ID); {
	case errors.Is(err, store.ErrInvalidState):
		logger.Info("task stopped before start")
		telemetry.ObserveTask(domain.TaskStatusStopped.String(), 0)
		return
	case err != nil:
		logger.Warn("mark task running", "error", err)
	}
	task.MarkRunning()

	telemetry.TasksRunning.Inc()
	defer telemetry.TasksRunning.Dec()
	w.publishStarted(ctx, task)

	res := w.runner.Execute(ctx, req)

	final, err := w.writeBack(context.WithoutCancel(ctx), task, res)
	if err != nil {
		logger.Error("write task result", "error", err)
		final = task
		final.Complete(res)
	}

	telemetry.ObserveTask(string(final.Status), res.FinishedAt.Sub(res.CreatedAt))
	w.publishFinished(ctx, final, res)

	logger.Info("task completed",
		"status", final.Status,
		"steps", len(res.Steps),
		"has_errors", res.HasErrors,
	)
}

// writeBack записывает результат. Статус stopped, выставленный
// во время прогона, сохраняется.
func (w *Worker) writeBack(ctx context.Context, task *domain.Task, res *domain.Result) (*domain.Task, error) {
	var final *domain.Task
	err := w.db.InTx(ctx, func(tx *store.Tx) error {
		current, err := tx.Tasks().GetByID(ctx, task.ID)
		if err != nil {
			return err
		}
		current.Complete(res)
		if err := tx.Tasks().SaveResult(ctx, current); err != nil {
			return err
		}
		if err := tx.History().Save(ctx, res.History()); err != nil {
			return err
		}
		final = current
		return nil
	})
	return final, err
}

// Stop останавливает незавершённую задачу.
//
// Статус stopped пишется сразу; выполняющийся прогон завершится
// на ближайшей границе шага.
func (w *Worker) Stop(ctx context.Context, id string) (*domain.Task, error) {
	task, err := w.tasks.MarkStopped(ctx, id)
	if err != nil {
		return task, err
	}

	w.mu.Lock()
	if stop, ok := w.running[id]; ok {
		stop.Stop()
	}
	w.mu.Unlock()

	w.logger.Info("task stopped", "task_id", id)
	return task, nil
}

// Running возвращает число выполняющихся задач.
func (w *Worker) Running() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.running)
}

func (w *Worker) forget(id string) {
	w.mu.Lock()
	delete(w.running, id)
	w.mu.Unlock()
}

// Recover помечает задачи, оставшиеся незавершёнными после рестарта, как failed.
func (w *Worker) Recover(ctx context.Context) (int64, error) {
	n, err := w.tasks.FailInterrupted(ctx, InterruptedOutput)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.logger.Warn("failed interrupted tasks", "count", n)
	}
	return n, nil
}

// Wait ждёт завершения всех запущенных задач.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Shutdown перестаёт принимать задачи и ждёт текущие.
// Если ctx истекает раньше, прогоны отменяются.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.logger.Info("stopping worker...", "running", w.Running())

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.cancel()
		w.logger.Info("worker stopped")
		return nil
	case <-ctx.Done():
		w.cancel()
		<-done
		return ctx.Err()
	}
}

// --- Events ---

func (w *Worker) publishStarted(ctx context.Context, task *domain.Task) {
	if w.publisher == nil {
		return
	}
	err := w.publisher.PublishTaskStarted(ctx, mq.TaskStartedPayload{
		TaskID:      task.ID,
		LLMProvider: task.LLMProvider,
		LLMModel:    task.LLMModel,
	})
	if err != nil {
		w.logger.Warn("publish task.started", "task_id", task.ID, "error", err)
	}
}

func (w *Worker) publishFinished(ctx context.Context, task *domain.Task, res *domain.Result) {
	if w.publisher == nil {
		return
	}
	err := w.publisher.PublishTaskFinished(context.WithoutCancel(ctx), mq.TaskFinishedPayload{
		TaskID:     task.ID,
		Status:     task.Status.String(),
		Output:     task.Output,
		Steps:      len(res.Steps),
		HasErrors:  res.HasErrors,
		DurationMs: float64(res.FinishedAt.Sub(res.CreatedAt)) / float64(time.Millisecond),
	})
	if err != nil {
		w.logger.Warn("publish task.finished", "task_id", task.ID, "error", err)
	}
}
