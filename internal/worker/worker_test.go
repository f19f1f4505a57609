package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Surfer/internal/domain"
	"github.com/shaiso/Surfer/internal/executor"
	"github.com/shaiso/Surfer/internal/mq"
	"github.com/shaiso/Surfer/internal/store"
)

// fakeRunner возвращает заранее заданный Result.
type fakeRunner struct {
	mu   sync.Mutex
	reqs []executor.Request

	started chan string
	release chan struct{}
}

func newFakeRunner(blocking bool) *fakeRunner {
	r := &fakeRunner{started: make(chan string, 8)}
	if blocking {
		r.release = make(chan struct{})
	}
	return r
}

func (r *fakeRunner) Execute(_ context.Context, req executor.Request) *domain.Result {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	r.started <- req.TaskID
	if r.release != nil {
		<-r.release
	}

	now := time.Now().UTC()
	res := &domain.Result{
		ID:               req.TaskID,
		Task:             req.Instructions,
		CreatedAt:        now.Add(-time.Second),
		FinishedAt:       now,
		Steps:            []domain.Step{domain.NewStep(0, "Start", "go_to_url"), domain.NewStep(1, "Success", "done")},
		URLs:             []string{"https://example.com"},
		Screenshots:      []string{},
		ExtractedContent: []string{},
		Errors:           []string{},
	}
	if req.Stop.Stopped() {
		res.Status = domain.TaskStatusStopped
		res.Output = executor.StoppedOutput
		return res
	}
	res.Status = domain.TaskStatusFinished
	res.Output = "Example Domain"
	res.IsDone = true
	return res
}

func (r *fakeRunner) lastRequest() executor.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reqs[len(r.reqs)-1]
}

type fakePublisher struct {
	mu       sync.Mutex
	started  []mq.TaskStartedPayload
	finished []mq.TaskFinishedPayload
}

func (p *fakePublisher) PublishTaskStarted(_ context.Context, payload mq.TaskStartedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = append(p.started, payload)
	return nil
}

func (p *fakePublisher) PublishTaskFinished(_ context.Context, payload mq.TaskFinishedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = append(p.finished, payload)
	return errors.New("broker down")
}

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db := store.New(store.Config{Target: store.Target{Kind: store.KindSQLite, Path: filepath.Join(t.TempDir(), "worker.db")}})
	require.NoError(t, db.Initialize(context.Background(), 1, 0))
	t.Cleanup(db.Close)
	return db
}

func waitStarted(t *testing.T, r *fakeRunner) string {
	t.Helper()
	select {
	case id := <-r.started:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("runner was not started")
		return ""
	}
}

func TestSubmit_RunsAndWritesBack(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(false)
	pub := &fakePublisher{}
	w := New(Config{DB: db, Runner: runner, Publisher: pub})
	ctx := context.Background()

	task, err := w.Submit(ctx, SubmitRequest{
		Instructions: "  Open example.com and extract the title ",
		Provider:     "openai",
		Model:        "gpt-4o",
		APIKey:       "sk-direct",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCreated, task.Status)
	assert.Equal(t, "Open example.com and extract the title", task.Instructions)

	waitStarted(t, runner)
	w.Wait()
	assert.Equal(t, 0, w.Running())

	got, err := store.NewTaskRepo(db).GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFinished, got.Status)
	assert.Equal(t, "Example Domain", got.Output)
	require.NotNil(t, got.FinishedAt)

	hist, err := store.NewHistoryRepo(db).GetByTaskID(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, hist.Steps, 2)
	assert.Equal(t, []string{"https://example.com"}, hist.URLs)

	req := runner.lastRequest()
	assert.Equal(t, "sk-direct", req.LLM.APIKey)
	assert.Equal(t, domain.DefaultBrowserSettings(), req.Browser)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.started, 1)
	require.Len(t, pub.finished, 1)
	assert.Equal(t, "finished", pub.finished[0].Status)
	assert.Equal(t, 2, pub.finished[0].Steps)
}

func TestSubmit_ReturnedTaskIsSnapshot(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(false)
	w := New(Config{DB: db, Runner: runner})

	task, err := w.Submit(context.Background(), SubmitRequest{
		Instructions: "Open example.com",
		APIKey:       "sk-direct",
	})
	require.NoError(t, err)

	// Чтение как в api.TaskFromDomain, параллельно с прогоном.
	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	for reading := true; reading; {
		select {
		case <-done:
			reading = false
		default:
			_ = task.Status
			_ = task.FinishedAt
			_ = task.Output
			_ = task.Duration()
		}
	}

	assert.Equal(t, domain.TaskStatusCreated, task.Status)
	assert.Nil(t, task.FinishedAt)
	assert.Empty(t, task.Output)

	got, err := store.NewTaskRepo(db).GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFinished, got.Status)
}

func TestSubmit_UsesStoredKeyAndBrowserSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	keys := store.NewAPIKeyRepo(db)
	require.NoError(t, keys.Upsert(ctx, domain.APIKey{Provider: "anthropic", Value: "sk-ant-stored"}))

	settings := domain.DefaultBrowserSettings()
	settings.Headless = true
	settings.WindowWidth = 800
	require.NoError(t, keys.SaveBrowserSettings(ctx, settings))

	runner := newFakeRunner(false)
	w := New(Config{DB: db, Runner: runner})

	task, err := w.Submit(ctx, SubmitRequest{Instructions: "x", Provider: "Anthropic"})
	require.NoError(t, err)
	waitStarted(t, runner)
	w.Wait()

	assert.Equal(t, "anthropic", task.LLMProvider)
	assert.Equal(t, domain.ProviderAnthropic.DefaultModel(), task.LLMModel)

	req := runner.lastRequest()
	assert.Equal(t, "sk-ant-stored", req.LLM.APIKey)
	assert.True(t, req.Browser.Headless)
	assert.Equal(t, 800, req.Browser.WindowWidth)
}

func TestSubmit_ExplicitBrowserSettings(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(false)
	w := New(Config{DB: db, Runner: runner})

	_, err := w.Submit(context.Background(), SubmitRequest{
		Instructions: "x",
		Browser:      &domain.BrowserSettings{Headless: true},
	})
	require.NoError(t, err)
	waitStarted(t, runner)
	w.Wait()

	req := runner.lastRequest()
	assert.True(t, req.Browser.Headless)
	assert.Equal(t, domain.DefaultWindowWidth, req.Browser.WindowWidth)
	assert.Equal(t, domain.DefaultWindowHeight, req.Browser.WindowHeight)
}

func TestSubmit_UnknownProviderFallsBackToOpenAI(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(false)
	w := New(Config{DB: db, Runner: runner})

	task, err := w.Submit(context.Background(), SubmitRequest{Instructions: "x", Provider: "mistral"})
	require.NoError(t, err)
	waitStarted(t, runner)
	w.Wait()

	assert.Equal(t, "openai", task.LLMProvider)
	assert.Equal(t, "gpt-4o", task.LLMModel)
	assert.Empty(t, runner.lastRequest().LLM.APIKey)
}

func TestSubmit_EmptyInstructions(t *testing.T) {
	w := New(Config{DB: newTestDB(t), Runner: newFakeRunner(false)})
	_, err := w.Submit(context.Background(), SubmitRequest{Instructions: "   "})
	assert.ErrorIs(t, err, ErrEmptyInstructions)
}

func TestStop_DuringRunKeepsStoppedStatus(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(true)
	w := New(Config{DB: db, Runner: runner})
	ctx := context.Background()

	task, err := w.Submit(ctx, SubmitRequest{Instructions: "x"})
	require.NoError(t, err)
	waitStarted(t, runner)

	stopped, err := w.Stop(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusStopped, stopped.Status)
	assert.True(t, runner.lastRequest().Stop.Stopped())

	close(runner.release)
	w.Wait()

	got, err := store.NewTaskRepo(db).GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusStopped, got.Status)
	assert.Equal(t, executor.StoppedOutput, got.Output)
	assert.NotNil(t, got.FinishedAt)

	_, err = store.NewHistoryRepo(db).GetByTaskID(ctx, task.ID)
	assert.NoError(t, err)
}

func TestStop_FinishedOrMissing(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(false)
	w := New(Config{DB: db, Runner: runner})
	ctx := context.Background()

	task, err := w.Submit(ctx, SubmitRequest{Instructions: "x"})
	require.NoError(t, err)
	waitStarted(t, runner)
	w.Wait()

	_, err = w.Stop(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrInvalidState)

	_, err = w.Stop(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecover(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := store.NewTaskRepo(db)

	orphan := domain.NewTask("left over", "openai", "gpt-4o")
	require.NoError(t, repo.Create(ctx, orphan))
	require.NoError(t, repo.MarkRunning(ctx, orphan.ID))

	w := New(Config{DB: db, Runner: newFakeRunner(false)})
	n, err := w.Recover(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetByID(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, InterruptedOutput, got.Output)
}

func TestShutdown_RejectsNewTasks(t *testing.T) {
	runner := newFakeRunner(true)
	w := New(Config{DB: newTestDB(t), Runner: runner})
	ctx := context.Background()

	_, err := w.Submit(ctx, SubmitRequest{Instructions: "x"})
	require.NoError(t, err)
	waitStarted(t, runner)

	done := make(chan error, 1)
	go func() { done <- w.Shutdown(ctx) }()

	require.Eventually(t, func() bool {
		_, err := w.Submit(ctx, SubmitRequest{Instructions: "y"})
		return errors.Is(err, ErrWorkerStopped)
	}, 5*time.Second, 10*time.Millisecond)

	close(runner.release)
	require.NoError(t, <-done)
}

func TestHandleControl(t *testing.T) {
	db := newTestDB(t)
	runner := newFakeRunner(true)
	w := New(Config{DB: db, Runner: runner})
	ctx := context.Background()

	task, err := w.Submit(ctx, SubmitRequest{Instructions: "x"})
	require.NoError(t, err)
	waitStarted(t, runner)

	stop := &mq.Delivery{Message: *mq.NewMessage(mq.MessageTypeTaskStop, mq.StopPayload{TaskID: task.ID})}
	require.NoError(t, w.HandleControl(ctx, stop))
	assert.True(t, runner.lastRequest().Stop.Stopped())

	// повторная и неизвестная команды подтверждаются
	require.NoError(t, w.HandleControl(ctx, stop))
	unknown := &mq.Delivery{Message: *mq.NewMessage(mq.MessageTypeTaskStop, mq.StopPayload{TaskID: "missing"})}
	require.NoError(t, w.HandleControl(ctx, unknown))
	other := &mq.Delivery{Message: *mq.NewMessage(mq.MessageTypeTaskStarted, nil)}
	require.NoError(t, w.HandleControl(ctx, other))

	close(runner.release)
	w.Wait()
}
