package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Surfer/internal/domain"
)

// Ограничения выборки списка задач.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// TaskFilter — параметры выборки списка задач.
type TaskFilter struct {
	Status domain.TaskStatus
	Limit  int
	Offset int
}

func (f TaskFilter) normalized() TaskFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// TaskRepo — репозиторий для работы с tasks.
type TaskRepo struct {
	h handle
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{h: db}
}

const taskColumns = `id, task, status, created_at, finished_at, llm_provider, llm_model, output`

// Create создаёт новую задачу.
func (r *TaskRepo) Create(ctx context.Context, task *domain.Task) error {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return err
	}

	query := d.rebind(`
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = q.ExecContext(ctx, query,
		task.ID,
		task.Instructions,
		task.Status,
		task.CreatedAt.UTC(),
		nullTime(task.FinishedAt),
		task.LLMProvider,
		task.LLMModel,
		nullString(task.Output),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetByID возвращает задачу по ID.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return nil, err
	}

	query := d.rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	task, err := scanTask(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return task, err
}

// List возвращает задачи, новые первыми.
func (r *TaskRepo) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return nil, err
	}
	filter = filter.normalized()

	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := q.QueryContext(ctx, d.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// Count возвращает количество задач, подходящих под фильтр (без limit/offset).
func (r *TaskRepo) Count(ctx context.Context, filter TaskFilter) (int, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM tasks`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}

	var count int
	if err := q.QueryRowContext(ctx, d.rebind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// MarkRunning переводит задачу из created в running.
// Для задачи в другом статусе возвращает ErrInvalidState.
func (r *TaskRepo) MarkRunning(ctx context.Context, id string) error {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		d.rebind(`UPDATE tasks SET status = ?, finished_at = NULL WHERE id = ? AND status = ?`),
		domain.TaskStatusRunning, id, domain.TaskStatusCreated,
	)
	if err != nil {
		return fmt.Errorf("mark task running: %w", err)
	}
	if err := expectAffected(result); err != nil {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return fmt.Errorf("%w: task %s is not created", ErrInvalidState, id)
	}
	return nil
}

// MarkStopped переводит незавершённую задачу в stopped.
// Для завершённой задачи возвращает ErrInvalidState.
func (r *TaskRepo) MarkStopped(ctx context.Context, id string) (*domain.Task, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return nil, err
	}

	result, err := q.ExecContext(ctx,
		d.rebind(`
			UPDATE tasks SET status = ?, finished_at = ?
			WHERE id = ? AND status IN (?, ?)
		`),
		domain.TaskStatusStopped, time.Now().UTC(), id,
		domain.TaskStatusCreated, domain.TaskStatusRunning,
	)
	if err != nil {
		return nil, fmt.Errorf("stop task: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("stop task: %w", err)
	}

	task, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return task, fmt.Errorf("%w: task %s is %s", ErrInvalidState, id, task.Status)
	}
	return task, nil
}

// SaveResult записывает финальный статус, время завершения и вывод задачи.
func (r *TaskRepo) SaveResult(ctx context.Context, task *domain.Task) error {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		d.rebind(`UPDATE tasks SET status = ?, finished_at = ?, output = ? WHERE id = ?`),
		task.Status, nullTime(task.FinishedAt), nullString(task.Output), task.ID,
	)
	if err != nil {
		return fmt.Errorf("save task result: %w", err)
	}
	return expectAffected(result)
}

// FailInterrupted переводит все незавершённые задачи в failed.
// Вызывается при старте: прогон не переживает рестарт процесса.
func (r *TaskRepo) FailInterrupted(ctx context.Context, output string) (int64, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return 0, err
	}

	result, err := q.ExecContext(ctx,
		d.rebind(`
			UPDATE tasks SET status = ?, finished_at = ?, output = ?
			WHERE status IN (?, ?)
		`),
		domain.TaskStatusFailed, time.Now().UTC(), output,
		domain.TaskStatusCreated, domain.TaskStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted tasks: %w", err)
	}
	return result.RowsAffected()
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var finishedAt sql.NullTime
	var output sql.NullString

	err := row.Scan(
		&task.ID,
		&task.Instructions,
		&task.Status,
		&task.CreatedAt,
		&finishedAt,
		&task.LLMProvider,
		&task.LLMModel,
		&output,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.CreatedAt = task.CreatedAt.UTC()
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		task.FinishedAt = &t
	}
	task.Output = output.String
	return &task, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
