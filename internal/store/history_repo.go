package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/Surfer/internal/domain"
)

// HistoryRepo — репозиторий для работы с task_history.
type HistoryRepo struct {
	h handle
}

// NewHistoryRepo создаёт новый HistoryRepo.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{h: db}
}

// Save записывает историю задачи. Повторная запись заменяет предыдущую.
func (r *HistoryRepo) Save(ctx context.Context, h *domain.TaskHistory) error {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return err
	}

	cols, err := encodeHistory(h)
	if err != nil {
		return err
	}

	query := d.rebind(`
		INSERT INTO task_history (task_id, steps, urls, screenshots, errors, extracted_content)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (task_id) DO UPDATE SET
			steps = excluded.steps,
			urls = excluded.urls,
			screenshots = excluded.screenshots,
			errors = excluded.errors,
			extracted_content = excluded.extracted_content
	`)
	args := append([]any{h.TaskID}, cols...)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save task history: %w", err)
	}
	return nil
}

// GetByTaskID возвращает историю задачи.
func (r *HistoryRepo) GetByTaskID(ctx context.Context, taskID string) (*domain.TaskHistory, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return nil, err
	}

	var steps, urls, screenshots, errs, extracted string
	err = q.QueryRowContext(ctx,
		d.rebind(`
			SELECT steps, urls, screenshots, errors, extracted_content
			FROM task_history WHERE task_id = ?
		`), taskID,
	).Scan(&steps, &urls, &screenshots, &errs, &extracted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task history: %w", err)
	}

	h := &domain.TaskHistory{TaskID: taskID}
	for _, f := range []struct {
		raw  string
		dest any
	}{
		{steps, &h.Steps},
		{urls, &h.URLs},
		{screenshots, &h.Screenshots},
		{errs, &h.Errors},
		{extracted, &h.ExtractedContent},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return nil, fmt.Errorf("unmarshal task history: %w", err)
		}
	}
	return h, nil
}

// encodeHistory сериализует коллекции в JSON. nil сохраняется как [].
func encodeHistory(h *domain.TaskHistory) ([]any, error) {
	values := []any{
		nonNil(h.Steps),
		nonNil(h.URLs),
		nonNil(h.Screenshots),
		nonNil(h.Errors),
		nonNil(h.ExtractedContent),
	}
	out := make([]any, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal task history: %w", err)
		}
		out = append(out, string(data))
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
