package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shaiso/Surfer/internal/domain"
)

// APIKeyRepo — репозиторий для работы с api_keys.
// На провайдера хранится не более одной записи; последняя запись побеждает.
type APIKeyRepo struct {
	h handle
}

// NewAPIKeyRepo создаёт новый APIKeyRepo.
func NewAPIKeyRepo(db *DB) *APIKeyRepo {
	return &APIKeyRepo{h: db}
}

// Upsert сохраняет ключ провайдера.
func (r *APIKeyRepo) Upsert(ctx context.Context, key domain.APIKey) error {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, d.rebind(`
		INSERT INTO api_keys (provider, api_key) VALUES (?, ?)
		ON CONFLICT (provider) DO UPDATE SET api_key = excluded.api_key
	`), key.Provider, key.Value)
	if err != nil {
		return fmt.Errorf("upsert api key: %w", err)
	}
	return nil
}

// Get возвращает ключ провайдера.
func (r *APIKeyRepo) Get(ctx context.Context, provider string) (*domain.APIKey, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return nil, err
	}

	key := domain.APIKey{Provider: provider}
	err = q.QueryRowContext(ctx,
		d.rebind(`SELECT api_key FROM api_keys WHERE provider = ?`), provider,
	).Scan(&key.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &key, nil
}

// List возвращает ключи провайдеров без зарезервированной записи browser_config.
func (r *APIKeyRepo) List(ctx context.Context) ([]domain.APIKey, error) {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		d.rebind(`SELECT provider, api_key FROM api_keys WHERE provider <> ? ORDER BY provider`),
		domain.BrowserConfigKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		if err := rows.Scan(&k.Provider, &k.Value); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete удаляет ключ провайдера.
func (r *APIKeyRepo) Delete(ctx context.Context, provider string) error {
	q, d, err := r.h.querier(ctx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, d.rebind(`DELETE FROM api_keys WHERE provider = ?`), provider)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return expectAffected(result)
}

// --- Browser settings ---

// BrowserSettings загружает настройки браузера из записи browser_config.
// При отсутствии записи возвращает значения по умолчанию.
func (r *APIKeyRepo) BrowserSettings(ctx context.Context) (domain.BrowserSettings, error) {
	key, err := r.Get(ctx, domain.BrowserConfigKey)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultBrowserSettings(), nil
	}
	if err != nil {
		return domain.DefaultBrowserSettings(), err
	}
	return domain.ParseBrowserSettings(key.Value)
}

// SaveBrowserSettings сохраняет настройки браузера под browser_config.
func (r *APIKeyRepo) SaveBrowserSettings(ctx context.Context, s domain.BrowserSettings) error {
	raw, err := s.Normalize().Marshal()
	if err != nil {
		return err
	}
	return r.Upsert(ctx, domain.APIKey{Provider: domain.BrowserConfigKey, Value: raw})
}
