package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/shaiso/Surfer/internal/telemetry"
)

// Параметры подключения к PostgreSQL.
const (
	pgConnectTimeout  = 10 * time.Second
	pgMaxConnLifetime = 5 * time.Minute
	pgHealthCheck     = 30 * time.Second
	pgMaxConns        = 10
	sqliteBusyTimeout = 5000
	retryMultiplier   = 1.5
)

// Config — конфигурация хранилища.
type Config struct {
	// Target — основная цель подключения (см. ResolveTarget).
	Target Target

	// FallbackPath — файл SQLite для fallback при недоступной сетевой БД.
	// Пустая строка отключает fallback.
	FallbackPath string

	// Production — при исчерпании попыток возвращать degraded-успех.
	Production bool

	Logger *slog.Logger
}

// conn — открытое подключение к одной из БД.
type conn struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect dialect
}

func (c *conn) close() {
	if c.db != nil {
		c.db.Close()
	}
	if c.pool != nil {
		c.pool.Close()
	}
}

// DB — handle хранилища.
//
// До Initialize и в degraded режиме репозитории возвращают ErrUnavailable.
// Handle передаётся явно; глобального состояния нет.
type DB struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	conn     *conn
	fallback bool
	degraded bool

	// open выполняет одну попытку: ensure database → schema → SELECT 1.
	open func(ctx context.Context, t Target) (*conn, error)
	// sleep ждёт между попытками.
	sleep func(ctx context.Context, d time.Duration) error
}

// New создаёт handle хранилища. Подключение выполняет Initialize.
func New(cfg Config) *DB {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{
		cfg:    cfg,
		logger: telemetry.WithComponent(logger, "store"),
		open:   openTarget,
		sleep:  sleepCtx,
	}
}

// Initialize подключается к БД и создаёт схему.
//
// Попытка: (a) ensure database, (b) CREATE TABLE IF NOT EXISTS, (c) SELECT 1.
// Между попытками ждёт retryDelay, умножая задержку на 1.5.
// После maxRetries неудачных попыток:
//  1. сетевая цель + FallbackPath → одна попытка открыть SQLite fallback;
//  2. production → nil, Degraded() == true;
//  3. иначе — ошибка, оборачивающая ErrInitFailed и последнюю причину.
func (d *DB) Initialize(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	delay := retryDelay
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		c, err := d.open(ctx, d.cfg.Target)
		if err == nil {
			telemetry.DBInitAttempts.WithLabelValues("success").Inc()
			d.setConn(c, false)
			telemetry.SetStoreMode("primary")
			d.logger.Info("store initialized", "target", d.cfg.Target.String(), "attempt", attempt)
			return nil
		}

		telemetry.DBInitAttempts.WithLabelValues("failure").Inc()
		lastErr = err
		d.logger.Warn("store initialization attempt failed",
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		if attempt == maxRetries {
			break
		}
		if err := d.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%w: %w", ErrInitFailed, err)
		}
		delay = time.Duration(float64(delay) * retryMultiplier)
	}

	if d.cfg.Target.Network() && d.cfg.FallbackPath != "" {
		fb := Target{Kind: KindSQLite, Path: d.cfg.FallbackPath}
		c, err := d.open(ctx, fb)
		if err == nil {
			d.setConn(c, true)
			telemetry.SetStoreMode("fallback")
			d.logger.Warn("using fallback store", "path", d.cfg.FallbackPath, "cause", lastErr)
			return nil
		}
		d.logger.Error("fallback store failed", "path", d.cfg.FallbackPath, "error", err)
		lastErr = errors.Join(lastErr, err)
	}

	if d.cfg.Production {
		d.mu.Lock()
		d.degraded = true
		d.mu.Unlock()
		telemetry.SetStoreMode("degraded")
		d.logger.Error("store unavailable, continuing in degraded mode", "error", lastErr)
		return nil
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrInitFailed, maxRetries, lastErr)
}

func (d *DB) setConn(c *conn, fallback bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.close()
	}
	d.conn = c
	d.fallback = fallback
	d.degraded = false
}

// Fallback возвращает true, если используется локальный fallback файл.
func (d *DB) Fallback() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fallback
}

// Degraded возвращает true, если сервис работает без БД.
func (d *DB) Degraded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.degraded
}

// Kind возвращает тип активной БД.
func (d *DB) Kind() Kind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.conn == nil {
		return ""
	}
	return d.conn.dialect.kind
}

// Close закрывает подключение.
func (d *DB) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.close()
		d.conn = nil
	}
}

// Ping проверяет доступность БД.
func (d *DB) Ping(ctx context.Context) error {
	q, _, err := d.querier(ctx)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, "SELECT 1")
	return err
}

// querier реализует handle для репозиториев вне транзакции.
func (d *DB) querier(_ context.Context) (querier, dialect, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.conn == nil {
		return nil, dialect{}, ErrUnavailable
	}
	return d.conn.db, d.conn.dialect, nil
}

// --- Transactions ---

// Tx — транзакционный scope. Репозитории, полученные из Tx,
// выполняют запросы внутри транзакции.
type Tx struct {
	tx      *sql.Tx
	dialect dialect
}

func (t *Tx) querier(_ context.Context) (querier, dialect, error) {
	return t.tx, t.dialect, nil
}

// Tasks возвращает TaskRepo в рамках транзакции.
func (t *Tx) Tasks() *TaskRepo { return &TaskRepo{h: t} }

// History возвращает HistoryRepo в рамках транзакции.
func (t *Tx) History() *HistoryRepo { return &HistoryRepo{h: t} }

// APIKeys возвращает APIKeyRepo в рамках транзакции.
func (t *Tx) APIKeys() *APIKeyRepo { return &APIKeyRepo{h: t} }

// InTx выполняет fn в транзакции.
// Commit при nil, rollback при ошибке или панике (паника пробрасывается дальше).
func (d *DB) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	d.mu.RLock()
	c := d.conn
	d.mu.RUnlock()
	if c == nil {
		return ErrUnavailable
	}

	sqlTx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				d.logger.Error("rollback failed", "error", rbErr)
			}
			return
		}
		if cErr := sqlTx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	return fn(&Tx{tx: sqlTx, dialect: c.dialect})
}

// --- Opening ---

func openTarget(ctx context.Context, t Target) (*conn, error) {
	switch t.Kind {
	case KindSQLite:
		return openSQLite(ctx, t.Path)
	case KindPostgres:
		return openPostgres(ctx, t.DSN)
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedURL, t.Kind)
	}
}

func openSQLite(ctx context.Context, path string) (*conn, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, sqliteBusyTimeout)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Один writer: SQLite не поддерживает параллельную запись.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &conn{db: db, dialect: sqliteDialect}
	if err := prepare(ctx, c); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

func openPostgres(ctx context.Context, dsn string) (*conn, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = pgMaxConns
	cfg.MaxConnLifetime = pgMaxConnLifetime
	cfg.HealthCheckPeriod = pgHealthCheck
	cfg.ConnConfig.ConnectTimeout = pgConnectTimeout
	cfg.BeforeAcquire = func(ctx context.Context, c *pgx.Conn) bool {
		return c.Ping(ctx) == nil
	}

	if err := ensurePostgresDatabase(ctx, cfg.ConnConfig); err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	c := &conn{db: stdlib.OpenDBFromPool(pool), pool: pool, dialect: postgresDialect}
	if err := prepare(ctx, c); err != nil {
		c.close()
		return nil, err
	}
	return c, nil
}

// ensurePostgresDatabase создаёт целевую БД через maintenance БД postgres.
func ensurePostgresDatabase(ctx context.Context, target *pgx.ConnConfig) error {
	name := target.Database
	if name == "" || name == "postgres" {
		return nil
	}

	maint := target.Copy()
	maint.Database = "postgres"

	c, err := pgx.ConnectConfig(ctx, maint)
	if err != nil {
		return fmt.Errorf("connect maintenance db: %w", err)
	}
	defer c.Close(context.Background())

	var exists bool
	err = c.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := c.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		// Параллельный процесс мог создать БД раньше.
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("create database: %w", err)
		}
	}
	return nil
}

// prepare создаёт схему и выполняет проверочный запрос.
func prepare(ctx context.Context, c *conn) error {
	for _, stmt := range c.dialect.schema() {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := c.db.ExecContext(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("validate connection: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
