package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// querier — общий интерфейс *sql.DB и *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// handle выдаёт querier для репозитория: DB (вне транзакции) или Tx.
type handle interface {
	querier(ctx context.Context) (querier, dialect, error)
}

// dialect — различия SQL между SQLite и PostgreSQL.
type dialect struct {
	kind          Kind
	timestampType string
}

var (
	sqliteDialect   = dialect{kind: KindSQLite, timestampType: "TIMESTAMP"}
	postgresDialect = dialect{kind: KindPostgres, timestampType: "TIMESTAMPTZ"}
)

// rebind переписывает плейсхолдеры ? в $1, $2, ... для PostgreSQL.
func (d dialect) rebind(query string) string {
	if d.kind != KindPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id           VARCHAR(36) PRIMARY KEY,
			task         TEXT NOT NULL,
			status       VARCHAR(20) NOT NULL DEFAULT 'created',
			created_at   ` + d.timestampType + ` NOT NULL,
			finished_at  ` + d.timestampType + ` NULL,
			llm_provider VARCHAR(50) NOT NULL DEFAULT '',
			llm_model    VARCHAR(100) NOT NULL DEFAULT '',
			output       TEXT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks (created_at)`,
		`CREATE TABLE IF NOT EXISTS task_history (
			task_id           VARCHAR(36) PRIMARY KEY REFERENCES tasks(id),
			steps             TEXT NOT NULL DEFAULT '[]',
			urls              TEXT NOT NULL DEFAULT '[]',
			screenshots       TEXT NOT NULL DEFAULT '[]',
			errors            TEXT NOT NULL DEFAULT '[]',
			extracted_content TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS api_keys (
			provider VARCHAR(50) PRIMARY KEY,
			api_key  TEXT NOT NULL
		)`,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
