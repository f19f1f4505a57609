package store

import (
	"fmt"
	"strings"
)

// DefaultSQLitePath — файл встроенной БД, когда DATABASE_URL не задан.
const DefaultSQLitePath = "./browser_agent.db"

// Kind — тип целевой БД.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Target — разрешённая цель подключения.
type Target struct {
	Kind Kind

	// DSN — строка подключения для PostgreSQL.
	DSN string

	// Path — путь к файлу SQLite (":memory:" для in-memory).
	Path string
}

// Network возвращает true для сетевых БД.
// Только для них применяется fallback на локальный файл.
func (t Target) Network() bool {
	return t.Kind == KindPostgres
}

// String возвращает описание цели без учётных данных.
func (t Target) String() string {
	if t.Kind == KindSQLite {
		return "sqlite:" + t.Path
	}
	dsn := t.DSN
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		if scheme := strings.Index(dsn, "://"); scheme >= 0 && scheme < at {
			return dsn[:scheme+3] + "***" + dsn[at:]
		}
	}
	return dsn
}

// ResolveTarget разбирает DATABASE_URL.
//
// Правила:
//   - пустая строка → SQLite ./browser_agent.db
//   - postgres:// переписывается в postgresql://
//   - sqlite:///path, sqlite://, file:path → SQLite
func ResolveTarget(rawURL string) (Target, error) {
	u := strings.TrimSpace(rawURL)

	switch {
	case u == "":
		return Target{Kind: KindSQLite, Path: DefaultSQLitePath}, nil

	case strings.HasPrefix(u, "postgres://"):
		return Target{Kind: KindPostgres, DSN: "postgresql://" + strings.TrimPrefix(u, "postgres://")}, nil

	case strings.HasPrefix(u, "postgresql://"):
		return Target{Kind: KindPostgres, DSN: u}, nil

	case strings.HasPrefix(u, "sqlite://"):
		path := strings.TrimPrefix(u, "sqlite://")
		path = strings.TrimPrefix(path, "/")
		if path == "" {
			path = ":memory:"
		}
		return Target{Kind: KindSQLite, Path: path}, nil

	case strings.HasPrefix(u, "file:"):
		return Target{Kind: KindSQLite, Path: strings.TrimPrefix(u, "file:")}, nil
	}

	return Target{}, fmt.Errorf("%w: %s", ErrUnsupportedURL, Target{Kind: KindPostgres, DSN: u})
}
