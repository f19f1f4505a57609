// Package store — слой хранения задач, истории и ключей провайдеров.
//
// Структура:
//   - target.go       — ResolveTarget: DATABASE_URL → SQLite или PostgreSQL
//   - db.go           — DB: Initialize с retry/backoff/fallback, InTx
//   - dialect.go      — схема и rebind плейсхолдеров для PostgreSQL
//   - task_repo.go    — TaskRepo (tasks)
//   - history_repo.go — HistoryRepo (task_history, JSON колонки)
//   - apikey_repo.go  — APIKeyRepo (api_keys, browser_config)
//
// Репозитории пишут запросы с плейсхолдерами ? и работают поверх
// database/sql: SQLite через glebarez/go-sqlite, PostgreSQL через
// pgxpool, обёрнутый stdlib.OpenDBFromPool.
//
// В degraded режиме (production, БД недоступна) все репозитории
// возвращают ErrUnavailable.
package store
