// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики (задачи, хранилище, зависимости, HTTP)
//
// Метрики экспортируются на /metrics endpoint сервиса surfer-api.
package telemetry
