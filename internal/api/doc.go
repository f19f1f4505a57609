// Package api — HTTP API сервиса.
//
// Маршруты:
//
//	GET    /api/v1/tasks              список задач (?status, ?limit, ?offset)
//	POST   /api/v1/tasks              запуск задачи
//	GET    /api/v1/tasks/{id}         задача с историей
//	POST   /api/v1/tasks/{id}/stop    остановка задачи
//	GET    /api/v1/keys               ключи провайдеров (замаскированы)
//	PUT    /api/v1/keys/{provider}    сохранить ключ
//	DELETE /api/v1/keys/{provider}    удалить ключ
//	GET    /api/v1/browser-config     настройки браузера
//	PUT    /api/v1/browser-config     сохранить настройки браузера
//	GET    /api/v1/providers          каталог провайдеров и моделей
//	GET    /healthz                   состояние хранилища и движка
//	GET    /metrics                   метрики Prometheus
//
// Ответы: {"data": ...}, списки {"data": [...], "total": n},
// ошибки {"error": {"code": ..., "message": ...}}.
package api
