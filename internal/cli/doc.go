// Package cli реализует инструмент командной строки Surfer.
//
// CLI работает с Surfer API по HTTP и не импортирует внутренние пакеты
// сервиса: типы ответов продублированы в client.go.
//
// Команды:
//   - task: run, list, show, stop
//   - key: list, set, delete
//   - providers
//
// Данные выводятся в stdout (таблица, --json или --yaml),
// сообщения — в stderr:
//
//	surfer task list --json | jq '.[].status'
//
// Фабрики команд (NewTaskCmd и т.д.) принимают clientFn и outputFn —
// замыкания, создающие Client и Output после разбора PersistentFlags.
package cli
