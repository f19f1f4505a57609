// Package executor выполняет одну задачу автоматизации браузера.
//
// Протокол Execute:
//  1. Создаёт каталог артефактов задачи.
//  2. Получает адаптер LLM и открывает браузерную сессию.
//  3. Запускает агента до done, исчерпания шагов или ошибки.
//  4. Закрывает сессию (ошибка закрытия только логируется).
//  5. Копирует снимки экрана в каталог задачи.
//  6. Собирает domain.Result.
//
// Ошибка или паника на шагах 2–3 даёт Result со статусом failed,
// сообщением и трассой в списке ошибок. Вызывающий всегда
// получает корректный Result.
package executor
