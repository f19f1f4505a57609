// Package provision обеспечивает наличие опциональных зависимостей.
//
// Registry проверяет зависимость, при отсутствии пытается установить
// её с exponential backoff и кеширует результат. Отсутствующая зависимость
// никогда не роняет процесс: SelectEngine подставляет StubEngine.
//
// Зависимости:
//   - playwright — драйвер playwright-go и Chromium (устанавливается автоматически)
//   - chromium   — системный Chrome для chromedp (только проверка)
//
// LLM адаптеры собраны в бинарник и в провизионинге не участвуют.
package provision
