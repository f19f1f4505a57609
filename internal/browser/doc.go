// Package browser — фабрика браузерных сессий.
//
// Build превращает пользовательские BrowserSettings и окружение в Profile;
// Factory.Open запускает сессию на выбранном движке:
//   - ChromedpEngine   — Chrome DevTools Protocol (по умолчанию)
//   - PlaywrightEngine — playwright-go, Chromium
//
// Если ни один движок недоступен, провизионер подставляет stub движок
// (см. пакет provision).
package browser
