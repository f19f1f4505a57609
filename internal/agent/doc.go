// Package agent реализует цикл управления браузером моделью.
//
// На каждом шаге агент снимает состояние страницы (URL, заголовок,
// основной текст, снимок экрана), запрашивает у модели решение в виде
// JSON и выполняет выбранное действие. Результат прогона — History.
//
// Действия: go_to_url, click, input_text, scroll, go_back,
// extract_content, done.
package agent
