// Package worker запускает задачи автоматизации в фоне.
//
// Submit сохраняет задачу (created) и запускает горутину:
//
//	created → running → finished | failed
//	               ↘ stopped (Stop, кооперативно)
//
// По завершении Result записывается одной транзакцией: строка tasks
// получает финальный статус и вывод, task_history — шаги, URL,
// снимки и ошибки. Если во время прогона задача была остановлена,
// статус stopped сохраняется.
//
// Ключ API и настройки браузера, не переданные в запросе, берутся
// из таблицы api_keys. События task.started и task.finished
// публикуются в RabbitMQ, если задан Publisher. Команды task.stop
// из очереди tasks.control принимает HandleControl.
//
// Прогон не переживает рестарт процесса: Recover при старте
// переводит незавершённые задачи в failed.
package worker
