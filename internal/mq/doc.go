// Package mq публикует события задач в RabbitMQ и принимает команды.
//
// Обменник surfer.tasks (topic):
//   - task.started, task.finished — события, очередь tasks.events
//   - control.stop                — команда остановки, очередь tasks.control
//
// Отвергнутые команды уходят в surfer.dlq / dlq.control.
// Брокер опционален: без RABBITMQ_URL события не публикуются.
package mq
