// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//   - notifier.go   — адаптер уведомлений координатора в события
//
// Типы сообщений:
//   - execution.completed — выполнение flow завершено (успешно или нет)
//
// Exchanges:
//   - flowpilot.executions — события выполнений
//   - flowpilot.dlq        — dead letter queue
package mq
