// Package refresher обновляет метаданные последнего запуска flows
// и устройств по событиям execution.completed из RabbitMQ.
package refresher
