// Package mq — транспорт RabbitMQ для запросов snapshot и их итогов.
//
// Структура:
//   - connection.go — соединение с автоматическим reconnect
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация snapshot.requested / snapshot.completed
//   - consumer.go   — потребление с ручным ack/nack
//
// Типы сообщений:
//   - snapshot.requested — создан PENDING run, его нужно выполнить
//   - snapshot.completed — run завершён (SUCCEEDED, NOT_READY, FAILED)
package mq
