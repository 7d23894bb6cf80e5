package mq

import "errors"

var (
	// ErrNoChannel — соединение не установлено или переподключается.
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrClosed — соединение закрыто вызовом Close.
	ErrClosed = errors.New("amqp connection closed")
)
