// Package config загружает конфигурацию simsnap из окружения.
//
// Порядок: .env (через godotenv, если файл есть) → переменные окружения →
// значения по умолчанию. Конфигурация передаётся в компоненты явно;
// окружение процесса не изменяется.
package config
