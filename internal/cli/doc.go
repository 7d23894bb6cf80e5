// Package cli реализует инструмент командной строки simsnap.
//
// # Обзор
//
// Команды делятся на две группы:
//   - локальные (snapshot, status, simulation start): ходят в SimSpace
//     Weaver напрямую, драйвер выполняется в процессе CLI;
//   - runs: работают с историей runs через HTTP API.
//
// # Ключевые компоненты
//
// ## Local
//
// Окружение локальных команд: конфигурация, адаптер SimSpace Weaver,
// опциональный журнал runs. Создаётся лениво через LocalFn, чтобы
// команды runs не требовали AWS credentials.
//
// ## Client
//
// HTTP-клиент для simsnap API. Инкапсулирует запросы, разбор конвертов
// {"data": ...} и {"error": {...}} и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	runs, err := client.ListRuns(ctx, cli.ListRunsOpts{Status: "FAILED"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr:
//
//	simsnap runs list --json | jq .
//
// ## Commands
//
// Каждая группа создаётся фабричной функцией (NewSnapshotCmd, NewRunsCmd и т.д.),
// принимающей замыкания для ленивого создания зависимостей после
// парсинга PersistentFlags.
package cli
