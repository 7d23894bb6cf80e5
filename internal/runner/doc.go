// Package runner ведёт журнал run вокруг controller.Driver.
//
// Run проходит PENDING → RUNNING → SUCCEEDED | NOT_READY | FAILED.
// Итог сохраняется в Store и публикуется как snapshot.completed,
// если эти зависимости переданы.
package runner
