// Package worker выполняет запросы на snapshot.
//
// # Обзор
//
// Worker получает id PENDING run из очереди snapshots.requested
// и дополнительно раз в PollInterval проверяет PENDING runs в БД
// (fallback на случай, если брокер недоступен или сообщение потерялось).
//
//	w := worker.New(worker.Config{
//	    Store:    runRepo,
//	    Executor: runner,
//	    Conn:     mqConn,
//	    Logger:   logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Обработка run
//
//  1. Загрузка run из БД, проверка статуса PENDING
//  2. Перевод в RUNNING условным UPDATE (ClaimPending)
//  3. Выполнение через Executor (runner → controller.Driver)
//  4. Итог записывает и публикует runner
//
// Если ClaimPending вернул false, run уже забрал другой worker,
// и сообщение подтверждается без выполнения.
//
// # Ошибки
//
// Ошибка драйвера фиксируется в run (FAILED) и сообщение подтверждается.
// Ошибки БД возвращаются consumer'у, и сообщение уходит в dlq.snapshots.
package worker
