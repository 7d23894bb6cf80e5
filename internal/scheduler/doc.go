// Package scheduler создаёт snapshot runs по расписанию.
//
// Структура:
//   - scheduler.go — Scheduler (Start, Tick, Stop)
//   - cron.go      — разбор cron-выражений (robfig/cron)
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Store:       runRepo,
//	    Publisher:   publisher, // опционально
//	    Leader:      repo.NewAdvisoryLock(pool, repo.SchedulerLockKey),
//	    Schedule:    "0 * * * *",
//	    Simulations: []string{"MySimulation"},
//	    Logger:      logger,
//	})
//
// Leader Election:
//
// Тик выполняет только экземпляр, удерживающий pg_try_advisory_lock.
// Остальные пропускают тик.
package scheduler
