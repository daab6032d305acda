// Package scheduler реализует автоматический запуск flows по расписанию.
//
// Scheduler периодически проверяет schedules с истекшим next_due_at
// и запускает соответствующие flows через координатор выполнения.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Tick, processSchedule)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Schedules: scheduleRepo,
//	    Flows:     flowRepo,
//	    Executor:  coordinator,
//	    Logger:    logger,
//	})
//
//	// Вызывается каждый тик (обычно раз в несколько секунд)
//	if err := sched.Tick(ctx); err != nil {
//	    logger.Error("scheduler tick failed", "error", err)
//	}
//
// Scheduler не реализует leader election: предполагается один экземпляр
// flowpilot-scheduler. Координатор у планировщика свой, поэтому ручной
// запуск из API-процесса single-flight планировщика не видит — подлинный
// арбитраж, если он нужен, живёт на стороне backend.
package scheduler
