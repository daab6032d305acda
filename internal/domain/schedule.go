package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска flow.
//
// Scheduler периодически находит due schedules (enabled, next_due_at <= now)
// и запускает соответствующие flows через координатор. Запуск по расписанию
// подчиняется тому же single-flight ограничению, что и ручной запуск.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// FlowID — flow, который запускается по расписанию.
	FlowID uuid.UUID `json:"flow_id"`

	// Name — имя расписания (например, "nightly-smoke").
	Name string `json:"name"`

	// CronExpr — cron-выражение (5 полей: минута час день месяц день_недели).
	CronExpr string `json:"cron_expr"`

	// Timezone — IANA timezone для интерпретации cron-выражения.
	Timezone string `json:"timezone"`

	// Enabled — флаг активности. Выключенные schedules не запускаются.
	Enabled bool `json:"enabled"`

	// NextDueAt — следующее время запуска (UTC).
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска по этому расписанию.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordRun фиксирует запуск и следующее время выполнения.
func (s *Schedule) RecordRun(at, nextDue time.Time) {
	s.LastRunAt = &at
	s.NextDueAt = &nextDue
	s.UpdatedAt = time.Now()
}
