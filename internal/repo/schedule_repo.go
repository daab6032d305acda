package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savrin/flowpilot/internal/domain"
)

// ScheduleRepo — репозиторий расписаний.
type ScheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepo создаёт новый ScheduleRepo.
func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

// Create создаёт новое расписание.
func (r *ScheduleRepo) Create(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		INSERT INTO schedules (id, flow_id, name, cron_expr, timezone, enabled, next_due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		schedule.ID,
		schedule.FlowID,
		schedule.Name,
		schedule.CronExpr,
		schedule.Timezone,
		schedule.Enabled,
		schedule.NextDueAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID возвращает расписание по ID.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `
		SELECT id, flow_id, name, cron_expr, timezone, enabled, next_due_at, last_run_at, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`
	var schedule domain.Schedule
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.FlowID,
		&schedule.Name,
		&schedule.CronExpr,
		&schedule.Timezone,
		&schedule.Enabled,
		&schedule.NextDueAt,
		&schedule.LastRunAt,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &schedule, nil
}

// List возвращает все расписания. Если flowID не nil — только для flow.
func (r *ScheduleRepo) List(ctx context.Context, flowID *uuid.UUID) ([]domain.Schedule, error) {
	query := `
		SELECT id, flow_id, name, cron_expr, timezone, enabled, next_due_at, last_run_at, created_at, updated_at
		FROM schedules
	`
	var args []any
	if flowID != nil {
		query += ` WHERE flow_id = $1`
		args = append(args, *flowID)
	}
	query += ` ORDER BY created_at DESC`

	return r.scanMany(ctx, query, args...)
}

// ListDue возвращает расписания, которым пора выполняться:
// enabled и next_due_at <= now.
func (r *ScheduleRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error) {
	query := `
		SELECT id, flow_id, name, cron_expr, timezone, enabled, next_due_at, last_run_at, created_at, updated_at
		FROM schedules
		WHERE enabled = true AND next_due_at IS NOT NULL AND next_due_at <= $1
		ORDER BY next_due_at
		LIMIT $2
	`
	return r.scanMany(ctx, query, now, limit)
}

// Update обновляет расписание.
func (r *ScheduleRepo) Update(ctx context.Context, schedule *domain.Schedule) error {
	query := `
		UPDATE schedules
		SET name = $2, cron_expr = $3, timezone = $4, enabled = $5,
		    next_due_at = $6, last_run_at = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		schedule.ID,
		schedule.Name,
		schedule.CronExpr,
		schedule.Timezone,
		schedule.Enabled,
		schedule.NextDueAt,
		schedule.LastRunAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEnabled включает или выключает расписание.
func (r *ScheduleRepo) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	query := `UPDATE schedules SET enabled = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, enabled)
	if err != nil {
		return fmt.Errorf("set schedule enabled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет расписание.
func (r *ScheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM schedules WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanMany читает список расписаний.
func (r *ScheduleRepo) scanMany(ctx context.Context, query string, args ...any) ([]domain.Schedule, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		var schedule domain.Schedule
		if err := rows.Scan(
			&schedule.ID,
			&schedule.FlowID,
			&schedule.Name,
			&schedule.CronExpr,
			&schedule.Timezone,
			&schedule.Enabled,
			&schedule.NextDueAt,
			&schedule.LastRunAt,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}
