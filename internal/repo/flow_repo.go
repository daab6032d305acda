package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savrin/flowpilot/internal/domain"
)

// FlowRepo — репозиторий для работы с flows.
//
// Шаги хранятся как JSONB: список шагов неизменяем после сохранения,
// по отдельным шагам запросов не бывает.
type FlowRepo struct {
	pool *pgxpool.Pool
}

// NewFlowRepo создаёт новый FlowRepo.
func NewFlowRepo(pool *pgxpool.Pool) *FlowRepo {
	return &FlowRepo{pool: pool}
}

// Create создаёт новый flow.
func (r *FlowRepo) Create(ctx context.Context, flow *domain.Flow) error {
	stepsJSON, err := json.Marshal(flow.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO flows (id, device_serial, name, steps, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query,
		flow.ID,
		flow.DeviceSerial,
		flow.Name,
		stepsJSON,
		flow.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}
	return nil
}

// GetByID возвращает flow по ID.
func (r *FlowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	query := `
		SELECT id, device_serial, name, steps, last_run_at, last_run_status, created_at
		FROM flows
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetFlow возвращает flow по строковому идентификатору.
//
// Удовлетворяет интерфейсу реестра координатора: некорректный UUID
// эквивалентен отсутствующему flow.
func (r *FlowRepo) GetFlow(ctx context.Context, flowID string) (*domain.Flow, error) {
	id, err := uuid.Parse(flowID)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// List возвращает все flows.
func (r *FlowRepo) List(ctx context.Context) ([]domain.Flow, error) {
	query := `
		SELECT id, device_serial, name, steps, last_run_at, last_run_status, created_at
		FROM flows
		ORDER BY created_at DESC
	`
	return r.scanMany(ctx, query)
}

// ListByDevice возвращает flows устройства.
func (r *FlowRepo) ListByDevice(ctx context.Context, deviceSerial string) ([]domain.Flow, error) {
	query := `
		SELECT id, device_serial, name, steps, last_run_at, last_run_status, created_at
		FROM flows
		WHERE device_serial = $1
		ORDER BY created_at DESC
	`
	return r.scanMany(ctx, query, deviceSerial)
}

// Delete удаляет flow (каскадно удалит историю выполнений и schedules).
func (r *FlowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM flows WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastRun обновляет метаданные последнего выполнения.
func (r *FlowRepo) UpdateLastRun(ctx context.Context, id uuid.UUID, at time.Time, status domain.ExecutionStatus) error {
	query := `
		UPDATE flows
		SET last_run_at = $2, last_run_status = $3
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, id, at, status)
	if err != nil {
		return fmt.Errorf("update flow last run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanOne читает одну строку flow.
func (r *FlowRepo) scanOne(row pgx.Row) (*domain.Flow, error) {
	var flow domain.Flow
	var stepsJSON []byte
	var lastRunStatus *string
	err := row.Scan(
		&flow.ID,
		&flow.DeviceSerial,
		&flow.Name,
		&stepsJSON,
		&flow.LastRunAt,
		&lastRunStatus,
		&flow.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flow: %w", err)
	}

	if err := json.Unmarshal(stepsJSON, &flow.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	if lastRunStatus != nil {
		flow.LastRunStatus = domain.ExecutionStatus(*lastRunStatus)
	}
	return &flow, nil
}

// scanMany читает список flows.
func (r *FlowRepo) scanMany(ctx context.Context, query string, args ...any) ([]domain.Flow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []domain.Flow
	for rows.Next() {
		var flow domain.Flow
		var stepsJSON []byte
		var lastRunStatus *string
		if err := rows.Scan(
			&flow.ID,
			&flow.DeviceSerial,
			&flow.Name,
			&stepsJSON,
			&flow.LastRunAt,
			&lastRunStatus,
			&flow.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}

		if err := json.Unmarshal(stepsJSON, &flow.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
		if lastRunStatus != nil {
			flow.LastRunStatus = domain.ExecutionStatus(*lastRunStatus)
		}
		flows = append(flows, flow)
	}
	return flows, rows.Err()
}
