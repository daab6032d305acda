package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savrin/flowpilot/internal/domain"
)

const defaultExecutionLimit = 50

// ExecutionRepo — репозиторий истории выполнений.
//
// Результат и по-шаговая классификация хранятся как JSONB: запись
// неизменяема после вставки, это журнал, а не рабочее состояние.
type ExecutionRepo struct {
	pool *pgxpool.Pool
}

// NewExecutionRepo создаёт новый ExecutionRepo.
func NewExecutionRepo(pool *pgxpool.Pool) *ExecutionRepo {
	return &ExecutionRepo{pool: pool}
}

// Create сохраняет запись о выполнении.
func (r *ExecutionRepo) Create(ctx context.Context, execution *domain.Execution) error {
	resultJSON, err := json.Marshal(execution.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	stepsJSON, err := json.Marshal(execution.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}

	query := `
		INSERT INTO executions (id, flow_id, device_serial, status, result, steps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.pool.Exec(ctx, query,
		execution.ID,
		execution.FlowID,
		execution.DeviceSerial,
		execution.Status,
		resultJSON,
		stepsJSON,
		execution.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}
	return nil
}

// GetByID возвращает запись о выполнении по ID.
func (r *ExecutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Execution, error) {
	query := `
		SELECT id, flow_id, device_serial, status, result, steps, created_at
		FROM executions
		WHERE id = $1
	`
	var execution domain.Execution
	var resultJSON, stepsJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&execution.ID,
		&execution.FlowID,
		&execution.DeviceSerial,
		&execution.Status,
		&resultJSON,
		&stepsJSON,
		&execution.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}

	if err := json.Unmarshal(resultJSON, &execution.Result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	if err := json.Unmarshal(stepsJSON, &execution.Steps); err != nil {
		return nil, fmt.Errorf("unmarshal steps: %w", err)
	}
	return &execution, nil
}

// ListByFlow возвращает историю выполнений flow, новые — первыми.
func (r *ExecutionRepo) ListByFlow(ctx context.Context, flowID uuid.UUID, limit int) ([]domain.Execution, error) {
	if limit <= 0 {
		limit = defaultExecutionLimit
	}
	query := `
		SELECT id, flow_id, device_serial, status, result, steps, created_at
		FROM executions
		WHERE flow_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.scanMany(ctx, query, flowID, limit)
}

// ListByDevice возвращает историю выполнений на устройстве.
func (r *ExecutionRepo) ListByDevice(ctx context.Context, deviceSerial string, limit int) ([]domain.Execution, error) {
	if limit <= 0 {
		limit = defaultExecutionLimit
	}
	query := `
		SELECT id, flow_id, device_serial, status, result, steps, created_at
		FROM executions
		WHERE device_serial = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.scanMany(ctx, query, deviceSerial, limit)
}

// scanMany читает список выполнений.
func (r *ExecutionRepo) scanMany(ctx context.Context, query string, args ...any) ([]domain.Execution, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var executions []domain.Execution
	for rows.Next() {
		var execution domain.Execution
		var resultJSON, stepsJSON []byte
		if err := rows.Scan(
			&execution.ID,
			&execution.FlowID,
			&execution.DeviceSerial,
			&execution.Status,
			&resultJSON,
			&stepsJSON,
			&execution.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}

		if err := json.Unmarshal(resultJSON, &execution.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		if err := json.Unmarshal(stepsJSON, &execution.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
		executions = append(executions, execution)
	}
	return executions, rows.Err()
}
