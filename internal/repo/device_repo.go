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

// DeviceRepo — репозиторий для работы с устройствами.
type DeviceRepo struct {
	pool *pgxpool.Pool
}

// NewDeviceRepo создаёт новый DeviceRepo.
func NewDeviceRepo(pool *pgxpool.Pool) *DeviceRepo {
	return &DeviceRepo{pool: pool}
}

// Create регистрирует новое устройство.
func (r *DeviceRepo) Create(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO devices (id, serial, name, model, android_version, passcode, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		device.ID,
		device.Serial,
		device.Name,
		device.Model,
		device.AndroidVersion,
		device.Passcode,
		device.State,
		device.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// GetByID возвращает устройство по ID.
func (r *DeviceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Device, error) {
	query := `
		SELECT id, serial, name, model, android_version, passcode, state, last_seen_at, created_at
		FROM devices
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetBySerial возвращает устройство по серийному номеру.
func (r *DeviceRepo) GetBySerial(ctx context.Context, serial string) (*domain.Device, error) {
	query := `
		SELECT id, serial, name, model, android_version, passcode, state, last_seen_at, created_at
		FROM devices
		WHERE serial = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, serial))
}

// List возвращает список всех устройств.
func (r *DeviceRepo) List(ctx context.Context) ([]domain.Device, error) {
	query := `
		SELECT id, serial, name, model, android_version, passcode, state, last_seen_at, created_at
		FROM devices
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var device domain.Device
		var state string
		if err := rows.Scan(
			&device.ID,
			&device.Serial,
			&device.Name,
			&device.Model,
			&device.AndroidVersion,
			&device.Passcode,
			&state,
			&device.LastSeenAt,
			&device.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		device.State = domain.ParseDeviceState(state)
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// Update обновляет устройство.
func (r *DeviceRepo) Update(ctx context.Context, device *domain.Device) error {
	query := `
		UPDATE devices
		SET name = $2, model = $3, android_version = $4, passcode = $5, state = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		device.ID,
		device.Name,
		device.Model,
		device.AndroidVersion,
		device.Passcode,
		device.State,
	)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет устройство (каскадно удалит его flows и историю).
func (r *DeviceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM devices WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete device: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSeen обновляет время последнего обращения к устройству.
func (r *DeviceRepo) MarkSeen(ctx context.Context, serial string, at time.Time) error {
	query := `UPDATE devices SET last_seen_at = $2 WHERE serial = $1`
	result, err := r.pool.Exec(ctx, query, serial, at)
	if err != nil {
		return fmt.Errorf("mark device seen: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanOne читает одну строку устройства.
func (r *DeviceRepo) scanOne(row pgx.Row) (*domain.Device, error) {
	var device domain.Device
	var state string
	err := row.Scan(
		&device.ID,
		&device.Serial,
		&device.Name,
		&device.Model,
		&device.AndroidVersion,
		&device.Passcode,
		&state,
		&device.LastSeenAt,
		&device.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	device.State = domain.ParseDeviceState(state)
	return &device, nil
}
