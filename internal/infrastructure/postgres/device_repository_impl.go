package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/repository"
)

type DeviceRepository struct {
	db DBTX
}

func NewDeviceRepository(db DBTX) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Register(ctx context.Context, d *entity.Device) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO devices (device_id, key)
		VALUES ($1, $2)
		RETURNING created_at
	`, d.DeviceID, d.Key)

	if err := row.Scan(&d.CreatedAt); err != nil {
		return mapErr(err)
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, deviceID string) (*entity.Device, error) {
	d := &entity.Device{}
	row := r.db.QueryRow(ctx, `
		SELECT device_id, key, created_at
		FROM devices
		WHERE device_id = $1
	`, deviceID)

	if err := row.Scan(&d.DeviceID, &d.Key, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

var _ repository.DeviceRepository = (*DeviceRepository)(nil)
