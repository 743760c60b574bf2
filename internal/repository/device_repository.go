// Package repository contains the data access layer of the edge
// service.  Each repository wraps a *sql.DB (or participates in a
// caller-provided transaction) and exposes the narrow set of queries
// the domain services need.  Sentinel errors let handlers translate
// failures into HTTP responses without string matching.
package repository

import (
	"context"
	"database/sql"

	"github.com/pumpup/gym-edge/internal/model"
)

// DeviceRepo reads provisioned reader devices from the 'devices'
// table.  Devices are written out of band; the service only ever
// looks them up to authenticate requests.
type DeviceRepo struct{ DB *sql.DB }

func NewDeviceRepo(db *sql.DB) *DeviceRepo { return &DeviceRepo{DB: db} }

// FindByIDAndKey returns the device matching both device_id and
// api_key exactly.  sql.ErrNoRows is returned for an unknown device
// and for a wrong key alike; callers must not distinguish the two.
func (r *DeviceRepo) FindByIDAndKey(ctx context.Context, deviceID, apiKey string) (model.Device, error) {
	var d model.Device
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, device_id, api_key, created_at FROM devices WHERE device_id=? AND api_key=? LIMIT 1",
		deviceID, apiKey).Scan(&d.ID, &d.DeviceID, &d.APIKey, &d.CreatedAt)
	return d, err
}
