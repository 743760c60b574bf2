package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pumpup/gym-edge/internal/model"
)

// ErrEquipmentNotFound indicates the referenced equipment row does
// not exist.
var ErrEquipmentNotFound = errors.New("equipment not found")

// EquipmentRepo manages persistence for gym machines.
type EquipmentRepo struct{ DB *sql.DB }

func NewEquipmentRepo(db *sql.DB) *EquipmentRepo { return &EquipmentRepo{DB: db} }

// Create inserts an equipment row and populates the generated ID.
func (r *EquipmentRepo) Create(ctx context.Context, e *model.Equipment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO equipment (name, equipment_type) VALUES (?,?)",
		e.Name, e.EquipmentType)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByID fetches equipment by id, returning ErrEquipmentNotFound
// when it does not exist.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (model.Equipment, error) {
	var e model.Equipment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, equipment_type, created_at FROM equipment WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.Name, &e.EquipmentType, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Equipment{}, ErrEquipmentNotFound
	}
	return e, err
}

// List returns all equipment ordered by id.
func (r *EquipmentRepo) List(ctx context.Context) ([]model.Equipment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, equipment_type, created_at FROM equipment ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Equipment
	for rows.Next() {
		var e model.Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.EquipmentType, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
