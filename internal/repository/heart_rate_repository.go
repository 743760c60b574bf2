package repository

import (
	"context"
	"database/sql"

	"github.com/pumpup/gym-edge/internal/model"
)

// HeartRateRepo appends heart-rate samples.  Records are never
// updated or deleted.
type HeartRateRepo struct{ DB *sql.DB }

func NewHeartRateRepo(db *sql.DB) *HeartRateRepo { return &HeartRateRepo{DB: db} }

// Create inserts a sample and populates the generated ID.  SessionID
// may be nil for samples taken outside an equipment session.
func (r *HeartRateRepo) Create(ctx context.Context, rec *model.HeartRateRecord) error {
	var sessionID interface{}
	if rec.SessionID != nil {
		sessionID = *rec.SessionID
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO heart_rate_records (member_id, session_id, bpm, measured_at) VALUES (?,?,?,?)",
		rec.MemberID, sessionID, rec.BPM, rec.MeasuredAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}
