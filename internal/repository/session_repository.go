package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pumpup/gym-edge/internal/model"
)

// ErrNoActiveSession indicates the member has no ongoing equipment
// session.
var ErrNoActiveSession = errors.New("no active session")

// ErrSessionNotFound indicates the referenced session row does not
// exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepo manages persistence for equipment usage sessions.  A
// session is active while end_time IS NULL; the service layer
// guarantees at most one active session per member by locking the
// member's active row inside the start/end transaction.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying sql.DB for transaction control.
func (r *SessionRepo) DB() *sql.DB { return r.db }

const sessionColumns = "id, member_id, equipment_id, start_time, end_time, created_at"

func scanSession(row *sql.Row) (model.EquipmentSession, error) {
	var (
		s   model.EquipmentSession
		end sql.NullTime
	)
	err := row.Scan(&s.ID, &s.MemberID, &s.EquipmentID, &s.StartTime, &end, &s.CreatedAt)
	if err != nil {
		return model.EquipmentSession{}, err
	}
	if end.Valid {
		t := end.Time
		s.EndTime = &t
	}
	return s, nil
}

// FindActiveByMemberTx returns the member's active session within the
// provided transaction, locking the row so concurrent start/end calls
// for the same member serialize.  ErrNoActiveSession is returned when
// none exists.
func (r *SessionRepo) FindActiveByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (model.EquipmentSession, error) {
	s, err := scanSession(tx.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM equipment_sessions WHERE member_id=? AND end_time IS NULL LIMIT 1 FOR UPDATE",
		memberID))
	if err == sql.ErrNoRows {
		return model.EquipmentSession{}, ErrNoActiveSession
	}
	return s, err
}

// CreateTx inserts a new session within the provided transaction and
// populates the generated ID.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.EquipmentSession) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO equipment_sessions (member_id, equipment_id, start_time) VALUES (?,?,?)",
		s.MemberID, s.EquipmentID, s.StartTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// CloseTx stamps the end time on an open session row.
func (r *SessionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE equipment_sessions SET end_time=? WHERE id=? AND end_time IS NULL",
		at, id)
	return err
}

// GetByID fetches a session by id regardless of its state, returning
// ErrSessionNotFound when it does not exist.  Used by heart-rate
// recording to validate the optional session linkage.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.EquipmentSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM equipment_sessions WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.EquipmentSession{}, ErrSessionNotFound
	}
	return s, err
}
