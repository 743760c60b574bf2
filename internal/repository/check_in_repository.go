package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pumpup/gym-edge/internal/model"
)

// ErrNoActiveCheckIn indicates the member has no open check-in row.
var ErrNoActiveCheckIn = errors.New("no active check-in")

// CheckInRepo manages persistence for check-in/check-out records.
// A check-in is active while check_out_time IS NULL; the access
// control service guarantees at most one active row per member by
// running the scan toggle inside a transaction that locks the
// member's active row.
type CheckInRepo struct {
	db *sql.DB
}

func NewCheckInRepo(db *sql.DB) *CheckInRepo { return &CheckInRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *CheckInRepo) DB() *sql.DB { return r.db }

const checkInColumns = "id, member_id, nfc_uid, check_in_time, check_out_time, created_at"

// FindActiveByMemberTx returns the member's active check-in within
// the provided transaction, locking the row (FOR UPDATE) so that a
// concurrent scan for the same member blocks until the toggle
// decision is committed.  ErrNoActiveCheckIn is returned when the
// member is not currently inside.
func (r *CheckInRepo) FindActiveByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (model.CheckIn, error) {
	var (
		c   model.CheckIn
		out sql.NullTime
	)
	err := tx.QueryRowContext(ctx,
		"SELECT "+checkInColumns+" FROM check_ins WHERE member_id=? AND check_out_time IS NULL LIMIT 1 FOR UPDATE",
		memberID).Scan(&c.ID, &c.MemberID, &c.NFCUID, &c.CheckInTime, &out, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return model.CheckIn{}, ErrNoActiveCheckIn
	}
	if err != nil {
		return model.CheckIn{}, err
	}
	if out.Valid {
		t := out.Time
		c.CheckOutTime = &t
	}
	return c, nil
}

// CreateTx inserts a new check-in within the provided transaction and
// populates the generated ID.  The caller must commit or roll back.
func (r *CheckInRepo) CreateTx(ctx context.Context, tx *sql.Tx, c *model.CheckIn) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO check_ins (member_id, nfc_uid, check_in_time) VALUES (?,?,?)",
		c.MemberID, c.NFCUID, c.CheckInTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// CloseTx stamps the check-out time on an open check-in row.
func (r *CheckInRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE check_ins SET check_out_time=? WHERE id=? AND check_out_time IS NULL",
		at, id)
	return err
}

// CountActiveTx counts open check-ins inside the provided transaction
// so the occupancy reported by a scan reflects the toggle that was
// just applied.
func (r *CheckInRepo) CountActiveTx(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM check_ins WHERE check_out_time IS NULL").Scan(&n)
	return n, err
}

// CountActive counts open check-ins.  Always a direct count; the
// occupancy endpoint never caches.
func (r *CheckInRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM check_ins WHERE check_out_time IS NULL").Scan(&n)
	return n, err
}

// HasActiveByMember reports whether the member currently has an open
// check-in.  Used by the equipment session service to refuse sessions
// for members who are not inside.
func (r *CheckInRepo) HasActiveByMember(ctx context.Context, memberID uint64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM check_ins WHERE member_id=? AND check_out_time IS NULL",
		memberID).Scan(&n)
	return n > 0, err
}
