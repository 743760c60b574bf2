package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/pumpup/gym-edge/internal/model"
)

// ErrMemberNotFound indicates that a member was not located in the DB.
var ErrMemberNotFound = errors.New("member not found")

// ErrNFCUIDExists indicates a registration attempt with an NFC UID
// that is already bound to another member.
var ErrNFCUIDExists = errors.New("nfc uid already exists")

// MemberRepo manages persistence for gym members.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

const memberColumns = "id, nfc_uid, name, email, membership_status, membership_expiry, created_at"

// Create inserts a member and populates the generated ID.  The NFC
// UID is normalized to upper case so scans match regardless of reader
// casing.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	m.NFCUID = strings.ToUpper(strings.TrimSpace(m.NFCUID))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (nfc_uid, name, email, membership_status, membership_expiry) VALUES (?,?,?,?,?)",
		m.NFCUID, m.Name, m.Email, m.MembershipStatus, m.MembershipExpiry)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrNFCUIDExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByNFCUID fetches a member by the normalized NFC card UID.  It
// returns ErrMemberNotFound when no such card is registered.
func (r *MemberRepo) GetByNFCUID(ctx context.Context, nfcUID string) (model.Member, error) {
	nfcUID = strings.ToUpper(strings.TrimSpace(nfcUID))
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE nfc_uid=? LIMIT 1",
		nfcUID).Scan(&m.ID, &m.NFCUID, &m.Name, &m.Email, &m.MembershipStatus, &m.MembershipExpiry, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// GetByID fetches a member by numeric id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.NFCUID, &m.Name, &m.Email, &m.MembershipStatus, &m.MembershipExpiry, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// List returns all members ordered by id.  Used by the admin surface;
// the single-location dataset is small enough that no paging is
// applied.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+memberColumns+" FROM members ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.NFCUID, &m.Name, &m.Email, &m.MembershipStatus, &m.MembershipExpiry, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
