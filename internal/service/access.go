// Package service holds the domain core of the edge service: device
// authentication, the check-in/check-out toggle, equipment session
// tracking, heart-rate validation and the outbound activity mirrors.
// Services accept narrow store interfaces so tests can substitute
// fakes; the concrete repositories satisfy them.
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/pumpup/gym-edge/internal/model"
	"github.com/pumpup/gym-edge/internal/repository"
)

// DeviceStore is the lookup surface device authentication needs.
type DeviceStore interface {
	FindByIDAndKey(ctx context.Context, deviceID, apiKey string) (model.Device, error)
}

// MemberStore resolves members by NFC UID (scan path) or numeric id
// (everything else).
type MemberStore interface {
	GetByNFCUID(ctx context.Context, nfcUID string) (model.Member, error)
	GetByID(ctx context.Context, id uint64) (model.Member, error)
}

// CheckInStore is the persistence surface of the scan toggle.  The Tx
// methods participate in the caller's transaction; FindActiveByMemberTx
// locks the member's active row.
type CheckInStore interface {
	FindActiveByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (model.CheckIn, error)
	CreateTx(ctx context.Context, tx *sql.Tx, c *model.CheckIn) error
	CloseTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error
	CountActiveTx(ctx context.Context, tx *sql.Tx) (int, error)
	CountActive(ctx context.Context) (int, error)
	HasActiveByMember(ctx context.Context, memberID uint64) (bool, error)
}

// AuthService authenticates reader devices.
type AuthService struct {
	devices DeviceStore
}

func NewAuthService(devices DeviceStore) *AuthService {
	return &AuthService{devices: devices}
}

// Authenticate reports whether the device_id/api_key pair matches a
// provisioned device.  Unknown device and wrong key are the same
// failure.
func (s *AuthService) Authenticate(ctx context.Context, deviceID, apiKey string) (bool, error) {
	_, err := s.devices.FindByIDAndKey(ctx, deviceID, apiKey)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Scan actions reported to readers.
const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
	ActionDenied   = "denied"
)

// Denial reasons, checked in this order for members attempting entry.
const (
	ReasonMemberNotFound      = "Member not found"
	ReasonMembershipSuspended = "Membership suspended"
	ReasonMembershipNotActive = "Membership not active"
	ReasonMembershipExpired   = "Membership expired"
)

// ScanResult is the outcome of one NFC scan.  Success false carries a
// denial Reason and no state change happened; success true carries the
// toggled check-in record fields plus the post-update occupancy.
type ScanResult struct {
	Success      bool
	Action       string
	Reason       string
	MemberID     uint64
	MemberName   string
	NFCUID       string
	CheckInID    uint64
	CheckInTime  time.Time
	CheckOutTime *time.Time
	Occupancy    int
}

// AccessService implements the check-in/check-out toggle.
type AccessService struct {
	db       *sql.DB
	members  MemberStore
	checkIns CheckInStore
}

func NewAccessService(db *sql.DB, members MemberStore, checkIns CheckInStore) *AccessService {
	return &AccessService{db: db, members: members, checkIns: checkIns}
}

// validateEntry checks membership eligibility in strict order and
// returns the first matching denial reason.  Eligibility gates entry
// only: members already inside may always check out.
func validateEntry(m model.Member, now time.Time) (bool, string) {
	if m.MembershipStatus == model.MembershipSuspended {
		return false, ReasonMembershipSuspended
	}
	if m.MembershipStatus != model.MembershipActive {
		return false, ReasonMembershipNotActive
	}
	if !m.IsMembershipActive(now) {
		return false, ReasonMembershipExpired
	}
	return true, ""
}

// ProcessScan resolves the member behind an NFC UID and toggles their
// presence.  The active-check-in lookup, the toggle write and the
// occupancy count run inside one transaction with the member's active
// row locked, so concurrent scans from two readers serialize instead
// of racing the read-decide-write sequence.
func (s *AccessService) ProcessScan(ctx context.Context, nfcUID string) (ScanResult, error) {
	member, err := s.members.GetByNFCUID(ctx, nfcUID)
	if err == repository.ErrMemberNotFound {
		return ScanResult{Action: ActionDenied, Reason: ReasonMemberNotFound, NFCUID: nfcUID}, nil
	}
	if err != nil {
		return ScanResult{}, err
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ScanResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	active, err := s.checkIns.FindActiveByMemberTx(ctx, tx, member.ID)
	switch err {
	case nil:
		// Member is inside: this scan is a check-out, permitted
		// regardless of current membership validity.
		if err := s.checkIns.CloseTx(ctx, tx, active.ID, now); err != nil {
			return ScanResult{}, err
		}
		occupancy, err := s.checkIns.CountActiveTx(ctx, tx)
		if err != nil {
			return ScanResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return ScanResult{}, err
		}
		committed = true
		out := now
		return ScanResult{
			Success:      true,
			Action:       ActionCheckOut,
			MemberID:     member.ID,
			MemberName:   member.Name,
			NFCUID:       member.NFCUID,
			CheckInID:    active.ID,
			CheckInTime:  active.CheckInTime,
			CheckOutTime: &out,
			Occupancy:    occupancy,
		}, nil

	case repository.ErrNoActiveCheckIn:
		if ok, reason := validateEntry(member, now); !ok {
			return ScanResult{
				Action:     ActionDenied,
				Reason:     reason,
				MemberID:   member.ID,
				MemberName: member.Name,
				NFCUID:     member.NFCUID,
			}, nil
		}
		c := model.CheckIn{MemberID: member.ID, NFCUID: member.NFCUID, CheckInTime: now}
		if err := s.checkIns.CreateTx(ctx, tx, &c); err != nil {
			return ScanResult{}, err
		}
		occupancy, err := s.checkIns.CountActiveTx(ctx, tx)
		if err != nil {
			return ScanResult{}, err
		}
		if err := tx.Commit(); err != nil {
			return ScanResult{}, err
		}
		committed = true
		return ScanResult{
			Success:     true,
			Action:      ActionCheckIn,
			MemberID:    member.ID,
			MemberName:  member.Name,
			NFCUID:      member.NFCUID,
			CheckInID:   c.ID,
			CheckInTime: c.CheckInTime,
			Occupancy:   occupancy,
		}, nil

	default:
		return ScanResult{}, err
	}
}

// Occupancy returns the number of members currently inside.
func (s *AccessService) Occupancy(ctx context.Context) (int, error) {
	return s.checkIns.CountActive(ctx)
}
