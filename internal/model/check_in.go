package model

import "time"

// CheckIn records a single visit of a member.  A row is created when
// an eligible member scans in and updated exactly once when the same
// member scans again to check out.  At most one active row may exist
// per member at any time.
//
// Fields:
//  ID           – primary key identifier.
//  MemberID     – member this visit belongs to.
//  NFCUID       – NFC UID presented at check-in.
//  CheckInTime  – when the member entered.
//  CheckOutTime – when the member left (nil while still inside).
//  CreatedAt    – record creation timestamp.
type CheckIn struct {
	ID           uint64     // check_ins.id
	MemberID     uint64     // check_ins.member_id
	NFCUID       string     // check_ins.nfc_uid
	CheckInTime  time.Time  // check_ins.check_in_time
	CheckOutTime *time.Time // check_ins.check_out_time (nullable)
	CreatedAt    time.Time  // check_ins.created_at
}

// IsActive reports whether the member is still inside, i.e. no
// check-out has been stamped yet.
func (c CheckIn) IsActive() bool { return c.CheckOutTime == nil }
