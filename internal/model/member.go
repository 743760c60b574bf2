package model

import "time"

// Membership status values stored in members.membership_status.
const (
	MembershipActive    = "active"
	MembershipExpired   = "expired"
	MembershipSuspended = "suspended"
)

// Member represents a gym member as stored in the `members` table.
// Members are identified at the door by the NFC UID of their card and
// internally by their numeric ID.  The json tags are omitted here
// because these structs are primarily used by the repository layer;
// handlers define separate response types with appropriate JSON tags.
//
// Fields:
//  ID               – primary key identifier of the member.
//  NFCUID           – unique NFC card UID used for access control.
//  Name             – full name of the member.
//  Email            – email address.
//  MembershipStatus – one of active, expired, suspended.
//  MembershipExpiry – expiration timestamp of the membership.
//  CreatedAt        – registration timestamp.
type Member struct {
	ID               uint64    // members.id
	NFCUID           string    // members.nfc_uid
	Name             string    // members.name
	Email            string    // members.email
	MembershipStatus string    // members.membership_status
	MembershipExpiry time.Time // members.membership_expiry
	CreatedAt        time.Time // members.created_at
}

// IsMembershipActive reports whether the member holds a currently valid
// membership: the status must be active and the expiry must lie in the
// future relative to now.
func (m Member) IsMembershipActive(now time.Time) bool {
	return m.MembershipStatus == MembershipActive && now.Before(m.MembershipExpiry)
}
