package model

import "time"

// EquipmentSession records a member's usage of one machine.  A session
// is opened by the session/start endpoint and closed exactly once by
// session/end.  At most one active session may exist per member.
//
// Fields:
//  ID          – primary key identifier.
//  MemberID    – member using the equipment.
//  EquipmentID – equipment being used.
//  StartTime   – session start timestamp.
//  EndTime     – session end timestamp (nil while ongoing).
//  CreatedAt   – record creation timestamp.
type EquipmentSession struct {
	ID          uint64     // equipment_sessions.id
	MemberID    uint64     // equipment_sessions.member_id
	EquipmentID uint64     // equipment_sessions.equipment_id
	StartTime   time.Time  // equipment_sessions.start_time
	EndTime     *time.Time // equipment_sessions.end_time (nullable)
	CreatedAt   time.Time  // equipment_sessions.created_at
}

// IsActive reports whether the session is still ongoing.
func (s EquipmentSession) IsActive() bool { return s.EndTime == nil }
