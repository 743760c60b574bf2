package model

import "time"

// BPM bounds accepted by the heart-rate endpoint, inclusive.
const (
	MinBPM = 30.0
	MaxBPM = 220.0
)

// HeartRateRecord stores a single heart-rate sample for a member.
// The session linkage is optional: readers may report samples outside
// of an equipment session.
//
// Fields:
//  ID         – primary key identifier.
//  MemberID   – member the sample belongs to.
//  SessionID  – equipment session during which it was taken (nullable).
//  BPM        – beats per minute, within [MinBPM, MaxBPM].
//  MeasuredAt – when the sample was taken.
//  CreatedAt  – record creation timestamp.
type HeartRateRecord struct {
	ID         uint64     // heart_rate_records.id
	MemberID   uint64     // heart_rate_records.member_id
	SessionID  *uint64    // heart_rate_records.session_id (nullable)
	BPM        float64    // heart_rate_records.bpm
	MeasuredAt time.Time  // heart_rate_records.measured_at
	CreatedAt  time.Time  // heart_rate_records.created_at
}
