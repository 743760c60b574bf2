// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ActivityQueueName is the durable queue carrying ActivityEvents.
const ActivityQueueName = "gym.activity"

// Activity kinds mirrored to the broker and the HTTP forwarder.
const (
	KindCheckIn   = "check_in"
	KindCheckOut  = "check_out"
	KindHeartRate = "heart_rate"
)

// ActivityEvent is published whenever a member checks in or out or a
// heart-rate sample is accepted.  It contains enough information for
// downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type ActivityEvent struct {
	Kind       string    `json:"kind"`
	MemberID   uint64    `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	CheckInID  uint64    `json:"check_in_id,omitempty"`
	SessionID  *uint64   `json:"session_id,omitempty"`
	BPM        float64   `json:"bpm,omitempty"`
	Occupancy  int       `json:"occupancy,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
