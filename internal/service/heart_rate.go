package service

import (
	"context"
	"errors"
	"time"

	"github.com/pumpup/gym-edge/internal/model"
)

// ValidationError marks a request that failed input validation.
// Handlers translate every ValidationError into a 400 regardless of
// the message variant.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// The two BPM validation variants: same kind, distinct messages.
var (
	ErrBPMFormat = &ValidationError{Msg: "Invalid BPM format"}
	ErrBPMRange  = &ValidationError{Msg: "Invalid BPM value: must be between 30 and 220"}
)

// Session linkage failures for heart-rate samples.
var (
	ErrSessionEnded          = errors.New("Session has ended")
	ErrSessionMemberMismatch = errors.New("Member ID does not match session")
)

// HeartRateStore appends validated samples.
type HeartRateStore interface {
	Create(ctx context.Context, rec *model.HeartRateRecord) error
}

// HeartRateService validates and stores BPM samples.
type HeartRateService struct {
	members  MemberStore
	sessions SessionStore
	records  HeartRateStore
}

func NewHeartRateService(members MemberStore, sessions SessionStore, records HeartRateStore) *HeartRateService {
	return &HeartRateService{members: members, sessions: sessions, records: records}
}

// Record validates a sample and persists it.  BPM must lie within
// [model.MinBPM, model.MaxBPM] inclusive.  When sessionID is given the
// session must exist, still be active and belong to the member.  A nil
// measuredAt defaults to now.
func (s *HeartRateService) Record(ctx context.Context, memberID uint64, bpm float64, sessionID *uint64, measuredAt *time.Time) (model.HeartRateRecord, error) {
	if bpm < model.MinBPM || bpm > model.MaxBPM {
		return model.HeartRateRecord{}, ErrBPMRange
	}
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		return model.HeartRateRecord{}, err
	}
	if sessionID != nil {
		session, err := s.sessions.GetByID(ctx, *sessionID)
		if err != nil {
			return model.HeartRateRecord{}, err
		}
		if !session.IsActive() {
			return model.HeartRateRecord{}, ErrSessionEnded
		}
		if session.MemberID != memberID {
			return model.HeartRateRecord{}, ErrSessionMemberMismatch
		}
	}
	at := time.Now().UTC()
	if measuredAt != nil {
		at = measuredAt.UTC()
	}
	rec := model.HeartRateRecord{
		MemberID:   memberID,
		SessionID:  sessionID,
		BPM:        bpm,
		MeasuredAt: at,
	}
	if err := s.records.Create(ctx, &rec); err != nil {
		return model.HeartRateRecord{}, err
	}
	return rec, nil
}
