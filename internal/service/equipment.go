package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pumpup/gym-edge/internal/model"
	"github.com/pumpup/gym-edge/internal/repository"
)

// ErrMemberNotCheckedIn is returned when a session is requested for a
// member who does not exist or is not currently inside the gym.  The
// two cases deliberately share one reason.
var ErrMemberNotCheckedIn = errors.New("Member not checked in to gym")

// ActiveSessionError rejects a session start while another session is
// still open.  It carries the open session's id so the reader can
// surface it.
type ActiveSessionError struct {
	SessionID uint64
}

func (e *ActiveSessionError) Error() string {
	return fmt.Sprintf("Member already has an active equipment session (id=%d)", e.SessionID)
}

// EquipmentStore is the lookup surface session tracking needs.
type EquipmentStore interface {
	GetByID(ctx context.Context, id uint64) (model.Equipment, error)
}

// SessionStore is the persistence surface of equipment sessions.  The
// Tx methods participate in the caller's transaction;
// FindActiveByMemberTx locks the member's active row.
type SessionStore interface {
	FindActiveByMemberTx(ctx context.Context, tx *sql.Tx, memberID uint64) (model.EquipmentSession, error)
	CreateTx(ctx context.Context, tx *sql.Tx, s *model.EquipmentSession) error
	CloseTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error
	GetByID(ctx context.Context, id uint64) (model.EquipmentSession, error)
}

// SessionService starts and ends equipment usage sessions, enforcing
// one active session per member.
type SessionService struct {
	db        *sql.DB
	members   MemberStore
	checkIns  CheckInStore
	equipment EquipmentStore
	sessions  SessionStore
}

func NewSessionService(db *sql.DB, members MemberStore, checkIns CheckInStore, equipment EquipmentStore, sessions SessionStore) *SessionService {
	return &SessionService{db: db, members: members, checkIns: checkIns, equipment: equipment, sessions: sessions}
}

// StartSession opens a session for a member on a machine.  The member
// must exist and be checked in, the equipment must exist, and the
// member must not already have an open session.  The duplicate check
// and the insert run in one transaction with the member's active
// session row locked.
func (s *SessionService) StartSession(ctx context.Context, memberID, equipmentID uint64) (model.EquipmentSession, error) {
	if _, err := s.members.GetByID(ctx, memberID); err != nil {
		if err == repository.ErrMemberNotFound {
			return model.EquipmentSession{}, ErrMemberNotCheckedIn
		}
		return model.EquipmentSession{}, err
	}
	inside, err := s.checkIns.HasActiveByMember(ctx, memberID)
	if err != nil {
		return model.EquipmentSession{}, err
	}
	if !inside {
		return model.EquipmentSession{}, ErrMemberNotCheckedIn
	}
	if _, err := s.equipment.GetByID(ctx, equipmentID); err != nil {
		return model.EquipmentSession{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.EquipmentSession{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if active, err := s.sessions.FindActiveByMemberTx(ctx, tx, memberID); err == nil {
		return model.EquipmentSession{}, &ActiveSessionError{SessionID: active.ID}
	} else if err != repository.ErrNoActiveSession {
		return model.EquipmentSession{}, err
	}

	session := model.EquipmentSession{
		MemberID:    memberID,
		EquipmentID: equipmentID,
		StartTime:   time.Now().UTC(),
	}
	if err := s.sessions.CreateTx(ctx, tx, &session); err != nil {
		return model.EquipmentSession{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.EquipmentSession{}, err
	}
	committed = true
	return session, nil
}

// EndSession closes the member's active session and returns the
// updated record.  repository.ErrNoActiveSession is passed through
// when there is nothing to close.
func (s *SessionService) EndSession(ctx context.Context, memberID uint64) (model.EquipmentSession, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.EquipmentSession{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	active, err := s.sessions.FindActiveByMemberTx(ctx, tx, memberID)
	if err != nil {
		return model.EquipmentSession{}, err
	}
	now := time.Now().UTC()
	if err := s.sessions.CloseTx(ctx, tx, active.ID, now); err != nil {
		return model.EquipmentSession{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.EquipmentSession{}, err
	}
	committed = true
	active.EndTime = &now
	return active, nil
}
