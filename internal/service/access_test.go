package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpup/gym-edge/internal/model"
	"github.com/pumpup/gym-edge/internal/repository"
)

// fakeMemberStore serves members out of memory.
type fakeMemberStore struct {
	members []model.Member
}

func (f *fakeMemberStore) GetByNFCUID(_ context.Context, nfcUID string) (model.Member, error) {
	uid := strings.ToUpper(strings.TrimSpace(nfcUID))
	for _, m := range f.members {
		if m.NFCUID == uid {
			return m, nil
		}
	}
	return model.Member{}, repository.ErrMemberNotFound
}

func (f *fakeMemberStore) GetByID(_ context.Context, id uint64) (model.Member, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Member{}, repository.ErrMemberNotFound
}

// fakeCheckInStore keeps the open check-ins in a map.  The tx argument
// is ignored; transaction bracketing is asserted via sqlmock.
type fakeCheckInStore struct {
	nextID uint64
	active map[uint64]*model.CheckIn // keyed by member id
}

func newFakeCheckInStore() *fakeCheckInStore {
	return &fakeCheckInStore{active: map[uint64]*model.CheckIn{}}
}

func (f *fakeCheckInStore) FindActiveByMemberTx(_ context.Context, _ *sql.Tx, memberID uint64) (model.CheckIn, error) {
	if c, ok := f.active[memberID]; ok {
		return *c, nil
	}
	return model.CheckIn{}, repository.ErrNoActiveCheckIn
}

func (f *fakeCheckInStore) CreateTx(_ context.Context, _ *sql.Tx, c *model.CheckIn) error {
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.active[c.MemberID] = &cp
	return nil
}

func (f *fakeCheckInStore) CloseTx(_ context.Context, _ *sql.Tx, id uint64, _ time.Time) error {
	for memberID, c := range f.active {
		if c.ID == id {
			delete(f.active, memberID)
		}
	}
	return nil
}

func (f *fakeCheckInStore) CountActiveTx(_ context.Context, _ *sql.Tx) (int, error) {
	return len(f.active), nil
}

func (f *fakeCheckInStore) CountActive(_ context.Context) (int, error) {
	return len(f.active), nil
}

func (f *fakeCheckInStore) HasActiveByMember(_ context.Context, memberID uint64) (bool, error) {
	_, ok := f.active[memberID]
	return ok, nil
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func activeMember(id uint64, uid string) model.Member {
	return model.Member{
		ID:               id,
		NFCUID:           uid,
		Name:             "Jordan Blake",
		MembershipStatus: model.MembershipActive,
		MembershipExpiry: time.Now().UTC().Add(30 * 24 * time.Hour),
	}
}

func TestProcessScanCheckIn(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	members := &fakeMemberStore{members: []model.Member{activeMember(1, "04A1B2C3")}}
	checkIns := newFakeCheckInStore()
	svc := NewAccessService(db, members, checkIns)

	res, err := svc.ProcessScan(context.Background(), "04a1b2c3")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, ActionCheckIn, res.Action)
	assert.Equal(t, uint64(1), res.MemberID)
	assert.Equal(t, "Jordan Blake", res.MemberName)
	assert.NotZero(t, res.CheckInID)
	assert.Nil(t, res.CheckOutTime)
	assert.Equal(t, 1, res.Occupancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessScanToggle(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectCommit()

	members := &fakeMemberStore{members: []model.Member{activeMember(1, "04A1B2C3")}}
	checkIns := newFakeCheckInStore()
	svc := NewAccessService(db, members, checkIns)

	first, err := svc.ProcessScan(context.Background(), "04A1B2C3")
	require.NoError(t, err)
	require.Equal(t, ActionCheckIn, first.Action)

	second, err := svc.ProcessScan(context.Background(), "04A1B2C3")
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, ActionCheckOut, second.Action)
	assert.Equal(t, first.CheckInID, second.CheckInID)
	require.NotNil(t, second.CheckOutTime)
	assert.Equal(t, 0, second.Occupancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessScanUnknownCard(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewAccessService(db, &fakeMemberStore{}, newFakeCheckInStore())

	res, err := svc.ProcessScan(context.Background(), "DEADBEEF")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, ActionDenied, res.Action)
	assert.Equal(t, ReasonMemberNotFound, res.Reason)
	assert.Zero(t, res.MemberID)
	assert.Equal(t, "DEADBEEF", res.NFCUID)
}

func TestProcessScanDenialReasons(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		name   string
		status string
		expiry time.Time
		reason string
	}{
		{"suspended", model.MembershipSuspended, now.Add(24 * time.Hour), ReasonMembershipSuspended},
		// Suspension wins over an expired date.
		{"suspended and expired", model.MembershipSuspended, now.Add(-24 * time.Hour), ReasonMembershipSuspended},
		{"expired status", model.MembershipExpired, now.Add(24 * time.Hour), ReasonMembershipNotActive},
		{"active but past expiry", model.MembershipActive, now.Add(-time.Minute), ReasonMembershipExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectBegin()
			mock.ExpectRollback()

			members := &fakeMemberStore{members: []model.Member{{
				ID:               7,
				NFCUID:           "04FFEE11",
				Name:             "Sam Reyes",
				MembershipStatus: tc.status,
				MembershipExpiry: tc.expiry,
			}}}
			svc := NewAccessService(db, members, newFakeCheckInStore())

			res, err := svc.ProcessScan(context.Background(), "04FFEE11")
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, ActionDenied, res.Action)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Equal(t, uint64(7), res.MemberID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// A member whose membership lapsed while they were inside must still be
// able to check out.
func TestProcessScanCheckOutIgnoresEligibility(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	expired := model.Member{
		ID:               3,
		NFCUID:           "04AA0011",
		Name:             "Riley Chen",
		MembershipStatus: model.MembershipExpired,
		MembershipExpiry: time.Now().UTC().Add(-time.Hour),
	}
	checkIns := newFakeCheckInStore()
	checkIns.active[3] = &model.CheckIn{ID: 42, MemberID: 3, NFCUID: "04AA0011", CheckInTime: time.Now().UTC().Add(-2 * time.Hour)}

	svc := NewAccessService(db, &fakeMemberStore{members: []model.Member{expired}}, checkIns)

	res, err := svc.ProcessScan(context.Background(), "04AA0011")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, ActionCheckOut, res.Action)
	assert.Equal(t, uint64(42), res.CheckInID)
	assert.Equal(t, 0, res.Occupancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyCountsOpenCheckIns(t *testing.T) {
	db, _ := newMockDB(t)
	checkIns := newFakeCheckInStore()
	checkIns.active[1] = &model.CheckIn{ID: 1, MemberID: 1}
	checkIns.active[2] = &model.CheckIn{ID: 2, MemberID: 2}

	svc := NewAccessService(db, &fakeMemberStore{}, checkIns)
	n, err := svc.Occupancy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
