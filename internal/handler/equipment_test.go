package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpup/gym-edge/internal/config"
	"github.com/pumpup/gym-edge/internal/repository"
	"github.com/pumpup/gym-edge/internal/service"
)

func newEquipmentHandler(t *testing.T, cfg config.Config) (*EquipmentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	devices := repository.NewDeviceRepo(db)
	members := repository.NewMemberRepo(db)
	checkIns := repository.NewCheckInRepo(db)
	equipment := repository.NewEquipmentRepo(db)
	sessions := repository.NewSessionRepo(db)
	heartRates := repository.NewHeartRateRepo(db)

	auth := service.NewAuthService(devices)
	sessionSvc := service.NewSessionService(db, members, checkIns, equipment, sessions)
	hr := service.NewHeartRateService(members, sessions, heartRates)
	fwd := service.NewForwarder("", "")
	return NewEquipmentHandler(cfg, auth, sessionSvc, hr, fwd), mock
}

var sessionCols = []string{"id", "member_id", "equipment_id", "start_time", "end_time", "created_at"}

func TestStartSessionHandler(t *testing.T) {
	h, mock := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM members WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow(1, "04A1B2C3", "Jordan Blake", "jordan@example.com", "active", now.Add(24*time.Hour), now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM check_ins WHERE member_id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM equipment WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "equipment_type", "created_at"}).
			AddRow(5, "Treadmill 1", "treadmill", now))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM equipment_sessions WHERE member_id=.+FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(sessionCols))
	mock.ExpectExec("INSERT INTO equipment_sessions").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/session/start",
		`{"member_id":1,"equipment_id":5}`, nil)
	require.NoError(t, h.StartSession(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(11), body["session_id"])
	assert.Equal(t, float64(1), body["member_id"])
	assert.Equal(t, float64(5), body["equipment_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartSessionHandlerNotCheckedIn(t *testing.T) {
	h, mock := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM members WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow(1, "04A1B2C3", "Jordan Blake", "jordan@example.com", "active", now.Add(24*time.Hour), now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM check_ins WHERE member_id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/session/start",
		`{"member_id":1,"equipment_id":5}`, nil)
	require.NoError(t, h.StartSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Member not checked in to gym", decodeBody(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartSessionHandlerAlreadyActive(t *testing.T) {
	h, mock := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM members WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow(1, "04A1B2C3", "Jordan Blake", "jordan@example.com", "active", now.Add(24*time.Hour), now))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM check_ins WHERE member_id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM equipment WHERE id=").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "equipment_type", "created_at"}).
			AddRow(5, "Treadmill 1", "treadmill", now))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM equipment_sessions WHERE member_id=.+FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(sessionCols).AddRow(33, 1, 5, now.Add(-time.Hour), nil, now))
	mock.ExpectRollback()

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/session/start",
		`{"member_id":1,"equipment_id":5}`, nil)
	require.NoError(t, h.StartSession(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Member already has an active equipment session", body["error"])
	assert.Equal(t, float64(33), body["active_session_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndSessionHandlerNoActive(t *testing.T) {
	h, mock := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM equipment_sessions WHERE member_id=.+FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(sessionCols))
	mock.ExpectRollback()

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/session/end", `{"member_id":1}`, nil)
	require.NoError(t, h.EndSession(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No active session found for member", decodeBody(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordHeartRateHandlerBadFormat(t *testing.T) {
	h, _ := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})
	e := echo.New()

	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/heart-rate",
		`{"member_id":1,"bpm":"fast"}`, nil)
	require.NoError(t, h.RecordHeartRate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid BPM format", decodeBody(t, rec)["error"])
}

func TestRecordHeartRateHandlerOutOfRange(t *testing.T) {
	h, _ := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})
	e := echo.New()

	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/heart-rate",
		`{"member_id":1,"bpm":250}`, nil)
	require.NoError(t, h.RecordHeartRate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid BPM value: must be between 30 and 220", decodeBody(t, rec)["error"])
}

func TestRecordHeartRateHandler(t *testing.T) {
	h, mock := newEquipmentHandler(t, config.Config{DeviceAuthDisabled: true})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM members WHERE id=").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow(1, "04A1B2C3", "Jordan Blake", "jordan@example.com", "active", now.Add(24*time.Hour), now))
	mock.ExpectExec("INSERT INTO heart_rate_records").
		WillReturnResult(sqlmock.NewResult(21, 1))

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/equipment/heart-rate",
		`{"member_id":1,"bpm":"142.5"}`, nil)
	require.NoError(t, h.RecordHeartRate(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(21), body["record_id"])
	assert.Equal(t, 142.5, body["bpm"])
	assert.Equal(t, false, body["forwarded"])
	assert.NotContains(t, body, "session_id")
	assert.NoError(t, mock.ExpectationsWereMet())
}
