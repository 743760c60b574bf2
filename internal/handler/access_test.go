package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func newAccessHandler(t *testing.T, cfg config.Config) (*AccessHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	devices := repository.NewDeviceRepo(db)
	members := repository.NewMemberRepo(db)
	checkIns := repository.NewCheckInRepo(db)

	auth := service.NewAuthService(devices)
	access := service.NewAccessService(db, members, checkIns)
	fwd := service.NewForwarder("", "")
	return NewAccessHandler(cfg, auth, access, fwd), mock
}

func doJSON(e *echo.Echo, method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return rec, e.NewContext(req, rec)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var memberCols = []string{"id", "nfc_uid", "name", "email", "membership_status", "membership_expiry", "created_at"}

func TestNFCScanMissingCredentials(t *testing.T) {
	h, _ := newAccessHandler(t, config.Config{})
	e := echo.New()

	rec, c := doJSON(e, http.MethodPost, "/v1/access/nfc-scan", `{"nfc_uid":"04A1B2C3"}`, nil)
	require.NoError(t, h.NFCScan(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing device_id or X-API-Key", decodeBody(t, rec)["error"])
}

func TestNFCScanInvalidDevice(t *testing.T) {
	h, mock := newAccessHandler(t, config.Config{})
	mock.ExpectQuery("SELECT .+ FROM devices WHERE device_id=").
		WithArgs("door-1", "wrong-key").
		WillReturnError(sql.ErrNoRows)

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/access/nfc-scan",
		`{"device_id":"door-1","nfc_uid":"04A1B2C3"}`,
		map[string]string{"X-API-Key": "wrong-key"})
	require.NoError(t, h.NFCScan(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid device_id or API key", decodeBody(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNFCScanMissingUID(t *testing.T) {
	h, _ := newAccessHandler(t, config.Config{DeviceAuthDisabled: true})
	e := echo.New()

	rec, c := doJSON(e, http.MethodPost, "/v1/access/nfc-scan", `{}`, nil)
	require.NoError(t, h.NFCScan(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required field: nfc_uid", decodeBody(t, rec)["error"])
}

func TestNFCScanUnknownCard(t *testing.T) {
	h, mock := newAccessHandler(t, config.Config{DeviceAuthDisabled: true})
	mock.ExpectQuery("SELECT .+ FROM members WHERE nfc_uid=").
		WithArgs("DEADBEEF").
		WillReturnRows(sqlmock.NewRows(memberCols))

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/access/nfc-scan", `{"nfc_uid":"DEADBEEF"}`, nil)
	require.NoError(t, h.NFCScan(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "denied", body["action"])
	assert.Equal(t, "Member not found", body["reason"])
	assert.Equal(t, "DEADBEEF", body["nfc_uid"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNFCScanCheckInSuccess(t *testing.T) {
	h, mock := newAccessHandler(t, config.Config{DeviceAuthDisabled: true})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM members WHERE nfc_uid=").
		WithArgs("04A1B2C3").
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow(1, "04A1B2C3", "Jordan Blake", "jordan@example.com", "active", now.Add(24*time.Hour), now))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE member_id=.+FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "nfc_uid", "check_in_time", "check_out_time", "created_at"}))
	mock.ExpectExec("INSERT INTO check_ins").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM check_ins").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectCommit()

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/access/nfc-scan", `{"nfc_uid":"04a1b2c3"}`, nil)
	require.NoError(t, h.NFCScan(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "check_in", body["action"])
	assert.Equal(t, float64(1), body["member_id"])
	assert.Equal(t, "Jordan Blake", body["member_name"])
	assert.Equal(t, float64(7), body["check_in_id"])
	assert.Equal(t, float64(1), body["current_occupancy"])
	assert.Equal(t, false, body["forwarded"])
	assert.NotContains(t, body, "check_out_time")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNFCScanSuspendedDenied(t *testing.T) {
	h, mock := newAccessHandler(t, config.Config{DeviceAuthDisabled: true})
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM members WHERE nfc_uid=").
		WithArgs("04FFEE11").
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow(2, "04FFEE11", "Sam Reyes", "sam@example.com", "suspended", now.Add(24*time.Hour), now))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM check_ins WHERE member_id=.+FOR UPDATE").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "nfc_uid", "check_in_time", "check_out_time", "created_at"}))
	mock.ExpectRollback()

	e := echo.New()
	rec, c := doJSON(e, http.MethodPost, "/v1/access/nfc-scan", `{"nfc_uid":"04FFEE11"}`, nil)
	require.NoError(t, h.NFCScan(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Membership suspended", body["reason"])
	assert.Equal(t, float64(2), body["member_id"])
	assert.Equal(t, "Sam Reyes", body["member_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRequiresAPIKey(t *testing.T) {
	h, _ := newAccessHandler(t, config.Config{})
	e := echo.New()

	rec, c := doJSON(e, http.MethodGet, "/v1/access/occupancy", "", nil)
	require.NoError(t, h.Occupancy(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing X-API-Key header", decodeBody(t, rec)["error"])
}

func TestOccupancy(t *testing.T) {
	h, mock := newAccessHandler(t, config.Config{DeviceAuthDisabled: true})
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM check_ins WHERE check_out_time IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	e := echo.New()
	rec, c := doJSON(e, http.MethodGet, "/v1/access/occupancy", "", nil)
	require.NoError(t, h.Occupancy(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(4), body["current_occupancy"])
	assert.NotEmpty(t, body["timestamp"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
