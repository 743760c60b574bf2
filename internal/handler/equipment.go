package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pumpup/gym-edge/internal/config"
	"github.com/pumpup/gym-edge/internal/queue"
	"github.com/pumpup/gym-edge/internal/repository"
	"github.com/pumpup/gym-edge/internal/service"
)

// EquipmentHandler bundles dependencies for the machine-side
// endpoints: session start/end and heart-rate recording.
type EquipmentHandler struct {
	Cfg       config.Config
	Auth      *service.AuthService
	Sessions  *service.SessionService
	HeartRate *service.HeartRateService
	Forwarder *service.Forwarder
}

func NewEquipmentHandler(cfg config.Config, auth *service.AuthService, sessions *service.SessionService, hr *service.HeartRateService, fwd *service.Forwarder) *EquipmentHandler {
	return &EquipmentHandler{Cfg: cfg, Auth: auth, Sessions: sessions, HeartRate: hr, Forwarder: fwd}
}

type startSessionReq struct {
	DeviceID    string `json:"device_id"`
	MemberID    uint64 `json:"member_id"`
	EquipmentID uint64 `json:"equipment_id"`
}

// StartSession handles POST /v1/equipment/session/start.
func (h *EquipmentHandler) StartSession(c echo.Context) error {
	var req startSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if ok, resp := authenticateDevice(c, h.Cfg, h.Auth, req.DeviceID); !ok {
		return resp
	}
	if req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: member_id"})
	}
	if req.EquipmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: equipment_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Sessions.StartSession(ctx, req.MemberID, req.EquipmentID)
	if err != nil {
		var active *service.ActiveSessionError
		switch {
		case errors.As(err, &active):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success":           false,
				"error":             "Member already has an active equipment session",
				"active_session_id": active.SessionID,
			})
		case err == service.ErrMemberNotCheckedIn:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Member not checked in to gym"})
		case err == repository.ErrEquipmentNotFound:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Equipment not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal error: " + err.Error()})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":      true,
		"session_id":   session.ID,
		"member_id":    session.MemberID,
		"equipment_id": session.EquipmentID,
		"start_time":   session.StartTime.Format(time.RFC3339),
	})
}

type endSessionReq struct {
	DeviceID string `json:"device_id"`
	MemberID uint64 `json:"member_id"`
}

// EndSession handles POST /v1/equipment/session/end.  A member with no
// open session yields 404.
func (h *EquipmentHandler) EndSession(c echo.Context) error {
	var req endSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if ok, resp := authenticateDevice(c, h.Cfg, h.Auth, req.DeviceID); !ok {
		return resp
	}
	if req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: member_id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Sessions.EndSession(ctx, req.MemberID)
	if err != nil {
		if err == repository.ErrNoActiveSession {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "No active session found for member"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal error: " + err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":      true,
		"session_id":   session.ID,
		"member_id":    session.MemberID,
		"equipment_id": session.EquipmentID,
		"start_time":   session.StartTime.Format(time.RFC3339),
		"end_time":     session.EndTime.Format(time.RFC3339),
	})
}

type heartRateReq struct {
	DeviceID   string     `json:"device_id"`
	MemberID   uint64     `json:"member_id"`
	SessionID  *uint64    `json:"session_id"`
	BPM        any        `json:"bpm"`
	MeasuredAt *time.Time `json:"measured_at"`
}

// parseBPM accepts the numeric representations reader firmwares send:
// JSON numbers and numeric strings.  Anything else is a format error.
func parseBPM(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// RecordHeartRate handles POST /v1/equipment/heart-rate.  BPM must be
// numeric and within range; an optional session_id ties the sample to
// an active session of the same member.
func (h *EquipmentHandler) RecordHeartRate(c echo.Context) error {
	var req heartRateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if ok, resp := authenticateDevice(c, h.Cfg, h.Auth, req.DeviceID); !ok {
		return resp
	}
	if req.MemberID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: member_id"})
	}
	if req.BPM == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: bpm"})
	}
	bpm, ok := parseBPM(req.BPM)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": service.ErrBPMFormat.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.HeartRate.Record(ctx, req.MemberID, bpm, req.SessionID, req.MeasuredAt)
	if err != nil {
		var invalid *service.ValidationError
		switch {
		case errors.As(err, &invalid):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": invalid.Msg})
		case err == repository.ErrMemberNotFound:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Member not found"})
		case err == repository.ErrSessionNotFound:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Session not found"})
		case err == service.ErrSessionEnded:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Session has ended"})
		case err == service.ErrSessionMemberMismatch:
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "Member ID does not match session"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal error: " + err.Error()})
		}
	}

	forwarded := h.mirrorHeartRate(rec.MemberID, rec.SessionID, rec.BPM, rec.MeasuredAt)

	body := echo.Map{
		"success":     true,
		"record_id":   rec.ID,
		"member_id":   rec.MemberID,
		"bpm":         rec.BPM,
		"measured_at": rec.MeasuredAt.Format(time.RFC3339),
		"forwarded":   forwarded,
	}
	if rec.SessionID != nil {
		body["session_id"] = *rec.SessionID
	}
	return c.JSON(http.StatusCreated, body)
}

func (h *EquipmentHandler) mirrorHeartRate(memberID uint64, sessionID *uint64, bpm float64, at time.Time) bool {
	ev := queue.ActivityEvent{
		Kind:       queue.KindHeartRate,
		MemberID:   memberID,
		SessionID:  sessionID,
		BPM:        bpm,
		OccurredAt: at,
	}
	if h.Cfg.EventsEnabled {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = service.PublishActivity(ctx, ev)
		}()
	}
	return h.Forwarder.Forward(ev)
}
