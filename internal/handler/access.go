package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pumpup/gym-edge/internal/config"
	"github.com/pumpup/gym-edge/internal/queue"
	"github.com/pumpup/gym-edge/internal/service"
)

// AccessHandler bundles dependencies for the door endpoints: the NFC
// scan toggle and the occupancy count.
type AccessHandler struct {
	Cfg       config.Config
	Auth      *service.AuthService
	Access    *service.AccessService
	Forwarder *service.Forwarder
}

func NewAccessHandler(cfg config.Config, auth *service.AuthService, access *service.AccessService, fwd *service.Forwarder) *AccessHandler {
	return &AccessHandler{Cfg: cfg, Auth: auth, Access: access, Forwarder: fwd}
}

type nfcScanReq struct {
	DeviceID string `json:"device_id"`
	NFCUID   string `json:"nfc_uid"`
}

// NFCScan handles POST /v1/access/nfc-scan.  The scan either checks
// the member in or out depending on their current state.  Denials are
// 403 with a reason; a missing nfc_uid is 400.
func (h *AccessHandler) NFCScan(c echo.Context) error {
	var req nfcScanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if ok, resp := authenticateDevice(c, h.Cfg, h.Auth, req.DeviceID); !ok {
		return resp
	}
	if strings.TrimSpace(req.NFCUID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: nfc_uid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Access.ProcessScan(ctx, req.NFCUID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal error: " + err.Error()})
	}

	if !res.Success {
		body := echo.Map{
			"success": false,
			"action":  res.Action,
			"reason":  res.Reason,
		}
		if res.MemberID != 0 {
			body["member_id"] = res.MemberID
			body["member_name"] = res.MemberName
		} else {
			body["nfc_uid"] = req.NFCUID
		}
		return c.JSON(http.StatusForbidden, body)
	}

	forwarded := h.mirrorScan(res)

	body := echo.Map{
		"success":           true,
		"action":            res.Action,
		"member_id":         res.MemberID,
		"member_name":       res.MemberName,
		"check_in_id":       res.CheckInID,
		"check_in_time":     res.CheckInTime.Format(time.RFC3339),
		"current_occupancy": res.Occupancy,
		"forwarded":         forwarded,
	}
	if res.CheckOutTime != nil {
		body["check_out_time"] = res.CheckOutTime.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, body)
}

// mirrorScan dispatches the scan to the optional outbound collaborators
// and reports whether a forward was dispatched.  Neither path may ever
// affect the primary response.
func (h *AccessHandler) mirrorScan(res service.ScanResult) bool {
	kind := queue.KindCheckIn
	occurred := res.CheckInTime
	if res.Action == service.ActionCheckOut {
		kind = queue.KindCheckOut
		occurred = *res.CheckOutTime
	}
	ev := queue.ActivityEvent{
		Kind:       kind,
		MemberID:   res.MemberID,
		MemberName: res.MemberName,
		CheckInID:  res.CheckInID,
		Occupancy:  res.Occupancy,
		OccurredAt: occurred,
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

// Occupancy handles GET /v1/access/occupancy.  The X-API-Key header is
// always required; the device_id query parameter is optional and only
// validated when present, matching the reader firmware which omits it
// on the lobby display.
func (h *AccessHandler) Occupancy(c echo.Context) error {
	if !h.Cfg.DeviceAuthDisabled {
		apiKey := c.Request().Header.Get("X-API-Key")
		if apiKey == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing X-API-Key header"})
		}
		if deviceID := c.QueryParam("device_id"); deviceID != "" {
			if ok, resp := authenticateDevice(c, h.Cfg, h.Auth, deviceID); !ok {
				return resp
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	count, err := h.Access.Occupancy(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal error: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"current_occupancy": count,
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}
