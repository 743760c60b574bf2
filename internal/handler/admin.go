package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pumpup/gym-edge/internal/model"
	"github.com/pumpup/gym-edge/internal/repository"
)

// AdminHandler exposes the staff-facing registration endpoints for
// members and equipment.  All routes sit behind JWT middleware.
type AdminHandler struct {
	Members   *repository.MemberRepo
	Equipment *repository.EquipmentRepo
}

func NewAdminHandler(m *repository.MemberRepo, e *repository.EquipmentRepo) *AdminHandler {
	return &AdminHandler{Members: m, Equipment: e}
}

// ----- DTOs -----

type createMemberReq struct {
	NFCUID           string `json:"nfc_uid"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	MembershipStatus string `json:"membership_status"`
	MembershipExpiry string `json:"membership_expiry"` // RFC3339
}

type memberResp struct {
	ID               uint64 `json:"id"`
	NFCUID           string `json:"nfc_uid"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	MembershipStatus string `json:"membership_status"`
	MembershipExpiry string `json:"membership_expiry"`
	CreatedAt        string `json:"created_at"`
}

func toMemberResp(m model.Member) memberResp {
	return memberResp{
		ID:               m.ID,
		NFCUID:           m.NFCUID,
		Name:             m.Name,
		Email:            m.Email,
		MembershipStatus: m.MembershipStatus,
		MembershipExpiry: m.MembershipExpiry.Format(time.RFC3339),
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
	}
}

// CreateMember registers a new member with their NFC card.  The status
// must be one of the known membership states and the expiry must be a
// valid RFC3339 timestamp.
func (h *AdminHandler) CreateMember(c echo.Context) error {
	var req createMemberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.NFCUID = strings.TrimSpace(req.NFCUID)
	req.Name = strings.TrimSpace(req.Name)
	if req.NFCUID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: nfc_uid"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: name"})
	}
	status := strings.ToLower(strings.TrimSpace(req.MembershipStatus))
	if status == "" {
		status = model.MembershipActive
	}
	switch status {
	case model.MembershipActive, model.MembershipExpired, model.MembershipSuspended:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid membership_status"})
	}
	expiry, err := time.Parse(time.RFC3339, req.MembershipExpiry)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "membership_expiry must be RFC3339"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := model.Member{
		NFCUID:           req.NFCUID,
		Name:             req.Name,
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		MembershipStatus: status,
		MembershipExpiry: expiry,
	}
	if err := h.Members.Create(ctx, &m); err != nil {
		if err == repository.ErrNFCUIDExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "nfc_uid already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create member failed"})
	}
	m.CreatedAt = time.Now().UTC()
	return c.JSON(http.StatusCreated, toMemberResp(m))
}

// ListMembers returns all registered members.
func (h *AdminHandler) ListMembers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	members, err := h.Members.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list members failed"})
	}
	out := make([]memberResp, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResp(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"members": out})
}

type createEquipmentReq struct {
	Name          string `json:"name"`
	EquipmentType string `json:"equipment_type"`
}

type equipmentResp struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	EquipmentType string `json:"equipment_type"`
	CreatedAt     string `json:"created_at"`
}

// CreateEquipment registers a machine so its sessions can be tracked.
func (h *AdminHandler) CreateEquipment(c echo.Context) error {
	var req createEquipmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing required field: name"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := model.Equipment{Name: req.Name, EquipmentType: strings.TrimSpace(req.EquipmentType)}
	if err := h.Equipment.Create(ctx, &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create equipment failed"})
	}
	e.CreatedAt = time.Now().UTC()
	return c.JSON(http.StatusCreated, equipmentResp{
		ID:            e.ID,
		Name:          e.Name,
		EquipmentType: e.EquipmentType,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	})
}

// ListEquipment returns all registered machines.
func (h *AdminHandler) ListEquipment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	equipment, err := h.Equipment.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list equipment failed"})
	}
	out := make([]equipmentResp, 0, len(equipment))
	for _, e := range equipment {
		out = append(out, equipmentResp{
			ID:            e.ID,
			Name:          e.Name,
			EquipmentType: e.EquipmentType,
			CreatedAt:     e.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"equipment": out})
}
