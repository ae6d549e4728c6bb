package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// StaffComplaintsHandler manages department-scoped staff endpoints.
type StaffComplaintsHandler struct {
	service *service.ComplaintService
}

// NewStaffComplaintsHandler constructs handler.
func NewStaffComplaintsHandler(complaintService *service.ComplaintService) *StaffComplaintsHandler {
	return &StaffComplaintsHandler{service: complaintService}
}

// List GET /staff/complaints.
func (h *StaffComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var statuses []domain.ComplaintStatus
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.ComplaintStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return apperrors.NewValidationError("unknown status filter", map[string]any{"status": part})
			}
			statuses = append(statuses, status)
		}
	}
	limit, offset := parsePage(c)
	complaints, err := h.service.ListComplaintsForStaff(c.Context(), principal.ID, statuses, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/complaints/:id.
func (h *StaffComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	complaint, history, err := h.service.GetComplaintForStaff(c.Context(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint, history)})
}

// ChangeStatus POST /staff/complaints/:id/status.
func (h *StaffComplaintsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.ToStatus.Valid() {
		return apperrors.NewValidationError("to_status must be one of NEW, IN_REVIEW, RESOLVED, CLOSED", map[string]any{"to_status": req.ToStatus})
	}
	err := h.service.ChangeStatus(c.Context(), principal.ID, c.Params("id"), service.StatusChangeInput{
		ToStatus:     req.ToStatus,
		Note:         req.Note,
		PublicAnswer: req.PublicAnswer,
	})
	if err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
