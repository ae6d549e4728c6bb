package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// MembershipsHandler manages admin-only department membership endpoints.
type MembershipsHandler struct {
	service *service.MembershipService
}

// NewMembershipsHandler constructs handler.
func NewMembershipsHandler(membershipService *service.MembershipService) *MembershipsHandler {
	return &MembershipsHandler{service: membershipService}
}

// Add POST /departments/:id/members.
func (h *MembershipsHandler) Add(c *fiber.Ctx) error {
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}
	if req.MemberRole == "" {
		req.MemberRole = domain.MemberRoleMember
	}
	member, err := h.service.AddMember(c.Context(), c.Params("id"), req.UserID, req.MemberRole)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": memberResponse(member)})
}

// Remove DELETE /departments/:id/members/:userId.
func (h *MembershipsHandler) Remove(c *fiber.Ctx) error {
	if err := h.service.RemoveMember(c.Context(), c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// List GET /departments/:id/members.
func (h *MembershipsHandler) List(c *fiber.Ctx) error {
	members, err := h.service.ListMembers(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		items = append(items, memberResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func memberResponse(member *domain.DepartmentMember) dto.MemberResponse {
	return dto.MemberResponse{
		ID:           member.ID,
		DepartmentID: member.DepartmentID,
		UserID:       member.UserID,
		MemberRole:   member.MemberRole,
		Active:       member.Active,
		CreatedAt:    member.CreatedAt,
		UpdatedAt:    member.UpdatedAt,
	}
}
