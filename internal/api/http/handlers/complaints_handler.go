package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler manages citizen complaint endpoints.
type ComplaintsHandler struct {
	service *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaintService *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{service: complaintService}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("category_id, title, description required", nil)
	}

	complaint, err := h.service.CreateComplaint(c.Context(), principal.ID, service.ComplaintCreateInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintDetail(complaint, nil)})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	limit, offset := parsePage(c)
	complaints, err := h.service.ListComplaintsForCitizen(c.Context(), principal.ID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	complaint, history, err := h.service.GetComplaintForCitizen(c.Context(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint, history)})
}

// Rate PUT /complaints/:id/rating.
func (h *ComplaintsHandler) Rate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.RateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rating, err := h.service.RateComplaint(c.Context(), principal.ID, c.Params("id"), req.Stars, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RatingResponse{
		ID:          rating.ID,
		ComplaintID: rating.ComplaintID,
		Stars:       rating.Stars,
		Comment:     rating.Comment,
		UpdatedAt:   rating.UpdatedAt,
	}})
}

func parsePage(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func complaintSummary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:           complaint.ID,
		TrackingCode: complaint.TrackingCode,
		CategoryID:   complaint.CategoryID,
		DepartmentID: complaint.DepartmentID,
		Title:        complaint.Title,
		Status:       complaint.Status,
		CreatedAt:    complaint.CreatedAt,
		UpdatedAt:    complaint.UpdatedAt,
	}
}

func complaintDetail(complaint *domain.Complaint, history []domain.StatusHistory) dto.ComplaintDetailResponse {
	entries := make([]dto.StatusHistoryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, dto.StatusHistoryResponse{
			ID:         entry.ID,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			ChangedBy:  entry.ChangedBy,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return dto.ComplaintDetailResponse{
		ID:           complaint.ID,
		TrackingCode: complaint.TrackingCode,
		CategoryID:   complaint.CategoryID,
		DepartmentID: complaint.DepartmentID,
		Title:        complaint.Title,
		Description:  complaint.Description,
		Status:       complaint.Status,
		PublicAnswer: complaint.PublicAnswer,
		Latitude:     complaint.Latitude,
		Longitude:    complaint.Longitude,
		CreatedAt:    complaint.CreatedAt,
		UpdatedAt:    complaint.UpdatedAt,
		ResolvedAt:   complaint.ResolvedAt,
		ClosedAt:     complaint.ClosedAt,
		History:      entries,
	}
}
