package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// TrackingHandler serves the anonymous public surface.
type TrackingHandler struct {
	service *service.TrackingService
}

// NewTrackingHandler constructs handler.
func NewTrackingHandler(trackingService *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{service: trackingService}
}

// Track GET /public/track/:code.
func (h *TrackingHandler) Track(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return apperrors.NewValidationError("tracking code required", nil)
	}
	view, err := h.service.TrackByCode(c.Context(), code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TrackingResponse{
		TrackingCode:   view.TrackingCode,
		Status:         view.Status,
		DepartmentName: view.DepartmentName,
	}})
}

// Feed GET /public/feed.
func (h *TrackingHandler) Feed(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	items, err := h.service.PublicFeed(c.Context(), page, pageSize)
	if err != nil {
		return err
	}
	resp := make([]dto.FeedItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, dto.FeedItemResponse{
			TrackingCode:   item.TrackingCode,
			Title:          item.Title,
			CategoryName:   item.CategoryName,
			DepartmentName: item.DepartmentName,
			Status:         item.Status,
			ResolvedAt:     item.ResolvedAt,
			PublicAnswer:   item.PublicAnswer,
			RatingAverage:  item.RatingAverage,
			RatingCount:    item.RatingCount,
		})
	}
	return c.JSON(fiber.Map{"data": resp, "page": page, "page_size": pageSize})
}
