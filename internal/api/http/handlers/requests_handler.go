package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/service"
	apperrors "github.com/spec-kit/request-service/pkg/util"
)

// RequestsHandler exposes service-request endpoints.
type RequestsHandler struct {
	requests *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requestService}
}

// List handles GET /api/servicerequests with optional userId/status filters.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	var userID *int64
	if userIDStr := c.Query("userId"); userIDStr != "" {
		parsed, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("userId must be an integer", map[string]any{"userId": userIDStr})
		}
		userID = &parsed
	}

	var status *domain.RequestStatus
	if statusStr := c.Query("status"); statusStr != "" {
		parsed, err := domain.ParseStatus(statusStr)
		if err != nil {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": statusStr})
		}
		status = &parsed
	}

	requests, err := h.requests.GetFiltered(c.UserContext(), userID, status)
	if err != nil {
		return err
	}
	items := make([]dto.ServiceRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewServiceRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// GetByID handles GET /api/servicerequests/:id.
func (h *RequestsHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "request id")
	if err != nil {
		return err
	}
	request, err := h.requests.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewServiceRequestResponse(request)})
}

// Create handles POST /api/servicerequests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateServiceRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if messages := dto.Validate(req); messages != nil {
		return apperrors.NewFieldValidationError(messages)
	}

	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": req.Priority})
	}

	request, err := h.requests.Create(c.UserContext(), service.RequestCreateInput{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        priority,
		CreatedByUserID: req.CreatedByUserID,
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderLocation, fmt.Sprintf("/api/servicerequests/%d", request.ID))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "data": dto.NewServiceRequestResponse(request)})
}

// Update handles PUT /api/servicerequests/:id. The payload is partial: a
// status change, an assignment, or both. When both are present the status
// update runs first and the assignment result is returned.
func (h *RequestsHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "request id")
	if err != nil {
		return err
	}

	var req dto.UpdateServiceRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.HasFields() {
		return apperrors.NewFieldValidationError([]string{"at least one of status or assignedToUserId is required"})
	}
	if messages := dto.Validate(req); messages != nil {
		return apperrors.NewFieldValidationError(messages)
	}

	var result *domain.ServiceRequest
	if req.Status != nil {
		status, parseErr := domain.ParseStatus(*req.Status)
		if parseErr != nil {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": *req.Status})
		}
		result, err = h.requests.UpdateStatus(c.UserContext(), id, status)
		if err != nil {
			return err
		}
	}
	if req.AssignedToUserID != nil {
		result, err = h.requests.Assign(c.UserContext(), id, *req.AssignedToUserID)
		if err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewServiceRequestResponse(result)})
}

func parseID(c *fiber.Ctx, label string) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(fmt.Sprintf("%s must be an integer", label), map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
