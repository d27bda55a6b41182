package dto

import (
	"time"

	"github.com/spec-kit/request-service/internal/domain"
)

// CreateServiceRequestRequest payload.
type CreateServiceRequestRequest struct {
	Title           string `json:"title" validate:"required,min=5,max=200"`
	Description     string `json:"description" validate:"required,min=10,max=2000"`
	Priority        string `json:"priority" validate:"required,oneof=Low Medium High"`
	CreatedByUserID int64  `json:"createdByUserId" validate:"required,gt=0"`
}

// UpdateServiceRequestRequest is a partial update payload. At least one field
// must be present; when both are, status is applied first, then assignment.
type UpdateServiceRequestRequest struct {
	Status           *string `json:"status" validate:"omitempty,oneof=Open InProgress Resolved Closed"`
	AssignedToUserID *int64  `json:"assignedToUserId" validate:"omitempty,gt=0"`
}

// HasFields reports whether the payload carries at least one updatable field.
func (r UpdateServiceRequestRequest) HasFields() bool {
	return r.Status != nil || r.AssignedToUserID != nil
}

// ServiceRequestResponse is the wire representation of a request, with
// denormalized user names.
type ServiceRequestResponse struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Priority           string    `json:"priority"`
	Status             string    `json:"status"`
	CreatedByUserID    int64     `json:"createdByUserId"`
	CreatedByUserName  string    `json:"createdByUserName"`
	AssignedToUserID   *int64    `json:"assignedToUserId"`
	AssignedToUserName string    `json:"assignedToUserName"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NewServiceRequestResponse maps a domain request to its response shape.
func NewServiceRequestResponse(request *domain.ServiceRequest) ServiceRequestResponse {
	createdBy := "Unknown"
	if request.CreatedByName != nil {
		createdBy = *request.CreatedByName
	}
	assignedTo := "Unassigned"
	if request.AssignedToName != nil {
		assignedTo = *request.AssignedToName
	}
	return ServiceRequestResponse{
		ID:                 request.ID,
		Title:              request.Title,
		Description:        request.Description,
		Priority:           string(request.Priority),
		Status:             string(request.Status),
		CreatedByUserID:    request.CreatedByUserID,
		CreatedByUserName:  createdBy,
		AssignedToUserID:   request.AssignedToUserID,
		AssignedToUserName: assignedTo,
		CreatedAt:          request.CreatedAt,
	}
}
