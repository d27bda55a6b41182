package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/events"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util"
)

// RequestService coordinates the service-request lifecycle.
type RequestService struct {
	requests   repository.ServiceRequestRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// RequestDependencies bundles collaborators for RequestService.
type RequestDependencies struct {
	RequestRepo repository.ServiceRequestRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	Title           string
	Description     string
	Priority        domain.RequestPriority
	CreatedByUserID int64
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// GetAll returns every request with creator/assignee names joined.
func (s *RequestService) GetAll(ctx context.Context) ([]domain.ServiceRequest, error) {
	return s.GetFiltered(ctx, nil, nil)
}

// GetByID returns a single request by id.
func (s *RequestService) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("request id must be positive", map[string]any{"id": id})
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return request, nil
}

// GetByUser returns requests the user created or is assigned to.
func (s *RequestService) GetByUser(ctx context.Context, userID int64) ([]domain.ServiceRequest, error) {
	return s.GetFiltered(ctx, &userID, nil)
}

// GetByStatus returns requests in the given status.
func (s *RequestService) GetByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.ServiceRequest, error) {
	return s.GetFiltered(ctx, nil, &status)
}

// GetFiltered combines the user and status filters with AND semantics.
func (s *RequestService) GetFiltered(ctx context.Context, userID *int64, status *domain.RequestStatus) ([]domain.ServiceRequest, error) {
	if userID != nil && *userID <= 0 {
		return nil, apperrors.NewValidationError("user id must be positive", map[string]any{"userId": *userID})
	}
	requests, err := s.requests.ListWithFilter(ctx, repository.RequestFilter{UserID: userID, Status: status})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return requests, nil
}

// Create validates input, checks the creator exists, and persists a new
// request in status Open.
func (s *RequestService) Create(ctx context.Context, input RequestCreateInput) (*domain.ServiceRequest, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if input.CreatedByUserID <= 0 {
		return nil, apperrors.NewValidationError("createdByUserId must be positive", map[string]any{"createdByUserId": input.CreatedByUserID})
	}

	creator, err := s.users.GetByID(ctx, input.CreatedByUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": input.CreatedByUserID})
		}
		return nil, apperrors.MapError(err)
	}

	request := &domain.ServiceRequest{
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Priority:        input.Priority,
		Status:          domain.StatusOpen,
		CreatedByUserID: creator.ID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, apperrors.MapError(err)
	}
	name := creator.Name
	request.CreatedByName = &name

	s.publish(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		Payload: events.RequestCreatedPayload{
			Title:           request.Title,
			Priority:        request.Priority,
			CreatedByUserID: request.CreatedByUserID,
		},
	})
	return request, nil
}

// UpdateStatus overwrites the request status unconditionally. There is no
// transition table; any status may follow any other.
func (s *RequestService) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) (*domain.ServiceRequest, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("request id must be positive", map[string]any{"id": id})
	}
	existing, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	oldStatus := existing.Status

	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: id,
		Payload: events.RequestStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return updated, nil
}

// Assign sets the assignee after checking both the request and the target
// user exist. A missing user leaves the request untouched.
func (s *RequestService) Assign(ctx context.Context, id int64, assignedToUserID int64) (*domain.ServiceRequest, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("request id must be positive", map[string]any{"id": id})
	}
	if assignedToUserID <= 0 {
		return nil, apperrors.NewValidationError("assignedToUserId must be positive", map[string]any{"assignedToUserId": assignedToUserID})
	}

	if _, err := s.requests.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	if _, err := s.users.GetByID(ctx, assignedToUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": assignedToUserID})
		}
		return nil, apperrors.MapError(err)
	}

	if err := s.requests.UpdateAssignee(ctx, id, assignedToUserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("service request", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	updated, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: id,
		Payload: events.RequestAssignedPayload{
			AssignedToUserID: assignedToUserID,
		},
	})
	return updated, nil
}

func (s *RequestService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
