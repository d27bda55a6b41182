package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-service/internal/domain"
)

// MemoryUserRepository is a map-backed UserRepository used by tests and local
// runs without a database. Missing rows surface as pgx.ErrNoRows so callers
// see the same sentinel as the Postgres implementation.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]domain.User
}

// NewMemoryUserRepository creates an empty in-memory user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{nextID: 1, users: make(map[int64]domain.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.User, 0, len(r.users))
	for id := int64(1); id < r.nextID; id++ {
		if user, ok := r.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

func (r *MemoryUserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	all, _ := r.GetAll(ctx)
	result := make([]domain.User, 0, len(all))
	for _, user := range all {
		if user.Role == role {
			result = append(result, user)
		}
	}
	return result, nil
}

// MemoryRequestRepository is a map-backed ServiceRequestRepository. It joins
// user names against the supplied MemoryUserRepository the way the Postgres
// implementation joins the users table.
type MemoryRequestRepository struct {
	mu       sync.RWMutex
	nextID   int64
	requests map[int64]domain.ServiceRequest
	users    *MemoryUserRepository
}

// NewMemoryRequestRepository creates an empty in-memory request store.
func NewMemoryRequestRepository(users *MemoryUserRepository) *MemoryRequestRepository {
	return &MemoryRequestRepository{
		nextID:   1,
		requests: make(map[int64]domain.ServiceRequest),
		users:    users,
	}
}

func (r *MemoryRequestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request.ID = r.nextID
	r.nextID++
	r.requests[request.ID] = *request
	return nil
}

func (r *MemoryRequestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.joinNames(ctx, &request)
	return &request, nil
}

func (r *MemoryRequestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ServiceRequest
	for id := int64(1); id < r.nextID; id++ {
		request, ok := r.requests[id]
		if !ok {
			continue
		}
		if filter.UserID != nil {
			involved := request.CreatedByUserID == *filter.UserID ||
				(request.AssignedToUserID != nil && *request.AssignedToUserID == *filter.UserID)
			if !involved {
				continue
			}
		}
		if filter.Status != nil && request.Status != *filter.Status {
			continue
		}
		r.joinNames(ctx, &request)
		result = append(result, request)
	}
	return result, nil
}

func (r *MemoryRequestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	request.Status = status
	r.requests[id] = request
	return nil
}

func (r *MemoryRequestRepository) UpdateAssignee(ctx context.Context, id int64, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	request, ok := r.requests[id]
	if !ok {
		return pgx.ErrNoRows
	}
	request.AssignedToUserID = &userID
	r.requests[id] = request
	return nil
}

func (r *MemoryRequestRepository) joinNames(ctx context.Context, request *domain.ServiceRequest) {
	if r.users == nil {
		return
	}
	if creator, err := r.users.GetByID(ctx, request.CreatedByUserID); err == nil {
		name := creator.Name
		request.CreatedByName = &name
	}
	if request.AssignedToUserID != nil {
		if assignee, err := r.users.GetByID(ctx, *request.AssignedToUserID); err == nil {
			name := assignee.Name
			request.AssignedToName = &name
		}
	}
}
