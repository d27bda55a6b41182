package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/request-service/internal/domain"
)

// RequestFilter captures list parameters. Both fields are optional; when
// UserID is set it matches requests the user created or is assigned to.
type RequestFilter struct {
	UserID *int64
	Status *domain.RequestStatus
}

// ServiceRequestRepository encapsulates request persistence. Reads eager-load
// the creator and assignee names via joins.
type ServiceRequestRepository interface {
	Create(ctx context.Context, request *domain.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error)
	UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error
	UpdateAssignee(ctx context.Context, id int64, userID int64) error
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRequestRepository instantiates repository.
func NewServiceRequestRepository(pool *pgxpool.Pool) ServiceRequestRepository {
	return &requestRepository{pool: pool}
}

const requestSelect = `
        SELECT r.id, r.title, r.description, r.priority, r.status,
               r.created_by_user_id, cb.name, r.assigned_to_user_id, au.name, r.created_at
        FROM service_requests r
        LEFT JOIN users cb ON cb.id = r.created_by_user_id
        LEFT JOIN users au ON au.id = r.assigned_to_user_id`

func (r *requestRepository) Create(ctx context.Context, request *domain.ServiceRequest) error {
	const query = `
        INSERT INTO service_requests (title, description, priority, status, created_by_user_id, assigned_to_user_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		request.Title,
		request.Description,
		request.Priority,
		request.Status,
		request.CreatedByUserID,
		request.AssignedToUserID,
		request.CreatedAt,
	).Scan(&request.ID)
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	query := requestSelect + ` WHERE r.id=$1`

	var request domain.ServiceRequest
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.Title,
		&request.Description,
		&request.Priority,
		&request.Status,
		&request.CreatedByUserID,
		&request.CreatedByName,
		&request.AssignedToUserID,
		&request.AssignedToName,
		&request.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("(r.created_by_user_id=$%d OR r.assigned_to_user_id=$%d)", len(args), len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("r.status=$%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY r.id", requestSelect, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	const query = `UPDATE service_requests SET status=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) UpdateAssignee(ctx context.Context, id int64, userID int64) error {
	const query = `UPDATE service_requests SET assigned_to_user_id=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, userID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanRequests(rows pgx.Rows) ([]domain.ServiceRequest, error) {
	var result []domain.ServiceRequest
	for rows.Next() {
		var request domain.ServiceRequest
		if err := rows.Scan(
			&request.ID,
			&request.Title,
			&request.Description,
			&request.Priority,
			&request.Status,
			&request.CreatedByUserID,
			&request.CreatedByName,
			&request.AssignedToUserID,
			&request.AssignedToName,
			&request.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
