package domain

import (
	"fmt"
	"time"
)

// RequestStatus enumerates lifecycle states for service requests.
// Transitions are deliberately unconstrained; any status may follow any other.
type RequestStatus string

const (
	StatusOpen       RequestStatus = "Open"
	StatusInProgress RequestStatus = "InProgress"
	StatusResolved   RequestStatus = "Resolved"
	StatusClosed     RequestStatus = "Closed"
)

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "Low"
	PriorityMedium RequestPriority = "Medium"
	PriorityHigh   RequestPriority = "High"
)

// ParseStatus matches a status name exactly (case-sensitive).
func ParseStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ParsePriority matches a priority name exactly (case-sensitive).
func ParsePriority(s string) (RequestPriority, error) {
	switch RequestPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return RequestPriority(s), nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// ServiceRequest is the aggregate for tracked support requests.
// CreatedByName and AssignedToName are eager-loaded from the users table on
// reads; they are nil when the referenced row is absent.
type ServiceRequest struct {
	ID               int64
	Title            string
	Description      string
	Priority         RequestPriority
	Status           RequestStatus
	CreatedByUserID  int64
	CreatedByName    *string
	AssignedToUserID *int64
	AssignedToName   *string
	CreatedAt        time.Time
}
