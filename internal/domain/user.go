package domain

import (
	"fmt"
	"time"
)

// Role categorizes users of the request tracker.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleSupport  Role = "Support"
	RoleManager  Role = "Manager"
)

// ParseRole matches a role name exactly (case-sensitive).
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleSupport, RoleManager:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is the domain model for people who create or handle service requests.
// Users are immutable once created; there is no update path.
type User struct {
	ID        int64
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}
