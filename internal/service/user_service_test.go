package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/repository"
	apperrors "github.com/spec-kit/request-service/pkg/util"
)

func newUserFixture(t *testing.T) (*UserService, *repository.MemoryUserRepository) {
	t.Helper()
	repo := repository.NewMemoryUserRepository()
	return NewUserService(repo), repo
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr.Code
}

func TestGetUserByIDRejectsNonPositiveID(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	for _, id := range []int64{0, -1, -42} {
		_, err := svc.GetByID(ctx, id)
		if code := errCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("GetByID(%d): expected VALIDATION_FAILED, got %s", id, code)
		}
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	svc, _ := newUserFixture(t)

	_, err := svc.GetByID(context.Background(), 99)
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestGetUserByIDReturnsStoredRecord(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Ann", "ann@x.com", domain.RoleSupport)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID <= 0 {
		t.Fatalf("expected generated id, got %d", created.ID)
	}

	got, err := svc.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != "Ann" || got.Email != "ann@x.com" || got.Role != domain.RoleSupport {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreateUserRejectsBlankFields(t *testing.T) {
	svc, repo := newUserFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		email string
	}{
		{"", "e@x.com"},
		{"   ", "e@x.com"},
		{"Bob", ""},
		{"Bob", "\t "},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc.name, tc.email, domain.RoleEmployee)
		if code := errCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("Create(%q, %q): expected VALIDATION_FAILED, got %s", tc.name, tc.email, code)
		}
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no persisted users, got %d", len(all))
	}
}

func TestGetUsersByRole(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Ann", "ann@x.com", domain.RoleSupport); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Bob", "bob@x.com", domain.RoleEmployee); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Cat", "cat@x.com", domain.RoleSupport); err != nil {
		t.Fatalf("create: %v", err)
	}

	support, err := svc.GetByRole(ctx, domain.RoleSupport)
	if err != nil {
		t.Fatalf("get by role: %v", err)
	}
	if len(support) != 2 {
		t.Fatalf("expected 2 support users, got %d", len(support))
	}
	for _, user := range support {
		if user.Role != domain.RoleSupport {
			t.Fatalf("unexpected role in result: %+v", user)
		}
	}
}
