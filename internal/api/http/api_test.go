package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/api/http/handlers"
	"github.com/spec-kit/request-service/internal/events"
	"github.com/spec-kit/request-service/internal/observability"
	"github.com/spec-kit/request-service/internal/repository"
	"github.com/spec-kit/request-service/internal/service"
)

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Errors     []string        `json:"errors"`
	Data       json.RawMessage `json:"data"`
}

type userPayload struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type requestPayload struct {
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

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	requests := repository.NewMemoryRequestRepository(users)
	dispatcher := events.NewInMemoryDispatcher()

	userService := service.NewUserService(users)
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo: requests,
		UserRepo:    users,
		Dispatcher:  dispatcher,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("test", "test", nil, nil),
		Users:    handlers.NewUsersHandler(userService),
		Requests: handlers.NewRequestsHandler(requestService),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return resp, env
}

func createUser(t *testing.T, app *fiber.App, name, email, role string) userPayload {
	t.Helper()
	resp, env := doJSON(t, app, http.MethodPost, "/api/users", map[string]any{
		"name": name, "email": email, "role": role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d (%s)", resp.StatusCode, env.Message)
	}
	var user userPayload
	if err := json.Unmarshal(env.Data, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return user
}

func createRequest(t *testing.T, app *fiber.App, title, description, priority string, createdBy int64) requestPayload {
	t.Helper()
	resp, env := doJSON(t, app, http.MethodPost, "/api/servicerequests", map[string]any{
		"title": title, "description": description, "priority": priority, "createdByUserId": createdBy,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: expected 201, got %d (%s)", resp.StatusCode, env.Message)
	}
	var request requestPayload
	if err := json.Unmarshal(env.Data, &request); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return request
}

func TestEndToEndCreateAndProgressRequest(t *testing.T) {
	app := newTestApp(t)

	user := createUser(t, app, "Ann", "ann@x.com", "Support")
	if user.ID <= 0 {
		t.Fatalf("expected generated user id, got %d", user.ID)
	}

	request := createRequest(t, app, "Printer broken", "Out of toner in room 4", "Low", user.ID)
	if request.Status != "Open" {
		t.Fatalf("expected status Open, got %s", request.Status)
	}
	if request.CreatedByUserName != "Ann" {
		t.Fatalf("expected denormalized creator name, got %q", request.CreatedByUserName)
	}
	if request.AssignedToUserName != "Unassigned" {
		t.Fatalf("expected Unassigned placeholder, got %q", request.AssignedToUserName)
	}

	resp, env := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/servicerequests/%d", request.ID),
		map[string]any{"status": "InProgress"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (%s)", resp.StatusCode, env.Message)
	}
	var updated requestPayload
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Status != "InProgress" {
		t.Fatalf("expected InProgress, got %s", updated.Status)
	}
	if updated.AssignedToUserID != nil {
		t.Fatalf("status update changed assignee: %d", *updated.AssignedToUserID)
	}
}

func TestCreateUserSetsLocationHeader(t *testing.T) {
	app := newTestApp(t)

	user := createUser(t, app, "Ann", "ann@x.com", "Manager")
	resp, env := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("get by id after create failed: %d", resp.StatusCode)
	}

	raw, _ := json.Marshal(map[string]any{"name": "Bob", "email": "bob@x.com", "role": "Employee"})
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	postResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("post user: %v", err)
	}
	location := postResp.Header.Get(fiber.HeaderLocation)
	if location != "/api/users/2" {
		t.Fatalf("expected Location /api/users/2, got %q", location)
	}
}

func TestUserEndpointErrorEnvelopes(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodGet, "/api/users/99", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if env.Success || env.StatusCode != http.StatusNotFound || env.Message == "" {
		t.Fatalf("bad 404 envelope: %+v", env)
	}

	resp, env = doJSON(t, app, http.MethodGet, "/api/users/0", nil)
	if resp.StatusCode != http.StatusBadRequest || env.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for id 0, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/users/abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestCreateUserAggregatesFieldErrors(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/users", map[string]any{
		"name": "A", "email": "nope", "role": "Wizard",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(env.Errors) != 3 {
		t.Fatalf("expected 3 aggregated field errors, got %v", env.Errors)
	}
}

func TestListRequestsFiltering(t *testing.T) {
	app := newTestApp(t)

	ann := createUser(t, app, "Ann", "ann@x.com", "Employee")
	bob := createUser(t, app, "Bob", "bob@x.com", "Support")

	mine := createRequest(t, app, "Printer broken", "Out of toner in room 4", "Low", ann.ID)
	other := createRequest(t, app, "Laptop slow", "Takes minutes to boot up", "High", bob.ID)

	// assign ann to bob's request, then close it
	if resp, _ := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/servicerequests/%d", other.ID),
		map[string]any{"assignedToUserId": ann.ID, "status": "Closed"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("combined update failed: %d", resp.StatusCode)
	}

	resp, env := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/servicerequests?userId=%d&status=Open", ann.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered list: expected 200, got %d", resp.StatusCode)
	}
	var items []requestPayload
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0].ID != mine.ID {
		t.Fatalf("expected only ann's open request, got %+v", items)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/servicerequests?status=open", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for lowercase status, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/api/servicerequests?userId=abc", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric userId, got %d", resp.StatusCode)
	}
}

func TestUpdateRequestBothFields(t *testing.T) {
	app := newTestApp(t)

	ann := createUser(t, app, "Ann", "ann@x.com", "Employee")
	bob := createUser(t, app, "Bob", "bob@x.com", "Support")
	request := createRequest(t, app, "Printer broken", "Out of toner in room 4", "Low", ann.ID)

	resp, env := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/servicerequests/%d", request.ID),
		map[string]any{"status": "InProgress", "assignedToUserId": bob.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, env.Message)
	}
	var updated requestPayload
	if err := json.Unmarshal(env.Data, &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	// the assignment runs last and returns a fresh row, so both changes show
	if updated.Status != "InProgress" {
		t.Fatalf("expected status InProgress, got %s", updated.Status)
	}
	if updated.AssignedToUserID == nil || *updated.AssignedToUserID != bob.ID {
		t.Fatalf("expected assignee %d, got %+v", bob.ID, updated.AssignedToUserID)
	}
	if updated.AssignedToUserName != "Bob" {
		t.Fatalf("expected denormalized assignee name, got %q", updated.AssignedToUserName)
	}
}

func TestUpdateRequestRequiresAField(t *testing.T) {
	app := newTestApp(t)

	ann := createUser(t, app, "Ann", "ann@x.com", "Employee")
	request := createRequest(t, app, "Printer broken", "Out of toner in room 4", "Low", ann.ID)

	resp, env := doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/servicerequests/%d", request.ID), map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", resp.StatusCode)
	}
	if len(env.Errors) == 0 {
		t.Fatalf("expected field error list, got %+v", env)
	}
}

func TestUpdateRequestMissingTargets(t *testing.T) {
	app := newTestApp(t)

	ann := createUser(t, app, "Ann", "ann@x.com", "Employee")
	request := createRequest(t, app, "Printer broken", "Out of toner in room 4", "Low", ann.ID)

	resp, _ := doJSON(t, app, http.MethodPut, "/api/servicerequests/42", map[string]any{"status": "Closed"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing request, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/servicerequests/%d", request.ID),
		map[string]any{"assignedToUserId": 42})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing assignee, got %d", resp.StatusCode)
	}
}

func TestCreateRequestMissingCreatorReturns404(t *testing.T) {
	app := newTestApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/servicerequests", map[string]any{
		"title": "Printer broken", "description": "Out of toner in room 4",
		"priority": "Low", "createdByUserId": 42,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", resp.StatusCode, env.Message)
	}

	resp, env = doJSON(t, app, http.MethodGet, "/api/servicerequests", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
	var items []requestPayload
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("request persisted despite missing creator: %+v", items)
	}
}

func TestPanicBecomesGeneric500(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, env := doJSON(t, app, http.MethodGet, "/boom", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if env.Success || env.Message != "An unexpected error occurred" || env.StatusCode != http.StatusInternalServerError {
		t.Fatalf("bad 500 envelope: %+v", env)
	}
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/health/live", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", resp.StatusCode)
	}

	// no postgres or redis wired in tests, readiness must fail
	resp, _ = doJSON(t, app, http.MethodGet, "/health/ready", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503, got %d", resp.StatusCode)
	}
}
