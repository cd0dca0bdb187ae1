package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/auth"
	"taskboard/internal/billing"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	verifier *auth.Verifier
}

func newTestServer(t *testing.T, billingProvider BillingProvider) *testServer {
	t.Helper()
	db, err := repository.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	taskRepo := repository.NewTaskRepository(db)
	verifier := auth.NewVerifier("test-secret", "")
	deps := Deps{
		Verifier:    verifier,
		Users:       service.NewUserService(repository.NewUserRepository(db)),
		Tasks:       service.NewTaskService(taskRepo, time.UTC),
		Stats:       service.NewStatsService(taskRepo, time.UTC),
		Preferences: service.NewPreferenceService(repository.NewPreferenceRepository(db)),
		Registry:    prometheus.NewRegistry(),
	}
	if billingProvider != nil {
		deps.Billing = billingProvider
	}
	return &testServer{router: NewRouter(deps), verifier: verifier}
}

func (s *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	token, err := s.verifier.Sign(service.Identity{ExternalID: subject, Email: subject + "@example.com"}, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// =============================================================================
// Authentication
// =============================================================================

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"missing", "", ""},
		{"basic auth", "Basic abc123", ""},
		{"only scheme", "Bearer", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, extractBearerToken(c))
		})
	}
}

func TestUnauthorized(t *testing.T) {
	s := newTestServer(t, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/abc"},
		{http.MethodPatch, "/tasks/abc"},
		{http.MethodDelete, "/tasks/abc"},
		{http.MethodPost, "/tasks/bulk-delete"},
		{http.MethodGet, "/stats"},
		{http.MethodGet, "/preferences"},
		{http.MethodPatch, "/preferences"},
		{http.MethodPost, "/users/sync"},
		{http.MethodGet, "/users/me"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := s.do(t, r.method, r.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = s.do(t, r.method, r.path, "forged.token.value", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decode[model.ErrorResponse](t, w).Error)
		})
	}
}

// =============================================================================
// Tasks
// =============================================================================

func TestTaskScenario(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	w := s.do(t, http.MethodPost, "/tasks", token, map[string]interface{}{
		"title":     "Write tests",
		"category":  "coding",
		"completed": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[model.Task](t, w)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.Nil(t, task.DueDate)

	w = s.do(t, http.MethodPost, "/tasks/"+task.ID+"/toggle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.Task](t, w).Completed)

	w = s.do(t, http.MethodPatch, "/tasks/"+task.ID, token, map[string]interface{}{"title": "Write more tests"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[model.Task](t, w)
	assert.Equal(t, "Write more tests", updated.Title)
	assert.True(t, updated.Completed)

	w = s.do(t, http.MethodPost, "/tasks/bulk-delete", token, map[string]interface{}{"ids": []string{task.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.BulkDeleteResponse{Message: "Tasks deleted successfully", DeletedCount: 1}, decode[model.BulkDeleteResponse](t, w))

	w = s.do(t, http.MethodGet, "/tasks/"+task.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "task not found", decode[model.ErrorResponse](t, w).Error)
}

func TestListTasksNewestFirst(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	w := s.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	for _, title := range []string{"one", "two", "three"} {
		w := s.do(t, http.MethodPost, "/tasks", token, map[string]string{"title": title, "category": "life"})
		require.Equal(t, http.StatusCreated, w.Code)
		time.Sleep(2 * time.Millisecond)
	}

	w = s.do(t, http.MethodGet, "/tasks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tasks := decode[[]model.Task](t, w)
	require.Len(t, tasks, 3)
	assert.Equal(t, "three", tasks[0].Title)
	assert.Equal(t, "one", tasks[2].Title)
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.token(t, "owner")
	intruder := s.token(t, "intruder")

	w := s.do(t, http.MethodPost, "/tasks", owner, map[string]string{"title": "secret", "category": "life"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[model.Task](t, w)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/tasks/"+task.ID, intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/tasks/"+task.ID, intruder, map[string]string{"title": "pwned"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/tasks/"+task.ID+"/toggle", intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/tasks/"+task.ID, intruder, nil).Code)

	w = s.do(t, http.MethodPost, "/tasks/bulk-delete", intruder, map[string]interface{}{"ids": []string{task.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(0), decode[model.BulkDeleteResponse](t, w).DeletedCount)

	w = s.do(t, http.MethodGet, "/tasks/"+task.ID, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Task](t, w)
	assert.Equal(t, "secret", got.Title)
	assert.False(t, got.Completed)
}

func TestDeleteTwice(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	w := s.do(t, http.MethodPost, "/tasks", token, map[string]string{"title": "x", "category": "coding"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[model.Task](t, w)

	w = s.do(t, http.MethodDelete, "/tasks/"+task.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Task deleted successfully"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/tasks/"+task.ID, token, nil).Code)
}

func TestPatchIsPartial(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	w := s.do(t, http.MethodPost, "/tasks", token, map[string]string{
		"title":       "Plan trip",
		"description": "book flights",
		"category":    "life",
		"dueDate":     "2030-01-02T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[model.Task](t, w)

	w = s.do(t, http.MethodPatch, "/tasks/"+created.ID, token, `{"priority":"high"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[model.Task](t, w)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.Completed, updated.Completed)
	require.NotNil(t, updated.DueDate)
	assert.True(t, created.DueDate.Equal(*updated.DueDate))

	w = s.do(t, http.MethodPatch, "/tasks/"+created.ID, token, `{"dueDate":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[model.Task](t, w).DueDate)

	w = s.do(t, http.MethodPatch, "/tasks/"+created.ID, token, `{"completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.Task](t, w).Completed)
}

func TestTaskValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"category":"coding"}`, "title"},
		{"blank title", `{"title":"   ","category":"coding"}`, "title"},
		{"long title", fmt.Sprintf(`{"title":%q,"category":"coding"}`, strings.Repeat("t", 256)), "title"},
		{"long description", fmt.Sprintf(`{"title":"ok","description":%q,"category":"coding"}`, strings.Repeat("d", 1001)), "description"},
		{"missing category", `{"title":"ok"}`, "category"},
		{"bad category", `{"title":"ok","category":"work"}`, "category"},
		{"bad priority", `{"title":"ok","category":"life","priority":"urgent"}`, "priority"},
		{"bad date", `{"title":"ok","category":"life","dueDate":"soon"}`, "dueDate"},
		{"not json", `title=ok`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/tasks", token, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, tt.field)
		})
	}
}

func TestCreateTrimsTitleBeforeLengthCheck(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	title := strings.Repeat("t", 255)
	w := s.do(t, http.MethodPost, "/tasks", token, map[string]string{
		"title":    "   " + title + "   ",
		"category": "coding",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, title, decode[model.Task](t, w).Title)
}

func TestPatchValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	w := s.do(t, http.MethodPost, "/tasks", token, map[string]string{"title": "x", "category": "coding"})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[model.Task](t, w)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"null title", `{"title":null}`, "title"},
		{"empty title", `{"title":"  "}`, "title"},
		{"bad category", `{"category":"chores"}`, "category"},
		{"wrong type", `{"completed":"yes"}`, "completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPatch, "/tasks/"+task.ID, token, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, tt.field)
		})
	}
}

// =============================================================================
// Stats
// =============================================================================

func TestStatsOverdueScenario(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "user_a")

	w := s.do(t, http.MethodGet, "/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Stats{}, decode[model.Stats](t, w))

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	w = s.do(t, http.MethodPost, "/tasks", token, map[string]string{"title": "late", "category": "life", "dueDate": yesterday})
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode[model.Task](t, w)

	w = s.do(t, http.MethodPost, "/tasks", token, map[string]string{"title": "undated", "category": "coding"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Stats{Total: 2, Completed: 0, Pending: 2, Overdue: 1}, decode[model.Stats](t, w))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/tasks/"+task.ID+"/toggle", token, nil).Code)

	w = s.do(t, http.MethodGet, "/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Stats{Total: 2, Completed: 1, Pending: 1, Overdue: 0}, decode[model.Stats](t, w))
}

// =============================================================================
// Preferences and users
// =============================================================================

func TestPreferencesDefaultsAndPatch(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "brand_new")

	w := s.do(t, http.MethodGet, "/preferences", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	prefs := decode[model.UserPreferences](t, w)
	assert.Equal(t, model.ThemeLight, prefs.Theme)
	assert.Equal(t, model.CategoryCoding, prefs.DefaultCategory)
	assert.True(t, prefs.Notifications)
	assert.True(t, prefs.MotivationalMessages)

	w = s.do(t, http.MethodPatch, "/preferences", token, `{"theme":"dark","motivationalMessages":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[model.UserPreferences](t, w)
	assert.Equal(t, prefs.ID, updated.ID)
	assert.Equal(t, model.ThemeDark, updated.Theme)
	assert.False(t, updated.MotivationalMessages)
	assert.True(t, updated.Notifications)

	w = s.do(t, http.MethodPatch, "/preferences", token, `{"theme":"neon"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, "theme")
}

func TestPatchPreferencesBeforeGet(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "eager")

	w := s.do(t, http.MethodPatch, "/preferences", token, `{"defaultCategory":"self-care"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs := decode[model.UserPreferences](t, w)
	assert.Equal(t, model.CategorySelfCare, prefs.DefaultCategory)
	assert.Equal(t, model.ThemeLight, prefs.Theme)
}

func TestUserSync(t *testing.T) {
	s := newTestServer(t, nil)
	token, err := s.verifier.Sign(service.Identity{ExternalID: "no_email"}, time.Hour)
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", decode[model.ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/users/sync", token, map[string]string{"email": "not-an-email"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, "email")

	w = s.do(t, http.MethodPost, "/users/sync", token, map[string]string{"email": "ada@example.com", "name": "Ada"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[model.User](t, w)
	assert.Equal(t, "no_email", created.ExternalID)

	w = s.do(t, http.MethodPost, "/users/sync", token, map[string]string{"email": "ada@example.org", "name": "Ada"})
	require.Equal(t, http.StatusOK, w.Code)
	synced := decode[model.User](t, w)
	assert.Equal(t, created.ID, synced.ID)
	assert.Equal(t, "ada@example.org", synced.Email)

	w = s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[model.User](t, w)
	assert.Equal(t, created.ID, me.ID)
	require.NotNil(t, me.Name)
	assert.Equal(t, "Ada", *me.Name)
}

func TestUserLazilyProvisioned(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, "lazy")

	w := s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[model.User](t, w)
	assert.Equal(t, "lazy@example.com", me.Email)
}

// =============================================================================
// Billing and ops
// =============================================================================

type fakeBilling struct {
	products []json.RawMessage
	err      error
	ordered  []string
}

func (f *fakeBilling) ListProducts(context.Context) ([]json.RawMessage, error) {
	return f.products, f.err
}

func (f *fakeBilling) CreateCheckout(_ context.Context, ids []string) (*billing.Checkout, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ordered = ids
	return &billing.Checkout{ID: "chk_1", URL: "https://pay.example.com/chk_1"}, nil
}

func TestBillingRoutes(t *testing.T) {
	fb := &fakeBilling{}
	s := newTestServer(t, fb)
	token := s.token(t, "buyer")

	w := s.do(t, http.MethodGet, "/billing/products", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	fb.products = []json.RawMessage{json.RawMessage(`{"id":"prod_1"}`)}
	w = s.do(t, http.MethodGet, "/billing/products", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":"prod_1"}]`, w.Body.String())

	w = s.do(t, http.MethodPost, "/billing/checkout", token, `{"products":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/billing/checkout", token, `{"products":["prod_1"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"prod_1"}, fb.ordered)
	assert.Equal(t, "https://pay.example.com/chk_1", decode[billing.Checkout](t, w).URL)

	fb.err = errors.New("upstream down")
	w = s.do(t, http.MethodGet, "/billing/products", token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "upstream down")
}

func TestBillingDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/billing/products", s.token(t, "buyer"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	s.do(t, http.MethodGet, "/tasks", "", nil)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `taskboard_http_requests_total{method="GET",route="/tasks",status="401"}`)
}
