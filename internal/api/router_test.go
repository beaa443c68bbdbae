package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/auth"
	"task-manager/internal/bot"
	"task-manager/internal/repository"
	"task-manager/internal/service"
	"task-manager/internal/testutil"
)

var fixedNow = time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := testutil.NewTestDB(t)
	logger := testutil.Logger()
	calendar := service.Calendar{Location: time.UTC, Clock: func() time.Time { return fixedNow }}

	users := repository.NewUserRepository(db)
	tasks := repository.NewTaskRepository(db)
	categories := repository.NewCategoryRepository(db)

	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)

	svc := Services{
		Auth:       service.NewAuthService(users, tokens, logger),
		Tasks:      service.NewTaskService(tasks, categories, calendar, logger),
		Categories: service.NewCategoryService(users, categories, tasks, logger),
		Reminders:  service.NewReminderService(users, tasks, categories, bot.LogNotifier{Logger: logger}, calendar, logger),
	}
	return NewRouter(svc, tokens, time.UTC, logger)
}

func (c *client) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func (c *client) json(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	status, raw := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, "%s %s: %s", method, path, raw)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(raw, out), string(raw))
	}
}

func register(t *testing.T, e *echo.Echo, name, email string) *client {
	t.Helper()
	c := &client{t: t, e: e}
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	c.json(http.MethodPost, "/api/auth/register", map[string]string{"name": name, "email": email, "password": "p"}, http.StatusCreated, &session)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, email, session.User.Email)
	c.token = session.Token
	return c
}

type taskJSON struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Title         string  `json:"title"`
	Completed     bool    `json:"completed"`
	Priority      string  `json:"priority"`
	CategoryID    *string `json:"categoryId"`
	CategoryName  *string `json:"categoryName"`
	CategoryColor *string `json:"categoryColor"`
	ReminderTime  *string `json:"reminderTime"`
}

type message struct {
	Message string `json:"message"`
}

func TestRouter_Health(t *testing.T) {
	c := &client{t: t, e: newTestServer(t)}
	status, body := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "API is running...", string(body))
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	e := newTestServer(t)
	register(t, e, "A", "a@x.com")

	anon := &client{t: t, e: e}
	var msg message
	anon.json(http.MethodPost, "/api/auth/register", map[string]string{"name": "A", "email": "a@x.com", "password": "p"}, http.StatusBadRequest, &msg)
	assert.Equal(t, "User already exists", msg.Message)

	anon.json(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "wrong"}, http.StatusBadRequest, &msg)
	assert.Equal(t, "your email or password do not match", msg.Message)

	var session struct {
		Token string `json:"token"`
	}
	anon.json(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "p"}, http.StatusOK, &session)
	assert.NotEmpty(t, session.Token)

	anon.json(http.MethodPost, "/api/auth/register", map[string]string{"name": "B", "email": "not-an-email", "password": "p"}, http.StatusBadRequest, &msg)
	assert.Equal(t, "email must be a valid email", msg.Message)
}

func TestRouter_RequiresToken(t *testing.T) {
	e := newTestServer(t)
	anon := &client{t: t, e: e}

	var msg message
	anon.json(http.MethodGet, "/api/tasks", nil, http.StatusUnauthorized, &msg)
	assert.Equal(t, "No token, authorization denied", msg.Message)

	bad := &client{t: t, e: e, token: "garbage"}
	bad.json(http.MethodGet, "/api/categories", nil, http.StatusUnauthorized, &msg)
	assert.Equal(t, "Token is not valid", msg.Message)
}

func TestRouter_CategoryDeletionDetachesTasks(t *testing.T) {
	c := register(t, newTestServer(t), "A", "a@x.com")

	var work struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	c.json(http.MethodPost, "/api/categories", map[string]string{"name": "Work"}, http.StatusCreated, &work)
	assert.Equal(t, "#3B82F6", work.Color)

	var msg message
	c.json(http.MethodPost, "/api/categories", map[string]string{"name": "work"}, http.StatusBadRequest, &msg)
	assert.Equal(t, "Category with this name already exists", msg.Message)

	tomorrow := fixedNow.AddDate(0, 0, 1).Format(time.RFC3339)
	var task taskJSON
	c.json(http.MethodPost, "/api/tasks", map[string]any{"title": "T", "description": "d", "deadline": tomorrow, "categoryId": work.ID}, http.StatusCreated, &task)
	require.NotNil(t, task.CategoryName)
	assert.Equal(t, "Work", *task.CategoryName)
	assert.Equal(t, "medium", task.Priority)

	c.json(http.MethodDelete, "/api/categories/"+work.ID, nil, http.StatusOK, &msg)
	assert.Equal(t, "Category deleted and tasks updated", msg.Message)

	var fetched taskJSON
	c.json(http.MethodGet, "/api/tasks/"+task.ID, nil, http.StatusOK, &fetched)
	assert.Nil(t, fetched.CategoryID)
	assert.Nil(t, fetched.CategoryName)

	_, raw := c.do(http.MethodGet, "/api/tasks/"+task.ID, nil)
	assert.NotContains(t, string(raw), `"categoryId"`)

	c.json(http.MethodDelete, "/api/categories/"+work.ID, nil, http.StatusNotFound, &msg)
	assert.Equal(t, "Category not found", msg.Message)
}

func TestRouter_InvalidCategoryCreatesNothing(t *testing.T) {
	c := register(t, newTestServer(t), "A", "a@x.com")

	var msg message
	c.json(http.MethodPost, "/api/tasks", map[string]any{
		"title": "T", "deadline": fixedNow.Format(time.RFC3339), "categoryId": "6f1c2a56-0000-4000-8000-000000000000",
	}, http.StatusBadRequest, &msg)
	assert.Equal(t, "Invalid category", msg.Message)

	var list []taskJSON
	c.json(http.MethodGet, "/api/tasks", nil, http.StatusOK, &list)
	assert.Empty(t, list)
}

func TestRouter_TaskLifecycleAndOwnership(t *testing.T) {
	e := newTestServer(t)
	alice := register(t, e, "Alice", "alice@x.com")
	bob := register(t, e, "Bob", "bob@x.com")

	var task taskJSON
	alice.json(http.MethodPost, "/api/tasks", map[string]any{
		"title": "Now", "deadline": fixedNow.Format(time.RFC3339), "priority": "high",
	}, http.StatusCreated, &task)
	assert.Equal(t, "high", task.Priority)
	assert.Nil(t, task.CategoryName)

	var list []taskJSON
	alice.json(http.MethodGet, "/api/tasks?filter=today", nil, http.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, task.ID, list[0].ID)

	alice.json(http.MethodGet, "/api/tasks?filter=upcoming", nil, http.StatusOK, &list)
	assert.Empty(t, list)

	bob.json(http.MethodGet, "/api/tasks", nil, http.StatusOK, &list)
	assert.Empty(t, list)

	var msg message
	bob.json(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"title": "mine"}, http.StatusNotFound, &msg)
	assert.Equal(t, "Task not found", msg.Message)
	bob.json(http.MethodPatch, "/api/tasks/"+task.ID+"/complete", nil, http.StatusNotFound, nil)
	bob.json(http.MethodDelete, "/api/tasks/"+task.ID, nil, http.StatusNotFound, nil)

	var updated taskJSON
	alice.json(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"title": "Renamed"}, http.StatusOK, &updated)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "high", updated.Priority)

	alice.json(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"priority": "urgent"}, http.StatusBadRequest, &msg)
	assert.Equal(t, "priority must be one of low, medium, high", msg.Message)

	for i := 0; i < 2; i++ {
		var done taskJSON
		alice.json(http.MethodPatch, "/api/tasks/"+task.ID+"/complete", nil, http.StatusOK, &done)
		assert.True(t, done.Completed)
	}

	alice.json(http.MethodGet, "/api/tasks?filter=completed", nil, http.StatusOK, &list)
	require.Len(t, list, 1)

	alice.json(http.MethodDelete, "/api/tasks/"+task.ID, nil, http.StatusOK, &msg)
	assert.Equal(t, "Task deleted", msg.Message)
	alice.json(http.MethodGet, "/api/tasks/"+task.ID, nil, http.StatusNotFound, nil)
}

func TestRouter_CreateTaskValidation(t *testing.T) {
	c := register(t, newTestServer(t), "A", "a@x.com")

	var msg message
	c.json(http.MethodPost, "/api/tasks", map[string]any{"title": "No deadline"}, http.StatusBadRequest, &msg)
	assert.Equal(t, "Deadline is required", msg.Message)

	c.json(http.MethodPost, "/api/tasks", map[string]any{"title": "T", "deadline": "someday"}, http.StatusBadRequest, nil)

	var task struct {
		Deadline time.Time `json:"deadline"`
	}
	c.json(http.MethodPost, "/api/tasks", map[string]any{"title": "Date only", "deadline": "2026-10-20"}, http.StatusCreated, &task)
	assert.True(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC).Equal(task.Deadline))
}

func TestRouter_StatsAndReminders(t *testing.T) {
	c := register(t, newTestServer(t), "A", "a@x.com")

	c.json(http.MethodPost, "/api/tasks", map[string]any{
		"title": "Late", "deadline": fixedNow.Add(-time.Hour).Format(time.RFC3339),
	}, http.StatusCreated, nil)
	c.json(http.MethodPost, "/api/tasks", map[string]any{
		"title":        "Ping",
		"deadline":     fixedNow.AddDate(0, 0, 5).Format(time.RFC3339),
		"reminder":     true,
		"reminderTime": fixedNow.Add(time.Hour).Format(time.RFC3339),
	}, http.StatusCreated, nil)

	var stats struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
		Overdue int `json:"overdue"`
		Today   int `json:"today"`
		Monthly []struct {
			Month string `json:"month"`
		} `json:"monthly"`
	}
	c.json(http.MethodGet, "/api/tasks/stats", nil, http.StatusOK, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 1, stats.Today)
	require.Len(t, stats.Monthly, 6)
	assert.Equal(t, "2026-10", stats.Monthly[5].Month)

	var reminders []struct {
		Title string `json:"title"`
		Kind  string `json:"kind"`
	}
	c.json(http.MethodGet, "/api/tasks/reminders", nil, http.StatusOK, &reminders)
	require.Len(t, reminders, 2)
	kinds := map[string]string{}
	for _, r := range reminders {
		kinds[r.Title] = r.Kind
	}
	assert.Equal(t, map[string]string{"Late": "due", "Ping": "reminder"}, kinds)

	var msg message
	c.json(http.MethodPut, "/api/auth/telegram", map[string]any{"chatId": 12345}, http.StatusOK, &msg)
	assert.Equal(t, "Telegram chat linked", msg.Message)
}

func TestRouter_UpdateWithNullClearsFields(t *testing.T) {
	c := register(t, newTestServer(t), "A", "a@x.com")

	var work struct {
		ID string `json:"id"`
	}
	c.json(http.MethodPost, "/api/categories", map[string]string{"name": "Work"}, http.StatusCreated, &work)

	var task taskJSON
	c.json(http.MethodPost, "/api/tasks", map[string]any{
		"title":        "T",
		"deadline":     fixedNow.AddDate(0, 0, 1).Format(time.RFC3339),
		"categoryId":   work.ID,
		"reminder":     true,
		"reminderTime": fixedNow.Add(time.Hour).Format(time.RFC3339),
	}, http.StatusCreated, &task)
	require.NotNil(t, task.ReminderTime)
	require.NotNil(t, task.CategoryID)

	var kept taskJSON
	c.json(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"title": "Renamed"}, http.StatusOK, &kept)
	assert.NotNil(t, kept.ReminderTime)
	assert.NotNil(t, kept.CategoryID)

	var cleared taskJSON
	c.json(http.MethodPut, "/api/tasks/"+task.ID, map[string]any{"reminderTime": nil, "categoryId": nil}, http.StatusOK, &cleared)
	assert.Nil(t, cleared.ReminderTime)
	assert.Nil(t, cleared.CategoryID)
	assert.Nil(t, cleared.CategoryName)
	assert.Equal(t, "Renamed", cleared.Title)
}
