package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"task-manager/internal/auth"
	"task-manager/internal/model"
	"task-manager/internal/repository"
	"task-manager/internal/testutil"
)

// fixedNow is the instant every service test treats as "now".
var fixedNow = time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[int64][]string
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	if n.sent == nil {
		n.sent = make(map[int64][]string)
	}
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

type testEnv struct {
	users      *repository.UserRepository
	tasks      *repository.TaskRepository
	categories *repository.CategoryRepository

	auth     *AuthService
	category *CategoryService
	task     *TaskService
	reminder *ReminderService
	notifier *recordingNotifier
	calendar Calendar
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	logger := testutil.Logger()

	env := &testEnv{
		users:      repository.NewUserRepository(db),
		tasks:      repository.NewTaskRepository(db),
		categories: repository.NewCategoryRepository(db),
		notifier:   &recordingNotifier{},
		calendar:   Calendar{Location: time.UTC, Clock: func() time.Time { return fixedNow }},
	}

	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)
	env.auth = NewAuthService(env.users, tokens, logger)
	env.auth.cost = bcrypt.MinCost
	env.category = NewCategoryService(env.users, env.categories, env.tasks, logger)
	env.task = NewTaskService(env.tasks, env.categories, env.calendar, logger)
	env.reminder = NewReminderService(env.users, env.tasks, env.categories, env.notifier, env.calendar, logger)
	return env
}

func (e *testEnv) user(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "Test", Email: email, PasswordHash: "x"}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func ptr[T any](v T) *T { return &v }
