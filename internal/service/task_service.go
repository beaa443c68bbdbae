package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

const (
	msgInvalidCategory = "Invalid category"
	msgTaskNotFound    = "Task not found"
)

// TaskInput represents data a client supplies for a task. Nil fields are
// left untouched on update; an empty CategoryID detaches the category and
// ClearReminderTime removes the reminder time.
type TaskInput struct {
	Title             *string
	Description       *string
	Deadline          *time.Time
	CategoryID        *string
	Priority          *string
	Completed         *bool
	Reminder          *bool
	ReminderTime      *time.Time
	ClearReminderTime bool
}

// TaskService wraps task-related business logic. Every operation is scoped
// to the requesting user.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	calendar     Calendar
	logger       *log.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, calendar Calendar, logger *log.Logger) *TaskService {
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo, calendar: calendar, logger: logger}
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*TaskView, error) {
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, validationError("Title is required")
	}
	if input.Deadline == nil || input.Deadline.IsZero() {
		return nil, validationError("Deadline is required")
	}

	task := model.Task{UserID: userID, Priority: model.PriorityMedium}
	category, err := s.apply(ctx, &task, input)
	if err != nil {
		s.logger.Warn("task create rejected", "user", userID, "reason", err)
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	s.logger.Info("task created", "user", userID, "task", task.ID, "title", task.Title,
		"deadline", task.Deadline, "category", categoryLabel(category), "priority", task.Priority)
	return s.view(ctx, task)
}

// UpdateTask applies the supplied fields to one of the user's tasks.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID string, input TaskInput) (*TaskView, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFoundOr(err, msgTaskNotFound)
	}

	category, err := s.apply(ctx, task, input)
	if err != nil {
		s.logger.Warn("task update rejected", "user", userID, "task", taskID, "reason", err)
		return nil, err
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task updated", "user", userID, "task", task.ID, "title", task.Title, "category", categoryLabel(category))
	return s.view(ctx, *task)
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if err := s.taskRepo.Delete(ctx, userID, taskID); err != nil {
		return notFoundOr(err, msgTaskNotFound)
	}
	s.logger.Info("task deleted", "user", userID, "task", taskID)
	return nil
}

// CompleteTask marks a task as done. Completing a completed task is a no-op.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID string) (*TaskView, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFoundOr(err, msgTaskNotFound)
	}
	if err := s.taskRepo.MarkCompleted(ctx, task, s.calendar.Now()); err != nil {
		return nil, err
	}
	s.logger.Info("task completed", "user", userID, "task", task.ID, "title", task.Title)
	return s.view(ctx, *task)
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID string) (*TaskView, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFoundOr(err, msgTaskNotFound)
	}
	return s.view(ctx, *task)
}

// ListTasks returns the user's tasks matching a named filter and, when
// categoryID is a well-formed id, that category.
func (s *TaskService) ListTasks(ctx context.Context, userID, filter, categoryID string) ([]TaskView, error) {
	q := BuildQuery(userID, ParseFilter(filter), categoryID, s.calendar.Now())
	tasks, err := s.taskRepo.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("tasks listed", "user", userID, "filter", ParseFilter(filter), "category", q.CategoryID, "count", len(tasks))
	return ComposeViews(tasks, categories), nil
}

// Stats recomputes the user's statistics from the live task set.
func (s *TaskService) Stats(ctx context.Context, userID string) (*Stats, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(tasks, categories, s.calendar.Now())
	return &stats, nil
}

// apply validates input and copies it onto task. It returns the category
// the task ends up referencing when that category was set by input.
func (s *TaskService) apply(ctx context.Context, task *model.Task, input TaskInput) (*model.Category, error) {
	var category *model.Category
	if input.CategoryID != nil {
		id := strings.TrimSpace(*input.CategoryID)
		if id == "" {
			task.CategoryID = nil
		} else {
			found, err := s.categoryRepo.FindByID(ctx, task.UserID, id)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return nil, validationError(msgInvalidCategory)
			case err != nil:
				return nil, err
			}
			category = found
			task.CategoryID = &found.ID
		}
	}

	if input.Priority != nil {
		priority, ok := model.ParsePriority(*input.Priority)
		if !ok {
			return nil, validationError("Priority must be one of low, medium, high")
		}
		task.Priority = priority
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, validationError("Title is required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Deadline != nil {
		if input.Deadline.IsZero() {
			return nil, validationError("Deadline is required")
		}
		task.Deadline = *input.Deadline
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
		switch {
		case !task.Completed:
			task.CompletedAt = nil
		case task.CompletedAt == nil:
			now := s.calendar.Now()
			task.CompletedAt = &now
		}
	}
	if input.Reminder != nil {
		task.Reminder = *input.Reminder
	}
	switch {
	case input.ClearReminderTime:
		task.ReminderTime = nil
		task.ReminderSentAt = nil
	case input.ReminderTime != nil && (task.ReminderTime == nil || !task.ReminderTime.Equal(*input.ReminderTime)):
		at := *input.ReminderTime
		task.ReminderTime = &at
		task.ReminderSentAt = nil
	}
	return category, nil
}

func (s *TaskService) view(ctx context.Context, task model.Task) (*TaskView, error) {
	categories, err := s.categoryRepo.ListByUser(ctx, task.UserID)
	if err != nil {
		return nil, err
	}
	view := ComposeView(task, categoriesByID(categories))
	return &view, nil
}

func categoryLabel(category *model.Category) string {
	if category == nil {
		return "none"
	}
	return category.Name
}
