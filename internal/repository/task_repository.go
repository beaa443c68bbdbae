package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"task-manager/internal/model"
)

// TaskQuery is an owner-scoped predicate over the task table. Nil bounds
// and an empty CategoryID leave the corresponding column unconstrained.
type TaskQuery struct {
	UserID        string
	DeadlineFrom  *time.Time
	DeadlineTo    *time.Time
	DeadlineAfter *time.Time
	Completed     *bool
	CategoryID    string
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	normalizeTimes(task)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Find returns the tasks matching q, soonest deadline first.
func (r *TaskRepository) Find(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	if q.UserID == "" {
		return nil, fmt.Errorf("find tasks: owner is required")
	}
	db := r.db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.DeadlineFrom != nil {
		db = db.Where("deadline >= ?", q.DeadlineFrom.UTC())
	}
	if q.DeadlineTo != nil {
		db = db.Where("deadline <= ?", q.DeadlineTo.UTC())
	}
	if q.DeadlineAfter != nil {
		db = db.Where("deadline > ?", q.DeadlineAfter.UTC())
	}
	if q.Completed != nil {
		db = db.Where("completed = ?", *q.Completed)
	}
	if q.CategoryID != "" {
		db = db.Where("category_id = ?", q.CategoryID)
	}

	var tasks []model.Task
	if err := db.Order("deadline ASC, created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	return r.Find(ctx, TaskQuery{UserID: userID})
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	normalizeTimes(task)
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// MarkCompleted flags the task as done. Completing an already completed
// task keeps its original completion time.
func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) error {
	if task.Completed && task.CompletedAt != nil {
		return nil
	}
	at := completedAt.UTC()
	task.Completed = true
	task.CompletedAt = &at
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearCategory unsets the category on every task of the user that
// references categoryID and reports how many tasks changed.
func (r *TaskRepository) ClearCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND category_id = ?", userID, categoryID).
		Update("category_id", nil)
	if res.Error != nil {
		return 0, fmt.Errorf("clear task category: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListDueReminders returns open tasks, across all users, whose reminder time
// has passed and that have not been reminded yet.
func (r *TaskRepository) ListDueReminders(ctx context.Context, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("reminder = ? AND completed = ? AND reminder_sent_at IS NULL AND reminder_time IS NOT NULL AND reminder_time <= ?",
			true, false, now.UTC()).
		Order("user_id ASC, reminder_time ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) MarkReminderSent(ctx context.Context, taskID string, sentAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", taskID).
		Update("reminder_sent_at", sentAt.UTC()).Error
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// normalizeTimes stores every timestamp in UTC so that SQLite's text
// comparison orders them chronologically.
func normalizeTimes(task *model.Task) {
	task.Deadline = task.Deadline.UTC()
	for _, ts := range []**time.Time{&task.CompletedAt, &task.ReminderTime, &task.ReminderSentAt} {
		if *ts != nil {
			t := (*ts).UTC()
			*ts = &t
		}
	}
}
