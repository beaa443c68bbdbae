package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

// Notifier delivers a message to a user's chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReminderKind says why a task shows up in today's reminders.
type ReminderKind string

const (
	ReminderDue      ReminderKind = "due"
	ReminderReminder ReminderKind = "reminder"
	ReminderBoth     ReminderKind = "both"
)

// ReminderItem is an open task that is due today and/or has a reminder today.
type ReminderItem struct {
	TaskView
	Kind ReminderKind `json:"kind"`
}

// ReminderService finds due reminders and builds human-readable summaries.
type ReminderService struct {
	userRepo     *repository.UserRepository
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	notifier     Notifier
	calendar     Calendar
	logger       *log.Logger
}

func NewReminderService(userRepo *repository.UserRepository, taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, notifier Notifier, calendar Calendar, logger *log.Logger) *ReminderService {
	return &ReminderService{
		userRepo:     userRepo,
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		notifier:     notifier,
		calendar:     calendar,
		logger:       logger,
	}
}

// Today lists the user's open tasks that are due today or have a reminder
// set for today.
func (s *ReminderService) Today(ctx context.Context, userID string) ([]ReminderItem, error) {
	now := s.calendar.Now()
	completed := false
	tasks, err := s.taskRepo.Find(ctx, repository.TaskQuery{UserID: userID, Completed: &completed})
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := categoriesByID(categories)

	items := make([]ReminderItem, 0)
	for _, task := range tasks {
		kind, ok := reminderKind(task, now)
		if !ok {
			continue
		}
		items = append(items, ReminderItem{TaskView: ComposeView(task, byID), Kind: kind})
	}
	return items, nil
}

func reminderKind(task model.Task, now time.Time) (ReminderKind, bool) {
	dueToday := sameDay(now, task.Deadline)
	remindToday := task.Reminder && task.ReminderTime != nil && sameDay(now, *task.ReminderTime)
	switch {
	case dueToday && remindToday:
		return ReminderBoth, true
	case dueToday:
		return ReminderDue, true
	case remindToday:
		return ReminderReminder, true
	default:
		return "", false
	}
}

// DispatchDue sends every reminder whose time has come and marks it sent.
// Delivery is attempted once; failures are logged and not retried.
func (s *ReminderService) DispatchDue(ctx context.Context) (int, error) {
	now := s.calendar.Now()
	tasks, err := s.taskRepo.ListDueReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	users := make(map[string]*model.User)
	sent := 0
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}

		user, ok := users[task.UserID]
		if !ok {
			user, err = s.userRepo.FindByID(ctx, task.UserID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return sent, err
			}
			users[task.UserID] = user
		}

		switch {
		case user == nil || user.TelegramChatID == nil:
			s.logger.Debug("reminder has no chat", "user", task.UserID, "task", task.ID)
		default:
			text := s.formatReminder(ctx, task, now)
			if err := s.notifier.Notify(ctx, *user.TelegramChatID, text); err != nil {
				s.logger.Error("send reminder", "user", task.UserID, "task", task.ID, "err", err)
			} else {
				sent++
			}
		}

		if err := s.taskRepo.MarkReminderSent(ctx, task.ID, now); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// SendDailyDigests sends the daily summary to every user with a linked chat.
func (s *ReminderService) SendDailyDigests(ctx context.Context) error {
	users, err := s.userRepo.ListWithTelegram(ctx)
	if err != nil {
		return err
	}
	now := s.calendar.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, err := s.DailySummary(ctx, user, now)
		if err != nil {
			s.logger.Error("build summary", "user", user.ID, "err", err)
			continue
		}
		if err := s.notifier.Notify(ctx, *user.TelegramChatID, text); err != nil {
			s.logger.Error("send summary", "user", user.ID, "err", err)
		}
	}
	return nil
}

// DailySummary renders the user's open tasks, soonest deadline first.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	completed := false
	tasks, err := s.taskRepo.Find(ctx, repository.TaskQuery{UserID: user.ID, Completed: &completed})
	if err != nil {
		return "", err
	}
	categories, err := s.categoryRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	byID := categoriesByID(categories)

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Deadline.Before(tasks[j].Deadline)
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString("🔥 <b>Open tasks</b>\n")
	if len(tasks) == 0 {
		builder.WriteString("— nothing open\n")
	}
	for _, task := range tasks {
		builder.WriteString(formatTask(ComposeView(task, byID), now))
	}

	return strings.TrimSpace(builder.String()), nil
}

func (s *ReminderService) formatReminder(ctx context.Context, task model.Task, now time.Time) string {
	categories, err := s.categoryRepo.ListByUser(ctx, task.UserID)
	if err != nil {
		s.logger.Warn("load categories for reminder", "user", task.UserID, "err", err)
	}
	return "🔔 <b>Reminder</b>\n" + formatTask(ComposeView(task, categoriesByID(categories)), now)
}

func formatTask(task TaskView, now time.Time) string {
	var sb strings.Builder

	deadline := task.Deadline.In(now.Location())
	icon := "🟢"
	switch {
	case now.After(deadline):
		icon = "⚠️"
	case deadline.Sub(now) <= 48*time.Hour:
		icon = "⏳"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))
	if task.CategoryName != nil {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(*task.CategoryName)))
	}
	if task.Priority == model.PriorityHigh {
		sb.WriteString(" ‼️")
	}

	if now.After(deadline) {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>overdue</b>", deadline.Format("2006-01-02 15:04")))
	} else {
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", deadline.Format("2006-01-02 15:04")))
	}

	if desc := strings.TrimSpace(task.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(desc)))
	}

	sb.WriteByte('\n')
	return sb.String()
}
