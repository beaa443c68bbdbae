package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority returns the priority named by s; empty means medium.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case "":
		return PriorityMedium, true
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), true
	default:
		return "", false
	}
}

// Task represents a single item in the planner. Timestamps are stored in UTC.
type Task struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"index;not null" json:"userId"`
	CategoryID     *string    `gorm:"index;size:36" json:"categoryId,omitempty"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `json:"description"`
	Deadline       time.Time  `gorm:"index;not null" json:"deadline"`
	Completed      bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	Priority       Priority   `gorm:"size:8;not null;default:medium" json:"priority"`
	Reminder       bool       `gorm:"not null;default:false" json:"reminder"`
	ReminderTime   *time.Time `gorm:"index" json:"reminderTime"`
	ReminderSentAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}
