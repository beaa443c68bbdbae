package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// Category groups tasks of one user (work, health, study, etc.).
// NameKey holds the lower-cased name so the (user, name) pair stays unique
// regardless of case.
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"uniqueIndex:idx_user_category_name;not null" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	NameKey   string    `gorm:"uniqueIndex:idx_user_category_name;not null" json:"-"`
	Color     string    `gorm:"not null" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryNameKey normalizes a category name for uniqueness checks.
func CategoryNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Category) BeforeSave(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.NameKey = CategoryNameKey(c.Name)
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	return nil
}
