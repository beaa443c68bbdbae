package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"task-manager/internal/model"
	"task-manager/internal/repository"
)

const msgCategoryExists = "Category with this name already exists"

// CategoryInput carries the fields a client may set on a category.
type CategoryInput struct {
	Name  string
	Color string
}

// CategoryService manages a user's categories and keeps tasks consistent
// with them.
type CategoryService struct {
	userRepo     *repository.UserRepository
	categoryRepo *repository.CategoryRepository
	taskRepo     *repository.TaskRepository
	logger       *log.Logger
}

func NewCategoryService(userRepo *repository.UserRepository, categoryRepo *repository.CategoryRepository, taskRepo *repository.TaskRepository, logger *log.Logger) *CategoryService {
	return &CategoryService{userRepo: userRepo, categoryRepo: categoryRepo, taskRepo: taskRepo, logger: logger}
}

func (s *CategoryService) Create(ctx context.Context, userID string, input CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("Category name is required")
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.checkNameFree(ctx, userID, name, ""); err != nil {
		s.logger.Warn("category create rejected", "user", userID, "name", name, "reason", err)
		return nil, err
	}

	category := model.Category{UserID: userID, Name: name, Color: strings.TrimSpace(input.Color)}
	if err := s.categoryRepo.Create(ctx, &category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError(msgCategoryExists)
		}
		return nil, err
	}

	s.logger.Info("category created", "user", userID, "category", category.ID, "name", category.Name)
	return &category, nil
}

func (s *CategoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.categoryRepo.ListByUser(ctx, userID)
}

// Update renames and/or recolors a category. Empty fields are left as they are.
func (s *CategoryService) Update(ctx context.Context, userID, categoryID string, input CategoryInput) (*model.Category, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.FindByID(ctx, userID, categoryID)
	if err != nil {
		return nil, notFoundOr(err, "Category not found")
	}

	oldName := category.Name
	if name := strings.TrimSpace(input.Name); name != "" {
		if err := s.checkNameFree(ctx, userID, name, category.ID); err != nil {
			s.logger.Warn("category update rejected", "user", userID, "category", categoryID, "name", name, "reason", err)
			return nil, err
		}
		category.Name = name
	}
	if color := strings.TrimSpace(input.Color); color != "" {
		category.Color = color
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError(msgCategoryExists)
		}
		return nil, err
	}

	s.logger.Info("category updated", "user", userID, "category", categoryID, "from", oldName, "to", category.Name)
	return category, nil
}

// Delete removes a category and detaches it from every task that used it.
// The tasks themselves are kept.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID string) error {
	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	category, err := s.categoryRepo.FindByID(ctx, userID, categoryID)
	if err != nil {
		return notFoundOr(err, "Category not found")
	}

	if err := s.categoryRepo.Delete(ctx, userID, category.ID); err != nil {
		return notFoundOr(err, "Category not found")
	}

	updated, err := s.taskRepo.ClearCategory(ctx, userID, category.ID)
	if err != nil {
		return fmt.Errorf("detach tasks from category %s: %w", category.ID, err)
	}

	s.logger.Info("category deleted", "user", userID, "category", category.ID, "name", category.Name, "tasks_updated", updated)
	return nil
}

// checkNameFree fails when another category of the user (other than
// exceptID) already carries name, compared case-insensitively.
func (s *CategoryService) checkNameFree(ctx context.Context, userID, name, exceptID string) error {
	existing, err := s.categoryRepo.FindByName(ctx, userID, name)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find category: %w", err)
	case existing.ID == exceptID:
		return nil
	default:
		return validationError(msgCategoryExists)
	}
}

func (s *CategoryService) ensureUser(ctx context.Context, userID string) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return notFoundOr(err, "User not found")
	}
	return nil
}
