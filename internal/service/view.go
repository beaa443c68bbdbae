package service

import "task-manager/internal/model"

// UnknownCategoryName is shown for a task whose category no longer exists.
const UnknownCategoryName = "Unknown Category"

// TaskView is a task as returned to its owner, with the category's current
// name and color resolved at response time.
type TaskView struct {
	model.Task
	CategoryName  *string `json:"categoryName"`
	CategoryColor *string `json:"categoryColor"`
}

// ComposeView attaches category details to task. Tasks without a category
// get null fields; a dangling reference gets the unknown-category sentinel.
func ComposeView(task model.Task, categories map[string]model.Category) TaskView {
	view := TaskView{Task: task}
	if task.CategoryID == nil {
		return view
	}

	name, color := UnknownCategoryName, model.DefaultCategoryColor
	if cat, ok := categories[*task.CategoryID]; ok {
		name, color = cat.Name, cat.Color
	}
	view.CategoryName, view.CategoryColor = &name, &color
	return view
}

// ComposeViews composes every task against the owner's category list.
func ComposeViews(tasks []model.Task, categories []model.Category) []TaskView {
	byID := categoriesByID(categories)
	views := make([]TaskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, ComposeView(task, byID))
	}
	return views
}

func categoriesByID(categories []model.Category) map[string]model.Category {
	byID := make(map[string]model.Category, len(categories))
	for _, cat := range categories {
		byID[cat.ID] = cat
	}
	return byID
}
