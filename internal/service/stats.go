package service

import (
	"sort"
	"time"

	"task-manager/internal/model"
)

const (
	trendMonths = 6
	recentLimit = 5
)

// Stats summarizes a user's tasks at one instant.
type Stats struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Pending    int            `json:"pending"`
	Overdue    int            `json:"overdue"`
	Today      int            `json:"today"`
	ByCategory []CategoryStat `json:"byCategory"`
	Monthly    []MonthStat    `json:"monthly"`
	Recent     []TaskView     `json:"recent"`
}

type CategoryStat struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Count      int    `json:"count"`
	Completed  int    `json:"completed"`
}

// MonthStat counts the tasks whose deadline falls in Month ("2006-01").
type MonthStat struct {
	Month     string `json:"month"`
	Label     string `json:"label"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// ComputeStats aggregates tasks, all owned by one user, relative to now.
// Calendar days and months are taken in now's location.
func ComputeStats(tasks []model.Task, categories []model.Category, now time.Time) Stats {
	stats := Stats{
		Total:      len(tasks),
		ByCategory: make([]CategoryStat, 0, len(categories)),
		Monthly:    make([]MonthStat, 0, trendMonths),
	}

	perCategory := make(map[string]*CategoryStat, len(categories))
	for _, cat := range categories {
		stats.ByCategory = append(stats.ByCategory, CategoryStat{CategoryID: cat.ID, Name: cat.Name, Color: cat.Color})
	}
	for i := range stats.ByCategory {
		perCategory[stats.ByCategory[i].CategoryID] = &stats.ByCategory[i]
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	perMonth := make(map[string]*MonthStat, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		month := firstOfMonth.AddDate(0, -i, 0)
		stats.Monthly = append(stats.Monthly, MonthStat{
			Month: month.Format("2006-01"),
			Label: month.Format("Jan"),
		})
	}
	for i := range stats.Monthly {
		perMonth[stats.Monthly[i].Month] = &stats.Monthly[i]
	}

	var recent []model.Task
	for _, task := range tasks {
		deadline := task.Deadline.In(now.Location())
		overdue := !task.Completed && deadline.Before(now)

		if task.Completed {
			stats.Completed++
		}
		if overdue {
			stats.Overdue++
		}
		if sameDay(now, deadline) {
			stats.Today++
		}
		if task.Completed || overdue {
			recent = append(recent, task)
		}

		if task.CategoryID != nil {
			if cs, ok := perCategory[*task.CategoryID]; ok {
				cs.Count++
				if task.Completed {
					cs.Completed++
				}
			}
		}
		if ms, ok := perMonth[deadline.Format("2006-01")]; ok {
			ms.Total++
			if task.Completed {
				ms.Completed++
			}
		}
	}
	stats.Pending = stats.Total - stats.Completed

	sort.SliceStable(recent, func(i, j int) bool {
		return activityTime(recent[i]).After(activityTime(recent[j]))
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	stats.Recent = ComposeViews(recent, categories)

	return stats
}

func activityTime(task model.Task) time.Time {
	if task.CompletedAt != nil {
		return *task.CompletedAt
	}
	return task.UpdatedAt
}
