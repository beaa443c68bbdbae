package service

import (
	"time"

	"github.com/google/uuid"

	"task-manager/internal/repository"
)

// Filter names a predicate over a user's tasks for listing.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterToday     Filter = "today"
	FilterCompleted Filter = "completed"
	FilterUpcoming  Filter = "upcoming"
)

// ParseFilter maps a query value to a Filter. Absent or unknown values mean all.
func ParseFilter(raw string) Filter {
	switch f := Filter(raw); f {
	case FilterToday, FilterCompleted, FilterUpcoming:
		return f
	default:
		return FilterAll
	}
}

// BuildQuery translates a filter and optional category into a task query
// for userID. Day boundaries are taken in now's location. A categoryID that
// is not a well-formed id is ignored.
func BuildQuery(userID string, filter Filter, categoryID string, now time.Time) repository.TaskQuery {
	q := repository.TaskQuery{UserID: userID}

	switch filter {
	case FilterToday:
		from, to := StartOfDay(now), EndOfDay(now)
		q.DeadlineFrom, q.DeadlineTo = &from, &to
	case FilterCompleted:
		completed := true
		q.Completed = &completed
	case FilterUpcoming:
		after := EndOfDay(now)
		q.DeadlineAfter = &after
	}

	if id, ok := canonicalID(categoryID); ok {
		q.CategoryID = id
	}
	return q
}

// canonicalID returns id in the lowercase hyphenated form ids are stored in.
func canonicalID(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
