package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"task-manager/internal/service"
)

type taskRequest struct {
	Title        *string     `json:"title" validate:"omitempty,max=200"`
	Description  *string     `json:"description"`
	Deadline     *Timestamp  `json:"deadline"`
	CategoryID   nullableRef `json:"categoryId"`
	Priority     *string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Completed    *bool       `json:"completed"`
	Reminder     *bool       `json:"reminder"`
	ReminderTime Timestamp   `json:"reminderTime"`
}

func (r taskRequest) input(loc *time.Location) service.TaskInput {
	return service.TaskInput{
		Title:             r.Title,
		Description:       r.Description,
		Deadline:          r.Deadline.In(loc),
		CategoryID:        r.CategoryID.input(),
		Priority:          r.Priority,
		Completed:         r.Completed,
		Reminder:          r.Reminder,
		ReminderTime:      r.ReminderTime.In(loc),
		ClearReminderTime: r.ReminderTime.Cleared(),
	}
}

// nullableRef is an id field where null detaches the reference and an
// absent field leaves it alone.
type nullableRef struct {
	id   string
	set  bool
	null bool
}

func (n *nullableRef) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*n = nullableRef{set: true, null: true}
		return nil
	}
	var id string
	if err := json.Unmarshal(b, &id); err != nil {
		return fmt.Errorf("id must be a string: %w", err)
	}
	*n = nullableRef{id: id, set: true}
	return nil
}

func (n nullableRef) input() *string {
	switch {
	case !n.set:
		return nil
	case n.null:
		empty := ""
		return &empty
	default:
		id := n.id
		return &id
	}
}

type TaskHandler struct {
	tasks     *service.TaskService
	reminders *service.ReminderService
	location  *time.Location
}

func NewTaskHandler(tasks *service.TaskService, reminders *service.ReminderService, location *time.Location) *TaskHandler {
	return &TaskHandler{tasks: tasks, reminders: reminders, location: location}
}

func (h *TaskHandler) List(c echo.Context) error {
	views, err := h.tasks.ListTasks(c.Request().Context(), currentUser(c).ID, c.QueryParam("filter"), c.QueryParam("categoryId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *TaskHandler) Get(c echo.Context) error {
	view, err := h.tasks.GetTask(c.Request().Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *TaskHandler) Create(c echo.Context) error {
	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	view, err := h.tasks.CreateTask(c.Request().Context(), currentUser(c).ID, req.input(h.location))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *TaskHandler) Update(c echo.Context) error {
	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	view, err := h.tasks.UpdateTask(c.Request().Context(), currentUser(c).ID, c.Param("id"), req.input(h.location))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.tasks.DeleteTask(c.Request().Context(), currentUser(c).ID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Task deleted"})
}

func (h *TaskHandler) Complete(c echo.Context) error {
	view, err := h.tasks.CompleteTask(c.Request().Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *TaskHandler) Stats(c echo.Context) error {
	stats, err := h.tasks.Stats(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Reminders lists today's due tasks and reminders.
func (h *TaskHandler) Reminders(c echo.Context) error {
	items, err := h.reminders.Today(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
