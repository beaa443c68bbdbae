package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"task-manager/internal/api/handlers"
	"task-manager/internal/auth"
	"task-manager/internal/service"
)

// Services are the business services exposed over HTTP.
type Services struct {
	Auth       *service.AuthService
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Reminders  *service.ReminderService
}

// NewRouter builds the REST API. Everything under /api except registration
// and login requires a bearer token.
func NewRouter(svc Services, tokens *auth.Tokens, location *time.Location, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(handlers.RequestLogger(logger))

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "API is running...")
	})

	requireAuth := handlers.RequireAuth(tokens)
	authHandler := handlers.NewAuthHandler(svc.Auth)
	taskHandler := handlers.NewTaskHandler(svc.Tasks, svc.Reminders, location)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)

	api := e.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.PUT("/auth/telegram", authHandler.LinkTelegram, requireAuth)

	tasks := api.Group("/tasks", requireAuth)
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/stats", taskHandler.Stats)
	tasks.GET("/reminders", taskHandler.Reminders)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.PATCH("/:id/complete", taskHandler.Complete)

	categories := api.Group("/categories", requireAuth)
	categories.GET("", categoryHandler.List)
	categories.POST("", categoryHandler.Create)
	categories.PUT("/:id", categoryHandler.Update)
	categories.DELETE("/:id", categoryHandler.Delete)

	return e
}
