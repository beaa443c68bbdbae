package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"task-manager/internal/service"
)

const msgServerError = "Server error"

// ErrorHandler renders every error as {"message": ...}. Service errors keep
// their message; anything unexpected becomes a generic 500.
func ErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "user", userIDOrEmpty(c), "err", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"message": msg})
		}
		if err != nil {
			logger.Error("write error response", "err", err)
		}
	}
}

func classify(err error) (int, string) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(svcErr.Kind, service.ErrNotFound):
			return http.StatusNotFound, svcErr.Message
		case errors.Is(svcErr.Kind, service.ErrValidation), errors.Is(svcErr.Kind, service.ErrInvalidCredentials):
			return http.StatusBadRequest, svcErr.Message
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, msgServerError
		}
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	}

	return http.StatusInternalServerError, msgServerError
}
