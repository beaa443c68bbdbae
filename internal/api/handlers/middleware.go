package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"task-manager/internal/auth"
)

const userContextKey = "user"

// RequireAuth rejects requests without a valid bearer token and stores the
// token's claims in the context.
func RequireAuth(tokens *auth.Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid").SetInternal(err)
			}
			c.Set(userContextKey, claims)
			return next(c)
		}
	}
}

// currentUser returns the claims placed by RequireAuth.
func currentUser(c echo.Context) *auth.Claims {
	claims, _ := c.Get(userContextKey).(*auth.Claims)
	return claims
}

func userIDOrEmpty(c echo.Context) string {
	if claims := currentUser(c); claims != nil {
		return claims.ID
	}
	return ""
}

// RequestLogger logs one line per request.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.Round(time.Microsecond),
				"user", userIDOrEmpty(c),
			)
			return nil
		},
	})
}
