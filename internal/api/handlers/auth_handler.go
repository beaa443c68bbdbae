package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"task-manager/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type linkTelegramRequest struct {
	ChatID int64 `json:"chatId"`
}

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	session, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// LinkTelegram sets the chat reminders are sent to; chatId 0 unlinks it.
func (h *AuthHandler) LinkTelegram(c echo.Context) error {
	var req linkTelegramRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.auth.LinkTelegram(c.Request().Context(), currentUser(c).ID, req.ChatID); err != nil {
		return err
	}
	msg := "Telegram chat linked"
	if req.ChatID == 0 {
		msg = "Telegram chat unlinked"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}
