package service

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"task-manager/internal/auth"
	"task-manager/internal/model"
	"task-manager/internal/repository"
)

const (
	msgUserExists       = "User already exists"
	msgCredentialsWrong = "your email or password do not match"
)

// PublicUser is the part of a user that is safe to hand back to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is returned on successful registration or login.
type Session struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.Tokens
	logger   *log.Logger
	cost     int
}

func NewAuthService(userRepo *repository.UserRepository, tokens *auth.Tokens, logger *log.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, logger: logger, cost: bcrypt.DefaultCost}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, validationError("Name, email and password are required")
	}

	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, validationError(msgUserExists)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	user := model.User{Name: name, Email: email, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationError(msgUserExists)
		}
		return nil, err
	}

	s.logger.Info("user registered", "user", user.ID)
	return s.session(user)
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, &Error{Kind: ErrInvalidCredentials, Message: msgCredentialsWrong}
	case err != nil:
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("login rejected", "user", user.ID)
		return nil, &Error{Kind: ErrInvalidCredentials, Message: msgCredentialsWrong}
	}

	return s.session(*user)
}

// LinkTelegram stores the chat that reminders for userID are delivered to.
// A zero chatID unlinks it.
func (s *AuthService) LinkTelegram(ctx context.Context, userID string, chatID int64) error {
	var chat *int64
	if chatID != 0 {
		chat = &chatID
	}
	if err := s.userRepo.SetTelegramChat(ctx, userID, chat); err != nil {
		return notFoundOr(err, "User not found")
	}
	s.logger.Info("telegram chat linked", "user", userID, "linked", chat != nil)
	return nil
}

func (s *AuthService) session(user model.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token: token,
		User:  PublicUser{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
