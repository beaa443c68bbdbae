package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-manager/internal/api"
	"task-manager/internal/auth"
	"task-manager/internal/bot"
	"task-manager/internal/config"
	"task-manager/internal/logging"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Fatal("config", "err", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db", "err", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	tokens, err := auth.NewTokens(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("tokens", "err", err)
	}
	calendar := service.NewCalendar(cfg.Location)

	var notifier service.Notifier = bot.LogNotifier{Logger: logger}
	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken, logger)
		if err != nil {
			logger.Fatal("bot", "err", err)
		}
		notifier = telegramBot
	} else {
		logger.Warn("TELEGRAM_TOKEN not set, reminders are only logged")
	}

	reminderSvc := service.NewReminderService(userRepo, taskRepo, categoryRepo, notifier, calendar, logger)
	services := api.Services{
		Auth:       service.NewAuthService(userRepo, tokens, logger),
		Tasks:      service.NewTaskService(taskRepo, categoryRepo, calendar, logger),
		Categories: service.NewCategoryService(userRepo, categoryRepo, taskRepo, logger),
		Reminders:  reminderSvc,
	}

	scheduler := service.NewSchedulerService(cfg.Location, logger)
	if cfg.ReminderInterval > 0 {
		if _, err := scheduler.ScheduleInterval("reminders", cfg.ReminderInterval, func(ctx context.Context) error {
			_, err := reminderSvc.DispatchDue(ctx)
			return err
		}); err != nil {
			logger.Fatal("schedule reminders", "err", err)
		}
	}
	if cfg.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily("digest", cfg.DigestTime, reminderSvc.SendDailyDigests); err != nil {
			logger.Fatal("schedule digest", "err", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot stopped", "err", err)
			}
		}()
	}

	e := api.NewRouter(services, tokens, cfg.Location, logger)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("shutdown complete")
}
