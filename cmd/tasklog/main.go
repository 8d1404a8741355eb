package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tasklog/internal/api"
	"tasklog/internal/auth"
	"tasklog/internal/config"
	"tasklog/internal/notify"
	"tasklog/internal/repository"
	"tasklog/internal/service"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s\n\nConfigured through environment variables:\n\n%s\n", os.Args[0], config.Usage())
	}
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("tasklog stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := newLogger(cfg)
	slog.SetDefault(log)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	prefsRepo := repository.NewNotificationRepository(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	taskSvc := service.NewTaskService(taskRepo, log)
	userSvc := service.NewUserService(userRepo, prefsRepo, tokens, log)

	if cfg.RemindersEnabled() {
		stopReminders, err := startReminders(ctx, cfg, taskRepo, prefsRepo, log)
		if err != nil {
			return err
		}
		defer stopReminders()
	} else {
		log.Info("TELEGRAM_TOKEN not set, reminders disabled")
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(api.Services{
		Users:     userSvc,
		Tasks:     taskSvc,
		TimeLog:   service.NewTimeLogService(taskSvc, log),
		Analytics: service.NewAnalyticsService(taskSvc),
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

// startReminders connects the Telegram bot and schedules the due-date scan.
// The returned func stops the scheduler.
func startReminders(ctx context.Context, cfg config.Config, taskRepo *repository.TaskRepository, prefsRepo *repository.NotificationRepository, log *slog.Logger) (func(), error) {
	bot, err := notify.New(cfg.TelegramToken, log)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	reminders := service.NewReminderService(taskRepo, prefsRepo, bot, log)

	job := func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := reminders.SendDueReminders(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("send reminders", "error", err)
		}
	}

	scheduler := service.NewSchedulerService(time.Local, log)
	if cfg.ReminderDailyAt != "" {
		_, err = scheduler.ScheduleDaily(cfg.ReminderDailyAt, job)
	} else {
		_, err = scheduler.ScheduleInterval(cfg.ReminderInterval, job)
	}
	if err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	scheduler.Start()

	go func() {
		if err := bot.Start(ctx); err != nil {
			log.Error("telegram bot stopped", "error", err)
		}
	}()

	return scheduler.Stop, nil
}

func newLogger(cfg config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Env == config.EnvProduction {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
