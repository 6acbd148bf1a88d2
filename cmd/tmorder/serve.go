package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmorder/tmorder/internal/api"
	"github.com/tmorder/tmorder/internal/bootstrap"
	"github.com/tmorder/tmorder/internal/bot"
	"github.com/tmorder/tmorder/internal/cache"
	"github.com/tmorder/tmorder/internal/config"
	"github.com/tmorder/tmorder/internal/job"
	"github.com/tmorder/tmorder/internal/migrations"
	"github.com/tmorder/tmorder/internal/notifier"
	"github.com/tmorder/tmorder/internal/reminder"
	"github.com/tmorder/tmorder/internal/repository/sqlite"
	"github.com/tmorder/tmorder/internal/service"
	"github.com/tmorder/tmorder/internal/support/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tmorder server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})

	db, err := bootstrap.OpenSQLite(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return err
	}

	store := sqlite.NewStore(db)

	calendarToken, tokenSource, err := bootstrap.ResolveCalendarToken(ctx, store.Settings(), cfg.Calendar.Token, time.Now)
	if err != nil {
		return err
	}
	logger.Info("calendar token resolved", "source", string(tokenSource))

	// Notification sink: real Telegram when configured, log-only otherwise.
	var sink notifier.Service
	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		telegramSink, err := notifier.NewTelegramService(notifier.TelegramOptions{
			Token:   cfg.Telegram.Token,
			APIBase: cfg.Telegram.APIBase,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		sink = telegramSink
	} else {
		logger.Warn("telegram disabled, reminders go to the log only")
		sink = notifier.NewLoggerService(logger)
	}

	engine, err := reminder.NewEngine(reminder.Options{
		Orders:         store.Orders(),
		Sink:           sink,
		Logger:         logger,
		FallbackChatID: cfg.Telegram.AdminChatID,
	})
	if err != nil {
		return err
	}

	orderService := service.NewOrderService(store.Orders())
	reminderService := service.NewReminderService(engine)
	calendarService := service.NewCalendarService(store.Orders(), calendarToken)
	systemService := service.NewSystemService(store.Orders(), Version)

	scheduler := job.NewScheduler(logger)
	if cfg.Reminder.Enabled {
		interval := cfg.Reminder.Interval
		if interval <= 0 {
			interval = 15 * time.Minute
		}
		scanJob := job.NewReminderScanJob(engine, logger)
		if _, err := scheduler.Register(fmt.Sprintf("@every %s", interval), scanJob); err != nil {
			return err
		}
	}
	scheduler.Start()

	if cfg.Telegram.Enabled && cfg.Telegram.Token != "" {
		source, err := bot.NewLongPollClient(bot.ClientOptions{
			Token:   cfg.Telegram.Token,
			APIBase: cfg.Telegram.APIBase,
			Timeout: cfg.Telegram.PollTimeout,
		})
		if err != nil {
			return err
		}
		chatBot, err := bot.New(bot.Options{
			Source: source,
			Sink:   sink,
			Orders: orderService,
			Cache:  cache.NewStore(cache.Options{DefaultTTL: 10 * time.Minute}),
			Logger: logger,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := chatBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot stopped unexpectedly", "error", err)
			}
		}()
	}

	router := api.NewRouter(logger, api.Services{
		Orders:    orderService,
		Reminders: reminderService,
		Calendar:  calendarService,
		System:    systemService,
	}, cfg.Metrics)

	server := bootstrap.NewHTTPServer(cfg, router)

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "env", cfg.Log.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server exited cleanly")
	return nil
}
