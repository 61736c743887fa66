package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"newsdesk/internal/api"
	"newsdesk/internal/cache"
	"newsdesk/internal/config"
	"newsdesk/internal/publisher"
	"newsdesk/internal/scheduler"
	"newsdesk/internal/service"
	"newsdesk/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Counts are always recomputable from the store, so a missing redis only
	// costs a query per request.
	var unread service.UnreadCache
	if !cfg.Redis.Disabled {
		counts, err := cache.NewUnreadCounts(cfg.Redis)
		if err != nil {
			logger.Warn("unread count cache unavailable", "error", err)
		} else {
			defer counts.Close()
			unread = counts
		}
	}

	newsStore := postgres.NewNewsStore(db)
	notificationStore := postgres.NewNotificationStore(db)
	categoryStore := postgres.NewCategoryStore(db)
	txManager := postgres.NewTransactionManager(db)

	notifications := service.NewNotificationService(notificationStore, rabbitMQ, unread, logger, cfg.Notifications)
	workflow := service.NewWorkflowService(newsStore, notifications, logger)
	news := service.NewNewsService(newsStore, categoryStore, txManager, logger)
	categories := service.NewCategoryService(categoryStore, logger)

	handlers := api.NewHandlers(news, workflow, notifications, categories)
	server := api.NewServer(cfg.HTTP, handlers, logger)

	relay := scheduler.NewScheduler(notifications, cfg.Notifications.RelayInterval, cfg.Notifications.RelayBatch, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("relay scheduler error", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Listen()
	}()

	logger.Info("starting newsdesk",
		"addr", cfg.HTTP.Addr,
		"relay_interval", cfg.Notifications.RelayInterval,
		"cache", unread != nil,
	)

	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logger.Error("http server error", "error", err)
		exitCode = 1
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
		exitCode = 1
	}
	<-relayDone

	logger.Info("newsdesk stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
