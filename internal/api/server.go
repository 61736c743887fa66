package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"newsdesk/internal/config"
)

type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger
}

func NewServer(cfg config.HTTPConfig, h *Handlers, logger *slog.Logger) *Server {
	logger = logger.With("component", "http")

	app := fiber.New(fiber.Config{
		AppName:               "newsdesk",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))
	registerRoutes(app, h)

	return &Server{app: app, addr: cfg.Addr, logger: logger}
}

func registerRoutes(app *fiber.App, h *Handlers) {
	api := app.Group("/api/v1")

	api.Get("/health", h.Health)

	news := api.Group("/news", requireActor)
	news.Get("", h.ListNews)
	news.Post("", h.CreateNews)
	news.Get("/:id", h.GetNews)
	news.Put("/:id", h.UpdateNews)
	news.Delete("/:id", h.DeleteNews)
	news.Get("/:id/transitions", h.AvailableTransitions)
	news.Post("/:id/transitions", h.RequestTransition)

	notifications := api.Group("/notifications", requireActor)
	notifications.Get("", h.ListNotifications)
	notifications.Get("/unread-count", h.UnreadCount)
	notifications.Post("/read-all", h.MarkAllRead)
	notifications.Post("/:id/read", h.MarkRead)
	notifications.Delete("/:id", h.DeleteNotification)

	categories := api.Group("/categories")
	categories.Get("", h.ListCategories)
	categories.Post("", requireActor, h.CreateCategory)
	categories.Put("/:id", requireActor, h.UpdateCategory)
	categories.Delete("/:id", requireActor, h.DeleteCategory)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "endpoint not found")
	})
}

func (s *Server) Listen() error {
	s.logger.Info("http server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
