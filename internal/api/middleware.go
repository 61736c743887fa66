package api

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/domain"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
	headerUserName = "X-User-Name"

	actorKey = "actor"
)

// requireActor reads the acting user from the headers set by the auth proxy.
func requireActor(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Get(headerUserID))
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing "+headerUserID+" header")
	}

	role, err := domain.ParseRole(c.Get(headerUserRole))
	if err != nil {
		return err
	}

	actor := domain.Actor{ID: id, Name: strings.TrimSpace(c.Get(headerUserName)), Role: role}
	if err := actor.Validate(); err != nil {
		return err
	}

	c.Locals(actorKey, actor)
	return c.Next()
}

func actorFrom(c *fiber.Ctx) domain.Actor {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	if !ok {
		panic(fmt.Sprintf("route %s %s registered without requireActor", c.Method(), c.Route().Path))
	}
	return actor
}

// requestLogger writes one access log line per request. Errors are resolved
// through the app error handler first so the logged status is the one sent.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
			"ip", c.IP(),
		}
		if actor, ok := c.Locals(actorKey).(domain.Actor); ok {
			attrs = append(attrs, "user_id", actor.ID)
		}
		logger.Info("request", attrs...)

		return nil
	}
}
