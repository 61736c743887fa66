package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsdesk/internal/domain"
)

type Handlers struct {
	news          NewsService
	workflow      WorkflowService
	notifications NotificationService
	categories    CategoryService
}

func NewHandlers(
	news NewsService,
	workflow WorkflowService,
	notifications NotificationService,
	categories CategoryService,
) *Handlers {
	return &Handlers{
		news:          news,
		workflow:      workflow,
		notifications: notifications,
		categories:    categories,
	}
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListNews handles GET /news?author=&status=&limit=
func (h *Handlers) ListNews(c *fiber.Ctx) error {
	filter := domain.NewsFilter{
		AuthorID: c.Query("author"),
		Status:   domain.Status(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}

	items, err := h.news.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *Handlers) CreateNews(c *fiber.Ctx) error {
	var req newsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.news.Create(c.UserContext(), actorFrom(c), req.content())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *Handlers) GetNews(c *fiber.Ctx) error {
	item, err := h.news.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (h *Handlers) UpdateNews(c *fiber.Ctx) error {
	var req newsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.news.UpdateContent(c.UserContext(), actorFrom(c), c.Params("id"), req.content())
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (h *Handlers) DeleteNews(c *fiber.Ctx) error {
	if err := h.news.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RequestTransition handles POST /news/:id/transitions.
func (h *Handlers) RequestTransition(c *fiber.Ctx) error {
	var req transitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.workflow.RequestTransition(c.UserContext(), c.Params("id"), domain.Status(req.Status), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

func (h *Handlers) AvailableTransitions(c *fiber.Ctx) error {
	id := c.Params("id")
	statuses, err := h.workflow.AvailableTransitions(c.UserContext(), id, actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(newTransitionsResponse(id, statuses))
}

func (h *Handlers) ListNotifications(c *fiber.Ctx) error {
	actor := actorFrom(c)
	items, err := h.notifications.ListForRecipient(c.UserContext(), actor.ID, actor.Role)
	if err != nil {
		return err
	}

	resp := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, newNotificationResponse(n))
	}
	return c.JSON(resp)
}

func (h *Handlers) UnreadCount(c *fiber.Ctx) error {
	actor := actorFrom(c)
	count, err := h.notifications.UnreadCount(c.UserContext(), actor.ID, actor.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	actor := actorFrom(c)
	marked, err := h.notifications.MarkAllRead(c.UserContext(), actor.ID, actor.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"marked": marked})
}

func (h *Handlers) DeleteNotification(c *fiber.Ctx) error {
	if err := h.notifications.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.categories.Create(c.UserContext(), actorFrom(c), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *Handlers) UpdateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.categories.Update(c.UserContext(), actorFrom(c), c.Params("id"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(category)
}

func (h *Handlers) DeleteCategory(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
