package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"newsdesk/internal/domain"
)

type NewsService interface {
	Create(ctx context.Context, actor domain.Actor, content domain.NewsContent) (*domain.NewsItem, error)
	Get(ctx context.Context, id string) (*domain.NewsItem, error)
	List(ctx context.Context, filter domain.NewsFilter) ([]domain.NewsItem, error)
	UpdateContent(ctx context.Context, actor domain.Actor, id string, content domain.NewsContent) (*domain.NewsItem, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type WorkflowService interface {
	RequestTransition(ctx context.Context, newsID string, requested domain.Status, actor domain.Actor) (*domain.NewsItem, error)
	AvailableTransitions(ctx context.Context, newsID string, actor domain.Actor) ([]domain.Status, error)
}

type NotificationService interface {
	ListForRecipient(ctx context.Context, userID string, role domain.Role) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string, role domain.Role) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string, role domain.Role) (int, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, actor domain.Actor, name, description string) (*domain.Category, error)
	Update(ctx context.Context, actor domain.Actor, id, name, description string) (*domain.Category, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}
