package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"newsdesk/internal/domain"
)

type NewsStore interface {
	Create(ctx context.Context, item *domain.NewsItem) error
	Get(ctx context.Context, id string) (*domain.NewsItem, error)
	List(ctx context.Context, filter domain.NewsFilter) ([]domain.NewsItem, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error
	UpdateContent(ctx context.Context, id string, content domain.NewsContent, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, id string) (*domain.Notification, error)
	ListByRecipients(ctx context.Context, recipients []string, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipients []string) (int, error)
	MarkRead(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	ListUndelivered(ctx context.Context, limit int) ([]domain.Notification, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
	Close() error
}

type UnreadCache interface {
	Get(ctx context.Context, userID string, role domain.Role) (int, bool, error)
	Version(ctx context.Context, userID string, role domain.Role) (string, error)
	SetIfVersion(ctx context.Context, userID string, role domain.Role, count int, version string) (bool, error)
	Invalidate(ctx context.Context, recipient domain.Recipient) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.NotificationRequest)
}
