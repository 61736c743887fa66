package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/domain"
)

type NewsService struct {
	news       NewsStore
	categories CategoryStore
	txManager  TransactionManager
	logger     *slog.Logger
	now        func() time.Time
}

func NewNewsService(news NewsStore, categories CategoryStore, txManager TransactionManager, logger *slog.Logger) *NewsService {
	return &NewsService{
		news:       news,
		categories: categories,
		txManager:  txManager,
		logger:     logger.With("component", "news"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new draft authored by actor. Only reporters write news.
func (s *NewsService) Create(ctx context.Context, actor domain.Actor, content domain.NewsContent) (*domain.NewsItem, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleReporter {
		return nil, fmt.Errorf("%w: only reporters create news", domain.ErrForbidden)
	}
	content = normalize(content)
	if err := validateContent(content); err != nil {
		return nil, err
	}

	now := s.now()
	item := &domain.NewsItem{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Status:     domain.StatusDraft,
		Title:      content.Title,
		Subtitle:   content.Subtitle,
		Content:    content.Content,
		Category:   content.Category,
		ImageURL:   content.ImageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requireCategory(txCtx, item.Category); err != nil {
			return err
		}
		if err := s.news.Create(txCtx, item); err != nil {
			return domain.Persistence("create news", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("news created", "news_id", item.ID, "author_id", item.AuthorID)
	return item, nil
}

func (s *NewsService) Get(ctx context.Context, id string) (*domain.NewsItem, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing news id", domain.ErrInvalidInput)
	}
	item, err := s.news.Get(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get news", err)
	}
	return item, nil
}

// List returns news items newest first.
func (s *NewsService) List(ctx context.Context, filter domain.NewsFilter) ([]domain.NewsItem, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	items, err := s.news.List(ctx, filter)
	if err != nil {
		return nil, domain.Persistence("list news", err)
	}
	return items, nil
}

// UpdateContent edits a draft. Only its author may do so and the status is
// left untouched.
func (s *NewsService) UpdateContent(ctx context.Context, actor domain.Actor, id string, content domain.NewsContent) (*domain.NewsItem, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	content = normalize(content)
	if err := validateContent(content); err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.AuthorID != actor.ID {
		return nil, fmt.Errorf("%w: only the author may edit news %s", domain.ErrForbidden, id)
	}
	if !item.Editable() {
		return nil, fmt.Errorf("%w: news %s is %s and cannot be edited", domain.ErrForbidden, id, item.Status)
	}
	if content.Category != item.Category {
		if err := s.requireCategory(ctx, content.Category); err != nil {
			return nil, err
		}
	}

	updatedAt := s.now()
	if err := s.news.UpdateContent(ctx, id, content, updatedAt); err != nil {
		return nil, domain.Persistence("update news", err)
	}

	item.Title = content.Title
	item.Subtitle = content.Subtitle
	item.Content = content.Content
	item.Category = content.Category
	item.ImageURL = content.ImageURL
	item.UpdatedAt = updatedAt
	return item, nil
}

// Delete removes a news item in any state. Editors only; notifications that
// reference the item are kept.
func (s *NewsService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.IsEditor() {
		return fmt.Errorf("%w: only editors delete news", domain.ErrForbidden)
	}
	if id == "" {
		return fmt.Errorf("%w: missing news id", domain.ErrInvalidInput)
	}

	if err := s.news.Delete(ctx, id); err != nil {
		return domain.Persistence("delete news", err)
	}

	s.logger.Info("news deleted", "news_id", id, "user_id", actor.ID)
	return nil
}

func (s *NewsService) requireCategory(ctx context.Context, name string) error {
	if _, err := s.categories.GetByName(ctx, name); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, name)
		}
		return domain.Persistence("get category", err)
	}
	return nil
}

func normalize(c domain.NewsContent) domain.NewsContent {
	c.Title = strings.TrimSpace(c.Title)
	c.Subtitle = strings.TrimSpace(c.Subtitle)
	c.Category = strings.TrimSpace(c.Category)
	if c.ImageURL != nil && strings.TrimSpace(*c.ImageURL) == "" {
		c.ImageURL = nil
	}
	return c
}

func validateContent(c domain.NewsContent) error {
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if c.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrInvalidInput)
	}
	return nil
}
