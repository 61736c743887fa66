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

type CategoryService struct {
	store  CategoryStore
	logger *slog.Logger
	now    func() time.Time
}

func NewCategoryService(store CategoryStore, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		store:  store,
		logger: logger.With("component", "categories"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.store.List(ctx)
	if err != nil {
		return nil, domain.Persistence("list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, actor domain.Actor, name, description string) (*domain.Category, error) {
	if err := requireEditor(actor); err != nil {
		return nil, err
	}
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}
	if err := s.ensureUnique(ctx, name, ""); err != nil {
		return nil, err
	}

	c := &domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, domain.Persistence("create category", err)
	}

	s.logger.Info("category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, actor domain.Actor, id, name, description string) (*domain.Category, error) {
	if err := requireEditor(actor); err != nil {
		return nil, err
	}
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", domain.ErrInvalidInput)
	}

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, domain.Persistence("get category", err)
	}
	if err := s.ensureUnique(ctx, name, id); err != nil {
		return nil, err
	}

	c.Name = name
	c.Description = description
	if err := s.store.Update(ctx, c); err != nil {
		return nil, domain.Persistence("update category", err)
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireEditor(actor); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return domain.Persistence("delete category", err)
	}
	s.logger.Info("category deleted", "category_id", id)
	return nil
}

func (s *CategoryService) ensureUnique(ctx context.Context, name, selfID string) error {
	existing, err := s.store.GetByName(ctx, name)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return domain.Persistence("get category", err)
	case existing.ID != selfID:
		return fmt.Errorf("%w: category %q already exists", domain.ErrInvalidInput, name)
	}
	return nil
}

func requireEditor(actor domain.Actor) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if !actor.IsEditor() {
		return fmt.Errorf("%w: editor role required", domain.ErrForbidden)
	}
	return nil
}
