package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"newsdesk/internal/domain"
)

type CategoryStore struct {
	db *sqlx.DB
}

func NewCategoryStore(db *sqlx.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	categories := []domain.Category{}
	err := getExecutor(ctx, s.db).SelectContext(ctx, &categories,
		"SELECT id, name, description, created_at FROM categories ORDER BY name",
	)
	return categories, err
}

func (s *CategoryStore) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.getBy(ctx, "id", id)
}

func (s *CategoryStore) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	return s.getBy(ctx, "name", name)
}

func (s *CategoryStore) getBy(ctx context.Context, column, value string) (*domain.Category, error) {
	var c domain.Category
	query := "SELECT id, name, description, created_at FROM categories WHERE " + column + " = $1"

	err := getExecutor(ctx, s.db).GetContext(ctx, &c, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", value, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CategoryStore) Create(ctx context.Context, c *domain.Category) error {
	_, err := sqlx.NamedExecContext(ctx, getExecutor(ctx, s.db),
		`INSERT INTO categories (id, name, description, created_at)
		VALUES (:id, :name, :description, :created_at)`,
		c,
	)
	return err
}

func (s *CategoryStore) Update(ctx context.Context, c *domain.Category) error {
	res, err := getExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE categories SET name = $2, description = $3 WHERE id = $1",
		c.ID, c.Name, c.Description,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "category", c.ID)
}

// Delete removes the category even when news items still reference its name.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	res, err := getExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOne(res, "category", id)
}
