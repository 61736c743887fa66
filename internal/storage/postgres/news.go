package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"newsdesk/internal/domain"
)

type NewsStore struct {
	db *sqlx.DB
}

func NewNewsStore(db *sqlx.DB) *NewsStore {
	return &NewsStore{db: db}
}

const newsColumns = `id, author_id, author_name, status, title, subtitle, content, category, image_url, created_at, updated_at`

func (s *NewsStore) Create(ctx context.Context, item *domain.NewsItem) error {
	query := `
		INSERT INTO news (
			id, author_id, author_name, status, title, subtitle, content,
			category, image_url, created_at, updated_at
		) VALUES (
			:id, :author_id, :author_name, :status, :title, :subtitle, :content,
			:category, :image_url, :created_at, :updated_at
		)`

	_, err := sqlx.NamedExecContext(ctx, getExecutor(ctx, s.db), query, item)
	return err
}

func (s *NewsStore) Get(ctx context.Context, id string) (*domain.NewsItem, error) {
	var item domain.NewsItem
	query := `SELECT ` + newsColumns + ` FROM news WHERE id = $1`

	err := getExecutor(ctx, s.db).GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("news %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *NewsStore) List(ctx context.Context, filter domain.NewsFilter) ([]domain.NewsItem, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		conds = append(conds, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + newsColumns + ` FROM news`)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	items := []domain.NewsItem{}
	err := getExecutor(ctx, s.db).SelectContext(ctx, &items, sb.String(), args...)
	return items, err
}

// UpdateStatus overwrites the status unconditionally. The caller has already
// evaluated the transition against the status it read.
func (s *NewsStore) UpdateStatus(ctx context.Context, id string, status domain.Status, updatedAt time.Time) error {
	res, err := getExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE news SET status = $2, updated_at = $3 WHERE id = $1",
		id, status, updatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "news", id)
}

func (s *NewsStore) UpdateContent(ctx context.Context, id string, content domain.NewsContent, updatedAt time.Time) error {
	query := `
		UPDATE news SET
			title = $2,
			subtitle = $3,
			content = $4,
			category = $5,
			image_url = $6,
			updated_at = $7
		WHERE id = $1`

	res, err := getExecutor(ctx, s.db).ExecContext(ctx, query,
		id,
		content.Title,
		content.Subtitle,
		content.Content,
		content.Category,
		content.ImageURL,
		updatedAt,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "news", id)
}

func (s *NewsStore) Delete(ctx context.Context, id string) error {
	res, err := getExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM news WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOne(res, "news", id)
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
