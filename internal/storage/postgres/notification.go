package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"newsdesk/internal/domain"
)

type NotificationStore struct {
	db *sqlx.DB
}

func NewNotificationStore(db *sqlx.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

type notificationRow struct {
	ID            string         `db:"id"`
	Type          string         `db:"type"`
	Title         string         `db:"title"`
	Message       string         `db:"message"`
	UserID        string         `db:"user_id"`
	RelatedNewsID sql.NullString `db:"related_news_id"`
	Read          bool           `db:"read"`
	OldStatus     sql.NullString `db:"old_status"`
	NewStatus     sql.NullString `db:"new_status"`
	CreatedAt     time.Time      `db:"created_at"`
	DeliveredAt   sql.NullTime   `db:"delivered_at"`
}

const notificationColumns = `id, type, title, message, user_id, related_news_id, read, old_status, new_status, created_at, delivered_at`

func toRow(n *domain.Notification) notificationRow {
	row := notificationRow{
		ID:            n.ID,
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		UserID:        n.Recipient.Key(),
		RelatedNewsID: sql.NullString{String: n.RelatedNewsID, Valid: n.RelatedNewsID != ""},
		Read:          n.Read,
		CreatedAt:     n.CreatedAt,
	}
	if n.Metadata != nil {
		row.OldStatus = sql.NullString{String: string(n.Metadata.OldStatus), Valid: n.Metadata.OldStatus != ""}
		row.NewStatus = sql.NullString{String: string(n.Metadata.NewStatus), Valid: true}
	}
	if n.DeliveredAt != nil {
		row.DeliveredAt = sql.NullTime{Time: *n.DeliveredAt, Valid: true}
	}
	return row
}

func (r notificationRow) toDomain() (domain.Notification, error) {
	recipient, err := domain.ParseRecipient(r.UserID)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("notification %s: %w", r.ID, err)
	}
	n := domain.Notification{
		ID:            r.ID,
		Type:          domain.NotificationType(r.Type),
		Title:         r.Title,
		Message:       r.Message,
		Recipient:     recipient,
		RelatedNewsID: r.RelatedNewsID.String,
		Read:          r.Read,
		CreatedAt:     r.CreatedAt,
	}
	if r.NewStatus.Valid {
		n.Metadata = &domain.StatusChange{
			OldStatus: domain.Status(r.OldStatus.String),
			NewStatus: domain.Status(r.NewStatus.String),
		}
	}
	if r.DeliveredAt.Valid {
		at := r.DeliveredAt.Time
		n.DeliveredAt = &at
	}
	return n, nil
}

func toDomainList(rows []notificationRow) ([]domain.Notification, error) {
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		n, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *NotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			id, type, title, message, user_id, related_news_id, read,
			old_status, new_status, created_at, delivered_at
		) VALUES (
			:id, :type, :title, :message, :user_id, :related_news_id, :read,
			:old_status, :new_status, :created_at, :delivered_at
		)`

	_, err := sqlx.NamedExecContext(ctx, getExecutor(ctx, s.db), query, toRow(n))
	return err
}

func (s *NotificationStore) Get(ctx context.Context, id string) (*domain.Notification, error) {
	var row notificationRow
	err := getExecutor(ctx, s.db).GetContext(ctx, &row,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	n, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipients returns notifications addressed to any of the recipient
// keys, newest first. A non-positive limit returns all of them.
func (s *NotificationStore) ListByRecipients(ctx context.Context, recipients []string, limit int) ([]domain.Notification, error) {
	if len(recipients) == 0 {
		return []domain.Notification{}, nil
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ANY($1) ORDER BY created_at DESC`
	args := []interface{}{pq.Array(recipients)}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := getExecutor(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toDomainList(rows)
}

func (s *NotificationStore) CountUnread(ctx context.Context, recipients []string) (int, error) {
	if len(recipients) == 0 {
		return 0, nil
	}

	var count int
	err := getExecutor(ctx, s.db).GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ANY($1) AND NOT read",
		pq.Array(recipients),
	)
	return count, err
}

// MarkRead sets the read flag and returns the recipient key of the
// notification so the caller can drop cached counts.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) (string, error) {
	var userID string
	err := getExecutor(ctx, s.db).QueryRowxContext(ctx,
		"UPDATE notifications SET read = TRUE WHERE id = $1 RETURNING user_id", id,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *NotificationStore) Delete(ctx context.Context, id string) error {
	res, err := getExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM notifications WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectOne(res, "notification", id)
}

// ListUndelivered returns the oldest notifications not yet handed to the broker.
func (s *NotificationStore) ListUndelivered(ctx context.Context, limit int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE delivered_at IS NULL ORDER BY created_at`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := getExecutor(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return toDomainList(rows)
}

func (s *NotificationStore) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := getExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE notifications SET delivered_at = $2 WHERE id = $1", id, at,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "notification", id)
}
