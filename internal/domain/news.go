package domain

import (
	"fmt"
	"time"
)

// Status is the editorial lifecycle state of a news item.
// The underlying string is the value persisted in the news collection.
type Status string

const (
	StatusDraft         Status = "edicion"
	StatusPendingReview Status = "terminado"
	StatusPublished     Status = "publicado"
	StatusSuspended     Status = "desactivado"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusPendingReview, StatusPublished, StatusSuspended}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingReview, StatusPublished, StatusSuspended:
		return true
	}
	return false
}

// Label is the human readable form used in notification messages.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "en edición"
	case StatusPendingReview:
		return "enviada a revisión"
	case StatusPublished:
		return "publicada"
	case StatusSuspended:
		return "desactivada"
	}
	return string(s)
}

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPendingReview:
		return "PendingReview"
	case StatusPublished:
		return "Published"
	case StatusSuspended:
		return "Suspended"
	}
	return string(s)
}

type NewsItem struct {
	ID         string    `db:"id" json:"id"`
	AuthorID   string    `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName"`
	Status     Status    `db:"status" json:"status"`
	Title      string    `db:"title" json:"title"`
	Subtitle   string    `db:"subtitle" json:"subtitle"`
	Content    string    `db:"content" json:"content"`
	Category   string    `db:"category" json:"category"`
	ImageURL   *string   `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// NewsContent holds the editable fields of a news item.
type NewsContent struct {
	Title    string
	Subtitle string
	Content  string
	Category string
	ImageURL *string
}

// Editable reports whether content fields may still change.
func (n *NewsItem) Editable() bool {
	return n.Status == StatusDraft
}

// NewsFilter selects news items. Zero fields do not filter.
type NewsFilter struct {
	AuthorID string
	Status   Status
	Limit    int
}
