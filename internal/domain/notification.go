package domain

import (
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationNewSubmission NotificationType = "new_news"
	NotificationPublished     NotificationType = "news_published"
	NotificationStatusChanged NotificationType = "status_changed"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationNewSubmission, NotificationPublished, NotificationStatusChanged:
		return true
	}
	return false
}

const editorGroupKey = "all_editors"

// Recipient addresses a notification either to one user or to every editor.
// The zero value is invalid.
type Recipient struct {
	userID      string
	editorGroup bool
}

func UserRecipient(id string) Recipient {
	return Recipient{userID: id}
}

func EditorGroup() Recipient {
	return Recipient{editorGroup: true}
}

// ParseRecipient decodes the persisted form produced by Key.
func ParseRecipient(key string) (Recipient, error) {
	switch key {
	case "":
		return Recipient{}, fmt.Errorf("%w: empty recipient", ErrInvalidInput)
	case editorGroupKey:
		return EditorGroup(), nil
	}
	return UserRecipient(key), nil
}

func (r Recipient) IsEditorGroup() bool {
	return r.editorGroup
}

// UserID returns the addressed user, or "" for the editor group.
func (r Recipient) UserID() string {
	return r.userID
}

func (r Recipient) Valid() bool {
	if r.editorGroup {
		return r.userID == ""
	}
	return r.userID != "" && r.userID != editorGroupKey
}

// Key is the value stored in the notifications user_id column.
func (r Recipient) Key() string {
	if r.editorGroup {
		return editorGroupKey
	}
	return r.userID
}

func (r Recipient) String() string {
	if r.editorGroup {
		return "editor-group"
	}
	return "user:" + r.userID
}

// RecipientsFor returns every recipient whose notifications the user can see.
func RecipientsFor(userID string, role Role) []Recipient {
	recipients := []Recipient{UserRecipient(userID)}
	if role == RoleEditor {
		recipients = append(recipients, EditorGroup())
	}
	return recipients
}

type StatusChange struct {
	OldStatus Status `json:"oldStatus"`
	NewStatus Status `json:"newStatus"`
}

type Notification struct {
	ID            string
	Type          NotificationType
	Title         string
	Message       string
	Recipient     Recipient
	RelatedNewsID string
	Read          bool
	Metadata      *StatusChange
	CreatedAt     time.Time
	DeliveredAt   *time.Time
}

// NotificationRequest asks the dispatcher to announce something about a news item.
type NotificationRequest struct {
	Type      NotificationType
	Recipient Recipient
	NewsID    string
	NewsTitle string
	Change    *StatusChange
}
