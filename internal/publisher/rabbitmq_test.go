package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain"
)

func TestNewMessage(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := created.Add(time.Second)

	n := &domain.Notification{
		ID:            "x1",
		Type:          domain.NotificationStatusChanged,
		Title:         "Estado Cambiado",
		Message:       "m",
		Recipient:     domain.UserRecipient("u1"),
		RelatedNewsID: "n1",
		Metadata:      &domain.StatusChange{OldStatus: domain.StatusPendingReview, NewStatus: domain.StatusDraft},
		CreatedAt:     created,
	}

	body, err := json.Marshal(newMessage(n, now))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "x1", raw["id"])
	assert.Equal(t, "status_changed", raw["type"])
	assert.Equal(t, "u1", raw["recipient"])
	assert.Equal(t, "n1", raw["relatedNewsId"])
	assert.Equal(t, map[string]any{"oldStatus": "terminado", "newStatus": "edicion"}, raw["metadata"])
}

func TestNewMessage_EditorGroup(t *testing.T) {
	n := &domain.Notification{
		ID:        "x2",
		Type:      domain.NotificationNewSubmission,
		Recipient: domain.EditorGroup(),
	}

	msg := newMessage(n, time.Now())
	assert.Equal(t, "all_editors", msg.Recipient)
	assert.Nil(t, msg.Metadata)

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "metadata")
	assert.NotContains(t, string(body), "relatedNewsId")
}
