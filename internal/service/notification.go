package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/config"
	"newsdesk/internal/domain"
)

// NotificationService creates notifications and answers inbox queries.
//
// Notify returns persistence errors to the caller. Dispatch is the
// fire-and-forget entry point used for workflow side effects: it logs failures
// and never reports them. Delivery to the message broker is at-least-once;
// anything not acknowledged is picked up by RelayPending.
type NotificationService struct {
	store     NotificationStore
	publisher Publisher
	cache     UnreadCache
	logger    *slog.Logger
	retry     config.RetryConfig
	now       func() time.Time
}

func NewNotificationService(
	store NotificationStore,
	publisher Publisher,
	cache UnreadCache,
	logger *slog.Logger,
	cfg config.NotificationConfig,
) *NotificationService {
	return &NotificationService{
		store:     store,
		publisher: publisher,
		cache:     cache,
		logger:    logger.With("component", "notifications"),
		retry:     cfg.Retry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify renders and persists a notification, then hands it to the publisher.
func (s *NotificationService) Notify(ctx context.Context, req domain.NotificationRequest) (*domain.Notification, error) {
	n, err := render(req)
	if err != nil {
		return nil, err
	}
	n.ID = uuid.NewString()
	n.CreatedAt = s.now()

	if err := s.persist(ctx, n); err != nil {
		return nil, domain.Persistence("create notification", err)
	}

	s.logger.Debug("notification created",
		"notification_id", n.ID,
		"type", n.Type,
		"recipient", n.Recipient.String(),
		"news_id", n.RelatedNewsID,
	)

	s.invalidate(ctx, n.Recipient)
	s.deliver(ctx, n)

	return n, nil
}

// Dispatch is Notify with failures logged and suppressed.
func (s *NotificationService) Dispatch(ctx context.Context, req domain.NotificationRequest) {
	if _, err := s.Notify(ctx, req); err != nil {
		s.logger.Warn("notification dropped",
			"type", req.Type,
			"recipient", req.Recipient.String(),
			"news_id", req.NewsID,
			"error", err,
		)
	}
}

// ListForRecipient returns what the user can see, newest first. Editors also
// see notifications addressed to the editor group.
func (s *NotificationService) ListForRecipient(ctx context.Context, userID string, role domain.Role) ([]domain.Notification, error) {
	keys, err := recipientKeys(userID, role)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListByRecipients(ctx, keys, 0)
	if err != nil {
		return nil, domain.Persistence("list notifications", err)
	}
	return items, nil
}

// UnreadCount counts the unread items ListForRecipient would return. A cached
// count is only stored if no invalidation happened while the store was read.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string, role domain.Role) (int, error) {
	keys, err := recipientKeys(userID, role)
	if err != nil {
		return 0, err
	}

	var (
		version   string
		cacheable bool
	)
	if s.cache != nil {
		count, ok, err := s.cache.Get(ctx, userID, role)
		if err != nil {
			s.logger.Warn("unread cache read failed", "user_id", userID, "error", err)
		} else if ok {
			return count, nil
		}

		version, err = s.cache.Version(ctx, userID, role)
		if err != nil {
			s.logger.Warn("unread cache version read failed", "user_id", userID, "error", err)
		} else {
			cacheable = true
		}
	}

	count, err := s.store.CountUnread(ctx, keys)
	if err != nil {
		return 0, domain.Persistence("count unread notifications", err)
	}

	if cacheable {
		stored, err := s.cache.SetIfVersion(ctx, userID, role, count, version)
		if err != nil {
			s.logger.Warn("unread cache write failed", "user_id", userID, "error", err)
		} else if !stored {
			s.logger.Debug("unread count changed while counting, not cached", "user_id", userID)
		}
	}

	return count, nil
}

// MarkRead flags a notification as read. Marking an already read
// notification succeeds.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing notification id", domain.ErrInvalidInput)
	}

	key, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return domain.Persistence("mark notification read", err)
	}

	if recipient, err := domain.ParseRecipient(key); err == nil {
		s.invalidate(ctx, recipient)
	}
	return nil
}

// MarkAllRead marks every unread notification visible to the user. It is not
// atomic: on failure some notifications may already be marked and the call
// can be retried. It returns how many were marked.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string, role domain.Role) (int, error) {
	keys, err := recipientKeys(userID, role)
	if err != nil {
		return 0, err
	}

	items, err := s.store.ListByRecipients(ctx, keys, 0)
	if err != nil {
		return 0, domain.Persistence("list notifications", err)
	}

	var (
		marked int
		errs   []error
	)
	for i := range items {
		if items[i].Read {
			continue
		}
		if _, err := s.store.MarkRead(ctx, items[i].ID); err != nil {
			errs = append(errs, fmt.Errorf("notification %s: %w", items[i].ID, err))
			continue
		}
		marked++
	}

	for _, r := range domain.RecipientsFor(userID, role) {
		s.invalidate(ctx, r)
	}

	if len(errs) > 0 {
		return marked, domain.Persistence("mark all read", errors.Join(errs...))
	}
	return marked, nil
}

// Delete removes a notification the actor can see.
func (s *NotificationService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := actor.Validate(); err != nil {
		return err
	}

	n, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Persistence("get notification", err)
	}
	if !visibleTo(n.Recipient, actor) {
		return fmt.Errorf("%w: notification %s is not addressed to %s", domain.ErrForbidden, id, actor.ID)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return domain.Persistence("delete notification", err)
	}
	s.invalidate(ctx, n.Recipient)
	return nil
}

// RelayPending republishes notifications the broker never acknowledged.
func (s *NotificationService) RelayPending(ctx context.Context, batch int) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}

	pending, err := s.store.ListUndelivered(ctx, batch)
	if err != nil {
		return 0, domain.Persistence("list undelivered notifications", err)
	}

	var relayed int
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return relayed, err
		}
		if s.deliver(ctx, &pending[i]) {
			relayed++
		}
	}

	if len(pending) > 0 {
		s.logger.Info("relayed pending notifications", "pending", len(pending), "relayed", relayed)
	}
	return relayed, nil
}

func (s *NotificationService) persist(ctx context.Context, n *domain.Notification) error {
	attempts := max(s.retry.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.store.Create(ctx, n)
		if err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		backoff := calculateBackoff(s.retry, attempt)
		s.logger.Warn("notification write failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, err)
}

func (s *NotificationService) deliver(ctx context.Context, n *domain.Notification) bool {
	if s.publisher == nil {
		return false
	}

	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn("notification publish failed, left for relay",
			"notification_id", n.ID,
			"error", err,
		)
		return false
	}

	at := s.now()
	if err := s.store.MarkDelivered(ctx, n.ID, at); err != nil {
		s.logger.Warn("failed to record delivery",
			"notification_id", n.ID,
			"error", err,
		)
		return true
	}
	n.DeliveredAt = &at
	return true
}

func (s *NotificationService) invalidate(ctx context.Context, r domain.Recipient) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, r); err != nil {
		s.logger.Warn("unread cache invalidation failed", "recipient", r.String(), "error", err)
	}
}

func recipientKeys(userID string, role domain.Role) ([]string, error) {
	actor := domain.Actor{ID: userID, Role: role}
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	recipients := domain.RecipientsFor(userID, role)
	keys := make([]string, len(recipients))
	for i, r := range recipients {
		keys[i] = r.Key()
	}
	return keys, nil
}

func visibleTo(r domain.Recipient, actor domain.Actor) bool {
	if r.IsEditorGroup() {
		return actor.IsEditor()
	}
	return r.UserID() == actor.ID
}

func calculateBackoff(cfg config.RetryConfig, attempt int) time.Duration {
	backoff := cfg.InitialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}
	return backoff
}
