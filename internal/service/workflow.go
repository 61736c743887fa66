package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/domain"
	"newsdesk/internal/policy"
)

// WorkflowService moves news items between editorial states.
//
// A transition is read-then-write without a version check: concurrent
// requests against the same item are last-write-wins at the store.
type WorkflowService struct {
	news       NewsStore
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewWorkflowService(news NewsStore, dispatcher Dispatcher, logger *slog.Logger) *WorkflowService {
	return &WorkflowService{
		news:       news,
		dispatcher: dispatcher,
		logger:     logger.With("component", "workflow"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RequestTransition moves the item to the requested status on behalf of actor.
// Denials are returned as *domain.PolicyViolation. Once the new status is
// stored the call succeeds, whatever happens to the notification.
func (s *WorkflowService) RequestTransition(ctx context.Context, newsID string, requested domain.Status, actor domain.Actor) (*domain.NewsItem, error) {
	if newsID == "" {
		return nil, fmt.Errorf("%w: missing news id", domain.ErrInvalidInput)
	}
	if !requested.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, requested)
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	item, err := s.news.Get(ctx, newsID)
	if err != nil {
		return nil, domain.Persistence("get news", err)
	}

	req := policy.Request{
		Role:      actor.Role,
		ActorID:   actor.ID,
		AuthorID:  item.AuthorID,
		Current:   item.Status,
		Requested: requested,
	}
	decision := policy.Evaluate(req)
	if !decision.Allowed {
		s.logger.Info("transition denied",
			"news_id", newsID,
			"edge", req.Edge().String(),
			"user_id", actor.ID,
			"role", actor.Role,
			"reason", decision.Reason,
		)
		return nil, decision.Err(req.Edge())
	}

	updatedAt := s.now()
	if err := s.news.UpdateStatus(ctx, newsID, requested, updatedAt); err != nil {
		return nil, domain.Persistence("update news status", err)
	}

	previous := item.Status
	item.Status = requested
	item.UpdatedAt = updatedAt

	s.logger.Info("transition applied",
		"news_id", newsID,
		"edge", req.Edge().String(),
		"user_id", actor.ID,
	)

	if a := decision.Rule.Notification; a != nil && s.dispatcher != nil {
		// committed: the notification must not depend on the caller staying around
		s.dispatcher.Dispatch(context.WithoutCancel(ctx), announce(a, item, previous))
	}

	return item, nil
}

// AvailableTransitions lists the statuses the actor may move the item to.
func (s *WorkflowService) AvailableTransitions(ctx context.Context, newsID string, actor domain.Actor) ([]domain.Status, error) {
	if newsID == "" {
		return nil, fmt.Errorf("%w: missing news id", domain.ErrInvalidInput)
	}
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	item, err := s.news.Get(ctx, newsID)
	if err != nil {
		return nil, domain.Persistence("get news", err)
	}
	return policy.Available(actor, item), nil
}

func announce(a *policy.Announcement, item *domain.NewsItem, previous domain.Status) domain.NotificationRequest {
	req := domain.NotificationRequest{
		Type:      a.Type,
		Recipient: domain.UserRecipient(item.AuthorID),
		NewsID:    item.ID,
		NewsTitle: item.Title,
	}
	if a.ToEditors {
		req.Recipient = domain.EditorGroup()
	}
	if a.Type == domain.NotificationStatusChanged {
		req.Change = &domain.StatusChange{OldStatus: previous, NewStatus: item.Status}
	}
	return req
}
