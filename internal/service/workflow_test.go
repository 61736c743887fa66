package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"newsdesk/internal/config"
	"newsdesk/internal/domain"
	"newsdesk/internal/service/mocks"
)

type WorkflowServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	news       *mocks.MockNewsStore
	dispatcher *mocks.MockDispatcher

	service *WorkflowService
	logger  *slog.Logger
	now     time.Time
}

func (s *WorkflowServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.news = mocks.NewMockNewsStore(s.ctrl)
	s.dispatcher = mocks.NewMockDispatcher(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	s.service = NewWorkflowService(s.news, s.dispatcher, s.logger)
	s.service.now = func() time.Time { return s.now }
}

func (s *WorkflowServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestWorkflowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceTestSuite))
}

func (s *WorkflowServiceTestSuite) item(status domain.Status) *domain.NewsItem {
	created := s.now.Add(-time.Hour)
	return &domain.NewsItem{
		ID:        "n1",
		AuthorID:  "u1",
		Status:    status,
		Title:     "Elecciones 2025",
		Category:  "Política",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

var (
	reporterU1 = domain.Actor{ID: "u1", Role: domain.RoleReporter}
	reporterU2 = domain.Actor{ID: "u2", Role: domain.RoleReporter}
	editor     = domain.Actor{ID: "ed1", Role: domain.RoleEditor}
)

func (s *WorkflowServiceTestSuite) requireViolation(err error, reason domain.DenyReason) *domain.PolicyViolation {
	s.Require().Error(err)
	var pv *domain.PolicyViolation
	s.Require().True(errors.As(err, &pv), "expected policy violation, got %v", err)
	s.Equal(reason, pv.Reason)
	return pv
}

func (s *WorkflowServiceTestSuite) TestSubmitForReview() {
	ctx := context.Background()
	item := s.item(domain.StatusDraft)

	s.news.EXPECT().Get(ctx, "n1").Return(item, nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusPendingReview, s.now).Return(nil)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), domain.NotificationRequest{
		Type:      domain.NotificationNewSubmission,
		Recipient: domain.EditorGroup(),
		NewsID:    "n1",
		NewsTitle: "Elecciones 2025",
	}).Times(1)

	updated, err := s.service.RequestTransition(ctx, "n1", domain.StatusPendingReview, reporterU1)

	s.NoError(err)
	s.Equal(domain.StatusPendingReview, updated.Status)
	s.Equal(s.now, updated.UpdatedAt)
	s.True(updated.UpdatedAt.After(updated.CreatedAt))
	s.Equal("u1", updated.AuthorID)
}

func (s *WorkflowServiceTestSuite) TestWithdrawByNonAuthorDenied() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPendingReview), nil)

	updated, err := s.service.RequestTransition(ctx, "n1", domain.StatusDraft, reporterU2)

	s.Nil(updated)
	pv := s.requireViolation(err, domain.ReasonNotOwner)
	s.Equal(domain.Edge{From: domain.StatusPendingReview, To: domain.StatusDraft}, pv.Edge)
}

func (s *WorkflowServiceTestSuite) TestWithdrawByAuthorSendsNothing() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPendingReview), nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusDraft, s.now).Return(nil)

	updated, err := s.service.RequestTransition(ctx, "n1", domain.StatusDraft, reporterU1)

	s.NoError(err)
	s.Equal(domain.StatusDraft, updated.Status)
}

func (s *WorkflowServiceTestSuite) TestPublishThenPublishAgain() {
	ctx := context.Background()

	gomock.InOrder(
		s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPendingReview), nil),
		s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusPublished, s.now).Return(nil),
		s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPublished), nil),
	)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), domain.NotificationRequest{
		Type:      domain.NotificationPublished,
		Recipient: domain.UserRecipient("u1"),
		NewsID:    "n1",
		NewsTitle: "Elecciones 2025",
	}).Times(1)

	updated, err := s.service.RequestTransition(ctx, "n1", domain.StatusPublished, editor)
	s.NoError(err)
	s.Equal(domain.StatusPublished, updated.Status)

	_, err = s.service.RequestTransition(ctx, "n1", domain.StatusPublished, editor)
	s.requireViolation(err, domain.ReasonNoSuchEdge)
}

func (s *WorkflowServiceTestSuite) TestSuspendAndReactivateAnnounceStatusChange() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPublished), nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusSuspended, s.now).Return(nil)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), domain.NotificationRequest{
		Type:      domain.NotificationStatusChanged,
		Recipient: domain.UserRecipient("u1"),
		NewsID:    "n1",
		NewsTitle: "Elecciones 2025",
		Change:    &domain.StatusChange{OldStatus: domain.StatusPublished, NewStatus: domain.StatusSuspended},
	})

	_, err := s.service.RequestTransition(ctx, "n1", domain.StatusSuspended, editor)
	s.NoError(err)

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusSuspended), nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusPublished, s.now).Return(nil)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), domain.NotificationRequest{
		Type:      domain.NotificationStatusChanged,
		Recipient: domain.UserRecipient("u1"),
		NewsID:    "n1",
		NewsTitle: "Elecciones 2025",
		Change:    &domain.StatusChange{OldStatus: domain.StatusSuspended, NewStatus: domain.StatusPublished},
	})

	_, err = s.service.RequestTransition(ctx, "n1", domain.StatusPublished, editor)
	s.NoError(err)
}

func (s *WorkflowServiceTestSuite) TestWrongRoleDenied() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPendingReview), nil)
	_, err := s.service.RequestTransition(ctx, "n1", domain.StatusPublished, reporterU1)
	s.requireViolation(err, domain.ReasonRoleNotPermitted)

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusDraft), nil)
	_, err = s.service.RequestTransition(ctx, "n1", domain.StatusPendingReview, editor)
	s.requireViolation(err, domain.ReasonRoleNotPermitted)
}

func (s *WorkflowServiceTestSuite) TestSelfTransitionDenied() {
	ctx := context.Background()

	for _, st := range domain.Statuses {
		for _, actor := range []domain.Actor{reporterU1, reporterU2, editor} {
			s.news.EXPECT().Get(ctx, "n1").Return(s.item(st), nil)
			_, err := s.service.RequestTransition(ctx, "n1", st, actor)
			s.requireViolation(err, domain.ReasonNoSuchEdge)
		}
	}
}

func (s *WorkflowServiceTestSuite) TestUnknownEdgeDenied() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusDraft), nil)
	_, err := s.service.RequestTransition(ctx, "n1", domain.StatusPublished, editor)
	pv := s.requireViolation(err, domain.ReasonNoSuchEdge)
	s.Equal(domain.StatusDraft, pv.Edge.From)
	s.Equal(domain.StatusPublished, pv.Edge.To)
}

func (s *WorkflowServiceTestSuite) TestInvalidInputRejectedBeforeIO() {
	ctx := context.Background()

	cases := []struct {
		name   string
		id     string
		status domain.Status
		actor  domain.Actor
	}{
		{"empty id", "", domain.StatusPendingReview, reporterU1},
		{"unknown status", "n1", "archived", reporterU1},
		{"empty status", "n1", "", reporterU1},
		{"missing actor id", "n1", domain.StatusPendingReview, domain.Actor{Role: domain.RoleReporter}},
		{"unknown role", "n1", domain.StatusPendingReview, domain.Actor{ID: "u1", Role: "admin"}},
		{"reserved actor id", "n1", domain.StatusPendingReview, domain.Actor{ID: "all_editors", Role: domain.RoleEditor}},
	}

	for _, tc := range cases {
		_, err := s.service.RequestTransition(ctx, tc.id, tc.status, tc.actor)
		s.ErrorIs(err, domain.ErrInvalidInput, tc.name)
	}
}

func (s *WorkflowServiceTestSuite) TestNotFound() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "missing").Return(nil, domain.ErrNotFound)

	_, err := s.service.RequestTransition(ctx, "missing", domain.StatusPendingReview, reporterU1)
	s.ErrorIs(err, domain.ErrNotFound)
	s.NotErrorIs(err, domain.ErrPersistence)
}

func (s *WorkflowServiceTestSuite) TestStateWriteFailureIsFatal() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusDraft), nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusPendingReview, s.now).Return(errors.New("connection reset"))

	updated, err := s.service.RequestTransition(ctx, "n1", domain.StatusPendingReview, reporterU1)

	s.Nil(updated)
	s.ErrorIs(err, domain.ErrPersistence)
	s.Contains(err.Error(), "connection reset")
}

func (s *WorkflowServiceTestSuite) TestDispatchSurvivesCallerCancellation() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusDraft), nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusPendingReview, s.now).DoAndReturn(
		func(context.Context, string, domain.Status, time.Time) error {
			cancel()
			return nil
		},
	)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Do(
		func(dctx context.Context, _ domain.NotificationRequest) {
			s.NoError(dctx.Err())
		},
	)

	updated, err := s.service.RequestTransition(ctx, "n1", domain.StatusPendingReview, reporterU1)
	s.NoError(err)
	s.Equal(domain.StatusPendingReview, updated.Status)
}

func (s *WorkflowServiceTestSuite) TestNotificationFailureDoesNotFailTransition() {
	ctx := context.Background()

	notifications := mocks.NewMockNotificationStore(s.ctrl)
	dispatcher := NewNotificationService(notifications, nil, nil, s.logger, config.NotificationConfig{
		Retry: config.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	})
	service := NewWorkflowService(s.news, dispatcher, s.logger)
	service.now = s.service.now

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPendingReview), nil)
	s.news.EXPECT().UpdateStatus(ctx, "n1", domain.StatusPublished, s.now).Return(nil)
	notifications.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("quota exceeded")).Times(2)

	updated, err := service.RequestTransition(ctx, "n1", domain.StatusPublished, editor)

	s.NoError(err)
	s.Equal(domain.StatusPublished, updated.Status)
}

func (s *WorkflowServiceTestSuite) TestAvailableTransitions() {
	ctx := context.Background()

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusDraft), nil)
	statuses, err := s.service.AvailableTransitions(ctx, "n1", reporterU1)
	s.NoError(err)
	s.Equal([]domain.Status{domain.StatusPendingReview}, statuses)

	s.news.EXPECT().Get(ctx, "n1").Return(s.item(domain.StatusPublished), nil)
	statuses, err = s.service.AvailableTransitions(ctx, "n1", editor)
	s.NoError(err)
	s.Equal([]domain.Status{domain.StatusSuspended}, statuses)

	_, err = s.service.AvailableTransitions(ctx, "", editor)
	s.ErrorIs(err, domain.ErrInvalidInput)
}
