package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain"
)

var roles = []domain.Role{domain.RoleReporter, domain.RoleEditor}

func TestEvaluate_UnknownEdgesAlwaysDenied(t *testing.T) {
	for _, from := range domain.Statuses {
		for _, to := range domain.Statuses {
			edge := domain.Edge{From: from, To: to}
			if _, ok := Lookup(edge); ok {
				continue
			}
			for _, role := range roles {
				for _, actor := range []string{"u1", "u2"} {
					d := Evaluate(Request{Role: role, ActorID: actor, AuthorID: "u1", Current: from, Requested: to})
					assert.False(t, d.Allowed, "%s by %s", edge, role)
					assert.Equal(t, domain.ReasonNoSuchEdge, d.Reason, "%s by %s", edge, role)
				}
			}
		}
	}
}

func TestEvaluate_SelfTransitionDenied(t *testing.T) {
	for _, st := range domain.Statuses {
		for _, role := range roles {
			d := Evaluate(Request{Role: role, ActorID: "u1", AuthorID: "u1", Current: st, Requested: st})
			assert.False(t, d.Allowed)
			assert.Equal(t, domain.ReasonNoSuchEdge, d.Reason)
		}
	}
}

func TestEvaluate_WrongRoleDenied(t *testing.T) {
	for _, edge := range Edges() {
		rule, _ := Lookup(edge)
		for _, role := range roles {
			if role == rule.Role {
				continue
			}
			d := Evaluate(Request{Role: role, ActorID: "u1", AuthorID: "u1", Current: edge.From, Requested: edge.To})
			assert.False(t, d.Allowed, edge.String())
			assert.Equal(t, domain.ReasonRoleNotPermitted, d.Reason, edge.String())
		}
	}
}

func TestEvaluate_OwnershipEdges(t *testing.T) {
	owned := []domain.Edge{
		{From: domain.StatusDraft, To: domain.StatusPendingReview},
		{From: domain.StatusPendingReview, To: domain.StatusDraft},
	}
	for _, edge := range owned {
		d := Evaluate(Request{Role: domain.RoleReporter, ActorID: "u2", AuthorID: "u1", Current: edge.From, Requested: edge.To})
		assert.False(t, d.Allowed)
		assert.Equal(t, domain.ReasonNotOwner, d.Reason)

		d = Evaluate(Request{Role: domain.RoleReporter, ActorID: "u1", AuthorID: "u1", Current: edge.From, Requested: edge.To})
		assert.True(t, d.Allowed)
		assert.Empty(t, d.Reason)
	}
}

func TestEvaluate_EditorEdgesIgnoreOwnership(t *testing.T) {
	editorEdges := []domain.Edge{
		{From: domain.StatusPendingReview, To: domain.StatusPublished},
		{From: domain.StatusPublished, To: domain.StatusSuspended},
		{From: domain.StatusSuspended, To: domain.StatusPublished},
	}
	for _, edge := range editorEdges {
		d := Evaluate(Request{Role: domain.RoleEditor, ActorID: "ed", AuthorID: "u1", Current: edge.From, Requested: edge.To})
		assert.True(t, d.Allowed, edge.String())
		require.NotNil(t, d.Rule.Notification, edge.String())
		assert.False(t, d.Rule.Notification.ToEditors)
	}
}

func TestEvaluate_UnknownInputsAreTotal(t *testing.T) {
	d := Evaluate(Request{Role: "admin", Current: "bogus", Requested: domain.StatusDraft})
	assert.Equal(t, domain.ReasonNoSuchEdge, d.Reason)

	d = Evaluate(Request{Role: "admin", Current: domain.StatusDraft, Requested: domain.StatusPendingReview})
	assert.Equal(t, domain.ReasonRoleNotPermitted, d.Reason)
}

func TestEdges_TableShape(t *testing.T) {
	edges := Edges()
	assert.Len(t, edges, 5)

	rule, ok := Lookup(domain.Edge{From: domain.StatusDraft, To: domain.StatusPendingReview})
	require.True(t, ok)
	require.NotNil(t, rule.Notification)
	assert.Equal(t, domain.NotificationNewSubmission, rule.Notification.Type)
	assert.True(t, rule.Notification.ToEditors)

	rule, ok = Lookup(domain.Edge{From: domain.StatusPendingReview, To: domain.StatusDraft})
	require.True(t, ok)
	assert.Nil(t, rule.Notification)
}

func TestDecision_Err(t *testing.T) {
	edge := domain.Edge{From: domain.StatusPublished, To: domain.StatusPublished}
	err := Evaluate(Request{Role: domain.RoleEditor, Current: edge.From, Requested: edge.To}).Err(edge)

	var pv *domain.PolicyViolation
	require.True(t, errors.As(err, &pv))
	assert.Equal(t, edge, pv.Edge)
	assert.Equal(t, domain.ReasonNoSuchEdge, pv.Reason)
	assert.Contains(t, err.Error(), "no such edge")

	assert.NoError(t, Decision{Allowed: true}.Err(edge))
}

func TestAvailable(t *testing.T) {
	item := &domain.NewsItem{AuthorID: "u1", Status: domain.StatusPendingReview}

	author := domain.Actor{ID: "u1", Role: domain.RoleReporter}
	assert.Equal(t, []domain.Status{domain.StatusDraft}, Available(author, item))

	other := domain.Actor{ID: "u2", Role: domain.RoleReporter}
	assert.Empty(t, Available(other, item))

	editor := domain.Actor{ID: "ed", Role: domain.RoleEditor}
	assert.Equal(t, []domain.Status{domain.StatusPublished}, Available(editor, item))
}
