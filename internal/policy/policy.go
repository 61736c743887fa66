// Package policy holds the editorial transition table and the access
// decision made against it. Nothing here performs I/O.
package policy

import "newsdesk/internal/domain"

// Rule describes who may traverse an edge and what it announces.
type Rule struct {
	Role         domain.Role
	OwnerOnly    bool
	Notification *Announcement
}

// Announcement is the notification emitted after a successful transition.
type Announcement struct {
	Type      domain.NotificationType
	ToEditors bool // otherwise addressed to the item's author
}

var transitions = map[domain.Edge]Rule{
	{From: domain.StatusDraft, To: domain.StatusPendingReview}: {
		Role:         domain.RoleReporter,
		OwnerOnly:    true,
		Notification: &Announcement{Type: domain.NotificationNewSubmission, ToEditors: true},
	},
	{From: domain.StatusPendingReview, To: domain.StatusDraft}: {
		Role:      domain.RoleReporter,
		OwnerOnly: true,
	},
	{From: domain.StatusPendingReview, To: domain.StatusPublished}: {
		Role:         domain.RoleEditor,
		Notification: &Announcement{Type: domain.NotificationPublished},
	},
	{From: domain.StatusPublished, To: domain.StatusSuspended}: {
		Role:         domain.RoleEditor,
		Notification: &Announcement{Type: domain.NotificationStatusChanged},
	},
	{From: domain.StatusSuspended, To: domain.StatusPublished}: {
		Role:         domain.RoleEditor,
		Notification: &Announcement{Type: domain.NotificationStatusChanged},
	},
}

// Lookup returns the rule for an edge, if the edge exists.
func Lookup(edge domain.Edge) (Rule, bool) {
	r, ok := transitions[edge]
	return r, ok
}

// Edges returns every edge of the workflow.
func Edges() []domain.Edge {
	edges := make([]domain.Edge, 0, len(transitions))
	for _, from := range domain.Statuses {
		for _, to := range domain.Statuses {
			e := domain.Edge{From: from, To: to}
			if _, ok := transitions[e]; ok {
				edges = append(edges, e)
			}
		}
	}
	return edges
}

// Request is the input of an access decision.
type Request struct {
	Role      domain.Role
	ActorID   string
	AuthorID  string
	Current   domain.Status
	Requested domain.Status
}

func (r Request) Edge() domain.Edge {
	return domain.Edge{From: r.Current, To: r.Requested}
}

// Decision is the outcome of Evaluate. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  domain.DenyReason
	Rule    Rule
}

// Evaluate decides whether req may be carried out. It is defined for every
// input, including unknown statuses and roles, which never match an edge or a rule.
func Evaluate(req Request) Decision {
	rule, ok := transitions[req.Edge()]
	if !ok {
		return Decision{Reason: domain.ReasonNoSuchEdge}
	}
	if req.Role != rule.Role {
		return Decision{Reason: domain.ReasonRoleNotPermitted, Rule: rule}
	}
	if rule.OwnerOnly && req.ActorID != req.AuthorID {
		return Decision{Reason: domain.ReasonNotOwner, Rule: rule}
	}
	return Decision{Allowed: true, Rule: rule}
}

// Err converts a denial into a *domain.PolicyViolation, or nil when allowed.
func (d Decision) Err(edge domain.Edge) error {
	if d.Allowed {
		return nil
	}
	return &domain.PolicyViolation{Edge: edge, Reason: d.Reason}
}

// Available lists the statuses the actor could move the item to from its
// current status.
func Available(actor domain.Actor, item *domain.NewsItem) []domain.Status {
	var out []domain.Status
	for _, to := range domain.Statuses {
		d := Evaluate(Request{
			Role:      actor.Role,
			ActorID:   actor.ID,
			AuthorID:  item.AuthorID,
			Current:   item.Status,
			Requested: to,
		})
		if d.Allowed {
			out = append(out, to)
		}
	}
	return out
}
