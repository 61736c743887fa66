package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrPersistence  = errors.New("persistence failure")
	ErrForbidden    = errors.New("forbidden")
)

// Edge is a (from, to) pair of the editorial workflow.
type Edge struct {
	From Status
	To   Status
}

func (e Edge) String() string {
	return e.From.String() + "->" + e.To.String()
}

// DenyReason explains why the access policy rejected an edge.
type DenyReason string

const (
	ReasonNoSuchEdge       DenyReason = "no such edge"
	ReasonRoleNotPermitted DenyReason = "role not permitted"
	ReasonNotOwner         DenyReason = "not owner"
)

// PolicyViolation is returned when a transition is not permitted for the actor.
type PolicyViolation struct {
	Edge   Edge
	Reason DenyReason
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("transition %s denied: %s", e.Edge, e.Reason)
}

// Persistence wraps a store failure so callers can match ErrPersistence
// while keeping the underlying cause reachable.
func Persistence(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
