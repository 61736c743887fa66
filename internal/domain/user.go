package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleReporter Role = "reporter"
	RoleEditor   Role = "editor"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return r == RoleReporter || r == RoleEditor
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidInput)
	}
	if a.ID == editorGroupKey {
		return fmt.Errorf("%w: reserved user id %q", ErrInvalidInput, a.ID)
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, a.Role)
	}
	return nil
}

func (a Actor) IsEditor() bool {
	return a.Role == RoleEditor
}
