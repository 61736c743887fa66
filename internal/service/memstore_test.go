package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"newsdesk/internal/domain"
)

// memoryNotifications is a NotificationStore kept in a map, used where the
// behaviour under test spans several store calls.
type memoryNotifications struct {
	mu    sync.Mutex
	items map[string]domain.Notification
	fail  map[string]error

	// afterCount runs once CountUnread has read the items, outside the lock.
	afterCount func()
}

func newMemoryNotifications() *memoryNotifications {
	return &memoryNotifications{
		items: make(map[string]domain.Notification),
		fail:  make(map[string]error),
	}
}

func (m *memoryNotifications) Create(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[n.ID] = *n
	return nil
}

func (m *memoryNotifications) Get(_ context.Context, id string) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

func (m *memoryNotifications) ListByRecipients(_ context.Context, recipients []string, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.items {
		if slices.Contains(recipients, n.Recipient.Key()) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryNotifications) CountUnread(ctx context.Context, recipients []string) (int, error) {
	items, _ := m.ListByRecipients(ctx, recipients, 0)
	if hook := m.afterCount; hook != nil {
		hook()
	}
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memoryNotifications) MarkRead(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[id]; err != nil {
		return "", err
	}
	n, ok := m.items[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	n.Read = true
	m.items[id] = n
	return n.Recipient.Key(), nil
}

func (m *memoryNotifications) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memoryNotifications) ListUndelivered(_ context.Context, limit int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.items {
		if n.DeliveredAt == nil {
			out = append(out, n)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryNotifications) MarkDelivered(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.DeliveredAt = &at
	m.items[id] = n
	return nil
}

// memoryUnread is an UnreadCache with per-recipient generations, mirroring the
// Redis implementation closely enough to exercise conditional fills.
type memoryUnread struct {
	mu     sync.Mutex
	counts map[string]int
	gens   map[string]int
}

func newMemoryUnread() *memoryUnread {
	return &memoryUnread{counts: make(map[string]int), gens: make(map[string]int)}
}

func (m *memoryUnread) Get(_ context.Context, userID string, role domain.Role) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count, ok := m.counts[string(role)+":"+userID]
	return count, ok, nil
}

func (m *memoryUnread) Version(_ context.Context, userID string, role domain.Role) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version(userID, role), nil
}

func (m *memoryUnread) SetIfVersion(_ context.Context, userID string, role domain.Role, count int, version string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.version(userID, role) != version {
		return false, nil
	}
	m.counts[string(role)+":"+userID] = count
	return true, nil
}

func (m *memoryUnread) Invalidate(_ context.Context, recipient domain.Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gens[recipient.Key()]++
	if recipient.IsEditorGroup() {
		for key := range m.counts {
			if strings.HasPrefix(key, string(domain.RoleEditor)+":") {
				delete(m.counts, key)
			}
		}
		return nil
	}
	delete(m.counts, string(domain.RoleReporter)+":"+recipient.Key())
	delete(m.counts, string(domain.RoleEditor)+":"+recipient.Key())
	return nil
}

func (m *memoryUnread) version(userID string, role domain.Role) string {
	parts := make([]string, 0, 2)
	for _, r := range domain.RecipientsFor(userID, role) {
		parts = append(parts, fmt.Sprint(m.gens[r.Key()]))
	}
	return strings.Join(parts, ":")
}
