package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// MemoryNotificationRepo : une boîte par destinataire, en ordre d'insertion.
type MemoryNotificationRepo struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Notification
	inbox map[string][]*domain.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{
		byID:  make(map[string]*domain.Notification),
		inbox: make(map[string][]*domain.Notification),
	}
}

func (r *MemoryNotificationRepo) Append(ctx context.Context, n *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.byID[n.ID] = &cp
	r.inbox[n.RecipientID] = append(r.inbox[n.RecipientID], &cp)
	return nil
}

func (r *MemoryNotificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *MemoryNotificationRepo) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, cursor *domain.Cursor, limit int) ([]*domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Notification
	for _, n := range r.inbox[recipientID] {
		if unreadOnly && n.Read {
			continue
		}
		if cursor.After(n.CreatedAt, n.ID) {
			cp := *n
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Notification) int {
		return compareDesc(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return truncate(out, limit), nil
}

func (r *MemoryNotificationRepo) SetRead(ctx context.Context, id string, read bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = read
	return nil
}

func (r *MemoryNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, n := range r.inbox[recipientID] {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}

func (r *MemoryNotificationRepo) Counts(ctx context.Context, recipientID string) (*domain.NotificationCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := &domain.NotificationCounts{Total: len(r.inbox[recipientID])}
	for _, n := range r.inbox[recipientID] {
		if !n.Read {
			counts.Unread++
		}
	}
	return counts, nil
}
