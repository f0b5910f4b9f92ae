package services

import (
	"context"
	"fmt"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
)

type notificationService struct {
	repo ports.NotificationRepository
}

func NewNotificationService(repo ports.NotificationRepository) ports.NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, recipientID string, unreadOnly bool, cursor string, limit int) (*domain.Page[*domain.Notification], error) {
	if err := requireIDs(recipientID); err != nil {
		return nil, err
	}
	c, err := domain.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, readErr(ctx, err)
	}

	limit = domain.ClampLimit(limit)
	items, err := s.repo.ListForRecipient(ctx, recipientID, unreadOnly, c, limit)
	if err != nil {
		return nil, readErr(ctx, err)
	}
	if items == nil {
		items = []*domain.Notification{}
	}

	page := &domain.Page[*domain.Notification]{Items: items}
	if n := len(items); n > 0 {
		last := items[n-1]
		page.NextCursor = domain.NextCursor(last.CreatedAt, last.ID, n, limit)
	}
	return page, nil
}

// Get : une notification n'est visible que de son destinataire.
func (s *notificationService) Get(ctx context.Context, id, accountID string) (*domain.Notification, error) {
	return s.owned(ctx, id, accountID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, accountID string) error {
	return s.setRead(ctx, id, accountID, true)
}

func (s *notificationService) MarkUnread(ctx context.Context, id, accountID string) error {
	return s.setRead(ctx, id, accountID, false)
}

// setRead : seul le destinataire peut changer l'état de lecture (pas même l'acteur).
// Le destinataire est immuable, la vérification puis l'écriture ne peuvent pas se contredire.
func (s *notificationService) setRead(ctx context.Context, id, accountID string, read bool) error {
	n, err := s.owned(ctx, id, accountID)
	if err != nil {
		return err
	}
	if n.Read == read {
		return nil
	}
	return s.repo.SetRead(ctx, id, read)
}

func (s *notificationService) owned(ctx context.Context, id, accountID string) (*domain.Notification, error) {
	if err := requireIDs(id, accountID); err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, readErr(ctx, err)
	}
	if n.RecipientID != accountID {
		return nil, fmt.Errorf("%w: notification belongs to another account", domain.ErrForbidden)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, accountID string) (int64, error) {
	if err := requireIDs(accountID); err != nil {
		return 0, err
	}
	return s.repo.MarkAllRead(ctx, accountID)
}

func (s *notificationService) UnreadCount(ctx context.Context, accountID string) (int, error) {
	counts, err := s.Counts(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return counts.Unread, nil
}

func (s *notificationService) Counts(ctx context.Context, accountID string) (*domain.NotificationCounts, error) {
	if err := requireIDs(accountID); err != nil {
		return nil, err
	}
	counts, err := s.repo.Counts(ctx, accountID)
	return counts, readErr(ctx, err)
}
