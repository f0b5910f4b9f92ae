package services

import (
	"context"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// noopPublisher est utilisé quand aucun broker n'est configuré.
type noopPublisher struct{}

func (noopPublisher) PublishPostCreated(context.Context, *domain.Post) error { return nil }

func (noopPublisher) PublishNotificationCreated(context.Context, *domain.Notification) error {
	return nil
}
