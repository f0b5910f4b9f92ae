package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/metrics"
)

const DefaultDispatchTimeout = 2 * time.Second

var _ ports.Dispatcher = (*Dispatcher)(nil)

// Dispatcher regroupe en un seul endroit la table "quelle action notifie qui".
// Il est appelé en synchrone, juste après le commit de la mutation.
type Dispatcher struct {
	repo      ports.NotificationRepository
	publisher ports.EventPublisher
	clock     domain.Clock
	timeout   time.Duration
}

func NewDispatcher(repo ports.NotificationRepository, publisher ports.EventPublisher, clock domain.Clock, timeout time.Duration) *Dispatcher {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Dispatcher{repo: repo, publisher: publisher, clock: clock, timeout: timeout}
}

// OnFollow n'est appelé que si le lien vient d'être créé (pas sur un follow idempotent).
func (d *Dispatcher) OnFollow(ctx context.Context, followerID, followeeID string) {
	d.emit(ctx, &domain.Notification{
		RecipientID: followeeID,
		ActorID:     followerID,
		Verb:        domain.VerbFollowed,
		Target:      &domain.TargetRef{Kind: domain.TargetAccount, ID: followerID},
	})
}

func (d *Dispatcher) OnComment(ctx context.Context, post *domain.Post, comment *domain.Comment) {
	if post.AuthorID == comment.AuthorID {
		metrics.RecordNotification(string(domain.VerbCommented), "suppressed")
		return
	}
	d.emit(ctx, &domain.Notification{
		RecipientID: post.AuthorID,
		ActorID:     comment.AuthorID,
		Verb:        domain.VerbCommented,
		Target:      &domain.TargetRef{Kind: domain.TargetPost, ID: post.ID},
	})
}

// OnLike n'est appelé que sur la transition vers "liké" ; unliker ne notifie jamais.
func (d *Dispatcher) OnLike(ctx context.Context, accountID string, post *domain.Post) {
	if post.AuthorID == accountID {
		metrics.RecordNotification(string(domain.VerbLiked), "suppressed")
		return
	}
	d.emit(ctx, &domain.Notification{
		RecipientID: post.AuthorID,
		ActorID:     accountID,
		Verb:        domain.VerbLiked,
		Target:      &domain.TargetRef{Kind: domain.TargetPost, ID: post.ID},
	})
}

// emit écrit la notification sous un timeout borné. L'annulation de la requête
// appelante ne doit pas interrompre l'écriture (la mutation est déjà commitée),
// d'où WithoutCancel qui garde les valeurs du contexte (trace).
func (d *Dispatcher) emit(ctx context.Context, n *domain.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	n.ID = newID()
	n.CreatedAt = d.clock.Now()

	if err := d.repo.Append(ctx, n); err != nil {
		metrics.RecordNotification(string(n.Verb), "failed")
		slog.Error("❌ Notification dispatch failed",
			"verb", n.Verb,
			"recipient_id", n.RecipientID,
			"actor_id", n.ActorID,
			"error", err,
		)
		return
	}
	metrics.RecordNotification(string(n.Verb), "emitted")

	if err := d.publisher.PublishNotificationCreated(ctx, n); err != nil {
		slog.Debug("notification.created not published", "notification_id", n.ID, "error", err)
	}
}
