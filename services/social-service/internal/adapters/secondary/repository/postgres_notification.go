package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

type PostgresNotificationRepo struct {
	db *pgxpool.Pool
}

func NewPostgresNotificationRepo(db *pgxpool.Pool) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

const notificationColumns = `id, recipient_id, actor_id, verb, target_kind, target_id, read, created_at`

func (r *PostgresNotificationRepo) Append(ctx context.Context, n *domain.Notification) error {
	q := `
		INSERT INTO notifications (id, recipient_id, actor_id, verb, target_kind, target_id, read, created_at)
		VALUES (@id, @recipient_id, @actor_id, @verb, @target_kind, @target_id, @read, @created_at)
	`
	args := pgx.NamedArgs{
		"id":           n.ID,
		"recipient_id": n.RecipientID,
		"actor_id":     nullable(n.ActorID),
		"verb":         string(n.Verb),
		"target_kind":  nil,
		"target_id":    nil,
		"read":         n.Read,
		"created_at":   n.CreatedAt,
	}
	if n.Target != nil {
		args["target_kind"] = string(n.Target.Kind)
		args["target_id"] = n.Target.ID
	}
	_, err := r.db.Exec(ctx, q, args)
	return handleError(err)
}

func (r *PostgresNotificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	row := r.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, handleError(err)
	}
	return n, nil
}

func (r *PostgresNotificationRepo) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, cursor *domain.Cursor, limit int) ([]*domain.Notification, error) {
	clause, args := keyset(cursor, 3)
	q := fmt.Sprintf(`
		SELECT %s
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR NOT read)%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, notificationColumns, clause, len(args)+3)

	params := append([]any{recipientID, unreadOnly}, args...)
	params = append(params, limit)

	rows, err := r.db.Query(ctx, q, params...)
	if err != nil {
		return nil, handleError(err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Notification, error) {
		return scanNotification(row)
	})
	return items, handleError(err)
}

func (r *PostgresNotificationRepo) SetRead(ctx context.Context, id string, read bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return handleError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, recipientID)
	if err != nil {
		return 0, handleError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresNotificationRepo) Counts(ctx context.Context, recipientID string) (*domain.NotificationCounts, error) {
	var c domain.NotificationCounts
	err := r.db.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE NOT read)
		FROM notifications
		WHERE recipient_id = $1
	`, recipientID).Scan(&c.Total, &c.Unread)
	if err != nil {
		return nil, handleError(err)
	}
	return &c, nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	var actor, targetKind, targetID *string
	var verb string
	if err := row.Scan(&n.ID, &n.RecipientID, &actor, &verb, &targetKind, &targetID, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Verb = domain.Verb(verb)
	if actor != nil {
		n.ActorID = *actor
	}
	if targetKind != nil && targetID != nil {
		n.Target = &domain.TargetRef{Kind: domain.TargetKind(*targetKind), ID: *targetID}
	}
	return &n, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
