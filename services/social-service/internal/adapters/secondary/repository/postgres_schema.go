package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements : tout le schéma social, idempotent (IF NOT EXISTS).
// accounts est une projection locale, remplie par les événements identity.user.*
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id           TEXT PRIMARY KEY,
		username     TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		synced_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (follower_id, followee_id),
		CONSTRAINT follows_no_self CHECK (follower_id <> followee_id)
	)`,
	`CREATE INDEX IF NOT EXISTS follows_followee_idx ON follows (followee_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id         TEXT PRIMARY KEY,
		author_id  TEXT NOT NULL,
		title      TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL CHECK (btrim(body) <> ''),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_keyset_idx ON posts (author_id, created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id         TEXT PRIMARY KEY,
		post_id    TEXT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		author_id  TEXT NOT NULL,
		body       TEXT NOT NULL CHECK (btrim(body) <> ''),
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS comments_post_keyset_idx ON comments (post_id, created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS likes (
		account_id TEXT NOT NULL,
		post_id    TEXT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (account_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS likes_post_idx ON likes (post_id)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id           TEXT PRIMARY KEY,
		recipient_id TEXT NOT NULL,
		actor_id     TEXT,
		verb         TEXT NOT NULL CHECK (verb IN ('followed', 'commented', 'liked')),
		target_kind  TEXT CHECK (target_kind IN ('post', 'account')),
		target_id    TEXT,
		read         BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_inbox_idx ON notifications (recipient_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS notifications_unread_idx ON notifications (recipient_id) WHERE NOT read`,
}

// EnsurePostgresSchema applique le schéma au démarrage (Idempotent).
func EnsurePostgresSchema(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, handleError(err))
		}
	}
	return nil
}
