package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

type PostgresPostRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPostRepo(db *pgxpool.Pool) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

func (r *PostgresPostRepo) Save(ctx context.Context, post *domain.Post) error {
	q := `
		INSERT INTO posts (id, author_id, title, body, created_at)
		VALUES (@id, @author_id, @title, @body, @created_at)
	`
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":         post.ID,
		"author_id":  post.AuthorID,
		"title":      post.Title,
		"body":       post.Body,
		"created_at": post.CreatedAt,
	})
	return handleError(err)
}

func (r *PostgresPostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	q := `SELECT id, author_id, title, body, created_at FROM posts WHERE id = $1`

	var p domain.Post
	err := r.db.QueryRow(ctx, q, postID).Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt)
	if err != nil {
		return nil, handleError(err)
	}
	return &p, nil
}

// ListByAuthors : PAGINATION KEYSET sur un ensemble d'auteurs.
// Pas d'OFFSET : l'index (author_id, created_at DESC, id DESC) sert chaque page.
// search ajoute un ILIKE sur titre/corps, les jokers LIKE de l'utilisateur sont échappés.
func (r *PostgresPostRepo) ListByAuthors(ctx context.Context, authorIDs []string, search string, cursor *domain.Cursor, limit int) ([]*domain.Post, error) {
	params := []any{authorIDs}
	filter := ""
	if search != "" {
		params = append(params, likePattern(search))
		filter = " AND (title ILIKE $2 OR body ILIKE $2)"
	}

	clause, args := keyset(cursor, len(params)+1)
	params = append(params, args...)
	params = append(params, limit)

	q := fmt.Sprintf(`
		SELECT id, author_id, title, body, created_at
		FROM posts
		WHERE author_id = ANY($1)%s%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, filter, clause, len(params))

	rows, err := r.db.Query(ctx, q, params...)
	if err != nil {
		return nil, handleError(err)
	}
	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Post, error) {
		var p domain.Post
		err := row.Scan(&p.ID, &p.AuthorID, &p.Title, &p.Body, &p.CreatedAt)
		return &p, err
	})
	return posts, handleError(err)
}

func (r *PostgresPostRepo) SaveComment(ctx context.Context, c *domain.Comment) error {
	q := `
		INSERT INTO comments (id, post_id, author_id, body, created_at)
		VALUES (@id, @post_id, @author_id, @body, @created_at)
	`
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":         c.ID,
		"post_id":    c.PostID,
		"author_id":  c.AuthorID,
		"body":       c.Body,
		"created_at": c.CreatedAt,
	})
	return handleError(err)
}

func (r *PostgresPostRepo) ListComments(ctx context.Context, postID string, cursor *domain.Cursor, limit int) ([]*domain.Comment, error) {
	clause, args := keyset(cursor, 2)
	q := fmt.Sprintf(`
		SELECT id, post_id, author_id, body, created_at
		FROM comments
		WHERE post_id = $1%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, clause, len(args)+2)

	params := append([]any{postID}, args...)
	params = append(params, limit)

	rows, err := r.db.Query(ctx, q, params...)
	if err != nil {
		return nil, handleError(err)
	}
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Comment, error) {
		var c domain.Comment
		err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.CreatedAt)
		return &c, err
	})
	return comments, handleError(err)
}

func (r *PostgresPostRepo) CountComments(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	return n, handleError(err)
}

// PostgresLikeRepo : le toggle est sérialisé par un advisory lock transactionnel
// sur le couple (compte, post), la clé primaire garantit l'unicité.
type PostgresLikeRepo struct {
	db *pgxpool.Pool
}

func NewPostgresLikeRepo(db *pgxpool.Pool) *PostgresLikeRepo {
	return &PostgresLikeRepo{db: db}
}

func (r *PostgresLikeRepo) Toggle(ctx context.Context, like *domain.Like) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, handleError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op après Commit

	key := like.AccountID + "|" + like.PostID
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return false, handleError(err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM likes WHERE account_id = $1 AND post_id = $2`, like.AccountID, like.PostID)
	if err != nil {
		return false, handleError(err)
	}
	liked := tag.RowsAffected() == 0

	if liked {
		_, err = tx.Exec(ctx, `
			INSERT INTO likes (account_id, post_id, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (account_id, post_id) DO NOTHING
		`, like.AccountID, like.PostID, like.CreatedAt)
		if err != nil {
			return false, handleError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, handleError(err)
	}
	return liked, nil
}

func (r *PostgresLikeRepo) Count(ctx context.Context, postID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM likes WHERE post_id = $1`, postID).Scan(&n)
	return n, handleError(err)
}

func (r *PostgresLikeRepo) Exists(ctx context.Context, accountID, postID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE account_id = $1 AND post_id = $2)`,
		accountID, postID,
	).Scan(&ok)
	return ok, handleError(err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern : "%q%" avec \ comme caractère d'échappement (défaut Postgres).
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
