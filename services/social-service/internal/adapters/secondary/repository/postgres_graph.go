package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// PostgresGraphRepo : le graphe comme table d'arêtes (follower, followee).
// La clé primaire porte l'unicité, la contrainte CHECK interdit l'auto-follow.
type PostgresGraphRepo struct {
	db *pgxpool.Pool
}

func NewPostgresGraphRepo(db *pgxpool.Pool) *PostgresGraphRepo {
	return &PostgresGraphRepo{db: db}
}

func (r *PostgresGraphRepo) EnsureSchema(ctx context.Context) error {
	return EnsurePostgresSchema(ctx, r.db)
}

// CreateRelation : ON CONFLICT DO NOTHING décide "créé ou non" dans la même instruction.
func (r *PostgresGraphRepo) CreateRelation(ctx context.Context, edge *domain.FollowEdge) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO follows (follower_id, followee_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`, edge.FollowerID, edge.FolloweeID, edge.CreatedAt)
	if err != nil {
		return false, handleError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresGraphRepo) DeleteRelation(ctx context.Context, actorID, targetID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, actorID, targetID)
	if err != nil {
		return false, handleError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresGraphRepo) GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	var s domain.RelationStatus
	err := r.db.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2),
			EXISTS (SELECT 1 FROM follows WHERE follower_id = $2 AND followee_id = $1)
	`, actorID, targetID).Scan(&s.IsFollowing, &s.IsFollowedBy)
	if err != nil {
		return nil, handleError(err)
	}
	return &s, nil
}

func (r *PostgresGraphRepo) FolloweeIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, handleError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, handleError(err)
}

func (r *PostgresGraphRepo) CountRelations(ctx context.Context, userID string) (*domain.FollowCounts, error) {
	var c domain.FollowCounts
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM follows WHERE follower_id = $1),
			(SELECT count(*) FROM follows WHERE followee_id = $1)
	`, userID).Scan(&c.Following, &c.Followers)
	if err != nil {
		return nil, handleError(err)
	}
	return &c, nil
}

func (r *PostgresGraphRepo) StreamFollowersIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	rows, err := r.db.Query(ctx, `
		SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return handleError(err)
	}
	defer rows.Close()

	batch := make([]string, 0, batchSize)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return handleError(err)
		}
		batch = append(batch, id)

		if len(batch) >= batchSize {
			if err := yield(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return handleError(err)
	}
	if len(batch) > 0 {
		return yield(batch)
	}
	return nil
}

func (r *PostgresGraphRepo) DeleteAllRelations(ctx context.Context, userID string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 OR followee_id = $1`, userID)
	if err != nil {
		return 0, handleError(err)
	}
	return int(tag.RowsAffected()), nil
}
