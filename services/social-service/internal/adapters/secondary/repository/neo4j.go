package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

type Neo4jGraphRepo struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jGraphRepo(driver neo4j.DriverWithContext) *Neo4jGraphRepo {
	return &Neo4jGraphRepo{driver: driver}
}

// EnsureSchema crée les index pour que les lookups par ID soient O(1)
func (r *Neo4jGraphRepo) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Contrainte d'unicité sur User.id (crée aussi un index)
		query := `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	return neo4jError(err)
}

// CreateRelation : MERGE seul n'est pas sûr sous concurrence. On prend d'abord
// le verrou d'écriture du noeud follower (SET/REMOVE), la seconde transaction
// voit donc la flèche créée par la première et renvoie created=false.
func (r *Neo4jGraphRepo) CreateRelation(ctx context.Context, edge *domain.FollowEdge) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (a:User {id: $actorId})
			MERGE (b:User {id: $targetId})
			SET a._lock = true
			REMOVE a._lock
			MERGE (a)-[r:FOLLOWS]->(b)
			ON CREATE SET r.created_at = $createdAt, r._created = true
			WITH r, coalesce(r._created, false) AS created
			REMOVE r._created
			RETURN created
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"actorId":   edge.FollowerID,
			"targetId":  edge.FolloweeID,
			"createdAt": edge.CreatedAt,
		})
		if err != nil {
			return false, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return false, err
		}
		v, _ := rec.Get("created")
		ok, _ := v.(bool)
		return ok, nil
	})
	if err != nil {
		return false, neo4jError(err)
	}
	return created.(bool), nil
}

func (r *Neo4jGraphRepo) DeleteRelation(ctx context.Context, actorID, targetID string) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	removed, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (a:User {id: $actorId})-[r:FOLLOWS]->(b:User {id: $targetId})
			DELETE r
			RETURN count(*) AS removed
		`
		return singleInt(ctx, tx, query, map[string]any{"actorId": actorID, "targetId": targetID}, "removed")
	})
	if err != nil {
		return false, neo4jError(err)
	}
	return removed.(int64) > 0, nil
}

func (r *Neo4jGraphRepo) GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Une seule requête pour checker les deux sens
		query := `
			MATCH (a:User {id: $actorId}), (b:User {id: $targetId})
			RETURN EXISTS { (a)-[:FOLLOWS]->(b) } AS following,
			       EXISTS { (b)-[:FOLLOWS]->(a) } AS followedBy
		`
		res, err := tx.Run(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
		if err != nil {
			return nil, err
		}

		if res.Next(ctx) {
			rec := res.Record()
			following, _ := rec.Get("following")
			followedBy, _ := rec.Get("followedBy")
			return &domain.RelationStatus{
				IsFollowing:  following.(bool),
				IsFollowedBy: followedBy.(bool),
			}, nil
		}
		// Si aucun noeud trouvé, on considère false/false
		return &domain.RelationStatus{}, res.Err()
	})
	if err != nil {
		return nil, neo4jError(err)
	}
	return result.(*domain.RelationStatus), nil
}

func (r *Neo4jGraphRepo) FolloweeIDs(ctx context.Context, userID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (u:User {id: $userId})-[r:FOLLOWS]->(f:User)
			RETURN f.id AS followeeId
			ORDER BY r.created_at DESC
		`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}
		ids := []string{}
		for res.Next(ctx) {
			id, _ := res.Record().Get("followeeId")
			ids = append(ids, id.(string))
		}
		return ids, res.Err()
	})
	if err != nil {
		return nil, neo4jError(err)
	}
	return result.([]string), nil
}

func (r *Neo4jGraphRepo) CountRelations(ctx context.Context, userID string) (*domain.FollowCounts, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (u:User {id: $userId})
			RETURN COUNT { (u)-[:FOLLOWS]->() } AS following,
			       COUNT { (u)<-[:FOLLOWS]-() } AS followers
		`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}
		counts := &domain.FollowCounts{}
		if res.Next(ctx) {
			following, _ := res.Record().Get("following")
			followers, _ := res.Record().Get("followers")
			counts.Following = int(following.(int64))
			counts.Followers = int(followers.(int64))
		}
		return counts, res.Err()
	})
	if err != nil {
		return nil, neo4jError(err)
	}
	return result.(*domain.FollowCounts), nil
}

// StreamFollowersIDs : parcours par paquets, sans charger toute la liste
func (r *Neo4jGraphRepo) StreamFollowersIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	// Pas d'ExecuteRead ici : on streame le résultat manuellement
	query := `
		MATCH (u:User {id: $userId})<-[r:FOLLOWS]-(f:User)
		RETURN f.id AS followerId
		ORDER BY r.created_at DESC
	`
	res, err := session.Run(ctx, query, map[string]any{"userId": userID})
	if err != nil {
		return neo4jError(err)
	}

	batch := make([]string, 0, batchSize)
	for res.Next(ctx) {
		id, _ := res.Record().Get("followerId")
		batch = append(batch, id.(string))

		if len(batch) >= batchSize {
			if err := yield(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := yield(batch); err != nil {
			return err
		}
	}
	return neo4jError(res.Err())
}

// DeleteAllRelations supprime les flèches entrantes et sortantes, puis le noeud.
func (r *Neo4jGraphRepo) DeleteAllRelations(ctx context.Context, userID string) (int, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	removed, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		n, err := singleInt(ctx, tx, `
			MATCH (u:User {id: $userId})-[r:FOLLOWS]-()
			DELETE r
			RETURN count(*) AS removed
		`, map[string]any{"userId": userID}, "removed")
		if err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, `MATCH (u:User {id: $userId}) DELETE u`, map[string]any{"userId": userID}); err != nil {
			return nil, err
		}
		return n, nil
	})
	if err != nil {
		return 0, neo4jError(err)
	}
	return int(removed.(int64)), nil
}

func singleInt(ctx context.Context, tx neo4j.ManagedTransaction, query string, params map[string]any, key string) (int64, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return n, nil
}

// neo4jError : connectivité et erreurs transitoires -> ErrStorageUnavailable
func neo4jError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if neo4j.IsConnectivityError(err) || neo4j.IsRetryable(err) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("neo4j: %w", err)
}
