package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/metrics"
)

const followersBatchSize = 1000

type graphService struct {
	repo       ports.GraphRepository
	accounts   ports.AccountDirectory
	dispatcher ports.Dispatcher
	clock      domain.Clock
}

func NewGraphService(repo ports.GraphRepository, accounts ports.AccountDirectory, dispatcher ports.Dispatcher, clock domain.Clock) ports.GraphService {
	return &graphService{repo: repo, accounts: accounts, dispatcher: dispatcher, clock: clock}
}

func (s *graphService) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	edge, err := domain.NewFollowEdge(followerID, followeeID, s.clock.Now())
	if err != nil {
		return false, err
	}

	// Le compte suivi doit exister côté identity
	if _, err := s.accounts.GetByID(ctx, edge.FolloweeID); err != nil {
		return false, err
	}

	// L'unicité est tranchée par le store : pas de "check puis insert"
	created, err := s.repo.CreateRelation(ctx, edge)
	if err != nil {
		return false, err
	}
	metrics.RecordFollow(created)

	if created {
		s.dispatcher.OnFollow(ctx, edge.FollowerID, edge.FolloweeID)
	}
	return created, nil
}

func (s *graphService) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if err := requireIDs(followerID, followeeID); err != nil {
		return false, err
	}
	removed, err := s.repo.DeleteRelation(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}
	metrics.RecordUnfollow(removed)
	return removed, nil
}

func (s *graphService) Followees(ctx context.Context, userID string) ([]string, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	ids, err := s.repo.FolloweeIDs(ctx, userID)
	return ids, readErr(ctx, err)
}

// Followers agrège le stream par paquets en une seule liste
func (s *graphService) Followers(ctx context.Context, userID string) ([]string, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	var all []string
	err := s.repo.StreamFollowersIDs(ctx, userID, followersBatchSize, func(batch []string) error {
		all = append(all, batch...)
		return nil
	})
	if err != nil {
		return nil, readErr(ctx, err)
	}
	return all, nil
}

func (s *graphService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	status, err := s.CheckRelation(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}
	return status.IsFollowing, nil
}

func (s *graphService) CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	if err := requireIDs(actorID, targetID); err != nil {
		return nil, err
	}
	if actorID == targetID {
		return &domain.RelationStatus{}, nil
	}
	status, err := s.repo.GetRelationStatus(ctx, actorID, targetID)
	return status, readErr(ctx, err)
}

func (s *graphService) Counts(ctx context.Context, userID string) (*domain.FollowCounts, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	counts, err := s.repo.CountRelations(ctx, userID)
	return counts, readErr(ctx, err)
}

func (s *graphService) StreamFollowers(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	if batchSize <= 0 {
		batchSize = followersBatchSize
	}
	return s.repo.StreamFollowersIDs(ctx, userID, batchSize, yield)
}

// RemoveAccount est l'appel de nettoyage quand un compte disparaît côté identity.
func (s *graphService) RemoveAccount(ctx context.Context, userID string) (int, error) {
	if err := requireIDs(userID); err != nil {
		return 0, err
	}
	return s.repo.DeleteAllRelations(ctx, userID)
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: ids cannot be empty", domain.ErrValidation)
		}
	}
	return nil
}
