package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// MemoryGraphRepo garde le graphe en mémoire (dev, tests).
// Les deux index sont mis à jour sous le même verrou.
type MemoryGraphRepo struct {
	mu        sync.RWMutex
	following map[string]map[string]time.Time // follower -> followee -> date
	followers map[string]map[string]time.Time // followee -> follower -> date
}

func NewMemoryGraphRepo() *MemoryGraphRepo {
	return &MemoryGraphRepo{
		following: make(map[string]map[string]time.Time),
		followers: make(map[string]map[string]time.Time),
	}
}

func (r *MemoryGraphRepo) EnsureSchema(context.Context) error { return nil }

func (r *MemoryGraphRepo) CreateRelation(ctx context.Context, edge *domain.FollowEdge) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.following[edge.FollowerID][edge.FolloweeID]; ok {
		return false, nil
	}
	link(r.following, edge.FollowerID, edge.FolloweeID, edge.CreatedAt)
	link(r.followers, edge.FolloweeID, edge.FollowerID, edge.CreatedAt)
	return true, nil
}

func (r *MemoryGraphRepo) DeleteRelation(ctx context.Context, actorID, targetID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.following[actorID][targetID]; !ok {
		return false, nil
	}
	delete(r.following[actorID], targetID)
	delete(r.followers[targetID], actorID)
	return true, nil
}

func (r *MemoryGraphRepo) GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, following := r.following[actorID][targetID]
	_, followedBy := r.following[targetID][actorID]
	return &domain.RelationStatus{IsFollowing: following, IsFollowedBy: followedBy}, nil
}

func (r *MemoryGraphRepo) FolloweeIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.following[userID]), nil
}

func (r *MemoryGraphRepo) CountRelations(ctx context.Context, userID string) (*domain.FollowCounts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &domain.FollowCounts{
		Following: len(r.following[userID]),
		Followers: len(r.followers[userID]),
	}, nil
}

// StreamFollowersIDs travaille sur une copie : le callback peut rappeler le repo sans deadlock.
func (r *MemoryGraphRepo) StreamFollowersIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	r.mu.RLock()
	ids := newestFirst(r.followers[userID])
	r.mu.RUnlock()

	for start := 0; start < len(ids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+batchSize, len(ids))
		if err := yield(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryGraphRepo) DeleteAllRelations(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for followee := range r.following[userID] {
		delete(r.followers[followee], userID)
		removed++
	}
	for follower := range r.followers[userID] {
		delete(r.following[follower], userID)
		removed++
	}
	delete(r.following, userID)
	delete(r.followers, userID)
	return removed, nil
}

func link(index map[string]map[string]time.Time, from, to string, at time.Time) {
	m, ok := index[from]
	if !ok {
		m = make(map[string]time.Time)
		index[from] = m
	}
	m[to] = at
}

func newestFirst(m map[string]time.Time) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if m[ids[i]].Equal(m[ids[j]]) {
			return ids[i] > ids[j]
		}
		return m[ids[i]].After(m[ids[j]])
	})
	return ids
}
