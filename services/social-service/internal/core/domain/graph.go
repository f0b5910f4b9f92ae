package domain

import (
	"fmt"
	"strings"
	"time"
)

// FollowEdge représente un lien dirigé dans le graphe (Follower -> FOLLOWS -> Followee)
type FollowEdge struct {
	FollowerID string // Celui qui suit
	FolloweeID string // Celui qui est suivi
	CreatedAt  time.Time
}

// NewFollowEdge valide les invariants d'un lien avant toute écriture.
func NewFollowEdge(followerID, followeeID string, now time.Time) (*FollowEdge, error) {
	followerID = strings.TrimSpace(followerID)
	followeeID = strings.TrimSpace(followeeID)
	if followerID == "" || followeeID == "" {
		return nil, fmt.Errorf("%w: ids cannot be empty", ErrValidation)
	}
	if followerID == followeeID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	}
	return &FollowEdge{FollowerID: followerID, FolloweeID: followeeID, CreatedAt: now}, nil
}

// RelationStatus est utilisé pour l'UI (CheckRelation)
type RelationStatus struct {
	IsFollowing  bool // Actor suit Target
	IsFollowedBy bool // Target suit Actor
}

// FollowCounts accompagne les réponses follow/unfollow.
type FollowCounts struct {
	Following int
	Followers int
}
