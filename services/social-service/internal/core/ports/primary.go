package ports

import (
	"context"
	"iter"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// --- DRIVING (Ce que le service expose) ---

// GraphService est le port Driving du graphe social
type GraphService interface {
	Follow(ctx context.Context, followerID, followeeID string) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (bool, error)
	Followees(ctx context.Context, userID string) ([]string, error)
	Followers(ctx context.Context, userID string) ([]string, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)
	Counts(ctx context.Context, userID string) (*domain.FollowCounts, error)
	StreamFollowers(ctx context.Context, userID string, batchSize int, yield func([]string) error) error
	RemoveAccount(ctx context.Context, userID string) (int, error)
}

// AccountService maintient la projection locale des comptes (événements identity).
type AccountService interface {
	RegisterAccount(ctx context.Context, account *domain.Account) error
	// DeleteAccount retire les arêtes puis le compte ; renvoie le nombre d'arêtes supprimées
	DeleteAccount(ctx context.Context, id string) (int, error)
}

type ContentService interface {
	CreatePost(ctx context.Context, authorID, title, body string) (*domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	PostStats(ctx context.Context, postID, viewerID string) (*domain.PostStats, error)
	PostsByAuthors(ctx context.Context, authorIDs []string, cursor string, limit int) (*domain.Page[*domain.Post], error)
	PostsByAuthorsSeq(ctx context.Context, authorIDs []string, pageSize int) iter.Seq2[*domain.Post, error]
	ProfileTimeline(ctx context.Context, authorID, search, cursor string, limit int) (*domain.Page[*domain.Post], error)

	CreateComment(ctx context.Context, postID, authorID, body string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID, cursor string, limit int) (*domain.Page[*domain.Comment], error)

	ToggleLike(ctx context.Context, accountID, postID string) (bool, error)
	LikeCount(ctx context.Context, postID string) (int, error)
	HasLiked(ctx context.Context, accountID, postID string) (bool, error)
}

type NotificationService interface {
	List(ctx context.Context, recipientID string, unreadOnly bool, cursor string, limit int) (*domain.Page[*domain.Notification], error)
	Get(ctx context.Context, id, accountID string) (*domain.Notification, error)
	MarkRead(ctx context.Context, id, accountID string) error
	MarkUnread(ctx context.Context, id, accountID string) error
	MarkAllRead(ctx context.Context, accountID string) (int64, error)
	UnreadCount(ctx context.Context, accountID string) (int, error)
	Counts(ctx context.Context, accountID string) (*domain.NotificationCounts, error)
}

// Dispatcher décide et écrit les notifications après une mutation réussie.
// Il ne renvoie jamais d'erreur : la mutation reste le fait durable.
type Dispatcher interface {
	OnFollow(ctx context.Context, followerID, followeeID string)
	OnComment(ctx context.Context, post *domain.Post, comment *domain.Comment)
	OnLike(ctx context.Context, accountID string, post *domain.Post)
}

type FeedService interface {
	GetFeed(ctx context.Context, requesterID, cursor string, limit int) (*domain.Feed, error)
}
