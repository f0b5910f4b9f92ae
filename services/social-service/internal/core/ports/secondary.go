package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// --- DRIVEN (Ce dont le service a besoin) ---

// GraphRepository est le port Driven du graphe (Neo4j, Postgres ou mémoire).
// L'unicité d'un lien est garantie par le store, jamais par l'appelant.
type GraphRepository interface {
	// EnsureSchema crée les contraintes et index (Idempotent)
	EnsureSchema(ctx context.Context) error

	// CreateRelation renvoie created=false si le lien existait déjà (décidé atomiquement)
	CreateRelation(ctx context.Context, edge *domain.FollowEdge) (bool, error)
	DeleteRelation(ctx context.Context, actorID, targetID string) (bool, error)
	GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error)

	FolloweeIDs(ctx context.Context, userID string) ([]string, error)
	CountRelations(ctx context.Context, userID string) (*domain.FollowCounts, error)

	// StreamFollowersIDs renvoie les followers par paquets via le callback 'yield'
	StreamFollowersIDs(ctx context.Context, userID string, batchSize int, yield func([]string) error) error

	// DeleteAllRelations supprime tous les liens incidents (nettoyage à la suppression d'un compte)
	DeleteAllRelations(ctx context.Context, userID string) (int, error)
}

type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, postID string) (*domain.Post, error)

	// ListByAuthors : pagination keyset, (created_at, id) DESC, curseur exclusif.
	// search filtre titre et corps (insensible à la casse), "" = tout.
	ListByAuthors(ctx context.Context, authorIDs []string, search string, cursor *domain.Cursor, limit int) ([]*domain.Post, error)

	SaveComment(ctx context.Context, comment *domain.Comment) error
	ListComments(ctx context.Context, postID string, cursor *domain.Cursor, limit int) ([]*domain.Comment, error)
	CountComments(ctx context.Context, postID string) (int, error)
}

// LikeRepository : Toggle doit être atomique par couple (compte, post).
type LikeRepository interface {
	Toggle(ctx context.Context, like *domain.Like) (bool, error)
	Count(ctx context.Context, postID string) (int, error)
	Exists(ctx context.Context, accountID, postID string) (bool, error)
}

type NotificationRepository interface {
	Append(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, cursor *domain.Cursor, limit int) ([]*domain.Notification, error)
	SetRead(ctx context.Context, id string, read bool) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Counts(ctx context.Context, recipientID string) (*domain.NotificationCounts, error)
}

// AccountDirectory : projection locale des comptes de l'identity-service,
// alimentée par ses événements (inscription, suppression).
type AccountDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// Upsert est idempotent : un événement rejoué ne crée pas de doublon
	Upsert(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
	PublishNotificationCreated(ctx context.Context, n *domain.Notification) error
}
