package services

import (
	"context"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
)

type FeedOptions struct {
	// IncludeOwnPosts ajoute les posts du demandeur à son propre feed.
	// Désactivé par défaut : ses posts relèvent du profil, pas du feed.
	IncludeOwnPosts bool
}

// FeedService assemble le feed à la lecture (fan-out-on-read), sans aucune écriture.
type FeedService struct {
	graph   ports.GraphService
	content ports.ContentService
	opts    FeedOptions
}

func NewFeedService(graph ports.GraphService, content ports.ContentService, opts FeedOptions) *FeedService {
	return &FeedService{graph: graph, content: content, opts: opts}
}

func (s *FeedService) GetFeed(ctx context.Context, requesterID, cursor string, limit int) (*domain.Feed, error) {
	if err := requireIDs(requesterID); err != nil {
		return nil, err
	}
	// Un curseur invalide est rejeté même quand le feed est vide
	if _, err := domain.DecodeCursor(cursor); err != nil {
		return nil, err
	}

	// 1. Followees via le graphe
	followees, err := s.graph.Followees(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	authors := make([]string, 0, len(followees)+1)
	for _, id := range followees {
		if id != requesterID {
			authors = append(authors, id)
		}
	}
	following := len(authors) > 0

	if s.opts.IncludeOwnPosts {
		authors = append(authors, requesterID)
	}
	if len(authors) == 0 {
		return &domain.Feed{FollowingAnyone: false, Posts: []*domain.Post{}}, nil
	}

	// 2. Posts des auteurs, page renvoyée telle quelle
	page, err := s.content.PostsByAuthors(ctx, authors, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &domain.Feed{
		FollowingAnyone: following,
		Posts:           page.Items,
		NextCursor:      page.NextCursor,
	}, nil
}
