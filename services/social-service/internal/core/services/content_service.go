package services

import (
	"context"
	"iter"
	"log/slog"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/metrics"
)

type contentService struct {
	posts      ports.PostRepository
	likes      ports.LikeRepository
	dispatcher ports.Dispatcher
	publisher  ports.EventPublisher
	clock      domain.Clock
}

func NewContentService(
	posts ports.PostRepository,
	likes ports.LikeRepository,
	dispatcher ports.Dispatcher,
	publisher ports.EventPublisher,
	clock domain.Clock,
) ports.ContentService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &contentService{
		posts:      posts,
		likes:      likes,
		dispatcher: dispatcher,
		publisher:  publisher,
		clock:      clock,
	}
}

func (s *contentService) CreatePost(ctx context.Context, authorID, title, body string) (*domain.Post, error) {
	post, err := domain.NewPost(newID(), authorID, title, body, s.clock.Now())
	if err != nil {
		return nil, err
	}

	// 1. Sauvegarde DB (Source of Truth)
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, err
	}

	// 2. Publication Événement : best effort, la donnée est déjà sauvée
	if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
		slog.Warn("Failed to publish post.created", "post_id", post.ID, "error", err)
	}

	return post, nil
}

func (s *contentService) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	if err := requireIDs(postID); err != nil {
		return nil, err
	}
	post, err := s.posts.FindByID(ctx, postID)
	return post, readErr(ctx, err)
}

func (s *contentService) PostStats(ctx context.Context, postID, viewerID string) (*domain.PostStats, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	likes, err := s.likes.Count(ctx, postID)
	if err != nil {
		return nil, readErr(ctx, err)
	}
	comments, err := s.posts.CountComments(ctx, postID)
	if err != nil {
		return nil, readErr(ctx, err)
	}

	stats := &domain.PostStats{LikeCount: likes, CommentCount: comments}
	if viewerID != "" {
		stats.LikedByMe, err = s.likes.Exists(ctx, viewerID, postID)
		if err != nil {
			return nil, readErr(ctx, err)
		}
	}
	return stats, nil
}

// PostsByAuthors : pagination keyset sur un ensemble d'auteurs.
func (s *contentService) PostsByAuthors(ctx context.Context, authorIDs []string, cursor string, limit int) (*domain.Page[*domain.Post], error) {
	c, err := domain.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	return s.postsPage(ctx, dedupe(authorIDs), "", c, domain.ClampLimit(limit))
}

// PostsByAuthorsSeq parcourt paresseusement toutes les pages. Une nouvelle
// itération repart du début.
func (s *contentService) PostsByAuthorsSeq(ctx context.Context, authorIDs []string, pageSize int) iter.Seq2[*domain.Post, error] {
	authors := dedupe(authorIDs)
	limit := domain.ClampLimit(pageSize)

	return func(yield func(*domain.Post, error) bool) {
		var c *domain.Cursor
		for {
			page, err := s.postsPage(ctx, authors, "", c, limit)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, p := range page.Items {
				if !yield(p, nil) {
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			last := page.Items[len(page.Items)-1]
			c = &domain.Cursor{At: last.CreatedAt, ID: last.ID}
		}
	}
}

// ProfileTimeline : les posts d'un auteur, éventuellement filtrés par search.
func (s *contentService) ProfileTimeline(ctx context.Context, authorID, search, cursor string, limit int) (*domain.Page[*domain.Post], error) {
	if err := requireIDs(authorID); err != nil {
		return nil, err
	}
	q, err := domain.NormalizeSearch(search)
	if err != nil {
		return nil, err
	}
	c, err := domain.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	return s.postsPage(ctx, []string{authorID}, q, c, domain.ClampLimit(limit))
}

func (s *contentService) postsPage(ctx context.Context, authors []string, search string, c *domain.Cursor, limit int) (*domain.Page[*domain.Post], error) {
	if len(authors) == 0 {
		return &domain.Page[*domain.Post]{Items: []*domain.Post{}}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, readErr(ctx, err)
	}

	posts, err := s.posts.ListByAuthors(ctx, authors, search, c, limit)
	if err != nil {
		return nil, readErr(ctx, err)
	}
	if posts == nil {
		posts = []*domain.Post{}
	}

	page := &domain.Page[*domain.Post]{Items: posts}
	if n := len(posts); n > 0 {
		last := posts[n-1]
		page.NextCursor = domain.NextCursor(last.CreatedAt, last.ID, n, limit)
	}
	return page, nil
}

func (s *contentService) CreateComment(ctx context.Context, postID, authorID, body string) (*domain.Comment, error) {
	comment, err := domain.NewComment(newID(), postID, authorID, body, s.clock.Now())
	if err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := s.posts.SaveComment(ctx, comment); err != nil {
		return nil, err
	}

	s.dispatcher.OnComment(ctx, post, comment)
	return comment, nil
}

func (s *contentService) ListComments(ctx context.Context, postID, cursor string, limit int) (*domain.Page[*domain.Comment], error) {
	c, err := domain.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	limit = domain.ClampLimit(limit)
	comments, err := s.posts.ListComments(ctx, postID, c, limit)
	if err != nil {
		return nil, readErr(ctx, err)
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}

	page := &domain.Page[*domain.Comment]{Items: comments}
	if n := len(comments); n > 0 {
		last := comments[n-1]
		page.NextCursor = domain.NextCursor(last.CreatedAt, last.ID, n, limit)
	}
	return page, nil
}

// ToggleLike est la seule mutation possible sur l'état d'un like.
func (s *contentService) ToggleLike(ctx context.Context, accountID, postID string) (bool, error) {
	if err := requireIDs(accountID, postID); err != nil {
		return false, err
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return false, err
	}

	liked, err := s.likes.Toggle(ctx, &domain.Like{AccountID: accountID, PostID: postID, CreatedAt: s.clock.Now()})
	if err != nil {
		return false, err
	}
	metrics.RecordLikeToggle(liked)

	// Seule la transition vers "liké" notifie
	if liked {
		s.dispatcher.OnLike(ctx, accountID, post)
	}
	return liked, nil
}

func (s *contentService) LikeCount(ctx context.Context, postID string) (int, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return 0, err
	}
	n, err := s.likes.Count(ctx, postID)
	return n, readErr(ctx, err)
}

func (s *contentService) HasLiked(ctx context.Context, accountID, postID string) (bool, error) {
	if err := requireIDs(accountID, postID); err != nil {
		return false, err
	}
	ok, err := s.likes.Exists(ctx, accountID, postID)
	return ok, readErr(ctx, err)
}
