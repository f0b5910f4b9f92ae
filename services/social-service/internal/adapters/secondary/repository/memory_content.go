package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// MemoryPostRepo : posts et commentaires en mémoire, triés à la lecture.
type MemoryPostRepo struct {
	mu       sync.RWMutex
	posts    map[string]*domain.Post
	comments map[string][]*domain.Comment // postID -> commentaires
}

func NewMemoryPostRepo() *MemoryPostRepo {
	return &MemoryPostRepo{
		posts:    make(map[string]*domain.Post),
		comments: make(map[string][]*domain.Comment),
	}
}

func (r *MemoryPostRepo) Save(ctx context.Context, post *domain.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *MemoryPostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[postID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryPostRepo) ListByAuthors(ctx context.Context, authorIDs []string, search string, cursor *domain.Cursor, limit int) ([]*domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Post
	for _, p := range r.posts {
		if slices.Contains(authorIDs, p.AuthorID) && cursor.After(p.CreatedAt, p.ID) && p.Matches(search) {
			cp := *p
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Post) int {
		return compareDesc(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return truncate(out, limit), nil
}

func (r *MemoryPostRepo) SaveComment(ctx context.Context, comment *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *comment
	r.comments[comment.PostID] = append(r.comments[comment.PostID], &cp)
	return nil
}

func (r *MemoryPostRepo) ListComments(ctx context.Context, postID string, cursor *domain.Cursor, limit int) ([]*domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Comment
	for _, c := range r.comments[postID] {
		if cursor.After(c.CreatedAt, c.ID) {
			cp := *c
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Comment) int {
		return compareDesc(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return truncate(out, limit), nil
}

func (r *MemoryPostRepo) CountComments(ctx context.Context, postID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.comments[postID]), nil
}

type likeKey struct{ account, post string }

// MemoryLikeRepo : ensemble de couples (compte, post). Le toggle se fait sous verrou exclusif.
type MemoryLikeRepo struct {
	mu    sync.Mutex
	likes map[likeKey]struct{}
	count map[string]int
}

func NewMemoryLikeRepo() *MemoryLikeRepo {
	return &MemoryLikeRepo{likes: make(map[likeKey]struct{}), count: make(map[string]int)}
}

func (r *MemoryLikeRepo) Toggle(ctx context.Context, like *domain.Like) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := likeKey{like.AccountID, like.PostID}
	if _, ok := r.likes[k]; ok {
		delete(r.likes, k)
		r.count[like.PostID]--
		return false, nil
	}
	r.likes[k] = struct{}{}
	r.count[like.PostID]++
	return true, nil
}

func (r *MemoryLikeRepo) Count(ctx context.Context, postID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count[postID], nil
}

func (r *MemoryLikeRepo) Exists(ctx context.Context, accountID, postID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.likes[likeKey{accountID, postID}]
	return ok, nil
}
