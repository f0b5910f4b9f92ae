package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

func TestMemoryGraphRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryGraphRepo()
	now := time.Now()

	created, err := repo.CreateRelation(ctx, &domain.FollowEdge{FollowerID: "a", FolloweeID: "b", CreatedAt: now})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateRelation(ctx, &domain.FollowEdge{FollowerID: "a", FolloweeID: "b", CreatedAt: now})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.CreateRelation(ctx, &domain.FollowEdge{FollowerID: "a", FolloweeID: "c", CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)

	ids, err := repo.FolloweeIDs(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)

	var batches [][]string
	err = repo.StreamFollowersIDs(ctx, "b", 1, func(batch []string) error {
		batches = append(batches, append([]string(nil), batch...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}}, batches)

	removed, err := repo.DeleteRelation(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteRelation(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryStreamStopsOnYieldError(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryGraphRepo()
	for _, f := range []string{"x", "y", "z"} {
		_, err := repo.CreateRelation(ctx, &domain.FollowEdge{FollowerID: f, FolloweeID: "t", CreatedAt: time.Now()})
		require.NoError(t, err)
	}

	stop := errors.New("stop")
	calls := 0
	err := repo.StreamFollowersIDs(ctx, "t", 1, func([]string) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestMemoryLikeRepoConcurrentToggle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryLikeRepo()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Toggle(ctx, &domain.Like{AccountID: "a", PostID: "p"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 100 bascules : état final "non liké"
	n, err := repo.Count(ctx, "p")
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err := repo.Exists(ctx, "a", "p")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryPostRepoTieBreak(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"p1", "p3", "p2"} {
		require.NoError(t, repo.Save(ctx, &domain.Post{ID: id, AuthorID: "bob", Body: id, CreatedAt: at}))
	}

	page, err := repo.ListByAuthors(ctx, []string{"bob"}, "", nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "p3", page[0].ID)
	assert.Equal(t, "p2", page[1].ID)

	rest, err := repo.ListByAuthors(ctx, []string{"bob"}, "", &domain.Cursor{At: at, ID: "p2"}, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "p1", rest[0].ID)

	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryPostRepoSearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPostRepo()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "p1", AuthorID: "bob", Title: "Go Tips", Body: "use contexts", CreatedAt: at}))
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "p2", AuthorID: "bob", Body: "weekend hiking", CreatedAt: at.Add(time.Second)}))
	require.NoError(t, repo.Save(ctx, &domain.Post{ID: "p3", AuthorID: "carol", Body: "go go go", CreatedAt: at.Add(2 * time.Second)}))

	page, err := repo.ListByAuthors(ctx, []string{"bob"}, "GO", nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "p1", page[0].ID)

	page, err = repo.ListByAuthors(ctx, []string{"bob"}, "HIKING", nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "p2", page[0].ID)

	page, err = repo.ListByAuthors(ctx, []string{"bob"}, "rust", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemoryNotificationRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNotificationRepo()
	base := time.Now()

	for i, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, repo.Append(ctx, &domain.Notification{
			ID: id, RecipientID: "bob", Verb: domain.VerbLiked, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, repo.SetRead(ctx, "n2", true))
	assert.ErrorIs(t, repo.SetRead(ctx, "missing", true), domain.ErrNotFound)

	unread, err := repo.ListForRecipient(ctx, "bob", true, nil, 10)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "n3", unread[0].ID)
	assert.Equal(t, "n1", unread[1].ID)

	counts, err := repo.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, &domain.NotificationCounts{Total: 3, Unread: 2}, counts)

	changed, err := repo.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	changed, err = repo.MarkAllRead(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMemoryAccountDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryAccountDirectory(&domain.Account{ID: "alice", Username: "alice"})

	a, err := dir.GetByID(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", a.Username)

	require.NoError(t, dir.Upsert(ctx, &domain.Account{ID: "bob", Username: "bob@cenackle.io"}))
	b, err := dir.GetByID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@cenackle.io", b.Username)

	require.NoError(t, dir.Delete(ctx, "alice"))
	_, err = dir.GetByID(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
