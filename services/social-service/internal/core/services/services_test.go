package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/services"
)

type fixture struct {
	graph         ports.GraphService
	content       ports.ContentService
	notifications ports.NotificationService
	feed          *services.FeedService
	notifRepo     *repository.MemoryNotificationRepo
	accounts      *repository.MemoryAccountDirectory
}

func newFixture(t *testing.T, opts services.FeedOptions) *fixture {
	t.Helper()
	return newFixtureWithNotifRepo(t, opts, nil)
}

func newFixtureWithNotifRepo(t *testing.T, opts services.FeedOptions, notifs ports.NotificationRepository) *fixture {
	t.Helper()
	clock := domain.NewMonotonicClock()
	memNotifs := repository.NewMemoryNotificationRepo()
	if notifs == nil {
		notifs = memNotifs
	}
	accounts := repository.NewMemoryAccountDirectory(
		&domain.Account{ID: "alice"},
		&domain.Account{ID: "bob"},
		&domain.Account{ID: "carol"},
	)

	dispatcher := services.NewDispatcher(notifs, nil, clock, time.Second)
	graph := services.NewGraphService(repository.NewMemoryGraphRepo(), accounts, dispatcher, clock)
	content := services.NewContentService(repository.NewMemoryPostRepo(), repository.NewMemoryLikeRepo(), dispatcher, nil, clock)

	return &fixture{
		graph:         graph,
		content:       content,
		notifications: services.NewNotificationService(memNotifs),
		feed:          services.NewFeedService(graph, content, opts),
		notifRepo:     memNotifs,
		accounts:      accounts,
	}
}

func (f *fixture) inbox(t *testing.T, account string) []*domain.Notification {
	t.Helper()
	page, err := f.notifications.List(context.Background(), account, false, "", domain.MaxPageSize)
	require.NoError(t, err)
	return page.Items
}

func TestFollowTwiceCreatesOneEdgeAndOneNotification(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	created, err := f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, created)

	followers, err := f.graph.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)

	inbox := f.inbox(t, "bob")
	require.Len(t, inbox, 1)
	n := inbox[0]
	assert.Equal(t, domain.VerbFollowed, n.Verb)
	assert.Equal(t, "alice", n.ActorID)
	assert.Equal(t, &domain.TargetRef{Kind: domain.TargetAccount, ID: "alice"}, n.Target)
	assert.False(t, n.Read)
}

func TestConcurrentFollowEmitsAtMostOneNotification(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := f.graph.Follow(ctx, "alice", "bob")
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	assert.Len(t, f.inbox(t, "bob"), 1)
}

func TestSelfFollowIsRejected(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	_, err := f.graph.Follow(ctx, "alice", "alice")
	require.ErrorIs(t, err, domain.ErrValidation)

	following, err := f.graph.Followees(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, following)
	assert.Empty(t, f.inbox(t, "alice"))
}

func TestFollowUnknownAccount(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	_, err := f.graph.Follow(context.Background(), "alice", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnfollowIsIdempotent(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	removed, err := f.graph.Unfollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)

	removed, err = f.graph.Unfollow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, removed)

	ok, err := f.graph.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelationIsDirected(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	_, err := f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)

	status, err := f.graph.CheckRelation(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, status.IsFollowing)
	assert.True(t, status.IsFollowedBy)

	counts, err := f.graph.Counts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &domain.FollowCounts{Following: 1, Followers: 0}, counts)
}

func TestRemoveAccountDropsIncidentEdges(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	_, _ = f.graph.Follow(ctx, "alice", "bob")
	_, _ = f.graph.Follow(ctx, "bob", "carol")
	_, _ = f.graph.Follow(ctx, "carol", "alice")

	removed, err := f.graph.RemoveAccount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	followees, err := f.graph.Followees(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, followees)

	ok, err := f.graph.IsFollowing(ctx, "carol", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountRegistrationAndDeletion(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()
	accounts := services.NewAccountService(f.accounts, f.graph)

	err := accounts.RegisterAccount(ctx, &domain.Account{ID: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, accounts.RegisterAccount(ctx, &domain.Account{ID: " dave ", Username: "dave"}))
	created, err := f.graph.Follow(ctx, "alice", "dave")
	require.NoError(t, err)
	assert.True(t, created)

	removed, err := accounts.DeleteAccount(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = f.graph.Follow(ctx, "alice", "dave")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreatePostValidation(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	_, err := f.content.CreatePost(context.Background(), "bob", "", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestToggleLikeParity(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	post, err := f.content.CreatePost(ctx, "bob", "", "hello")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		liked, err := f.content.ToggleLike(ctx, "alice", post.ID)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 1, liked)

		has, err := f.content.HasLiked(ctx, "alice", post.ID)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 1, has)
	}

	count, err := f.content.LikeCount(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// 3 transitions vers "liké" -> 3 notifications
	assert.Len(t, f.inbox(t, "bob"), 3)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	_, err := f.content.ToggleLike(context.Background(), "alice", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSelfLikeIsNotNotified(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	post, err := f.content.CreatePost(ctx, "bob", "", "hello")
	require.NoError(t, err)

	liked, err := f.content.ToggleLike(ctx, "bob", post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Empty(t, f.inbox(t, "bob"))
}

func TestCommentNotifications(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	post, err := f.content.CreatePost(ctx, "bob", "", "hello")
	require.NoError(t, err)

	_, err = f.content.CreateComment(ctx, post.ID, "bob", "my own post")
	require.NoError(t, err)
	assert.Empty(t, f.inbox(t, "bob"))

	_, err = f.content.CreateComment(ctx, post.ID, "alice", "nice")
	require.NoError(t, err)

	inbox := f.inbox(t, "bob")
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.VerbCommented, inbox[0].Verb)
	assert.Equal(t, "alice", inbox[0].ActorID)
	assert.Equal(t, &domain.TargetRef{Kind: domain.TargetPost, ID: post.ID}, inbox[0].Target)

	comments, err := f.content.ListComments(ctx, post.ID, "", 10)
	require.NoError(t, err)
	assert.Len(t, comments.Items, 2)
	assert.Equal(t, "nice", comments.Items[0].Body)

	stats, err := f.content.PostStats(ctx, post.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CommentCount)
	assert.False(t, stats.LikedByMe)
}

func TestCommentOnMissingPost(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	_, err := f.content.CreateComment(context.Background(), "nope", "alice", "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeedScenario(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	feed, err := f.feed.GetFeed(ctx, "alice", "", 10)
	require.NoError(t, err)
	assert.False(t, feed.FollowingAnyone)
	assert.Empty(t, feed.Posts)

	p1, err := f.content.CreatePost(ctx, "bob", "", "P1")
	require.NoError(t, err)
	_, err = f.content.CreatePost(ctx, "alice", "", "mine")
	require.NoError(t, err)

	_, err = f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)

	feed, err = f.feed.GetFeed(ctx, "alice", "", 10)
	require.NoError(t, err)
	assert.True(t, feed.FollowingAnyone)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, p1.ID, feed.Posts[0].ID)

	_, err = f.graph.Unfollow(ctx, "alice", "bob")
	require.NoError(t, err)

	feed, err = f.feed.GetFeed(ctx, "alice", "", 10)
	require.NoError(t, err)
	assert.False(t, feed.FollowingAnyone)
	assert.Empty(t, feed.Posts)
}

func TestFeedNeverContainsOwnPosts(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	_, _ = f.graph.Follow(ctx, "alice", "bob")
	_, _ = f.graph.Follow(ctx, "alice", "carol")
	for i := 0; i < 5; i++ {
		for _, author := range []string{"alice", "bob", "carol"} {
			_, err := f.content.CreatePost(ctx, author, "", fmt.Sprintf("%s-%d", author, i))
			require.NoError(t, err)
		}
	}

	feed, err := f.feed.GetFeed(ctx, "alice", "", domain.MaxPageSize)
	require.NoError(t, err)
	assert.Len(t, feed.Posts, 10)
	for _, p := range feed.Posts {
		assert.NotEqual(t, "alice", p.AuthorID)
	}
}

func TestFeedIncludeOwnPostsPolicy(t *testing.T) {
	f := newFixture(t, services.FeedOptions{IncludeOwnPosts: true})
	ctx := context.Background()

	_, err := f.content.CreatePost(ctx, "alice", "", "mine")
	require.NoError(t, err)

	feed, err := f.feed.GetFeed(ctx, "alice", "", 10)
	require.NoError(t, err)
	assert.False(t, feed.FollowingAnyone)
	assert.Len(t, feed.Posts, 1)
}

func TestPaginationHasNoDuplicates(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := f.content.CreatePost(ctx, "bob", "", fmt.Sprintf("old-%d", i))
		require.NoError(t, err)
	}

	page1, err := f.content.PostsByAuthors(ctx, []string{"bob"}, "", 3)
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	require.NotEmpty(t, page1.NextCursor)

	// Des posts plus récents arrivent entre les deux pages
	for i := 0; i < 4; i++ {
		_, err := f.content.CreatePost(ctx, "bob", "", fmt.Sprintf("new-%d", i))
		require.NoError(t, err)
	}

	page2, err := f.content.PostsByAuthors(ctx, []string{"bob"}, page1.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Items, 3)

	seen := map[string]bool{}
	for _, p := range append(page1.Items, page2.Items...) {
		assert.False(t, seen[p.ID], "duplicate post %s", p.ID)
		seen[p.ID] = true
	}
	assert.True(t, page1.Items[2].CreatedAt.After(page2.Items[0].CreatedAt))

	// Même curseur, même page
	again, err := f.content.PostsByAuthors(ctx, []string{"bob"}, page1.NextCursor, 3)
	require.NoError(t, err)
	assert.Equal(t, page2.Items, again.Items)
}

func TestPostsByAuthorsSeqWalksEveryPage(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := f.content.CreatePost(ctx, "bob", "", fmt.Sprintf("p-%d", i))
		require.NoError(t, err)
	}

	var bodies []string
	for p, err := range f.content.PostsByAuthorsSeq(ctx, []string{"bob", "bob"}, 3) {
		require.NoError(t, err)
		bodies = append(bodies, p.Body)
	}
	require.Len(t, bodies, 8)
	assert.Equal(t, "p-7", bodies[0])
	assert.Equal(t, "p-0", bodies[7])
}

func TestInvalidCursor(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	_, err := f.content.PostsByAuthors(context.Background(), []string{"bob"}, "!!garbage!!", 3)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestNotificationReadState(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	_, _ = f.graph.Follow(ctx, "alice", "bob")
	_, _ = f.graph.Follow(ctx, "carol", "bob")

	unread, err := f.notifications.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	inbox := f.inbox(t, "bob")
	id := inbox[0].ID

	// Ni un tiers ni l'acteur ne peuvent toucher à l'état de lecture
	assert.ErrorIs(t, f.notifications.MarkRead(ctx, id, "carol"), domain.ErrForbidden)
	assert.ErrorIs(t, f.notifications.MarkRead(ctx, "missing", "bob"), domain.ErrNotFound)

	require.NoError(t, f.notifications.MarkRead(ctx, id, "bob"))
	unreadPage, err := f.notifications.List(ctx, "bob", true, "", 10)
	require.NoError(t, err)
	assert.Len(t, unreadPage.Items, 1)

	require.NoError(t, f.notifications.MarkUnread(ctx, id, "bob"))
	counts, err := f.notifications.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, &domain.NotificationCounts{Total: 2, Unread: 2}, counts)

	n, err := f.notifications.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.notifications.MarkAllRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	unread, err = f.notifications.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestGetNotificationIsRecipientOnly(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	_, _ = f.graph.Follow(ctx, "alice", "bob")
	id := f.inbox(t, "bob")[0].ID

	n, err := f.notifications.Get(ctx, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", n.ActorID)
	assert.Equal(t, "bob", n.RecipientID)

	_, err = f.notifications.Get(ctx, id, "alice")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.notifications.Get(ctx, "missing", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.notifications.Get(ctx, " ", "bob")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProfileTimelineSearch(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	for _, body := range []string{"Go 1.23 iterators", "Coffee review", "more go tips"} {
		_, err := f.content.CreatePost(ctx, "bob", "", body)
		require.NoError(t, err)
	}

	page, err := f.content.ProfileTimeline(ctx, "bob", "  GO ", "", 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "more go tips", page.Items[0].Body)
	require.NotEmpty(t, page.NextCursor)

	// Le curseur garde le filtre appliqué par l'appelant
	next, err := f.content.ProfileTimeline(ctx, "bob", "go", page.NextCursor, 1)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "Go 1.23 iterators", next.Items[0].Body)

	_, err = f.content.ProfileTimeline(ctx, "bob", strings.Repeat("q", domain.MaxSearchLength+1), "", 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLikeTwiceScenario(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx := context.Background()

	p1, err := f.content.CreatePost(ctx, "bob", "", "P1")
	require.NoError(t, err)

	_, err = f.content.ToggleLike(ctx, "alice", p1.ID)
	require.NoError(t, err)
	_, err = f.content.ToggleLike(ctx, "alice", p1.ID)
	require.NoError(t, err)

	has, err := f.content.HasLiked(ctx, "alice", p1.ID)
	require.NoError(t, err)
	assert.False(t, has)

	count, err := f.content.LikeCount(ctx, p1.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	inbox := f.inbox(t, "bob")
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.VerbLiked, inbox[0].Verb)
}

// failingNotifRepo simule un store de notifications en panne.
type failingNotifRepo struct {
	*repository.MemoryNotificationRepo
}

func (failingNotifRepo) Append(context.Context, *domain.Notification) error {
	return errors.New("boom")
}

func TestDispatchFailureDoesNotFailMutation(t *testing.T) {
	f := newFixtureWithNotifRepo(t, services.FeedOptions{}, failingNotifRepo{repository.NewMemoryNotificationRepo()})
	ctx := context.Background()

	created, err := f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	ok, err := f.graph.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
}

// slowNotifRepo bloque jusqu'à l'expiration du contexte.
type slowNotifRepo struct {
	*repository.MemoryNotificationRepo
}

func (slowNotifRepo) Append(ctx context.Context, _ *domain.Notification) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatcherIsBoundedAndIgnoresCallerCancel(t *testing.T) {
	clock := domain.NewMonotonicClock()
	d := services.NewDispatcher(slowNotifRepo{repository.NewMemoryNotificationRepo()}, nil, clock, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	d.OnFollow(ctx, "alice", "bob")
	elapsed := time.Since(start)

	// Le contexte appelant annulé n'interrompt pas la tentative : seul le timeout borne l'attente
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestReadDeadlineMapsToTimeout(t *testing.T) {
	f := newFixture(t, services.FeedOptions{})
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := f.feed.GetFeed(ctx, "alice", "", 10)
	assert.ErrorIs(t, err, domain.ErrTimeout)

	_, err = f.notifications.List(ctx, "alice", false, "", 10)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
