package events

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/services"
)

type fixture struct {
	graph     ports.GraphService
	directory *repository.MemoryAccountDirectory
	handler   *EventHandler
}

func newFixture() *fixture {
	clock := domain.NewMonotonicClock()
	directory := repository.NewMemoryAccountDirectory()
	dispatcher := services.NewDispatcher(repository.NewMemoryNotificationRepo(), nil, clock, time.Second)
	graph := services.NewGraphService(repository.NewMemoryGraphRepo(), directory, dispatcher, clock)
	return &fixture{
		graph:     graph,
		directory: directory,
		handler:   NewEventHandler(services.NewAccountService(directory, graph)),
	}
}

func (f *fixture) register(ids ...string) {
	for _, id := range ids {
		f.handler.HandleUserRegistered(&nats.Msg{
			Subject: SubjectUserRegistered,
			Data:    []byte(`{"user_id":"` + id + `","email":"` + id + `@cenackle.io"}`),
		})
	}
}

func TestHandleUserRegisteredMakesAccountFollowable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// Avant l'événement, le compte est inconnu
	_, err := f.graph.Follow(ctx, "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.register("bob")

	a, err := f.directory.GetByID(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@cenackle.io", a.Username)

	created, err := f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	// Rejouer l'événement est sans effet
	f.register("bob")
	counts, err := f.graph.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Followers)
}

func TestHandleUserRegisteredIgnoresInvalidPayload(t *testing.T) {
	f := newFixture()
	f.handler.HandleUserRegistered(&nats.Msg{Subject: SubjectUserRegistered, Data: []byte(`{"email":"x@y.z"}`)})
	f.handler.HandleUserRegistered(&nats.Msg{Subject: SubjectUserRegistered, Data: []byte(`not json`)})

	_, err := f.directory.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleUserDeletedRemovesEdgesAndAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.register("alice", "bob", "carol")

	_, err := f.graph.Follow(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = f.graph.Follow(ctx, "bob", "carol")
	require.NoError(t, err)

	f.handler.HandleUserDeleted(&nats.Msg{Subject: SubjectUserDeleted, Data: []byte(`{"user_id":"bob"}`)})

	counts, err := f.graph.Counts(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, &domain.FollowCounts{}, counts)

	// Le compte supprimé n'est plus une cible de follow
	_, err = f.graph.Follow(ctx, "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Un message invalide est ignoré sans panique
	f.handler.HandleUserDeleted(&nats.Msg{Subject: SubjectUserDeleted, Data: []byte(`not json`)})
}
