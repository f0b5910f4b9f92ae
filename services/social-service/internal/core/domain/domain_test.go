package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFollowEdge(t *testing.T) {
	now := time.Now()

	_, err := NewFollowEdge("alice", "alice", now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewFollowEdge("", "bob", now)
	assert.ErrorIs(t, err, ErrValidation)

	edge, err := NewFollowEdge(" alice ", "bob", now)
	require.NoError(t, err)
	assert.Equal(t, "alice", edge.FollowerID)
	assert.Equal(t, "bob", edge.FolloweeID)
}

func TestNewPostRejectsBlankBody(t *testing.T) {
	_, err := NewPost("p1", "alice", "title", "   ", time.Now())
	assert.True(t, errors.Is(err, ErrValidation))

	p, err := NewPost("p1", "alice", "  hello ", "body", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Title)
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 123000, time.UTC)
	token := Cursor{At: at, ID: "0190-abc"}.Encode()

	c, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, c.At.Equal(at))
	assert.Equal(t, "0190-abc", c.ID)
}

func TestDecodeCursor(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = DecodeCursor("2026-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Empty(t, c.ID)

	_, err = DecodeCursor("%%%not-a-token")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCursorAfter(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Cursor{At: at, ID: "m"}

	assert.True(t, c.After(at.Add(-time.Second), "z"))
	assert.True(t, c.After(at, "a"))
	assert.False(t, c.After(at, "m"))
	assert.False(t, c.After(at, "z"))
	assert.False(t, c.After(at.Add(time.Second), "a"))

	timeOnly := &Cursor{At: at}
	assert.False(t, timeOnly.After(at, "a"))

	var none *Cursor
	assert.True(t, none.After(at, "a"))
}

func TestNextCursor(t *testing.T) {
	at := time.Now()
	assert.Empty(t, NextCursor(at, "x", 3, 10))
	assert.NotEmpty(t, NextCursor(at, "x", 10, 10))
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()
	prev := c.Now()
	for i := 0; i < 1000; i++ {
		next := c.Now()
		require.True(t, next.After(prev))
		prev = next
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampLimit(0))
	assert.Equal(t, MaxPageSize, ClampLimit(5000))
	assert.Equal(t, 7, ClampLimit(7))
}

func TestPostSearch(t *testing.T) {
	p := &Post{Title: "Go Concurrency", Body: "Channels and goroutines"}

	assert.True(t, p.Matches(""))
	assert.True(t, p.Matches("concurrency"))
	assert.True(t, p.Matches("GOROUTINE"))
	assert.False(t, p.Matches("rust"))

	q, err := NormalizeSearch("  chan ")
	require.NoError(t, err)
	assert.Equal(t, "chan", q)

	_, err = NormalizeSearch(strings.Repeat("x", MaxSearchLength+1))
	assert.ErrorIs(t, err, ErrValidation)
}
