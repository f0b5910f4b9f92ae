package domain

import (
	"sync"
	"time"
)

// Clock fournit les dates de création. Injectée pour les tests.
type Clock interface {
	Now() time.Time
}

// MonotonicClock garantit des dates strictement croissantes, à la microseconde
// (précision de timestamptz dans Postgres).
type MonotonicClock struct {
	mu   sync.Mutex
	last time.Time
}

func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{}
}

func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}
