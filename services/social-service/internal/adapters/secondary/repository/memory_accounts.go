package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// MemoryAccountDirectory : projection des comptes en mémoire (dev, tests).
type MemoryAccountDirectory struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

func NewMemoryAccountDirectory(accounts ...*domain.Account) *MemoryAccountDirectory {
	d := &MemoryAccountDirectory{accounts: make(map[string]*domain.Account, len(accounts))}
	for _, a := range accounts {
		d.accounts[a.ID] = a
	}
	return d
}

func (d *MemoryAccountDirectory) Upsert(ctx context.Context, a *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *a
	d.accounts[a.ID] = &cp
	return nil
}

func (d *MemoryAccountDirectory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.accounts, id)
	return nil
}

func (d *MemoryAccountDirectory) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// OpenDirectory accepte tout ID non vide : utile quand l'annuaire n'est pas branché.
type OpenDirectory struct{}

func (OpenDirectory) GetByID(_ context.Context, id string) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

func (OpenDirectory) Upsert(context.Context, *domain.Account) error { return nil }

func (OpenDirectory) Delete(context.Context, string) error { return nil }

// compareDesc : ordre (date DESC, id DESC), celui de toutes les listes paginées.
func compareDesc(aAt time.Time, aID string, bAt time.Time, bID string) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	switch {
	case aID > bID:
		return -1
	case aID < bID:
		return 1
	}
	return 0
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
