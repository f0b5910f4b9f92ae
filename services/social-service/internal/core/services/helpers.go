package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// newID génère un UUID v7 (ordonné dans le temps, meilleur pour les index B-tree)
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// readErr convertit un dépassement de deadline en domain.ErrTimeout.
// Les lectures n'ont aucun effet de bord, il n'y a rien à annuler.
func readErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
