package services

import (
	"context"
	"strings"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/ports"
)

type accountService struct {
	directory ports.AccountDirectory
	graph     ports.GraphService
}

func NewAccountService(directory ports.AccountDirectory, graph ports.GraphService) ports.AccountService {
	return &accountService{directory: directory, graph: graph}
}

func (s *accountService) RegisterAccount(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return requireIDs("")
	}
	a := *account
	a.ID = strings.TrimSpace(a.ID)
	if err := requireIDs(a.ID); err != nil {
		return err
	}
	return s.directory.Upsert(ctx, &a)
}

// DeleteAccount : les arêtes d'abord, pour qu'un échec laisse le compte rejouable.
func (s *accountService) DeleteAccount(ctx context.Context, id string) (int, error) {
	removed, err := s.graph.RemoveAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.directory.Delete(ctx, id); err != nil {
		return removed, err
	}
	return removed, nil
}
