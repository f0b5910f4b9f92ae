package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// handleError traduit les erreurs PostgreSQL en erreurs du Domaine.
// Les erreurs de contexte restent enveloppées (%w) : le service en fait un ErrTimeout.
func handleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23514": // Check Violation
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.ConstraintName)
		case pgErr.Code == "23503": // Foreign Key Violation : la cible a disparu
			return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			// Classe 08 (connexion) et 57P (shutdown) : transitoire
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
		return fmt.Errorf("db: %w", err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("db: %w", err)
}

// keyset produit la clause de pagination (created_at, id) DESC pour un curseur exclusif.
// next est la position du prochain paramètre ($n).
func keyset(cursor *domain.Cursor, next int) (string, []any) {
	switch {
	case cursor == nil:
		return "", nil
	case cursor.ID == "":
		return fmt.Sprintf(" AND created_at < $%d", next), []any{cursor.At}
	default:
		return fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", next, next+1), []any{cursor.At, cursor.ID}
	}
}
