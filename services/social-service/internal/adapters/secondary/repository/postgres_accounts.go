package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// PostgresAccountDirectory : table accounts, copie locale des comptes identity.
type PostgresAccountDirectory struct {
	db *pgxpool.Pool
}

func NewPostgresAccountDirectory(db *pgxpool.Pool) *PostgresAccountDirectory {
	return &PostgresAccountDirectory{db: db}
}

func (r *PostgresAccountDirectory) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRow(ctx, `
		SELECT id, username, display_name FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Username, &a.DisplayName)
	if err != nil {
		return nil, handleError(err)
	}
	return &a, nil
}

// Upsert : un champ vide dans l'événement n'écrase pas la valeur connue.
func (r *PostgresAccountDirectory) Upsert(ctx context.Context, a *domain.Account) error {
	q := `
		INSERT INTO accounts (id, username, display_name, synced_at)
		VALUES (@id, @username, @display_name, now())
		ON CONFLICT (id) DO UPDATE SET
			username     = COALESCE(NULLIF(EXCLUDED.username, ''), accounts.username),
			display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), accounts.display_name),
			synced_at    = now()
	`
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           a.ID,
		"username":     a.Username,
		"display_name": a.DisplayName,
	})
	return handleError(err)
}

func (r *PostgresAccountDirectory) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	return handleError(err)
}
