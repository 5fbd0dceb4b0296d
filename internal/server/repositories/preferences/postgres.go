// Package preferences provides the PostgreSQL-backed repository for
// per-user preference values. Each value carries an explicit kind tag so
// readers never have to guess whether the stored text is JSON.
package preferences

import (
	"context"
	"fmt"

	"github.com/supermega-io/usermemory/internal/dbx"
	"github.com/supermega-io/usermemory/internal/server/models"
)

// PostgresRepository implements preference storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes the (user, key) pair, last writer wins.
func (r *PostgresRepository) Upsert(ctx context.Context, pref *models.Preference) error {
	query := `
		INSERT INTO preferences (user_id, key, kind, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key)
		DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value;
	`
	if _, err := r.db.ExecContext(ctx, query, pref.UserID, pref.Key, pref.Kind, pref.Value); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Preference, error) {
	query := `SELECT user_id, key, kind, value FROM preferences WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Preference
	for rows.Next() {
		var item models.Preference
		if err := rows.Scan(&item.UserID, &item.Key, &item.Kind, &item.Value); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
