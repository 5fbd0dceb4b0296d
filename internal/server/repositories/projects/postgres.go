// Package projects provides the PostgreSQL-backed repository for saved
// user projects. Saves are last-writer-wins by project id.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/supermega-io/usermemory/internal/common"
	"github.com/supermega-io/usermemory/internal/dbx"
	"github.com/supermega-io/usermemory/internal/server/models"
)

// PostgresRepository implements project storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts the project or fully replaces an existing row with the same
// id, bumping updated_at. Ownership never changes on conflict: the update
// only applies when the stored row belongs to the same user.
func (r *PostgresRepository) Upsert(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, user_id, tool_id, name, data, thumbnail_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET
			tool_id = EXCLUDED.tool_id,
			name = EXCLUDED.name,
			data = EXCLUDED.data,
			thumbnail_key = EXCLUDED.thumbnail_key,
			updated_at = now()
			WHERE projects.user_id = EXCLUDED.user_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		project.ID, project.UserID, project.ToolID, project.Name, project.Data, project.ThumbnailKey)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query :=
		`SELECT id, user_id, tool_id, name, data, thumbnail_key, created_at, updated_at FROM projects
		 WHERE id = $1
		 `

	project := &models.Project{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID, &project.UserID, &project.ToolID, &project.Name,
		&project.Data, &project.ThumbnailKey, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return project, nil
}

// ListByUser returns the user's projects, most recently updated first.
// An empty toolID returns projects across all tools.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, toolID string) ([]*models.Project, error) {
	query :=
		`SELECT id, user_id, tool_id, name, data, thumbnail_key, created_at, updated_at FROM projects
		 WHERE user_id = $1 AND ($2 = '' OR tool_id = $2)
		 ORDER BY updated_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, toolID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		var item models.Project
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ToolID, &item.Name,
			&item.Data, &item.ThumbnailKey, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM projects WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

// SetThumbnailKey records the object-storage key of an uploaded thumbnail.
func (r *PostgresRepository) SetThumbnailKey(ctx context.Context, id string, key string) error {
	query := `UPDATE projects SET thumbnail_key = $2, updated_at = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, key)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
