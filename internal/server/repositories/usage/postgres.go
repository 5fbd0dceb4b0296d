// Package usage provides the PostgreSQL-backed repository for the
// append-only tool-usage log and its aggregate queries.
package usage

import (
	"context"
	"fmt"

	"github.com/supermega-io/usermemory/internal/dbx"
	"github.com/supermega-io/usermemory/internal/server/models"
)

// PostgresRepository implements usage-log storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts one usage-log row. Rows are never updated or deleted.
func (r *PostgresRepository) Append(ctx context.Context, record *models.ToolUsage) error {

	query :=
		`INSERT INTO tool_usage (user_id, tool_id, action, input, output, processing_time, success)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at
		 `

	// A nil Output must reach the driver as an untyped nil so it binds as SQL NULL.
	var output any
	if record.Output != nil {
		output = record.Output
	}

	err := r.db.QueryRowContext(ctx, query,
		record.UserID, record.ToolID, record.Action, record.Input, output,
		record.ProcessingTime, record.Success).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// SummaryByTool groups the user's usage rows by tool, ordered by usage count
// descending.
func (r *PostgresRepository) SummaryByTool(ctx context.Context, userID string) ([]models.ToolUsageSummary, error) {
	query :=
		`SELECT tool_id, COUNT(*), COALESCE(SUM(processing_time), 0) FROM tool_usage
		 WHERE user_id = $1
		 GROUP BY tool_id
		 ORDER BY COUNT(*) DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.ToolUsageSummary
	for rows.Next() {
		var item models.ToolUsageSummary
		if err := rows.Scan(&item.ToolID, &item.Count, &item.TotalTime); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Recent returns the newest usage-log entries for the user, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	query :=
		`SELECT tool_id, action, created_at FROM tool_usage
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.Activity
	for rows.Next() {
		var item models.Activity
		if err := rows.Scan(&item.ToolID, &item.Action, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
