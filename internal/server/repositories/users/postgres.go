// Package users provides the PostgreSQL-backed repository for user identity
// rows. Email and workspace email are alternative unique lookup keys; empty
// strings are stored as NULL so the unique constraints only bind real values.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/supermega-io/usermemory/internal/common"
	"github.com/supermega-io/usermemory/internal/dbx"
	"github.com/supermega-io/usermemory/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, COALESCE(email, ''), COALESCE(workspace_email, ''), name,
		subscription_tier, total_usage_minutes, created_at, last_active`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, email, workspace_email, name, subscription_tier)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
		 RETURNING created_at, last_active
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.WorkspaceEmail, user.Name, user.SubscriptionTier).
		Scan(&user.CreatedAt, &user.LastActive)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByWorkspaceEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE workspace_email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.WorkspaceEmail, &user.Name,
		&user.SubscriptionTier, &user.TotalUsageMinutes, &user.CreatedAt, &user.LastActive)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// TouchLastActive sets last_active to now for an existing user.
func (r *PostgresRepository) TouchLastActive(ctx context.Context, id string) error {
	query := `UPDATE users SET last_active = now() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
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

// AddUsageMinutes increments the cumulative usage counter and refreshes
// last_active. Minutes must be non-negative; the counter never decreases.
func (r *PostgresRepository) AddUsageMinutes(ctx context.Context, id string, minutes float64) error {
	query :=
		`UPDATE users SET total_usage_minutes = total_usage_minutes + $2, last_active = now()
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, minutes)
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
