package users

import (
	"context"

	"github.com/supermega-io/usermemory/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByWorkspaceEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastActive(ctx context.Context, id string) error
	AddUsageMinutes(ctx context.Context, id string, minutes float64) error
}
