package projects

import (
	"context"

	"github.com/supermega-io/usermemory/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	ListByUser(ctx context.Context, userID string, toolID string) ([]*models.Project, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	SetThumbnailKey(ctx context.Context, id string, key string) error
}
