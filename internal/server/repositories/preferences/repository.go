package preferences

import (
	"context"

	"github.com/supermega-io/usermemory/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, pref *models.Preference) error
	ListByUser(ctx context.Context, userID string) ([]*models.Preference, error)
}
