package usage

import (
	"context"

	"github.com/supermega-io/usermemory/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, record *models.ToolUsage) error
	SummaryByTool(ctx context.Context, userID string) ([]models.ToolUsageSummary, error)
	Recent(ctx context.Context, userID string, limit int) ([]models.Activity, error)
}
