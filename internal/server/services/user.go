// Package services contains server-side business logic. This file implements
// UserService, which resolves tool callers to a shared user identity and
// serves preferences and the aggregate usage report.
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/supermega-io/usermemory/internal/common"
	"github.com/supermega-io/usermemory/internal/server/config"
	"github.com/supermega-io/usermemory/internal/server/models"
	"github.com/supermega-io/usermemory/internal/server/repositories/repomanager"
)

// recentActivityLimit caps the recent-activity slice in the stats report.
const recentActivityLimit = 10

// UserService provides identity-related operations:
// - GetOrCreateUser: resolve or lazily create the shared user record
// - GetUserStats: the aggregate report over the child tables
// - SetPreference / GetPreferences: per-user settings
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
	}
}

// GetOrCreateUser looks the user up by email first, then by workspace email,
// and creates a new record when neither matches. A found user gets its
// last-active timestamp refreshed.
//
// Lookups never cross keys: a row created under only an email is not merged
// with a row created later under only a workspace email.
func (s *UserService) GetOrCreateUser(ctx context.Context, email, name, workspaceEmail string) (*models.User, error) {
	if email == "" && workspaceEmail == "" {
		return nil, common.ErrorMissingLookupKey
	}

	repo := s.repomanager.Users(s.db)

	if email != "" {
		user, err := repo.GetByEmail(ctx, email)
		if err == nil {
			if err := repo.TouchLastActive(ctx, user.ID); err != nil {
				return nil, fmt.Errorf("error updating last active: %v", err)
			}
			return user, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error searching user by email: %v", err)
		}
	}

	if workspaceEmail != "" {
		user, err := repo.GetByWorkspaceEmail(ctx, workspaceEmail)
		if err == nil {
			if err := repo.TouchLastActive(ctx, user.ID); err != nil {
				return nil, fmt.Errorf("error updating last active: %v", err)
			}
			return user, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error searching user by workspace email: %v", err)
		}
	}

	user := &models.User{
		ID:               uuid.New().String(),
		Email:            email,
		WorkspaceEmail:   workspaceEmail,
		Name:             name,
		SubscriptionTier: common.DefaultSubscriptionTier,
	}
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	return u, nil
}

// GetUserStats recomputes the aggregate report from the base tables on every
// call: user fields, per-tool usage summary (count descending), project
// count, and the ten most recent usage-log entries.
func (s *UserService) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	userRepo := s.repomanager.Users(s.db)
	usageRepo := s.repomanager.Usage(s.db)
	projectRepo := s.repomanager.Projects(s.db)

	user, err := userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error getting user: %v", err)
	}

	summary, err := usageRepo.SummaryByTool(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting usage summary: %v", err)
	}

	projectCount, err := projectRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error counting projects: %v", err)
	}

	recent, err := usageRepo.Recent(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("error getting recent activity: %v", err)
	}

	return &models.UserStats{
		UserID:            user.ID,
		Email:             user.Email,
		Name:              user.Name,
		SubscriptionTier:  user.SubscriptionTier,
		TotalUsageMinutes: user.TotalUsageMinutes,
		MemberSince:       user.CreatedAt,
		LastActive:        user.LastActive,
		ToolUsage:         summary,
		ProjectCount:      projectCount,
		RecentActivity:    recent,
	}, nil
}

// SetPreference upserts one (user, key) pair. String values are stored as-is
// with the string kind; any other value is JSON-encoded and tagged as JSON,
// so a plain string that happens to start with '{' is never mis-decoded later.
func (s *UserService) SetPreference(ctx context.Context, userID, key string, value any) error {
	pref := &models.Preference{UserID: userID, Key: key}

	if str, ok := value.(string); ok {
		pref.Kind = models.PreferenceKindString
		pref.Value = str
	} else {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("error encoding preference: %v", err)
		}
		pref.Kind = models.PreferenceKindJSON
		pref.Value = string(encoded)
	}

	repo := s.repomanager.Preferences(s.db)
	if err := repo.Upsert(ctx, pref); err != nil {
		return fmt.Errorf("error saving preference: %v", err)
	}
	return nil
}

// GetPreferences returns every stored preference for the user, decoding
// JSON-kind values and passing string-kind values through untouched.
func (s *UserService) GetPreferences(ctx context.Context, userID string) (map[string]any, error) {
	repo := s.repomanager.Preferences(s.db)

	prefs, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing preferences: %v", err)
	}

	result := make(map[string]any, len(prefs))
	for _, p := range prefs {
		if p.Kind == models.PreferenceKindJSON {
			var v any
			if err := json.Unmarshal([]byte(p.Value), &v); err != nil {
				return nil, fmt.Errorf("error decoding preference %q: %v", p.Key, err)
			}
			result[p.Key] = v
			continue
		}
		result[p.Key] = p.Value
	}
	return result, nil
}
