package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supermega-io/usermemory/internal/common"
	"github.com/supermega-io/usermemory/internal/dbx"
	"github.com/supermega-io/usermemory/internal/server/config"
	"github.com/supermega-io/usermemory/internal/server/models"
	"github.com/supermega-io/usermemory/internal/server/repositories/repomanager"
)

// emptyState is stored when a session is created without initial state.
var emptyState = json.RawMessage(`{}`)

// SessionService owns the session lifecycle and the usage log:
// - CreateSession / GetSession / UpdateSession: sliding-TTL sessions with
//   lazy expiry on read
// - LogToolUsage: append a usage record and bump the user's cumulative
//   minutes in one transaction
// - CleanupExpiredSessions: the explicit sweep entry point
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessionTTL  time.Duration
	now         func() time.Time
}

// NewSessionService constructs a SessionService using repositories and server config.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		sessionTTL:  cfg.SessionTTL,
		now:         time.Now,
	}
}

// CreateSession opens a fresh session for (user, tool) with expiry = now + TTL
// and returns its id. An empty state defaults to the empty JSON object.
func (s *SessionService) CreateSession(ctx context.Context, userID, toolID string, state json.RawMessage) (string, error) {
	if len(state) == 0 {
		state = emptyState
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ToolID:    toolID,
		State:     state,
		ExpiresAt: s.now().Add(s.sessionTTL),
	}

	repo := s.repomanager.Sessions(s.db)
	if err := repo.Create(ctx, session); err != nil {
		return "", fmt.Errorf("error creating session: %v", err)
	}
	return session.ID, nil
}

// GetSession returns the session by id. An expired session is deleted on
// this read and reported as common.ErrorNotFound; this lazy expiry is the
// correctness backstop, the background sweep is hygiene only.
func (s *SessionService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	repo := s.repomanager.Sessions(s.db)

	session, err := repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error getting session: %v", err)
	}

	if !session.ExpiresAt.After(s.now()) {
		if err := repo.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("error deleting expired session: %v", err)
		}
		return nil, common.ErrorNotFound
	}

	return session, nil
}

// UpdateSession overwrites the state blob and resets expiry to now + TTL.
// Unknown and expired ids report common.ErrorNotFound rather than silently
// succeeding.
func (s *SessionService) UpdateSession(ctx context.Context, id string, state json.RawMessage) error {
	// Route the read through GetSession so an expired row is removed
	// instead of being resurrected by the expiry refresh.
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}

	if len(state) == 0 {
		state = emptyState
	}

	repo := s.repomanager.Sessions(s.db)
	if err := repo.UpdateState(ctx, id, state, s.now().Add(s.sessionTTL)); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("error updating session: %v", err)
	}
	return nil
}

// LogToolUsage appends one usage record and adds processingTime/60 to the
// owning user's cumulative minutes. Both writes run inside one transaction
// so the record and the counter can never diverge. A negative processing
// time is rejected: the cumulative counter never decreases.
func (s *SessionService) LogToolUsage(ctx context.Context, record *models.ToolUsage) error {
	if record.ProcessingTime < 0 {
		return common.ErrorNegativeProcessingTime
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		usageRepo := s.repomanager.Usage(tx)
		if err := usageRepo.Append(ctx, record); err != nil {
			return fmt.Errorf("error appending usage record: %v", err)
		}

		userRepo := s.repomanager.Users(tx)
		if err := userRepo.AddUsageMinutes(ctx, record.UserID, record.ProcessingTime/60); err != nil {
			return fmt.Errorf("error updating usage minutes: %v", err)
		}
		return nil
	})
}

// CleanupExpiredSessions deletes every session whose expiry has passed and
// returns the count removed. Safe to call concurrently with normal traffic.
func (s *SessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	repo := s.repomanager.Sessions(s.db)

	n, err := repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error cleaning up sessions: %v", err)
	}
	return n, nil
}
