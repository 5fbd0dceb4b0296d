package httpapi

import (
	"encoding/json"
	"time"

	"github.com/supermega-io/usermemory/internal/server/models"
)

type sessionStartRequest struct {
	Email          string          `json:"email"`
	WorkspaceEmail string          `json:"workspace_email"`
	Name           string          `json:"name"`
	ToolID         string          `json:"tool_id"`
	State          json.RawMessage `json:"state"`
}

// sessionStartResponse is the bootstrap bundle a tool receives once per
// session: everything it needs to personalise itself without further calls.
type sessionStartResponse struct {
	SessionID   string             `json:"session_id"`
	AccessToken string             `json:"access_token"`
	User        *statsResponse     `json:"user"`
	Preferences map[string]any     `json:"preferences"`
	Projects    []*projectResponse `json:"projects"`
}

type sessionResponse struct {
	ID        string          `json:"id"`
	ToolID    string          `json:"tool_id"`
	State     json.RawMessage `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type sessionUpdateRequest struct {
	State json.RawMessage `json:"state"`
}

type usageRequest struct {
	ToolID         string          `json:"tool_id"`
	Action         string          `json:"action"`
	Input          json.RawMessage `json:"input"`
	Output         json.RawMessage `json:"output"`
	ProcessingTime float64         `json:"processing_time"`
	Success        bool            `json:"success"`
}

type projectSaveRequest struct {
	ToolID string          `json:"tool_id"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
}

type projectResponse struct {
	ID           string          `json:"id"`
	ToolID       string          `json:"tool_id"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	ThumbnailKey string          `json:"thumbnail_key,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type toolUsageEntry struct {
	ToolID    string  `json:"tool_id"`
	Count     int64   `json:"count"`
	TotalTime float64 `json:"total_time"`
}

type activityEntry struct {
	ToolID    string    `json:"tool_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

type statsResponse struct {
	UserID            string           `json:"user_id"`
	Email             string           `json:"email,omitempty"`
	Name              string           `json:"name"`
	SubscriptionTier  string           `json:"subscription_tier"`
	TotalUsageMinutes float64          `json:"total_usage_minutes"`
	MemberSince       time.Time        `json:"member_since"`
	LastActive        time.Time        `json:"last_active"`
	ToolUsage         []toolUsageEntry `json:"tool_usage"`
	ProjectCount      int64            `json:"project_count"`
	RecentActivity    []activityEntry  `json:"recent_activity"`
}

func toSessionResponse(s *models.Session) *sessionResponse {
	return &sessionResponse{
		ID:        s.ID,
		ToolID:    s.ToolID,
		State:     json.RawMessage(s.State),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func toProjectResponse(p *models.Project) *projectResponse {
	return &projectResponse{
		ID:           p.ID,
		ToolID:       p.ToolID,
		Name:         p.Name,
		Data:         json.RawMessage(p.Data),
		ThumbnailKey: p.ThumbnailKey,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toProjectResponses(projects []*models.Project) []*projectResponse {
	result := make([]*projectResponse, 0, len(projects))
	for _, p := range projects {
		result = append(result, toProjectResponse(p))
	}
	return result
}

func toStatsResponse(s *models.UserStats) *statsResponse {
	usage := make([]toolUsageEntry, 0, len(s.ToolUsage))
	for _, u := range s.ToolUsage {
		usage = append(usage, toolUsageEntry{ToolID: u.ToolID, Count: u.Count, TotalTime: u.TotalTime})
	}

	recent := make([]activityEntry, 0, len(s.RecentActivity))
	for _, a := range s.RecentActivity {
		recent = append(recent, activityEntry{ToolID: a.ToolID, Action: a.Action, CreatedAt: a.CreatedAt})
	}

	return &statsResponse{
		UserID:            s.UserID,
		Email:             s.Email,
		Name:              s.Name,
		SubscriptionTier:  s.SubscriptionTier,
		TotalUsageMinutes: s.TotalUsageMinutes,
		MemberSince:       s.MemberSince,
		LastActive:        s.LastActive,
		ToolUsage:         usage,
		ProjectCount:      s.ProjectCount,
		RecentActivity:    recent,
	}
}
