package models

import "time"

// Session is a per-(user, tool) interaction handle with a sliding TTL.
// State is a free-form JSON blob owned by the tool.
type Session struct {
	ID        string
	UserID    string
	ToolID    string
	State     []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}
