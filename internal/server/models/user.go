// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is the shared identity record every tool resolves before doing work.
// Email and WorkspaceEmail are alternative lookup keys; either may be empty,
// but at least one must be set for the user to be findable again.
type User struct {
	ID                string
	Email             string
	WorkspaceEmail    string
	Name              string
	SubscriptionTier  string
	TotalUsageMinutes float64
	CreatedAt         time.Time
	LastActive        time.Time
}
