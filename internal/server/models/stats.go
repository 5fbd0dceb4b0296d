package models

import "time"

// UserStats is the read-only aggregate report composed from the user row and
// its child tables. It is recomputed from source tables on every request.
type UserStats struct {
	UserID            string
	Email             string
	Name              string
	SubscriptionTier  string
	TotalUsageMinutes float64
	MemberSince       time.Time
	LastActive        time.Time
	ToolUsage         []ToolUsageSummary
	ProjectCount      int64
	RecentActivity    []Activity
}
