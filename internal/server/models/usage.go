package models

import "time"

// ToolUsage is one append-only usage-log row. Input and Output are opaque
// JSON payloads and may be nil.
type ToolUsage struct {
	ID             int64
	UserID         string
	ToolID         string
	Action         string
	Input          []byte
	Output         []byte
	ProcessingTime float64 // seconds
	Success        bool
	CreatedAt      time.Time
}

// ToolUsageSummary is a per-tool aggregate over the usage log.
type ToolUsageSummary struct {
	ToolID    string
	Count     int64
	TotalTime float64 // seconds
}

// Activity is a slim usage-log entry used in the recent-activity report.
type Activity struct {
	ToolID    string
	Action    string
	CreatedAt time.Time
}
