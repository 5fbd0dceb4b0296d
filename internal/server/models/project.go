package models

import "time"

// Project is a user-owned saved artifact. Data is an opaque JSON payload.
// ThumbnailKey, when set, names an object in the thumbnail bucket.
type Project struct {
	ID           string
	UserID       string
	ToolID       string
	Name         string
	Data         []byte
	ThumbnailKey string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
