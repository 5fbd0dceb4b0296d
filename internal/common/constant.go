// Package common contains shared constants and sentinel errors used across
// usermemory components.
package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on requests from tool processes.
const AccessTokenHeaderName = "Authorization"

// DefaultSubscriptionTier is assigned to users created lazily on first sight.
const DefaultSubscriptionTier = "free"
