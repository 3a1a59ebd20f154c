package model

import "time"

// AppSettings is the single global settings document. Written rarely by
// admins, read on every quota decision (through a short-TTL cache).
type AppSettings struct {
	FreeTierSwipeLimit  int
	SubscriptionEnabled bool
	ActiveProvider      string
	UpdatedAt           time.Time
}

// DefaultSettings are used when no settings row exists yet.
func DefaultSettings() *AppSettings {
	return &AppSettings{
		FreeTierSwipeLimit:  10,
		SubscriptionEnabled: true,
		ActiveProvider:      "noop",
	}
}
