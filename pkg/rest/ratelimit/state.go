// Package ratelimit implements per-route rate limit tracking and request gating.
// It reads the X-RateLimit-* response headers and delays requests whose bucket
// is drained until the bucket resets, so paginated traversals never trip a 429.
package ratelimit

import (
	"time"
)

// Response headers carrying rate limit state.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderResetAfter = "X-RateLimit-Reset-After"
	HeaderBucket     = "X-RateLimit-Bucket"
	HeaderGlobal     = "X-RateLimit-Global"
	HeaderScope      = "X-RateLimit-Scope"
	HeaderRetryAfter = "Retry-After"
)

// GlobalKey is the store key for the global (all routes) lock.
const GlobalKey = "global"

// BucketState is the last observed state of one rate limit bucket.
type BucketState struct {
	// Bucket is the opaque bucket hash reported by the API.
	Bucket string `json:"bucket"`

	// Limit is the number of requests allowed per window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was recorded.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state is older than maxAge.
func (s *BucketState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// IsExpired reports whether the window has already reset at now.
func (s *BucketState) IsExpired(now time.Time) bool {
	return !now.Before(s.ResetAt)
}

// NeedsWait reports whether a request issued at now must wait for the reset.
func (s *BucketState) NeedsWait(now time.Time) bool {
	return s.Remaining <= 0 && !s.IsExpired(now)
}

// WaitDuration returns how long a request issued at now has to wait.
// Returns 0 if no wait is needed.
func (s *BucketState) WaitDuration(now time.Time) time.Duration {
	if !s.NeedsWait(now) {
		return 0
	}
	return s.ResetAt.Sub(now)
}
