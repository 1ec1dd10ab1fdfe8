package server

import "time"

const (
	// DefaultBodyLimit caps request bodies on the operational listener.
	DefaultBodyLimit = "1M"

	// DefaultReadyTimeout bounds the database ping behind the readiness probe.
	DefaultReadyTimeout = 2 * time.Second

	// DefaultSlowRequestThreshold marks requests as slow (WARN) in the request log.
	DefaultSlowRequestThreshold = time.Second

	// BurstMultiplier scales the per-second rate limit into the burst size.
	BurstMultiplier = 2

	// RateLimitCleanup is how long an idle client's limiter is retained.
	RateLimitCleanup = 3 * time.Minute
)
