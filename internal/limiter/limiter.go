// Package limiter throttles repeated failed logins per (username, peer).
package limiter

import (
	"context"
	"time"
)

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether login is currently allowed and, if not, for how long it stays blocked.
	Allow(ctx context.Context, username string, peer []byte) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, username string, peer []byte) error
	// Failure records a failed attempt and reports whether it placed a block.
	Failure(ctx context.Context, username string, peer []byte) (bool, time.Duration, error)
}

// Policy bounds failed attempts: MaxFailures within Window blocks for BlockFor.
type Policy struct {
	Window      time.Duration
	MaxFailures int
	BlockFor    time.Duration
}

// DefaultPolicy allows five failures per fifteen minutes.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFailures: 5, BlockFor: 15 * time.Minute}
