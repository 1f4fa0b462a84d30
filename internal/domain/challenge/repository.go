package challenge

import (
	"context"
	"time"
)

// Repository provides read access to challenge records.
// The store is owned by the external ingestion process; this API never
// writes challenges.
type Repository interface {
	// Current returns the challenge whose period contains the given
	// instant. Returns shared.ErrNoCurrentChallenge when no challenge
	// exists for that window.
	Current(ctx context.Context, at time.Time) (*Challenge, error)

	// ByPeriodKey returns the challenge for an exact period key.
	// Returns shared.ErrChallengeNotFound when absent.
	ByPeriodKey(ctx context.Context, periodKey string) (*Challenge, error)
}
