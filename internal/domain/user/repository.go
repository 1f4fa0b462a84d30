package user

import (
	"context"
	"time"
)

// Repository provides read access to user records and the progress,
// award, and nomination data the ingestion process writes for them.
type Repository interface {
	// MonthlyProgress returns every user's primary and shadow standing
	// for the given period key. Users with no record for the period are
	// omitted; the ranking fold excludes zero-point users anyway.
	MonthlyProgress(ctx context.Context, periodKey string) ([]MonthlyProgress, error)

	// YearRecords returns, per user, all period progress rows and
	// community awards that can contribute to the given year's
	// leaderboard. The fold applies the year filter itself.
	YearRecords(ctx context.Context, year int) ([]YearRecord, error)

	// NominationsSince returns all nominations made at or after the given
	// instant, newest data included. The aggregator applies the
	// current-month filter itself.
	NominationsSince(ctx context.Context, since time.Time) ([]Nomination, error)
}
