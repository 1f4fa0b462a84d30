// Package challenge contains the domain model for monthly challenges in the
// Select Start community. A challenge is one calendar-month scoring period
// tied to a primary RetroAchievements game and an optional secondary
// ("shadow") game that may stay hidden until the community reveals it.
package challenge

import (
	"time"

	"github.com/marquessam/select-start-api/pkg/timeutil"
)

// Challenge identifies one scoring period and its games.
// Challenges are written by an external ingestion process; the API only
// reads them.
type Challenge struct {
	// ID is the stable identifier of the challenge record.
	ID string

	// StartsAt is the first instant of the period (UTC month start).
	StartsAt time.Time

	// EndsAt is the first instant of the following period. Exclusive, so
	// periods never overlap.
	EndsAt time.Time

	// MonthlyGameID is the RetroAchievements id of the primary game.
	MonthlyGameID int

	// MonthlyGameTitle is the primary game title as ingested.
	MonthlyGameTitle string

	// MonthlyTotal is the total achievement count of the primary game.
	MonthlyTotal int

	// ShadowGameID is the RetroAchievements id of the shadow game (0 = none).
	ShadowGameID int

	// ShadowGameTitle is the shadow game title as ingested.
	ShadowGameTitle string

	// ShadowTotal is the total achievement count of the shadow game.
	ShadowTotal int

	// ShadowRevealed reports whether the shadow game has been revealed.
	// Shadow progress only scores points once revealed.
	ShadowRevealed bool
}

// PeriodKey returns the canonical key of this challenge's period, derived
// from its start date. Progress records are tagged with the same key.
func (c *Challenge) PeriodKey() string {
	return timeutil.PeriodKey(c.StartsAt)
}

// Contains reports whether the instant falls inside this challenge's
// period. The end is exclusive.
func (c *Challenge) Contains(t time.Time) bool {
	return !t.Before(c.StartsAt) && t.Before(c.EndsAt)
}

// HasShadow reports whether a shadow game is attached, revealed or not.
func (c *Challenge) HasShadow() bool {
	return c.ShadowGameID != 0
}
