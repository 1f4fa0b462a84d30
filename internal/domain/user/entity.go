// Package user contains the domain model for Select Start community members
// and the records the external ingestion process writes for them: per-period
// challenge progress, community awards, and game nominations. All records
// are read-only from the API's point of view.
package user

import "time"

// Tier is the discrete standing a user reached on one track within one
// period. The stored numeric value doubles as the monthly point value and
// is always taken verbatim from the record, never recomputed.
type Tier int

const (
	// TierNone - no progress recorded.
	TierNone Tier = 0
	// TierParticipation - earned at least one achievement.
	TierParticipation Tier = 1
	// TierBeaten - beat the game.
	TierBeaten Tier = 2
	// TierMastery - earned every achievement. Primary track only.
	TierMastery Tier = 3
)

// String returns the display name of the tier.
func (t Tier) String() string {
	switch t {
	case TierParticipation:
		return "participation"
	case TierBeaten:
		return "beaten"
	case TierMastery:
		return "mastery"
	default:
		return "none"
	}
}

// IsValid reports whether the stored tier value is one the ingestion
// process is allowed to write.
func (t Tier) IsValid() bool {
	return t >= TierNone && t <= TierMastery
}

// User identifies one community member.
type User struct {
	// ID is the internal record id.
	ID string

	// Username is the RetroAchievements username.
	Username string

	// DiscordID is the stable external identity shown to display clients.
	DiscordID string
}

// Progress is one user's standing on one track within one period.
// Immutable once written by the ingestion process.
type Progress struct {
	// Tier is the discrete standing (0-3).
	Tier Tier

	// Achievements is the achievement-earned count snapshot.
	Achievements int

	// TotalAchievements is the game's total achievement count snapshot.
	TotalAchievements int

	// Completion is the completion percentage snapshot (0-100).
	Completion float64
}

// MonthlyProgress is one user's primary and shadow standing for a single
// period key, as loaded for the monthly leaderboard fold.
type MonthlyProgress struct {
	User      User
	PeriodKey string
	Primary   Progress
	Shadow    Progress
}

// PeriodProgress is one period's worth of progress inside a yearly record.
type PeriodProgress struct {
	PeriodKey string
	Primary   Progress
	Shadow    Progress
}

// CommunityAward is a bonus-point award granted outside challenge scoring
// (event participation, racing boards, and similar).
type CommunityAward struct {
	// Points is the stored point value of the award.
	Points int

	// Reason is the award's display label.
	Reason string

	// AwardedAt is the award instant; yearly scoping compares its
	// calendar year.
	AwardedAt time.Time
}

// YearRecord bundles everything one user contributes to a yearly
// leaderboard: all period progress rows and all community awards.
// Year filtering happens in the ranking fold, not here.
type YearRecord struct {
	User     User
	Progress []PeriodProgress
	Awards   []CommunityAward
}

// Nomination is one user's proposal of a game for an upcoming challenge.
type Nomination struct {
	User User

	// GameID is the RetroAchievements id of the nominated game.
	GameID int

	// GameTitle is the nominated game's title.
	GameTitle string

	// Console is the platform label shown with the nomination.
	Console string

	// NominatedAt is the nomination instant. Current-period scoping is a
	// wall-clock month/year comparison against the reference clock.
	NominatedAt time.Time
}
