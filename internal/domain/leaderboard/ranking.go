// Package leaderboard implements the ranking engine of the Select Start API.
// It folds per-user progress records into ranked standings: the monthly
// leaderboard for the active challenge and the yearly leaderboard that
// accumulates challenge points and community awards across a calendar year.
//
// Points are always taken verbatim from the stored records so the rankings
// stay consistent with whatever the ingestion process wrote. The engine
// never recomputes a tier's worth from the display point table.
package leaderboard

import (
	"sort"

	"github.com/marquessam/select-start-api/internal/domain/challenge"
	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/pkg/timeutil"
)

// Entry is one row of a monthly leaderboard. Derived and ephemeral: it is
// produced fresh on every fold and only ever persisted inside a cached
// report snapshot.
type Entry struct {
	// Rank is the dense competition rank (ties share a rank).
	Rank int `json:"rank"`

	// Username is the RetroAchievements username.
	Username string `json:"username"`

	// DiscordID is the stable external identity.
	DiscordID string `json:"discord_id"`

	// Points is the primary-track tier value.
	Points int `json:"points"`

	// ShadowPoints is the shadow-track tier value (0 while hidden).
	ShadowPoints int `json:"shadow_points"`

	// TotalPoints is Points + ShadowPoints.
	TotalPoints int `json:"total_points"`

	// Achievements is the achieved count used as the tie-break key.
	Achievements int `json:"achievements"`

	// TotalAchievements is the game total snapshot for display.
	TotalAchievements int `json:"total_achievements"`

	// Completion is the completion percentage snapshot.
	Completion float64 `json:"completion"`
}

// ComputeMonthly folds per-user progress for one challenge into a ranked
// monthly leaderboard.
//
// Primary points are the stored tier value; shadow points count only when
// the challenge's shadow track is revealed. Users whose total is exactly
// zero are excluded entirely. A malformed row (out-of-range tier, negative
// achieved count) is skipped so one bad record never aborts the fold.
func ComputeMonthly(ch *challenge.Challenge, rows []user.MonthlyProgress) []Entry {
	entries := make([]Entry, 0, len(rows))

	for _, row := range rows {
		if !row.Primary.Tier.IsValid() || !row.Shadow.Tier.IsValid() {
			continue
		}
		if row.Primary.Achievements < 0 || row.Shadow.Achievements < 0 {
			continue
		}

		primary := int(row.Primary.Tier)
		shadow := 0
		achieved := row.Primary.Achievements
		if ch.ShadowRevealed {
			shadow = int(row.Shadow.Tier)
			achieved += row.Shadow.Achievements
		}

		total := primary + shadow
		if total == 0 {
			continue
		}

		entries = append(entries, Entry{
			Username:          row.User.Username,
			DiscordID:         row.User.DiscordID,
			Points:            primary,
			ShadowPoints:      shadow,
			TotalPoints:       total,
			Achievements:      achieved,
			TotalAchievements: row.Primary.TotalAchievements,
			Completion:        row.Primary.Completion,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].Achievements > entries[j].Achievements
	})

	// Dense competition ranking: an entry shares its predecessor's rank
	// iff both sort keys are equal; otherwise rank = 1-based position.
	for i := range entries {
		if i > 0 &&
			entries[i].TotalPoints == entries[i-1].TotalPoints &&
			entries[i].Achievements == entries[i-1].Achievements {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	return entries
}

// YearlyEntry is one row of a yearly leaderboard, with per-tier tallies
// alongside the accumulated points.
type YearlyEntry struct {
	Rank      int    `json:"rank"`
	Username  string `json:"username"`
	DiscordID string `json:"discord_id"`

	// ChallengePoints is the sum of primary-track tier values for periods
	// keyed to the requested year.
	ChallengePoints int `json:"challenge_points"`

	// ShadowPoints is the shadow-track sum for the same periods.
	ShadowPoints int `json:"shadow_points"`

	// AwardPoints is the sum of community awards granted in the year.
	AwardPoints int `json:"award_points"`

	// TotalPoints is the sum of the three buckets; the only ranking key.
	TotalPoints int `json:"total_points"`

	// Tier tallies for the year. The shadow track has no mastery tier.
	Mastery             int `json:"mastery"`
	Beaten              int `json:"beaten"`
	Participation       int `json:"participation"`
	ShadowBeaten        int `json:"shadow_beaten"`
	ShadowParticipation int `json:"shadow_participation"`
}

// ComputeYearly folds per-user year records into a ranked yearly
// leaderboard for the given calendar year.
//
// Period rows count when their period key carries the year prefix; awards
// count when their award instant falls in the year. Users with a total of
// zero or less are excluded. Ranking is dense on total points only; ties
// share a rank and are otherwise left in encounter order, since no
// secondary tie-break is defined for yearly standings.
func ComputeYearly(year int, records []user.YearRecord) []YearlyEntry {
	entries := make([]YearlyEntry, 0, len(records))

	for _, rec := range records {
		e := YearlyEntry{
			Username:  rec.User.Username,
			DiscordID: rec.User.DiscordID,
		}

		for _, p := range rec.Progress {
			if !timeutil.InYear(p.PeriodKey, year) {
				continue
			}
			if !p.Primary.Tier.IsValid() || !p.Shadow.Tier.IsValid() {
				continue
			}

			e.ChallengePoints += int(p.Primary.Tier)
			e.ShadowPoints += int(p.Shadow.Tier)

			switch p.Primary.Tier {
			case user.TierMastery:
				e.Mastery++
			case user.TierBeaten:
				e.Beaten++
			case user.TierParticipation:
				e.Participation++
			}
			switch p.Shadow.Tier {
			case user.TierBeaten:
				e.ShadowBeaten++
			case user.TierParticipation:
				e.ShadowParticipation++
			}
		}

		for _, award := range rec.Awards {
			if award.AwardedAt.UTC().Year() != year {
				continue
			}
			e.AwardPoints += award.Points
		}

		e.TotalPoints = e.ChallengePoints + e.ShadowPoints + e.AwardPoints
		if e.TotalPoints <= 0 {
			continue
		}

		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})

	for i := range entries {
		if i > 0 && entries[i].TotalPoints == entries[i-1].TotalPoints {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}

	return entries
}

// PointTable describes the display point values attached to yearly
// responses. Descriptive metadata only: stored record values always win,
// so a historical record written under different values keeps its points.
type PointTable struct {
	Mastery             int `json:"mastery"`
	Beaten              int `json:"beaten"`
	Participation       int `json:"participation"`
	ShadowBeaten        int `json:"shadow_beaten"`
	ShadowParticipation int `json:"shadow_participation"`
}

// DisplayPointTable returns the point values shown to display clients.
func DisplayPointTable() PointTable {
	return PointTable{
		Mastery:             7,
		Beaten:              4,
		Participation:       1,
		ShadowBeaten:        4,
		ShadowParticipation: 1,
	}
}
