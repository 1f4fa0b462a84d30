package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquessam/select-start-api/internal/domain/challenge"
	"github.com/marquessam/select-start-api/internal/domain/user"
)

func aprilChallenge(shadowRevealed bool) *challenge.Challenge {
	return &challenge.Challenge{
		ID:               "ch-2025-04",
		StartsAt:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:           time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		MonthlyGameID:    14402,
		MonthlyGameTitle: "Chrono Trigger",
		MonthlyTotal:     108,
		ShadowGameID:     10003,
		ShadowGameTitle:  "Secret of Evermore",
		ShadowTotal:      60,
		ShadowRevealed:   shadowRevealed,
	}
}

func progressRow(username string, primary, shadow user.Tier, primaryAch, shadowAch int) user.MonthlyProgress {
	return user.MonthlyProgress{
		User:      user.User{Username: username, DiscordID: "discord-" + username},
		PeriodKey: "2025-04-01",
		Primary: user.Progress{
			Tier:              primary,
			Achievements:      primaryAch,
			TotalAchievements: 108,
			Completion:        float64(primaryAch) / 108 * 100,
		},
		Shadow: user.Progress{
			Tier:              shadow,
			Achievements:      shadowAch,
			TotalAchievements: 60,
		},
	}
}

func TestComputeMonthly_MasteredUserTopsBoard(t *testing.T) {
	ch := aprilChallenge(false)
	rows := []user.MonthlyProgress{
		progressRow("alice", user.TierParticipation, user.TierNone, 20, 0),
		progressRow("bob", user.TierMastery, user.TierNone, 108, 0),
	}

	entries := ComputeMonthly(ch, rows)
	require.Len(t, entries, 2)

	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 3, entries[0].Points)
	assert.Equal(t, 3, entries[0].TotalPoints)

	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 1, entries[1].TotalPoints)
}

func TestComputeMonthly_ZeroTotalExcluded(t *testing.T) {
	ch := aprilChallenge(false)
	rows := []user.MonthlyProgress{
		// Achievements earned but no tier reached: not on the board.
		progressRow("lurker", user.TierNone, user.TierNone, 5, 0),
		progressRow("alice", user.TierParticipation, user.TierNone, 20, 0),
	}

	entries := ComputeMonthly(ch, rows)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestComputeMonthly_ShadowHiddenScoresNothing(t *testing.T) {
	ch := aprilChallenge(false)
	rows := []user.MonthlyProgress{
		progressRow("alice", user.TierBeaten, user.TierBeaten, 50, 30),
	}

	entries := ComputeMonthly(ch, rows)
	require.Len(t, entries, 1)

	assert.Equal(t, 2, entries[0].Points)
	assert.Equal(t, 0, entries[0].ShadowPoints)
	assert.Equal(t, 2, entries[0].TotalPoints)
	// Hidden shadow achievements stay out of the tie-break count too.
	assert.Equal(t, 50, entries[0].Achievements)
}

func TestComputeMonthly_ShadowRevealedCounts(t *testing.T) {
	ch := aprilChallenge(true)
	rows := []user.MonthlyProgress{
		progressRow("alice", user.TierBeaten, user.TierBeaten, 50, 30),
	}

	entries := ComputeMonthly(ch, rows)
	require.Len(t, entries, 1)

	assert.Equal(t, 2, entries[0].Points)
	assert.Equal(t, 2, entries[0].ShadowPoints)
	assert.Equal(t, 4, entries[0].TotalPoints)
	assert.Equal(t, 80, entries[0].Achievements)
}

func TestComputeMonthly_ShadowOnlyUserAppearsOnceRevealed(t *testing.T) {
	rows := []user.MonthlyProgress{
		progressRow("shadowfan", user.TierNone, user.TierParticipation, 0, 10),
	}

	hidden := ComputeMonthly(aprilChallenge(false), rows)
	assert.Empty(t, hidden)

	revealed := ComputeMonthly(aprilChallenge(true), rows)
	require.Len(t, revealed, 1)
	assert.Equal(t, 1, revealed[0].TotalPoints)
}

func TestComputeMonthly_DenseRanking(t *testing.T) {
	ch := aprilChallenge(false)
	rows := []user.MonthlyProgress{
		progressRow("alice", user.TierMastery, user.TierNone, 108, 0),
		progressRow("bob", user.TierBeaten, user.TierNone, 60, 0),
		progressRow("carol", user.TierBeaten, user.TierNone, 60, 0),
		progressRow("dave", user.TierBeaten, user.TierNone, 40, 0),
		progressRow("erin", user.TierParticipation, user.TierNone, 10, 0),
	}

	entries := ComputeMonthly(ch, rows)
	require.Len(t, entries, 5)

	// bob and carol tie on both keys and share rank 2; dave has the same
	// points but fewer achievements, so his rank is his position.
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 2, entries[2].Rank)
	assert.Equal(t, 4, entries[3].Rank)
	assert.Equal(t, "dave", entries[3].Username)
	assert.Equal(t, 5, entries[4].Rank)
}

func TestComputeMonthly_TiesKeepEncounterOrder(t *testing.T) {
	ch := aprilChallenge(false)
	rows := []user.MonthlyProgress{
		progressRow("first", user.TierBeaten, user.TierNone, 30, 0),
		progressRow("second", user.TierBeaten, user.TierNone, 30, 0),
	}

	entries := ComputeMonthly(ch, rows)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Username)
	assert.Equal(t, "second", entries[1].Username)
}

func TestComputeMonthly_MalformedRowsSkipped(t *testing.T) {
	ch := aprilChallenge(false)

	badTier := progressRow("badtier", user.Tier(9), user.TierNone, 10, 0)
	negative := progressRow("negative", user.TierBeaten, user.TierNone, -1, 0)
	good := progressRow("alice", user.TierParticipation, user.TierNone, 5, 0)

	entries := ComputeMonthly(ch, []user.MonthlyProgress{badTier, negative, good})
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestComputeMonthly_EmptyInput(t *testing.T) {
	entries := ComputeMonthly(aprilChallenge(false), nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func yearRecord(username string, periods []user.PeriodProgress, awards []user.CommunityAward) user.YearRecord {
	return user.YearRecord{
		User:     user.User{Username: username, DiscordID: "discord-" + username},
		Progress: periods,
		Awards:   awards,
	}
}

func periodProgress(key string, primary, shadow user.Tier) user.PeriodProgress {
	return user.PeriodProgress{
		PeriodKey: key,
		Primary:   user.Progress{Tier: primary},
		Shadow:    user.Progress{Tier: shadow},
	}
}

func TestComputeYearly_SumsStoredValues(t *testing.T) {
	records := []user.YearRecord{
		yearRecord("alice",
			[]user.PeriodProgress{
				periodProgress("2025-01-01", user.TierMastery, user.TierNone),
				periodProgress("2025-02-01", user.TierBeaten, user.TierBeaten),
				periodProgress("2025-03-01", user.TierParticipation, user.TierParticipation),
			},
			[]user.CommunityAward{
				{Points: 5, Reason: "beta testing", AwardedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
			},
		),
	}

	entries := ComputeYearly(2025, records)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, 6, e.ChallengePoints) // 3 + 2 + 1 stored tier values
	assert.Equal(t, 3, e.ShadowPoints)    // 2 + 1
	assert.Equal(t, 5, e.AwardPoints)
	assert.Equal(t, 14, e.TotalPoints)
	assert.Equal(t, 1, e.Mastery)
	assert.Equal(t, 1, e.Beaten)
	assert.Equal(t, 1, e.Participation)
	assert.Equal(t, 1, e.ShadowBeaten)
	assert.Equal(t, 1, e.ShadowParticipation)
}

func TestComputeYearly_ScopesByYear(t *testing.T) {
	records := []user.YearRecord{
		yearRecord("alice",
			[]user.PeriodProgress{
				periodProgress("2024-12-01", user.TierMastery, user.TierNone),
				periodProgress("2025-01-01", user.TierParticipation, user.TierNone),
			},
			[]user.CommunityAward{
				{Points: 10, AwardedAt: time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)},
				{Points: 2, AwardedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			},
		),
	}

	entries := ComputeYearly(2025, records)
	require.Len(t, entries, 1)

	assert.Equal(t, 1, entries[0].ChallengePoints)
	assert.Equal(t, 2, entries[0].AwardPoints)
	assert.Equal(t, 3, entries[0].TotalPoints)
	assert.Equal(t, 0, entries[0].Mastery)
}

func TestComputeYearly_NonPositiveTotalExcluded(t *testing.T) {
	records := []user.YearRecord{
		yearRecord("zero", nil, nil),
		yearRecord("negative", nil, []user.CommunityAward{
			{Points: -3, Reason: "penalty", AwardedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		}),
		yearRecord("alice", []user.PeriodProgress{
			periodProgress("2025-03-01", user.TierParticipation, user.TierNone),
		}, nil),
	}

	entries := ComputeYearly(2025, records)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestComputeYearly_RanksOnTotalOnly(t *testing.T) {
	records := []user.YearRecord{
		yearRecord("alice", []user.PeriodProgress{
			periodProgress("2025-01-01", user.TierMastery, user.TierNone),
		}, nil),
		// Same total through a different mix: still a shared rank.
		yearRecord("bob", []user.PeriodProgress{
			periodProgress("2025-01-01", user.TierBeaten, user.TierParticipation),
		}, nil),
		yearRecord("carol", []user.PeriodProgress{
			periodProgress("2025-01-01", user.TierParticipation, user.TierNone),
		}, nil),
	}

	entries := ComputeYearly(2025, records)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestDisplayPointTable(t *testing.T) {
	table := DisplayPointTable()

	assert.Equal(t, 7, table.Mastery)
	assert.Equal(t, 4, table.Beaten)
	assert.Equal(t, 1, table.Participation)
	assert.Equal(t, 4, table.ShadowBeaten)
	assert.Equal(t, 1, table.ShadowParticipation)
}
