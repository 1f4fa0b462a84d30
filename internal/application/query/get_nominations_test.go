package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquessam/select-start-api/internal/domain/shared"
	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
)

func nominationRows() []user.Nomination {
	return []user.Nomination{
		{
			User:        user.User{Username: "alice", DiscordID: "discord-alice"},
			GameID:      1,
			GameTitle:   "EarthBound",
			Console:     "SNES",
			NominatedAt: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			User:        user.User{Username: "bob", DiscordID: "discord-bob"},
			GameID:      1,
			GameTitle:   "EarthBound",
			Console:     "SNES",
			NominatedAt: time.Date(2025, 4, 11, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newNominationsHandler(users *fakeUserRepo) (*GetNominationsHandler, *cache.ReportCache) {
	reportCache := cache.New(nil, cache.DefaultThresholds(), nil)
	h := NewGetNominationsHandler(users, reportCache, nil).
		WithClock(func() time.Time { return aprilNow })
	return h, reportCache
}

func TestGetNominations_ComputesAndCaches(t *testing.T) {
	users := &fakeUserRepo{nominations: nominationRows()}
	h, _ := newNominationsHandler(users)

	result, err := h.Handle(context.Background(), GetNominationsQuery{})
	require.NoError(t, err)

	assert.Equal(t, "2025-04-01", result.Month)
	assert.Len(t, result.Nominations, 2)
	require.Len(t, result.Games, 1)
	assert.Equal(t, 2, result.Games[0].Count)
	assert.Equal(t, 2, result.TotalNominations)
	assert.Equal(t, 2, result.UniqueNominators)
	assert.Equal(t, aprilNow, result.LastUpdated)

	again, err := h.Handle(context.Background(), GetNominationsQuery{})
	require.NoError(t, err)
	assert.Same(t, result, again)
}

func TestGetNominations_ForceRefreshRecomputes(t *testing.T) {
	users := &fakeUserRepo{nominations: nominationRows()}
	h, reportCache := newNominationsHandler(users)

	first, err := h.Handle(context.Background(), GetNominationsQuery{})
	require.NoError(t, err)
	_, ok := reportCache.Get(cache.ReportNominations, aprilNow)
	require.True(t, ok)

	second, err := h.Handle(context.Background(), GetNominationsQuery{ForceRefresh: true})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestGetNominations_EmptyMonth(t *testing.T) {
	h, _ := newNominationsHandler(&fakeUserRepo{})

	result, err := h.Handle(context.Background(), GetNominationsQuery{})
	require.NoError(t, err)

	assert.Empty(t, result.Nominations)
	assert.Empty(t, result.Games)
	assert.Zero(t, result.UniqueNominators)
}

func TestGetNominations_StoreFailurePropagates(t *testing.T) {
	h, _ := newNominationsHandler(&fakeUserRepo{err: shared.ErrStoreUnavailable})

	_, err := h.Handle(context.Background(), GetNominationsQuery{})
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}
