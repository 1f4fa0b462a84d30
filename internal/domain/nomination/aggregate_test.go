package nomination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marquessam/select-start-api/internal/domain/user"
)

var september = time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)

func nominate(username string, gameID int, title string, at time.Time) user.Nomination {
	return user.Nomination{
		User:        user.User{Username: username, DiscordID: "discord-" + username},
		GameID:      gameID,
		GameTitle:   title,
		Console:     "SNES",
		NominatedAt: at,
	}
}

func TestComputeCurrent_FiltersToCurrentMonth(t *testing.T) {
	noms := []user.Nomination{
		nominate("alice", 1, "EarthBound", september),
		nominate("bob", 2, "Terranigma", time.Date(2025, 8, 31, 23, 0, 0, 0, time.UTC)),
		nominate("carol", 3, "Live A Live", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)),
	}

	result := ComputeCurrent(noms, september)

	require.Len(t, result.Nominations, 1)
	assert.Equal(t, "alice", result.Nominations[0].Username)
	assert.Equal(t, 1, result.UniqueNominators)
}

func TestComputeCurrent_DuplicateNominationStaysInFlatList(t *testing.T) {
	noms := []user.Nomination{
		nominate("alice", 1, "EarthBound", september),
		nominate("alice", 1, "EarthBound", september.Add(time.Hour)),
		nominate("bob", 1, "EarthBound", september.Add(2*time.Hour)),
	}

	result := ComputeCurrent(noms, september)

	// Three flat entries, but only two distinct nominators behind the game.
	assert.Len(t, result.Nominations, 3)
	require.Len(t, result.Games, 1)
	assert.Equal(t, 2, result.Games[0].Count)
	assert.Equal(t, []string{"alice", "bob"}, result.Games[0].Nominators)
	assert.Equal(t, 2, result.UniqueNominators)
}

func TestComputeCurrent_PopularityOrder(t *testing.T) {
	noms := []user.Nomination{
		nominate("alice", 1, "EarthBound", september),
		nominate("bob", 2, "Terranigma", september),
		nominate("carol", 2, "Terranigma", september),
		nominate("dave", 3, "Live A Live", september),
	}

	result := ComputeCurrent(noms, september)
	require.Len(t, result.Games, 3)

	assert.Equal(t, "Terranigma", result.Games[0].GameTitle)
	assert.Equal(t, 2, result.Games[0].Count)

	// Tied games keep first-nomination order.
	assert.Equal(t, "EarthBound", result.Games[1].GameTitle)
	assert.Equal(t, "Live A Live", result.Games[2].GameTitle)

	assert.Equal(t, 4, result.UniqueNominators)
}

func TestComputeCurrent_Empty(t *testing.T) {
	result := ComputeCurrent(nil, september)

	assert.NotNil(t, result.Nominations)
	assert.Empty(t, result.Nominations)
	assert.NotNil(t, result.Games)
	assert.Empty(t, result.Games)
	assert.Zero(t, result.UniqueNominators)
}
