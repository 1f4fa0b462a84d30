// Package nomination implements the nomination aggregator of the Select
// Start API: it folds per-user game nominations into the current-period
// flat list and a popularity ranking used for the next challenge vote.
//
// Current-period scoping is a wall-clock month/year comparison against the
// reference clock, not a ChallengePeriod boundary check. The two policies
// can diverge for non-standard periods and are deliberately kept separate.
package nomination

import (
	"sort"
	"time"

	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/pkg/timeutil"
)

// Detail is one nomination in the flat list. A user nominating the same
// game twice appears here twice.
type Detail struct {
	Username    string    `json:"username"`
	DiscordID   string    `json:"discord_id"`
	GameID      int       `json:"game_id"`
	GameTitle   string    `json:"game_title"`
	Console     string    `json:"console"`
	NominatedAt time.Time `json:"nominated_at"`
}

// GamePopularity is one game's standing in the popularity view.
//
// Count is the number of distinct users who nominated the game; the flat
// list may carry more entries when a user nominates the same game twice.
// The duplicate counting between the two views is intentional.
type GamePopularity struct {
	GameID     int      `json:"game_id"`
	GameTitle  string   `json:"game_title"`
	Console    string   `json:"console"`
	Count      int      `json:"count"`
	Nominators []string `json:"nominators"`
}

// Result holds both views over the current period's nominations.
type Result struct {
	Nominations []Detail         `json:"nominations"`
	Games       []GamePopularity `json:"games"`

	// UniqueNominators is the count of distinct users with at least one
	// current-period nomination.
	UniqueNominators int `json:"unique_nominators"`
}

// ComputeCurrent filters nominations to those whose instant falls in the
// same calendar month and year as ref, then builds the flat list and the
// popularity ranking. Popularity is sorted descending by count; ties keep
// encounter order (stable sort).
func ComputeCurrent(noms []user.Nomination, ref time.Time) Result {
	details := make([]Detail, 0, len(noms))
	byGame := make(map[int]*GamePopularity)
	var order []int
	seen := make(map[int]map[string]bool)
	nominators := make(map[string]bool)

	for _, n := range noms {
		if !timeutil.SameMonth(n.NominatedAt, ref) {
			continue
		}

		details = append(details, Detail{
			Username:    n.User.Username,
			DiscordID:   n.User.DiscordID,
			GameID:      n.GameID,
			GameTitle:   n.GameTitle,
			Console:     n.Console,
			NominatedAt: n.NominatedAt,
		})
		nominators[n.User.Username] = true

		g, ok := byGame[n.GameID]
		if !ok {
			g = &GamePopularity{
				GameID:    n.GameID,
				GameTitle: n.GameTitle,
				Console:   n.Console,
			}
			byGame[n.GameID] = g
			order = append(order, n.GameID)
			seen[n.GameID] = make(map[string]bool)
		}
		if !seen[n.GameID][n.User.Username] {
			seen[n.GameID][n.User.Username] = true
			g.Nominators = append(g.Nominators, n.User.Username)
			g.Count++
		}
	}

	games := make([]GamePopularity, 0, len(order))
	for _, id := range order {
		games = append(games, *byGame[id])
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Count > games[j].Count
	})

	return Result{
		Nominations:      details,
		Games:            games,
		UniqueNominators: len(nominators),
	}
}
