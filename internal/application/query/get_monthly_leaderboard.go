// Package query contains the read-side use cases of the Select Start API.
// Each report request is one self-contained handler: consult the freshness
// cache, recompute from the record store on a miss, persist the snapshot,
// return the payload. Queries never modify stored records.
package query

import (
	"context"
	"time"

	"github.com/marquessam/select-start-api/internal/domain/challenge"
	"github.com/marquessam/select-start-api/internal/domain/leaderboard"
	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
	"github.com/marquessam/select-start-api/internal/infrastructure/external/retroachievements"
	"github.com/marquessam/select-start-api/pkg/logger"
	"github.com/marquessam/select-start-api/pkg/timeutil"
)

// GameMetadataProvider is the optional enrichment collaborator. A nil
// provider, or any lookup error, means reports go out without metadata.
type GameMetadataProvider interface {
	GameInfo(ctx context.Context, gameID int) (*retroachievements.GameInfo, error)
}

// GetMonthlyLeaderboardQuery contains the monthly report parameters.
type GetMonthlyLeaderboardQuery struct {
	// ForceRefresh bypasses the cache and recomputes unconditionally.
	ForceRefresh bool
}

// GameDTO is the game block attached to monthly reports.
type GameDTO struct {
	ID                int    `json:"id"`
	Title             string `json:"title"`
	ConsoleName       string `json:"console_name,omitempty"`
	ImageIcon         string `json:"image_icon,omitempty"`
	TotalAchievements int    `json:"total_achievements"`
}

// PeriodDTO describes the challenge period for display clients.
type PeriodDTO struct {
	PeriodKey     string    `json:"period_key"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	EndOfPeriod   string    `json:"end_of_period"`
	TimeRemaining string    `json:"time_remaining"`
}

// MonthlyLeaderboardResult is the monthly report payload. The whole value
// is what the cache slot and the durable snapshot hold.
type MonthlyLeaderboardResult struct {
	Period PeriodDTO `json:"period"`

	Game GameDTO `json:"game"`

	// Shadow is nil while the shadow game stays hidden.
	Shadow *GameDTO `json:"shadow,omitempty"`

	Entries []leaderboard.Entry `json:"entries"`

	TotalParticipants int `json:"total_participants"`

	// LastUpdated is the compute instant; a cached payload keeps its
	// original stamp.
	LastUpdated time.Time `json:"last_updated"`
}

// GetMonthlyLeaderboardHandler orchestrates the monthly report.
type GetMonthlyLeaderboardHandler struct {
	challenges challenge.Repository
	users      user.Repository
	cache      *cache.ReportCache
	games      GameMetadataProvider
	logger     *logger.Logger
	now        func() time.Time
}

// NewGetMonthlyLeaderboardHandler creates the handler. games may be nil.
func NewGetMonthlyLeaderboardHandler(
	challenges challenge.Repository,
	users user.Repository,
	reportCache *cache.ReportCache,
	games GameMetadataProvider,
	log *logger.Logger,
) *GetMonthlyLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetMonthlyLeaderboardHandler{
		challenges: challenges,
		users:      users,
		cache:      reportCache,
		games:      games,
		logger:     log.With(logger.Component("monthly_leaderboard")),
		now:        time.Now,
	}
}

// WithClock overrides the reference clock. Intended for tests.
func (h *GetMonthlyLeaderboardHandler) WithClock(now func() time.Time) *GetMonthlyLeaderboardHandler {
	h.now = now
	return h
}

// Handle serves one monthly report request.
func (h *GetMonthlyLeaderboardHandler) Handle(ctx context.Context, q GetMonthlyLeaderboardQuery) (*MonthlyLeaderboardResult, error) {
	now := h.now().UTC()

	if q.ForceRefresh {
		h.cache.Invalidate(cache.ReportMonthly)
	}

	if payload, ok := h.cache.Get(cache.ReportMonthly, now); ok {
		if result, ok := payload.(*MonthlyLeaderboardResult); ok {
			return result, nil
		}
	}

	ch, err := h.challenges.Current(ctx, now)
	if err != nil {
		return nil, err
	}

	rows, err := h.users.MonthlyProgress(ctx, ch.PeriodKey())
	if err != nil {
		return nil, err
	}

	entries := leaderboard.ComputeMonthly(ch, rows)

	result := &MonthlyLeaderboardResult{
		Period: PeriodDTO{
			PeriodKey:     ch.PeriodKey(),
			StartsAt:      ch.StartsAt,
			EndsAt:        ch.EndsAt,
			EndOfPeriod:   timeutil.FormatEndOfPeriod(ch.EndsAt),
			TimeRemaining: timeutil.TimeRemaining(ch.EndsAt, now),
		},
		Game: GameDTO{
			ID:                ch.MonthlyGameID,
			Title:             ch.MonthlyGameTitle,
			TotalAchievements: ch.MonthlyTotal,
		},
		Entries:           entries,
		TotalParticipants: len(entries),
		LastUpdated:       now,
	}

	if ch.ShadowRevealed && ch.HasShadow() {
		result.Shadow = &GameDTO{
			ID:                ch.ShadowGameID,
			Title:             ch.ShadowGameTitle,
			TotalAchievements: ch.ShadowTotal,
		}
	}

	h.enrich(ctx, result, ch)

	h.cache.Put(ctx, cache.ReportMonthly, result, now)

	h.logger.Info("monthly leaderboard computed",
		logger.PeriodKey(ch.PeriodKey()),
		logger.EntryCount(len(entries)))

	return result, nil
}

// enrich attaches RetroAchievements metadata when the collaborator can
// deliver it in time. Lookup failure leaves the ingested fields in place.
func (h *GetMonthlyLeaderboardHandler) enrich(ctx context.Context, result *MonthlyLeaderboardResult, ch *challenge.Challenge) {
	if h.games == nil {
		return
	}

	if info, err := h.games.GameInfo(ctx, ch.MonthlyGameID); err == nil && info != nil {
		applyGameInfo(&result.Game, info)
	}
	if result.Shadow != nil {
		if info, err := h.games.GameInfo(ctx, ch.ShadowGameID); err == nil && info != nil {
			applyGameInfo(result.Shadow, info)
		}
	}
}

func applyGameInfo(dto *GameDTO, info *retroachievements.GameInfo) {
	if info.Title != "" {
		dto.Title = info.Title
	}
	dto.ConsoleName = info.ConsoleName
	dto.ImageIcon = info.ImageIcon
}
