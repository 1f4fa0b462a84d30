package query

import (
	"context"
	"time"

	"github.com/marquessam/select-start-api/internal/domain/leaderboard"
	"github.com/marquessam/select-start-api/internal/domain/shared"
	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
	"github.com/marquessam/select-start-api/pkg/logger"
)

// Years the community has existed within; requests outside the window are
// rejected rather than producing an empty report for a typoed year.
const (
	minLeaderboardYear = 2000
	maxLeaderboardYear = 9999
)

// GetYearlyLeaderboardQuery contains the yearly report parameters.
type GetYearlyLeaderboardQuery struct {
	// Year selects the report year. Zero means the current year.
	Year int

	// ForceRefresh bypasses the cache and recomputes unconditionally.
	ForceRefresh bool
}

// Validate checks the query parameters.
func (q GetYearlyLeaderboardQuery) Validate() error {
	if q.Year != 0 && (q.Year < minLeaderboardYear || q.Year > maxLeaderboardYear) {
		return shared.ErrInvalidYear
	}
	return nil
}

// YearlyLeaderboardResult is the yearly report payload.
type YearlyLeaderboardResult struct {
	Year int `json:"year"`

	Entries []leaderboard.YearlyEntry `json:"entries"`

	TotalParticipants int `json:"total_participants"`

	// PointValues documents how each clear tier is valued. Display only;
	// totals always come from stored award rows.
	PointValues leaderboard.PointTable `json:"point_values"`

	LastUpdated time.Time `json:"last_updated"`
}

// GetYearlyLeaderboardHandler orchestrates the yearly report.
type GetYearlyLeaderboardHandler struct {
	users  user.Repository
	cache  *cache.ReportCache
	logger *logger.Logger
	now    func() time.Time
}

// NewGetYearlyLeaderboardHandler creates the handler.
func NewGetYearlyLeaderboardHandler(
	users user.Repository,
	reportCache *cache.ReportCache,
	log *logger.Logger,
) *GetYearlyLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetYearlyLeaderboardHandler{
		users:  users,
		cache:  reportCache,
		logger: log.With(logger.Component("yearly_leaderboard")),
		now:    time.Now,
	}
}

// WithClock overrides the reference clock. Intended for tests.
func (h *GetYearlyLeaderboardHandler) WithClock(now func() time.Time) *GetYearlyLeaderboardHandler {
	h.now = now
	return h
}

// Handle serves one yearly report request. Only the current-year report
// occupies the cache slot; historical years are computed per request so
// the slot never serves one year's standings under another year's label.
func (h *GetYearlyLeaderboardHandler) Handle(ctx context.Context, q GetYearlyLeaderboardQuery) (*YearlyLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := h.now().UTC()

	year := q.Year
	if year == 0 {
		year = now.Year()
	}
	currentYear := year == now.Year()

	// Historical years never touch the slot, so their force-refresh must
	// not clear the cached current-year report either.
	if currentYear {
		if q.ForceRefresh {
			h.cache.Invalidate(cache.ReportYearly)
		}
		if payload, ok := h.cache.Get(cache.ReportYearly, now); ok {
			if result, ok := payload.(*YearlyLeaderboardResult); ok {
				return result, nil
			}
		}
	}

	records, err := h.users.YearRecords(ctx, year)
	if err != nil {
		return nil, err
	}

	entries := leaderboard.ComputeYearly(year, records)

	result := &YearlyLeaderboardResult{
		Year:              year,
		Entries:           entries,
		TotalParticipants: len(entries),
		PointValues:       leaderboard.DisplayPointTable(),
		LastUpdated:       now,
	}

	if currentYear {
		h.cache.Put(ctx, cache.ReportYearly, result, now)
	}

	h.logger.Info("yearly leaderboard computed",
		logger.Int("year", year),
		logger.EntryCount(len(entries)))

	return result, nil
}
