package query

import (
	"context"
	"time"

	"github.com/marquessam/select-start-api/internal/domain/nomination"
	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
	"github.com/marquessam/select-start-api/pkg/logger"
	"github.com/marquessam/select-start-api/pkg/timeutil"
)

// GetNominationsQuery contains the nomination report parameters.
type GetNominationsQuery struct {
	// ForceRefresh bypasses the cache and recomputes unconditionally.
	ForceRefresh bool
}

// NominationsResult is the nomination report payload.
type NominationsResult struct {
	// Month labels the report period, e.g. "2025-09-01".
	Month string `json:"month"`

	// Nominations lists every nomination made this month, duplicates
	// included.
	Nominations []nomination.Detail `json:"nominations"`

	// Games summarizes nominations per game, most popular first.
	Games []nomination.GamePopularity `json:"games"`

	TotalNominations int `json:"total_nominations"`
	UniqueNominators int `json:"unique_nominators"`

	LastUpdated time.Time `json:"last_updated"`
}

// GetNominationsHandler orchestrates the nomination report.
type GetNominationsHandler struct {
	users  user.Repository
	cache  *cache.ReportCache
	logger *logger.Logger
	now    func() time.Time
}

// NewGetNominationsHandler creates the handler.
func NewGetNominationsHandler(
	users user.Repository,
	reportCache *cache.ReportCache,
	log *logger.Logger,
) *GetNominationsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetNominationsHandler{
		users:  users,
		cache:  reportCache,
		logger: log.With(logger.Component("nominations")),
		now:    time.Now,
	}
}

// WithClock overrides the reference clock. Intended for tests.
func (h *GetNominationsHandler) WithClock(now func() time.Time) *GetNominationsHandler {
	h.now = now
	return h
}

// Handle serves one nomination report request. The report period is the
// wall-clock month, independent of any challenge schedule.
func (h *GetNominationsHandler) Handle(ctx context.Context, q GetNominationsQuery) (*NominationsResult, error) {
	now := h.now().UTC()

	if q.ForceRefresh {
		h.cache.Invalidate(cache.ReportNominations)
	}

	if payload, ok := h.cache.Get(cache.ReportNominations, now); ok {
		if result, ok := payload.(*NominationsResult); ok {
			return result, nil
		}
	}

	monthStart, _ := timeutil.CurrentPeriod(now)

	noms, err := h.users.NominationsSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}

	agg := nomination.ComputeCurrent(noms, now)

	result := &NominationsResult{
		Month:            timeutil.PeriodKey(monthStart),
		Nominations:      agg.Nominations,
		Games:            agg.Games,
		TotalNominations: len(agg.Nominations),
		UniqueNominators: agg.UniqueNominators,
		LastUpdated:      now,
	}

	h.cache.Put(ctx, cache.ReportNominations, result, now)

	h.logger.Info("nominations computed",
		logger.Int("nominations", len(agg.Nominations)),
		logger.Int("games", len(agg.Games)))

	return result, nil
}
