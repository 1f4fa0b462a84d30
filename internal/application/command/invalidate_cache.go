// Package command contains the write-side use cases of the Select Start
// API. The service is read-oriented, so the only commands are operational:
// cache control for administrators.
package command

import (
	"context"

	"github.com/marquessam/select-start-api/internal/domain/shared"
	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
	"github.com/marquessam/select-start-api/pkg/logger"
)

// InvalidateTarget selects which cache slots an invalidation covers.
type InvalidateTarget string

const (
	// TargetAll clears every report slot.
	TargetAll InvalidateTarget = "all"
	// TargetLeaderboards clears the monthly and yearly slots.
	TargetLeaderboards InvalidateTarget = "leaderboards"
	// TargetNominations clears the nomination slot.
	TargetNominations InvalidateTarget = "nominations"
)

// ParseInvalidateTarget validates a raw target string.
func ParseInvalidateTarget(s string) (InvalidateTarget, error) {
	switch InvalidateTarget(s) {
	case TargetAll, TargetLeaderboards, TargetNominations:
		return InvalidateTarget(s), nil
	}
	return "", shared.ErrInvalidInvalidateTarget
}

// reportTypes returns the cache slots the target covers.
func (t InvalidateTarget) reportTypes() []cache.ReportType {
	switch t {
	case TargetLeaderboards:
		return []cache.ReportType{cache.ReportMonthly, cache.ReportYearly}
	case TargetNominations:
		return []cache.ReportType{cache.ReportNominations}
	default:
		return cache.AllReportTypes()
	}
}

// InvalidateCacheCommand carries the admin invalidation request.
type InvalidateCacheCommand struct {
	Target InvalidateTarget
}

// InvalidateCacheResult reports which slots were cleared.
type InvalidateCacheResult struct {
	Invalidated []string `json:"invalidated"`
}

// InvalidateCacheHandler clears report cache slots on demand. The
// operation is idempotent: clearing an already-empty slot succeeds.
type InvalidateCacheHandler struct {
	cache  *cache.ReportCache
	logger *logger.Logger
}

// NewInvalidateCacheHandler creates the handler.
func NewInvalidateCacheHandler(reportCache *cache.ReportCache, log *logger.Logger) *InvalidateCacheHandler {
	if log == nil {
		log = logger.Default()
	}
	return &InvalidateCacheHandler{
		cache:  reportCache,
		logger: log.With(logger.Component("invalidate_cache")),
	}
}

// Handle executes the invalidation.
func (h *InvalidateCacheHandler) Handle(_ context.Context, cmd InvalidateCacheCommand) (*InvalidateCacheResult, error) {
	target, err := ParseInvalidateTarget(string(cmd.Target))
	if err != nil {
		return nil, err
	}

	types := target.reportTypes()
	h.cache.Invalidate(types...)

	cleared := make([]string, 0, len(types))
	for _, rt := range types {
		cleared = append(cleared, rt.String())
	}

	h.logger.Info("cache invalidated", logger.String("target", string(target)))

	return &InvalidateCacheResult{Invalidated: cleared}, nil
}
