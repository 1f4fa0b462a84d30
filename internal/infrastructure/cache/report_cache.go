// Package cache implements the freshness-bounded report cache of the
// Select Start API. One slot per report type holds the most recently
// computed payload; a slot is served until its age reaches the type's
// freshness threshold, after which the next request recomputes. Every
// successful put is written through to a durable snapshot store so a
// restart can rehydrate warm slots.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marquessam/select-start-api/pkg/logger"
)

// ReportType identifies one cached report slot.
type ReportType string

const (
	// ReportMonthly is the monthly challenge leaderboard.
	ReportMonthly ReportType = "monthly_leaderboard"
	// ReportYearly is the yearly accumulated leaderboard.
	ReportYearly ReportType = "yearly_leaderboard"
	// ReportNominations is the current-period nomination report.
	ReportNominations ReportType = "nominations"
)

// AllReportTypes returns every report type with a cache slot.
func AllReportTypes() []ReportType {
	return []ReportType{ReportMonthly, ReportYearly, ReportNominations}
}

// String returns the report type as a plain string.
func (rt ReportType) String() string {
	return string(rt)
}

// IsValid reports whether rt names a known report slot.
func (rt ReportType) IsValid() bool {
	switch rt {
	case ReportMonthly, ReportYearly, ReportNominations:
		return true
	}
	return false
}

// ErrSnapshotNotFound is returned by a SnapshotStore when no snapshot has
// been persisted for a report type yet.
var ErrSnapshotNotFound = errors.New("cache: snapshot not found")

// Snapshot is the durable record written on every successful put: the
// serialized payload plus the stamp the freshness check runs against.
type Snapshot struct {
	ID          string          `json:"id"`
	Type        ReportType      `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	LastUpdated time.Time       `json:"last_updated"`
}

// SnapshotStore persists one snapshot per report type under a stable name.
// Implementations: disk files (persistence/file) and Redis
// (persistence/redis).
type SnapshotStore interface {
	// Save overwrites the snapshot for snap.Type.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the stored snapshot for the report type, or
	// ErrSnapshotNotFound when none exists.
	Load(ctx context.Context, rt ReportType) (*Snapshot, error)
}

// DecodeFunc turns a persisted payload back into the typed report value a
// slot holds in memory. Registered per report type at rehydration time so
// this package stays ignorant of report shapes.
type DecodeFunc func(data []byte) (any, error)

// Thresholds holds the per-type freshness thresholds.
type Thresholds struct {
	Monthly     time.Duration
	Yearly      time.Duration
	Nominations time.Duration
}

// DefaultThresholds returns the default freshness windows.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Monthly:     15 * time.Minute,
		Yearly:      30 * time.Minute,
		Nominations: 10 * time.Minute,
	}
}

func (t Thresholds) forType(rt ReportType) time.Duration {
	switch rt {
	case ReportYearly:
		return t.Yearly
	case ReportNominations:
		return t.Nominations
	default:
		return t.Monthly
	}
}

// slot is one report type's cache entry. Each slot has its own mutex so
// concurrent access to the same type is serialized while different types
// never contend.
type slot struct {
	mu          sync.Mutex
	payload     any
	lastUpdated time.Time
	threshold   time.Duration
}

// ReportCache holds the per-type slots and the write-through snapshot
// store. Snapshot persistence is best-effort: a failed save or load is
// logged and the in-memory path keeps working.
type ReportCache struct {
	slots  map[ReportType]*slot
	store  SnapshotStore
	logger *logger.Logger
}

// New creates a ReportCache with empty slots. The snapshot store may be
// nil, in which case the cache is memory-only.
func New(store SnapshotStore, thresholds Thresholds, log *logger.Logger) *ReportCache {
	if log == nil {
		log = logger.Default()
	}

	slots := make(map[ReportType]*slot, 3)
	for _, rt := range AllReportTypes() {
		slots[rt] = &slot{threshold: thresholds.forType(rt)}
	}

	return &ReportCache{
		slots:  slots,
		store:  store,
		logger: log.With(logger.Component("report_cache")),
	}
}

// Get returns the cached payload for a report type, or a miss when the
// slot is empty or its age has reached the freshness threshold.
func (c *ReportCache) Get(rt ReportType, now time.Time) (any, bool) {
	s, ok := c.slots[rt]
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.payload == nil {
		return nil, false
	}
	if now.Sub(s.lastUpdated) >= s.threshold {
		return nil, false
	}
	return s.payload, true
}

// Put overwrites the slot with a freshly computed payload and attempts to
// persist it. Persistence failure never fails the put: the slot stays
// fresh in memory and the failure is logged.
func (c *ReportCache) Put(ctx context.Context, rt ReportType, payload any, now time.Time) {
	s, ok := c.slots[rt]
	if !ok {
		return
	}

	s.mu.Lock()
	s.payload = payload
	s.lastUpdated = now
	s.mu.Unlock()

	if c.store == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("snapshot serialization failed, cache continues in memory",
			logger.ReportType(rt.String()), logger.Err(err))
		return
	}

	snap := Snapshot{
		ID:          uuid.New().String(),
		Type:        rt,
		Payload:     data,
		LastUpdated: now,
	}
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.Warn("snapshot persistence failed, cache continues in memory",
			logger.ReportType(rt.String()), logger.Err(err))
	}
}

// Invalidate resets the named slots to empty. Invalidating an already
// empty slot is a no-op, so the operation is idempotent.
func (c *ReportCache) Invalidate(types ...ReportType) {
	for _, rt := range types {
		s, ok := c.slots[rt]
		if !ok {
			continue
		}
		s.mu.Lock()
		s.payload = nil
		s.lastUpdated = time.Time{}
		s.mu.Unlock()
	}
}

// InvalidateAll resets every slot.
func (c *ReportCache) InvalidateAll() {
	c.Invalidate(AllReportTypes()...)
}

// Rehydrate loads persisted snapshots into the slots at startup. A missing
// or corrupt snapshot leaves its slot empty: rehydration never fails the
// process. Decoders map each report type's raw payload back to the typed
// value its slot holds.
func (c *ReportCache) Rehydrate(ctx context.Context, decoders map[ReportType]DecodeFunc) {
	if c.store == nil {
		return
	}

	for rt, s := range c.slots {
		snap, err := c.store.Load(ctx, rt)
		if err != nil {
			if !errors.Is(err, ErrSnapshotNotFound) {
				c.logger.Warn("snapshot load failed, slot starts empty",
					logger.ReportType(rt.String()), logger.Err(err))
			}
			continue
		}

		decode, ok := decoders[rt]
		if !ok {
			continue
		}

		payload, err := decode(snap.Payload)
		if err != nil {
			c.logger.Warn("snapshot corrupt, slot starts empty",
				logger.ReportType(rt.String()), logger.Err(err))
			continue
		}

		s.mu.Lock()
		s.payload = payload
		s.lastUpdated = snap.LastUpdated
		s.mu.Unlock()

		c.logger.Info("cache slot rehydrated from snapshot",
			logger.ReportType(rt.String()),
			logger.Time("last_updated", snap.LastUpdated))
	}
}
