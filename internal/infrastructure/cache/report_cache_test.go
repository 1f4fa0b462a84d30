package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory SnapshotStore that can be told to fail.
type fakeStore struct {
	mu        sync.Mutex
	snapshots map[ReportType]Snapshot
	saveErr   error
	loadErr   error
	saves     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{snapshots: make(map[ReportType]Snapshot)}
}

func (f *fakeStore) Save(_ context.Context, snap Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.snapshots[snap.Type] = snap
	return nil
}

func (f *fakeStore) Load(_ context.Context, rt ReportType) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	snap, ok := f.snapshots[rt]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return &snap, nil
}

type testPayload struct {
	Value string `json:"value"`
}

func testDecoders() map[ReportType]DecodeFunc {
	decode := func(data []byte) (any, error) {
		var p testPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	return map[ReportType]DecodeFunc{
		ReportMonthly:     decode,
		ReportYearly:      decode,
		ReportNominations: decode,
	}
}

var t0 = time.Date(2025, 4, 15, 12, 0, 0, 0, time.UTC)

func TestReportCache_PutThenGet(t *testing.T) {
	c := New(nil, DefaultThresholds(), nil)
	payload := &testPayload{Value: "standings"}

	c.Put(context.Background(), ReportMonthly, payload, t0)

	got, ok := c.Get(ReportMonthly, t0.Add(time.Minute))
	require.True(t, ok)
	assert.Same(t, payload, got)
}

func TestReportCache_EmptySlotMisses(t *testing.T) {
	c := New(nil, DefaultThresholds(), nil)

	_, ok := c.Get(ReportMonthly, t0)
	assert.False(t, ok)
}

func TestReportCache_ExpiresAtThreshold(t *testing.T) {
	c := New(nil, DefaultThresholds(), nil)
	c.Put(context.Background(), ReportMonthly, &testPayload{Value: "v"}, t0)

	_, ok := c.Get(ReportMonthly, t0.Add(15*time.Minute-time.Second))
	assert.True(t, ok)

	// Age equal to the threshold is already stale.
	_, ok = c.Get(ReportMonthly, t0.Add(15*time.Minute))
	assert.False(t, ok)
}

func TestReportCache_PerTypeThresholds(t *testing.T) {
	c := New(nil, DefaultThresholds(), nil)
	ctx := context.Background()
	c.Put(ctx, ReportYearly, &testPayload{Value: "y"}, t0)
	c.Put(ctx, ReportNominations, &testPayload{Value: "n"}, t0)

	at := t0.Add(20 * time.Minute)

	_, ok := c.Get(ReportYearly, at)
	assert.True(t, ok, "yearly slot stays fresh for 30 minutes")

	_, ok = c.Get(ReportNominations, at)
	assert.False(t, ok, "nominations slot expires after 10 minutes")
}

func TestReportCache_InvalidateIsScopedAndIdempotent(t *testing.T) {
	c := New(nil, DefaultThresholds(), nil)
	ctx := context.Background()
	c.Put(ctx, ReportMonthly, &testPayload{Value: "m"}, t0)
	c.Put(ctx, ReportNominations, &testPayload{Value: "n"}, t0)

	c.Invalidate(ReportMonthly)
	c.Invalidate(ReportMonthly) // second invalidation is a no-op

	_, ok := c.Get(ReportMonthly, t0)
	assert.False(t, ok)

	_, ok = c.Get(ReportNominations, t0)
	assert.True(t, ok)
}

func TestReportCache_InvalidateAll(t *testing.T) {
	c := New(nil, DefaultThresholds(), nil)
	ctx := context.Background()
	for _, rt := range AllReportTypes() {
		c.Put(ctx, rt, &testPayload{Value: rt.String()}, t0)
	}

	c.InvalidateAll()

	for _, rt := range AllReportTypes() {
		_, ok := c.Get(rt, t0)
		assert.False(t, ok, rt.String())
	}
}

func TestReportCache_PutWritesThroughToStore(t *testing.T) {
	store := newFakeStore()
	c := New(store, DefaultThresholds(), nil)

	c.Put(context.Background(), ReportMonthly, &testPayload{Value: "m"}, t0)

	snap, err := store.Load(context.Background(), ReportMonthly)
	require.NoError(t, err)
	assert.Equal(t, ReportMonthly, snap.Type)
	assert.Equal(t, t0, snap.LastUpdated)
	assert.NotEmpty(t, snap.ID)
	assert.JSONEq(t, `{"value":"m"}`, string(snap.Payload))
}

func TestReportCache_StoreFailureKeepsMemorySlot(t *testing.T) {
	store := newFakeStore()
	store.saveErr = errors.New("disk full")
	c := New(store, DefaultThresholds(), nil)

	c.Put(context.Background(), ReportMonthly, &testPayload{Value: "m"}, t0)

	got, ok := c.Get(ReportMonthly, t0.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, "m", got.(*testPayload).Value)
}

func TestReportCache_Rehydrate(t *testing.T) {
	store := newFakeStore()
	warm := New(store, DefaultThresholds(), nil)
	warm.Put(context.Background(), ReportYearly, &testPayload{Value: "standings"}, t0)

	// Fresh cache, same store: simulates a restart.
	c := New(store, DefaultThresholds(), nil)
	c.Rehydrate(context.Background(), testDecoders())

	got, ok := c.Get(ReportYearly, t0.Add(time.Minute))
	require.True(t, ok)
	assert.Equal(t, "standings", got.(*testPayload).Value)

	// The rehydrated stamp still governs freshness.
	_, ok = c.Get(ReportYearly, t0.Add(time.Hour))
	assert.False(t, ok)
}

func TestReportCache_RehydrateCorruptSnapshotLeavesSlotEmpty(t *testing.T) {
	store := newFakeStore()
	store.snapshots[ReportMonthly] = Snapshot{
		ID:          "snap-1",
		Type:        ReportMonthly,
		Payload:     json.RawMessage(`{not json`),
		LastUpdated: t0,
	}

	c := New(store, DefaultThresholds(), nil)
	c.Rehydrate(context.Background(), testDecoders())

	_, ok := c.Get(ReportMonthly, t0)
	assert.False(t, ok)
}

func TestReportCache_RehydrateStoreFailureLeavesSlotsEmpty(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("redis down")

	c := New(store, DefaultThresholds(), nil)
	c.Rehydrate(context.Background(), testDecoders())

	for _, rt := range AllReportTypes() {
		_, ok := c.Get(rt, t0)
		assert.False(t, ok, rt.String())
	}
}

// Hammers one slot from many goroutines. Run with -race; a Get must only
// ever observe a payload that some Put stored whole.
func TestReportCache_ConcurrentSameSlotAccess(t *testing.T) {
	c := New(newFakeStore(), DefaultThresholds(), nil)

	const workers = 16
	const iterations = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				if w%2 == 0 {
					c.Put(context.Background(), ReportMonthly, &testPayload{Value: "standings"}, t0)
				} else if payload, ok := c.Get(ReportMonthly, t0.Add(time.Minute)); ok {
					p, isPayload := payload.(*testPayload)
					if assert.True(t, isPayload) {
						assert.Equal(t, "standings", p.Value)
					}
				}
				if i%10 == 0 {
					c.Invalidate(ReportMonthly)
				}
			}
		}(w)
	}
	wg.Wait()
}
