package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/warfront/internal/entropy"
)

// scriptedClock returns the given offsets from t0 in order, then repeats the last.
func scriptedClock(offsets ...time.Duration) func() time.Time {
	i := 0
	return func() time.Time {
		d := offsets[len(offsets)-1]
		if i < len(offsets) {
			d = offsets[i]
			i++
		}
		return t0.Add(d)
	}
}

func newTestScheduler(store *memStore, ctrl *Controller, batchCap int) *Scheduler {
	tk := newTestTicker(store, entropy.Fixed(0.99))
	tk.ctrl = ctrl
	return NewScheduler(store, tk, ctrl, batchCap)
}

func TestControllerBounds(t *testing.T) {
	c := NewController(240)
	assert.Equal(t, 120, c.Budget())

	for i := 0; i < 50; i++ {
		c.ObserveWorld(time.Second)
	}
	assert.Equal(t, 64, c.Budget(), "budget floors at 64")

	for i := 0; i < 100; i++ {
		c.ObserveWorld(time.Millisecond)
	}
	assert.Equal(t, 240, c.Budget(), "budget caps at the configured maximum")

	c.ObserveWorld(100 * time.Millisecond)
	assert.Equal(t, 240, c.Budget(), "mid-range ticks leave the budget alone")

	small := NewController(40)
	assert.Equal(t, 40, small.Budget())
	small.ObserveWorld(time.Second)
	assert.Equal(t, 40, small.Budget())

	assert.Equal(t, 120, NewController(0).Budget())
}

func TestControllerBatchPressure(t *testing.T) {
	c := NewController(240)

	assert.Equal(t, PressureHigh, c.ObserveBatch(250*time.Millisecond))
	assert.Equal(t, 112, c.Budget())

	assert.Equal(t, PressureMedium, c.ObserveBatch(150*time.Millisecond))
	assert.Equal(t, 112, c.Budget())

	assert.Equal(t, PressureLow, c.ObserveBatch(30*time.Millisecond))
	assert.Equal(t, 116, c.Budget())

	m := c.Metrics()
	assert.Equal(t, 116, m.AdaptiveBudget)
	assert.Equal(t, int64(30), m.LastSchedulerDurationMs)
	assert.Equal(t, PressureLow, m.TickPressure)
}

func TestSchedulerSlowWorldShrinksBudget(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("w1"), calmNPC("w1", 1))
	ctrl := NewController(240)
	s := newTestScheduler(store, ctrl, 0)
	s.Clock = scriptedClock(0, 0, 200*time.Millisecond, 200*time.Millisecond)

	n, err := s.RunSchedulerTick(context.Background(), t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m := s.Metrics()
	assert.Equal(t, 110, m.AdaptiveBudget)
	assert.Equal(t, PressureMedium, m.TickPressure)
	assert.Equal(t, int64(200), m.LastSchedulerDurationMs)
}

func TestSchedulerAdvancesDueWorldsOnly(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("due-a"), calmNPC("due-a", 1))
	store.addWorld(testWorld("due-b"), calmNPC("due-b", 1))

	fresh := testWorld("fresh")
	fresh.LastTickAt = t0.Add(3 * time.Second)
	store.addWorld(fresh, calmNPC("fresh", 1))

	expired := testWorld("expired")
	past := t0.Add(-time.Minute)
	expired.SessionActiveUntil = &past
	store.addWorld(expired, calmNPC("expired", 1))

	s := newTestScheduler(store, NewController(240), 0)
	n, err := s.RunSchedulerTick(context.Background(), t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, store.batches, "one transaction for the whole batch")

	assert.Equal(t, 4, store.world("due-a").CurrentDay)
	assert.Equal(t, 4, store.world("due-b").CurrentDay)
	assert.Equal(t, 3, store.world("fresh").CurrentDay)
	assert.Equal(t, 3, store.world("expired").CurrentDay)
}

func TestSchedulerRespectsBatchCap(t *testing.T) {
	store := newMemStore()
	for _, id := range []string{"w1", "w2", "w3"} {
		store.addWorld(testWorld(id), calmNPC(id, 1))
	}
	s := newTestScheduler(store, NewController(240), 2)

	n, err := s.RunSchedulerTick(context.Background(), t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, store.world("w3").CurrentDay, "ties on last tick go to world id order")

	n, err = s.RunSchedulerTick(context.Background(), t0.Add(4*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, store.world("w3").CurrentDay)
}

func TestSchedulerClaimsOnlyWhenADayIsGained(t *testing.T) {
	store := newMemStore()
	w := testWorld("fast")
	w.TimeScale = 3
	store.addWorld(w, calmNPC("fast", 1))
	s := newTestScheduler(store, NewController(240), 0)

	n, err := s.RunSchedulerTick(context.Background(), t0.Add(1333*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.RunSchedulerTick(context.Background(), t0.Add(1334*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, store.world("fast").CurrentDay)
}

func TestSchedulerRollsBackWholeBatch(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("w1"), calmNPC("w1", 1))
	store.addWorld(testWorld("w2"), calmNPC("w2", 1))
	store.failSave["w2"] = errors.New("constraint violation")
	ctrl := NewController(240)
	s := newTestScheduler(store, ctrl, 0)

	n, err := s.RunSchedulerTick(context.Background(), t0.Add(4*time.Second))
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.Contains(t, err.Error(), "tick world w2")

	assert.Equal(t, int64(5), store.world("w1").StateVersion)
	assert.Equal(t, 3, store.world("w1").CurrentDay)
	assert.Empty(t, store.deltas("w1"))
	assert.Empty(t, store.data.events)
	assert.Equal(t, 1, store.rollbacks)
	assert.Equal(t, 120, ctrl.Budget(), "a failed batch is not observed")
}

func TestPlannerBudget(t *testing.T) {
	assert.Equal(t, 8, plannerBudget(10))
	assert.Equal(t, 30, plannerBudget(120))
	assert.Equal(t, 48, plannerBudget(240))
}

func TestNextTickAt(t *testing.T) {
	last := t0
	assert.Equal(t, last.Add(8*time.Second), nextTickAt(last, t0.Add(9*time.Second), 2, 1, 4000))
	assert.Equal(t, last.Add(2*time.Second), nextTickAt(last, t0.Add(2500*time.Millisecond), 1, 2, 4000))
	now := t0.Add(time.Hour)
	assert.Equal(t, now, nextTickAt(last, now, MaxDayGain, 1, 4000))
}

func TestTickerBudgetPrefersExplicitOption(t *testing.T) {
	ctrl := NewController(240)
	tk := newTestTicker(newMemStore(), entropy.Fixed(0.99))
	tk.ctrl = ctrl

	assert.Equal(t, 120, tk.budget(Options{}))
	assert.Equal(t, 10, tk.budget(Options{MaxNPCOps: 10}))
	assert.Equal(t, 240, tk.budget(Options{MaxNPCOps: 1000}), "hard cap")
}
