package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/entropy"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/scoring"
	"github.com/talgya/warfront/internal/world"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var testDivisions = []career.Division{
	{Code: "INF", Name: "Line Infantry", Unit: "1st Rifle Company", Position: "Rifleman", MinTier: 1, QuotaTotal: 4, CooldownDays: 5,
		Weights: career.Weights{Tactical: 3, Resilience: 2}},
	{Code: "MED", Name: "Medical Corps", Unit: "Field Hospital", Position: "Medic", MinTier: 2, QuotaTotal: 3, CooldownDays: 5,
		Weights: career.Weights{Support: 3, Intelligence: 2}},
}

func testWorld(id string) *world.State {
	until := t0.Add(24 * time.Hour)
	return &world.State{
		WorldID:            id,
		StateVersion:       5,
		LastTickAt:         t0,
		SessionActiveUntil: &until,
		TimeScale:          1,
		CurrentDay:         3,
		NextRaidDay:        1000,
		Player:             world.Player{Money: 1000, Morale: 60, Health: 100, CommandAuthority: 50},
		Governance:         world.Governance{NationalStability: 70, MilitaryStability: 70, Corruption: 10},
	}
}

func calmNPC(worldID string, slot int) *npc.NPC {
	n := npc.NewNameRoster().Recruit(worldID, slot, 1)
	n.Traits.Fatigue = 10
	n.Traits.Trauma = 5
	n.Traits.Loyalty = 80
	return n
}

func newTestTicker(store Store, src entropy.Source) *Ticker {
	return NewTicker(store, career.NewPlanner(testDivisions), npc.NewNameRoster(),
		scoring.NewNoise(src), NewController(240), DefaultConfig())
}

func TestDayGain(t *testing.T) {
	assert.Equal(t, 2, DayGain(9000*time.Millisecond, 1, 4000))
	assert.Equal(t, 0, DayGain(3999*time.Millisecond, 1, 4000))
	assert.Equal(t, 1, DayGain(4000*time.Millisecond, 1, 4000))
	assert.Equal(t, 3, DayGain(4000*time.Millisecond, 3, 4000), "time scale 3")
	assert.Equal(t, MaxDayGain, DayGain(time.Hour, 1, 4000))
	assert.Equal(t, 0, DayGain(-time.Second, 1, 4000))
	assert.Equal(t, 1, DayGain(4000*time.Millisecond, 0, 4000), "zero scale counts as 1")
}

func TestRunWorldTickUnknownWorld(t *testing.T) {
	tk := newTestTicker(newMemStore(), entropy.Fixed(0.99))
	res, err := tk.RunWorldTick(context.Background(), "missing", t0, Options{})
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Nil(t, res.Delta)
}

func TestRunWorldTickNoOpBeforeOneDay(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("w1"), calmNPC("w1", 1))
	tk := newTestTicker(store, entropy.Fixed(0.99))

	res, err := tk.RunWorldTick(context.Background(), "w1", t0.Add(3999*time.Millisecond), Options{})
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, int64(5), res.Snapshot.World.StateVersion)
	assert.Equal(t, 3, store.world("w1").CurrentDay)
	assert.Empty(t, store.deltas("w1"))
}

func TestRunWorldTickAdvancesExactlyOnce(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("w1"), calmNPC("w1", 1), calmNPC("w1", 2))
	tk := newTestTicker(store, entropy.Fixed(0.99))
	now := t0.Add(9000 * time.Millisecond)

	res, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
	require.NoError(t, err)
	require.True(t, res.Advanced)
	require.NotNil(t, res.Delta)

	w := store.world("w1")
	assert.Equal(t, 5, w.CurrentDay, "9000ms at 4000ms/day is two days")
	assert.Equal(t, int64(6), w.StateVersion)
	assert.Equal(t, t0.Add(8000*time.Millisecond), w.LastTickAt, "fractional day carries over")

	deltas := store.deltas("w1")
	require.Len(t, deltas, 1)
	assert.Equal(t, int64(5), deltas[0].FromVersion)
	assert.Equal(t, int64(6), deltas[0].ToVersion)
	assert.Equal(t, 2, deltas[0].DayGain)
	assert.Len(t, deltas[0].ChangedNPCs, 2)
	assert.Equal(t, int64(6), res.Snapshot.World.StateVersion)

	// Same wall clock again: nothing is due.
	res, err = tk.RunWorldTick(context.Background(), "w1", now, Options{})
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Len(t, store.deltas("w1"), 1)
	assert.Equal(t, int64(6), store.world("w1").StateVersion)
}

func TestRunWorldTickResetsClockWhenCapped(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("w1"), calmNPC("w1", 1))
	tk := newTestTicker(store, entropy.Fixed(0.99))
	now := t0.Add(time.Hour)

	_, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
	require.NoError(t, err)
	w := store.world("w1")
	assert.Equal(t, 3+MaxDayGain, w.CurrentDay)
	assert.Equal(t, now, w.LastTickAt)
}

func TestRunWorldTickHonoursBudget(t *testing.T) {
	store := newMemStore()
	var npcs []*npc.NPC
	for slot := 1; slot <= 10; slot++ {
		npcs = append(npcs, calmNPC("w1", slot))
	}
	store.addWorld(testWorld("w1"), npcs...)
	tk := newTestTicker(store, entropy.Fixed(0.99))

	res, err := tk.RunWorldTick(context.Background(), "w1", t0.Add(4*time.Second), Options{MaxNPCOps: 4})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Delta.ChangedNPCs), 4)
	for _, n := range res.Delta.ChangedNPCs {
		assert.LessOrEqual(t, n.SlotNo, 4)
	}
}

func TestRunWorldTickKillsAndReplaces(t *testing.T) {
	store := newMemStore()
	w := testWorld("w1")
	w.Mission = &world.Mission{MissionID: "m1", Status: world.MissionActive, Danger: world.DangerMedium}
	doomed := calmNPC("w1", 1)
	doomed.Traits.Fatigue = 100
	doomed.Traits.Trauma = 100
	store.addWorld(w, doomed, calmNPC("w1", 2))
	tk := newTestTicker(store, entropy.Fixed(0.99))

	now := t0.Add(4 * time.Second)
	_, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
	require.NoError(t, err)

	dead := store.npc(doomed.NpcID)
	require.Equal(t, npc.StatusKIA, dead.Status)
	require.NotNil(t, dead.DeathDay)
	assert.Equal(t, 4, *dead.DeathDay)
	require.Len(t, store.eventsOfKind(effects.KindKIA), 1)

	require.Len(t, store.data.queue, 1)
	q := store.data.queue[0]
	assert.Equal(t, 1, q.SlotNo)
	assert.Equal(t, 2, q.Generation)
	assert.GreaterOrEqual(t, q.DueDay, 6)
	assert.LessOrEqual(t, q.DueDay, 11)

	// Advance until the replacement is due; the dead NPC never revives.
	for store.world("w1").CurrentDay < q.DueDay {
		now = now.Add(4 * time.Second)
		_, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
		require.NoError(t, err)
		assert.Equal(t, npc.StatusKIA, store.npc(doomed.NpcID).Status)
	}

	current := store.currentNPCs("w1")
	var occupant *npc.NPC
	for _, n := range current {
		if n.SlotNo == 1 {
			occupant = n
		}
	}
	require.NotNil(t, occupant)
	assert.Equal(t, 2, occupant.Generation)
	assert.NotEqual(t, doomed.NpcID, occupant.NpcID)
	assert.False(t, store.data.current[doomed.NpcID])
	assert.Equal(t, effects.QueueFulfilled, store.data.queue[0].Status)
	assert.Equal(t, occupant.NpcID, store.data.queue[0].FulfilledNpcID)
	assert.NotEmpty(t, store.eventsOfKind(effects.KindReplacementJoined))
}

func TestResolveHealthInjuryScenario(t *testing.T) {
	w := testWorld("w1")
	n := calmNPC("w1", 1)
	n.Status = npc.StatusActive
	n.Traits.Fatigue = 90
	n.Traits.Trauma = 85
	s := newTickState(&Frame{World: w, NPCs: []*npc.NPC{n}}, 4, 1)

	injury := scoring.InjuryRisk(90, 85, 0, 0, 0)
	kia := scoring.KIARisk(90, 85, 0, 0, 0)
	require.Equal(t, 87.5, injury)
	s.resolveHealth(n, injury, kia, 0)

	assert.Equal(t, npc.StatusInjured, n.Status)
	require.Len(t, s.batch.Lifecycle, 1)
	e := s.batch.Lifecycle[0]
	assert.Equal(t, effects.KindDisciplinary, e.Kind)
	assert.Equal(t, "INJURY", e.Meta["type"])
}

func TestResolveHealthRecovery(t *testing.T) {
	n := calmNPC("w1", 1)
	n.Status = npc.StatusInjured
	n.Traits.Fatigue = 45
	n.Traits.Trauma = 35
	s := newTickState(&Frame{World: testWorld("w1"), NPCs: []*npc.NPC{n}}, 4, 1)

	s.resolveHealth(n, 10, 10, 0)
	assert.Equal(t, npc.StatusActive, n.Status)
	assert.True(t, s.batch.HasKind(n.NpcID, effects.KindRecovery))
}

func TestConductOpensOneCase(t *testing.T) {
	n := calmNPC("w1", 1)
	n.Traits.BetrayalRisk = 90
	s := newTickState(&Frame{World: testWorld("w1"), NPCs: []*npc.NPC{n}}, 4, 1)

	s.checkConduct(n)
	s.checkConduct(n)
	require.Len(t, s.batch.CourtCases, 1)
	assert.Equal(t, "BETRAYAL", s.batch.CourtCases[0].Reason)
	require.Len(t, s.batch.Mailbox, 1)
	assert.Equal(t, "COURT", s.batch.Mailbox[0].Category)

	other := calmNPC("w1", 2)
	other.Traits.IntegrityRisk = 88
	s2 := newTickState(&Frame{World: testWorld("w1"), OpenCases: map[string]bool{other.NpcID: true}}, 4, 1)
	s2.checkConduct(other)
	assert.Empty(t, s2.batch.CourtCases, "an open case suppresses another")
}

func TestOverdueOrdersAreBreached(t *testing.T) {
	store := newMemStore()
	target := calmNPC("w1", 1)
	store.addWorld(testWorld("w1"), target)
	store.data.orders = []world.CommandOrder{
		{OrderID: "o1", WorldID: "w1", TargetNpcID: target.NpcID, Title: "Hold the ridge", Priority: world.PriorityCritical, AckDeadlineDay: 2, Status: world.OrderPending},
		{OrderID: "o2", WorldID: "w1", Title: "File reports", Priority: world.PriorityLow, AckDeadlineDay: 10, Status: world.OrderPending},
	}
	tk := newTestTicker(store, entropy.Fixed(0.99))

	_, err := tk.RunWorldTick(context.Background(), "w1", t0.Add(4*time.Second), Options{})
	require.NoError(t, err)

	assert.Equal(t, world.OrderBreached, store.data.orders[0].Status)
	assert.Equal(t, world.OrderPending, store.data.orders[1].Status)

	w := store.world("w1")
	assert.InDelta(t, 70-0.8*4, w.Governance.MilitaryStability, 1e-9)
	assert.InDelta(t, 10+0.5*4, w.Governance.Corruption, 1e-9)

	var breach bool
	for _, c := range store.data.cases {
		if c.NpcID == target.NpcID && c.Reason == "COMMAND_BREACH" {
			breach = true
		}
	}
	assert.True(t, breach, "critical breach opens a case against the target")
}

func TestRaidSchedulesAndStrikes(t *testing.T) {
	store := newMemStore()
	w := testWorld("w1")
	w.NextRaidDay = 0
	var npcs []*npc.NPC
	for slot := 1; slot <= 6; slot++ {
		npcs = append(npcs, calmNPC("w1", slot))
	}
	store.addWorld(w, npcs...)
	tk := newTestTicker(store, entropy.Fixed(0.99))

	now := t0.Add(4 * time.Second)
	_, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
	require.NoError(t, err)
	first := store.world("w1").NextRaidDay
	require.Greater(t, first, 4, "first tick only schedules")
	assert.Empty(t, store.eventsOfKind(effects.KindKIA))

	for store.world("w1").CurrentDay < first {
		now = now.Add(4 * time.Second)
		_, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
		require.NoError(t, err)
	}

	raidDeaths := 0
	for _, e := range store.eventsOfKind(effects.KindKIA) {
		if e.Meta["cause"] == "RAID" {
			raidDeaths++
		}
	}
	assert.GreaterOrEqual(t, raidDeaths, 1)
	assert.LessOrEqual(t, raidDeaths, maxRaidCasualties)
	assert.Greater(t, store.world("w1").NextRaidDay, first)
}

func TestCeremonyOncePerCycle(t *testing.T) {
	store := newMemStore()
	w := testWorld("w1")
	w.CurrentDay = 14
	var npcs []*npc.NPC
	for slot := 1; slot <= 7; slot++ {
		npcs = append(npcs, calmNPC("w1", slot))
	}
	store.addWorld(w, npcs...)
	tk := newTestTicker(store, entropy.Fixed(0.99))

	now := t0.Add(4 * time.Second)
	res, err := tk.RunWorldTick(context.Background(), "w1", now, Options{})
	require.NoError(t, err)
	require.Len(t, store.data.ceremonies, 1)
	c := store.data.ceremonies[0]
	assert.Equal(t, 1, c.Cycle)
	assert.Len(t, c.Awards, 5)
	assert.Equal(t, 1, c.Awards[0].Place)
	assert.GreaterOrEqual(t, c.Awards[0].Score, c.Awards[4].Score)
	require.NotNil(t, res.Delta.PendingCeremony)

	_, err = tk.RunWorldTick(context.Background(), "w1", now.Add(4*time.Second), Options{})
	require.NoError(t, err)
	assert.Len(t, store.data.ceremonies, 1)
}

func TestDuplicateNamesAreSuffixed(t *testing.T) {
	store := newMemStore()
	a, b := calmNPC("w1", 1), calmNPC("w1", 2)
	b.Name = a.Name
	store.addWorld(testWorld("w1"), a, b)
	tk := newTestTicker(store, entropy.Fixed(0.99))

	_, err := tk.RunWorldTick(context.Background(), "w1", t0.Add(4*time.Second), Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Name, store.npc(a.NpcID).Name)
	assert.Equal(t, a.Name+" #2", store.npc(b.NpcID).Name)

	_, err = tk.RunWorldTick(context.Background(), "w1", t0.Add(8*time.Second), Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Name+" #2", store.npc(b.NpcID).Name)
	assert.Len(t, store.eventsOfKind(effects.KindRename), 1)
}

func TestSaveErrorLeavesWorldUntouched(t *testing.T) {
	store := newMemStore()
	store.addWorld(testWorld("w1"), calmNPC("w1", 1))
	store.failSave["w1"] = errors.New("disk full")
	tk := newTestTicker(store, entropy.Fixed(0.99))

	_, err := tk.RunWorldTick(context.Background(), "w1", t0.Add(4*time.Second), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, int64(5), store.world("w1").StateVersion)
	assert.Equal(t, 1, store.rollbacks)
}
