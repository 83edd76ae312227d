package engine

import (
	"sort"
	"time"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/world"
)

// Planner sub-budget bounds.
const (
	minPlannerBudget = 8
	maxPlannerBudget = 48
)

// tickState is the working set of one world tick.
type tickState struct {
	frame    *Frame
	world    *world.State
	day      int
	gain     int
	pressure float64
	batch    *effects.Batch

	gov       world.Governance // accumulated, applied once at the end
	npcs      []*npc.NPC       // current occupants in lock order
	changed   map[string]*npc.NPC
	recruits  []*npc.NPC
	retired   []string
	queue     []effects.ReplacementQueueItem
	openCases map[string]bool
	orders    []world.CommandOrder
	ceremony  *effects.Ceremony
	kiaToday  int
}

func newTickState(f *Frame, day, gain int) *tickState {
	open := make(map[string]bool, len(f.OpenCases))
	for id, v := range f.OpenCases {
		open[id] = v
	}
	return &tickState{
		frame:     f,
		world:     f.World,
		day:       day,
		gain:      gain,
		pressure:  f.World.Mission.Pressure(),
		batch:     effects.NewBatch(f.World.WorldID, day),
		npcs:      append([]*npc.NPC(nil), f.NPCs...),
		changed:   make(map[string]*npc.NPC),
		queue:     append([]effects.ReplacementQueueItem(nil), f.Queue...),
		openCases: open,
	}
}

func (s *tickState) touch(n *npc.NPC) {
	s.changed[n.NpcID] = n
}

// plannerBudget is a quarter of the tick budget, clamped to [8, 48].
func plannerBudget(budget int) int {
	b := budget / 4
	if b < minPlannerBudget {
		return minPlannerBudget
	}
	if b > maxPlannerBudget {
		return maxPlannerBudget
	}
	return b
}

// nextTickAt carries the unused fraction of a day forward, except when the
// gain was capped: a dormant world restarts its clock at now.
func nextTickAt(last, now time.Time, gain, timeScale int, msPerDay int64) time.Time {
	if gain >= MaxDayGain {
		return now
	}
	if timeScale <= 0 {
		timeScale = 1
	}
	step := time.Duration(int64(gain)*msPerDay/int64(timeScale)) * time.Millisecond
	return last.Add(step)
}

// advance applies gain days to the loaded frame. It performs no I/O.
func (t *Ticker) advance(f *Frame, gain, budget int, now time.Time) *Outcome {
	w := f.World
	prevPlayer := w.Player
	prevVersion := w.StateVersion

	day := w.CurrentDay + gain
	w.LastTickAt = nextTickAt(w.LastTickAt, now, gain, w.TimeScale, t.cfg.MsPerDay)
	w.CurrentDay = day

	s := newTickState(f, day, gain)

	applyEconomy(&w.Player, gain, s.pressure)
	s.dedupeNames()
	s.evolveAll(t.noise)
	s.fulfillReplacements(t.roster)

	book := career.NewBook(w.WorldID, f.Plans, f.Applications, f.Quotas)
	t.planner.Run(book, s.npcs, day, plannerBudget(budget), s.batch)
	for _, n := range book.ChangedNPCs() {
		s.touch(n)
	}

	s.resolveOrders()
	s.raid()
	s.ceremonyCycle()

	w.Governance.Add(s.gov)
	w.StateVersion++

	out := &Outcome{
		World:        w,
		Recruits:     s.recruits,
		Retired:      s.retired,
		Plans:        book.DirtyPlans(),
		Applications: book.DirtyApplications(),
		Quotas:       book.DirtyQuotas(),
		Orders:       s.orders,
		Effects:      s.batch,
		PrevVersion:  prevVersion,
		Retention:    t.cfg.DeltaRetention,
	}
	recruited := make(map[string]bool, len(s.recruits))
	for _, r := range s.recruits {
		recruited[r.NpcID] = true
	}
	for _, n := range s.changedList() {
		if !recruited[n.NpcID] {
			out.NPCs = append(out.NPCs, n)
		}
	}
	out.Delta = s.buildDelta(prevPlayer, prevVersion, now)
	return out
}

// changedList returns changed NPCs ordered by slot and generation.
func (s *tickState) changedList() []*npc.NPC {
	list := make([]*npc.NPC, 0, len(s.changed))
	for _, n := range s.changed {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SlotNo != list[j].SlotNo {
			return list[i].SlotNo < list[j].SlotNo
		}
		return list[i].Generation < list[j].Generation
	})
	return list
}

func (s *tickState) buildDelta(prev world.Player, prevVersion int64, now time.Time) world.Delta {
	w := s.world
	changed := s.changedList()
	npcs := make([]*npc.NPC, len(changed))
	for i, n := range changed {
		npcs[i] = n.Clone()
	}

	events := s.batch.Lifecycle
	if len(events) > world.MaxDeltaRows {
		events = events[len(events)-world.MaxDeltaRows:]
	}
	queue := append(append([]effects.ReplacementQueueItem(nil), s.queue...), s.batch.Fulfilled...)
	if len(queue) > world.MaxDeltaRows {
		queue = queue[len(queue)-world.MaxDeltaRows:]
	}

	var mission *world.Mission
	if w.Mission != nil {
		m := *w.Mission
		mission = &m
	}

	return world.Delta{
		WorldID:         w.WorldID,
		FromVersion:     prevVersion,
		ToVersion:       w.StateVersion,
		Day:             s.day,
		DayGain:         s.gain,
		CreatedAt:       now,
		Player:          w.Player,
		PlayerChange:    world.Diff(prev, w.Player),
		Governance:      w.Governance,
		ChangedNPCs:     npcs,
		ActiveMission:   mission,
		PendingCeremony: s.ceremony,
		Queue:           queue,
		RecentEvents:    append([]effects.LifecycleEvent(nil), events...),
	}
}

// dedupeNames resolves accidental display name collisions.
func (s *tickState) dedupeNames() {
	for _, n := range npc.DedupeNames(s.npcs) {
		s.touch(n)
		s.batch.Event(n.NpcID, effects.KindRename, "display name disambiguated to "+n.Name,
			map[string]any{"name": n.Name, "slot_no": n.SlotNo})
	}
}
