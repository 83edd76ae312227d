package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/world"
)

// memData is the committed contents of a memStore.
type memData struct {
	worlds      map[string]*world.State
	npcs        map[string]*npc.NPC
	current     map[string]bool
	plans       map[string]*career.Plan
	apps        map[string]*career.Application
	quotas      map[string]map[string]*career.Quota
	queue       []effects.ReplacementQueueItem
	orders      []world.CommandOrder
	cases       []effects.CourtCase
	ceremonies  []effects.Ceremony
	events      []effects.LifecycleEvent
	mail        []effects.MailboxMessage
	assignments []effects.AssignmentHistory
	deltas      []world.Delta
}

func newMemData() *memData {
	return &memData{
		worlds:  make(map[string]*world.State),
		npcs:    make(map[string]*npc.NPC),
		current: make(map[string]bool),
		plans:   make(map[string]*career.Plan),
		apps:    make(map[string]*career.Application),
		quotas:  make(map[string]map[string]*career.Quota),
	}
}

func cloneWorld(w *world.State) *world.State {
	c := *w
	if w.SessionActiveUntil != nil {
		t := *w.SessionActiveUntil
		c.SessionActiveUntil = &t
	}
	if w.Mission != nil {
		m := *w.Mission
		c.Mission = &m
	}
	return &c
}

func clonePlan(p *career.Plan) *career.Plan {
	c := *p
	if p.AcademyTimer != nil {
		t := *p.AcademyTimer
		c.AcademyTimer = &t
	}
	return &c
}

func cloneApp(a *career.Application) *career.Application {
	c := *a
	return &c
}

func (d *memData) clone() *memData {
	c := newMemData()
	for k, v := range d.worlds {
		c.worlds[k] = cloneWorld(v)
	}
	for k, v := range d.npcs {
		c.npcs[k] = v.Clone()
	}
	for k, v := range d.current {
		c.current[k] = v
	}
	for k, v := range d.plans {
		c.plans[k] = clonePlan(v)
	}
	for k, v := range d.apps {
		c.apps[k] = cloneApp(v)
	}
	for w, qs := range d.quotas {
		c.quotas[w] = make(map[string]*career.Quota, len(qs))
		for k, q := range qs {
			cq := *q
			c.quotas[w][k] = &cq
		}
	}
	c.queue = append(c.queue, d.queue...)
	c.orders = append(c.orders, d.orders...)
	c.cases = append(c.cases, d.cases...)
	c.ceremonies = append(c.ceremonies, d.ceremonies...)
	c.events = append(c.events, d.events...)
	c.mail = append(c.mail, d.mail...)
	c.assignments = append(c.assignments, d.assignments...)
	c.deltas = append(c.deltas, d.deltas...)
	return c
}

// memStore is an in-memory Store. A batch works on a copy of the data that
// replaces the committed data only when the batch succeeds.
type memStore struct {
	data      *memData
	failSave  map[string]error // world id -> error returned by Save
	batches   int
	rollbacks int
}

func newMemStore() *memStore {
	return &memStore{data: newMemData(), failSave: make(map[string]error)}
}

func (s *memStore) Batch(ctx context.Context, fn func(tx Tx) error) error {
	s.batches++
	work := s.data.clone()
	if err := fn(&memTx{store: s, d: work}); err != nil {
		s.rollbacks++
		return err
	}
	s.data = work
	return nil
}

func (s *memStore) addWorld(w *world.State, npcs ...*npc.NPC) {
	s.data.worlds[w.WorldID] = cloneWorld(w)
	for _, n := range npcs {
		s.data.npcs[n.NpcID] = n.Clone()
		s.data.current[n.NpcID] = true
	}
}

func (s *memStore) world(id string) *world.State {
	return s.data.worlds[id]
}

func (s *memStore) npc(id string) *npc.NPC {
	return s.data.npcs[id]
}

func (s *memStore) currentNPCs(worldID string) []*npc.NPC {
	var out []*npc.NPC
	for id, n := range s.data.npcs {
		if n.WorldID == worldID && s.data.current[id] {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotNo < out[j].SlotNo })
	return out
}

func (s *memStore) deltas(worldID string) []world.Delta {
	var out []world.Delta
	for _, d := range s.data.deltas {
		if d.WorldID == worldID {
			out = append(out, d)
		}
	}
	return out
}

func (s *memStore) eventsOfKind(kind effects.Kind) []effects.LifecycleEvent {
	var out []effects.LifecycleEvent
	for _, e := range s.data.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type memTx struct {
	store *memStore
	d     *memData
}

func (t *memTx) ClaimDueWorlds(ctx context.Context, now time.Time, msPerDay int64, limit int) ([]string, error) {
	var due []*world.State
	for _, w := range t.d.worlds {
		if w.SessionActiveUntil == nil || !w.SessionActiveUntil.After(now) {
			continue
		}
		scale := int64(max(w.TimeScale, 1))
		if now.Sub(w.LastTickAt).Milliseconds()*scale < msPerDay {
			continue
		}
		due = append(due, w)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].LastTickAt.Equal(due[j].LastTickAt) {
			return due[i].LastTickAt.Before(due[j].LastTickAt)
		}
		return due[i].WorldID < due[j].WorldID
	})
	var ids []string
	for _, w := range due {
		if len(ids) == limit {
			break
		}
		ids = append(ids, w.WorldID)
	}
	return ids, nil
}

func (t *memTx) LockWorld(ctx context.Context, worldID string) (*world.State, error) {
	w, ok := t.d.worlds[worldID]
	if !ok {
		return nil, ErrWorldNotFound
	}
	return cloneWorld(w), nil
}

func (t *memTx) current(worldID string) []*npc.NPC {
	var out []*npc.NPC
	for id, n := range t.d.npcs {
		if n.WorldID == worldID && t.d.current[id] {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SlotNo != out[j].SlotNo {
			return out[i].SlotNo < out[j].SlotNo
		}
		return out[i].Generation < out[j].Generation
	})
	return out
}

func (t *memTx) LockCurrentNPCs(ctx context.Context, worldID string, limit int) ([]*npc.NPC, error) {
	out := t.current(worldID)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) LockQuotas(ctx context.Context, worldID string) (map[string]*career.Quota, error) {
	out := make(map[string]*career.Quota)
	for k, q := range t.d.quotas[worldID] {
		c := *q
		out[k] = &c
	}
	return out, nil
}

func (t *memTx) LoadCareer(ctx context.Context, worldID string, npcIDs []string) (map[string]*career.Plan, map[string]*career.Application, error) {
	plans := make(map[string]*career.Plan)
	apps := make(map[string]*career.Application)
	for _, id := range npcIDs {
		p, ok := t.d.plans[id]
		if !ok {
			continue
		}
		plans[id] = clonePlan(p)
		if a, ok := t.d.apps[p.LastApplicationID]; ok {
			apps[a.ApplicationID] = cloneApp(a)
		}
	}
	return plans, apps, nil
}

func (t *memTx) PendingReplacements(ctx context.Context, worldID string) ([]effects.ReplacementQueueItem, error) {
	var out []effects.ReplacementQueueItem
	for _, q := range t.d.queue {
		if q.WorldID == worldID && q.Status == effects.QueueQueued {
			out = append(out, q)
		}
	}
	return out, nil
}

func (t *memTx) OverdueOrders(ctx context.Context, worldID string, day int) ([]world.CommandOrder, error) {
	var out []world.CommandOrder
	for _, o := range t.d.orders {
		if o.WorldID == worldID && o.Status == world.OrderPending && o.AckDeadlineDay < day {
			out = append(out, o)
		}
	}
	return out, nil
}

func (t *memTx) OpenCaseNPCs(ctx context.Context, worldID string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, c := range t.d.cases {
		if c.WorldID == worldID && c.Status == "OPEN" {
			out[c.NpcID] = true
		}
	}
	return out, nil
}

func (t *memTx) CeremonyExists(ctx context.Context, worldID string, cycle int) (bool, error) {
	for _, c := range t.d.ceremonies {
		if c.WorldID == worldID && c.Cycle == cycle {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CountKIASince(ctx context.Context, worldID string, sinceDay int) (int, error) {
	n := 0
	for _, e := range t.d.events {
		if e.WorldID == worldID && e.Kind == effects.KindKIA && e.Day > sinceDay {
			n++
		}
	}
	return n, nil
}

func (t *memTx) Save(ctx context.Context, out *Outcome) error {
	if err := t.store.failSave[out.World.WorldID]; err != nil {
		return err
	}
	prev, ok := t.d.worlds[out.World.WorldID]
	if !ok || prev.StateVersion != out.PrevVersion {
		return errors.New("version conflict")
	}
	t.d.worlds[out.World.WorldID] = cloneWorld(out.World)
	for _, n := range out.NPCs {
		t.d.npcs[n.NpcID] = n.Clone()
	}
	for _, n := range out.Recruits {
		t.d.npcs[n.NpcID] = n.Clone()
		t.d.current[n.NpcID] = true
	}
	for _, id := range out.Retired {
		t.d.current[id] = false
	}
	for _, p := range out.Plans {
		t.d.plans[p.NpcID] = clonePlan(p)
	}
	for _, a := range out.Applications {
		t.d.apps[a.ApplicationID] = cloneApp(a)
	}
	for _, q := range out.Quotas {
		if t.d.quotas[q.WorldID] == nil {
			t.d.quotas[q.WorldID] = make(map[string]*career.Quota)
		}
		c := *q
		t.d.quotas[q.WorldID][q.Division] = &c
	}
	for _, o := range out.Orders {
		for i := range t.d.orders {
			if t.d.orders[i].OrderID == o.OrderID {
				t.d.orders[i].Status = o.Status
			}
		}
	}

	b := out.Effects
	t.d.events = append(t.d.events, b.Lifecycle...)
	t.d.mail = append(t.d.mail, b.Mailbox...)
	t.d.cases = append(t.d.cases, b.CourtCases...)
	t.d.ceremonies = append(t.d.ceremonies, b.Ceremonies...)
	t.d.assignments = append(t.d.assignments, b.Assignments...)
	t.d.queue = append(t.d.queue, b.Replacements...)
	for _, f := range b.Fulfilled {
		for i := range t.d.queue {
			if t.d.queue[i].QueueID == f.QueueID {
				t.d.queue[i] = f
			}
		}
	}

	t.d.deltas = append(t.d.deltas, out.Delta)
	floor := out.World.StateVersion - int64(out.Retention)
	kept := t.d.deltas[:0]
	for _, d := range t.d.deltas {
		if d.WorldID != out.World.WorldID || d.ToVersion > floor {
			kept = append(kept, d)
		}
	}
	t.d.deltas = kept
	return nil
}

func (t *memTx) Snapshot(ctx context.Context, worldID string) (*world.Snapshot, error) {
	w, err := t.LockWorld(ctx, worldID)
	if err != nil {
		return nil, err
	}
	return &world.Snapshot{World: w, NPCs: t.current(worldID)}, nil
}
