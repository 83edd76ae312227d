package career

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/scoring"
)

// Priority inputs.
const (
	overdueBonus   = 800
	dueBonusBase   = 300
	dueBonusPerDay = 30
	tierWeight     = 25
)

var stageWeight = map[npc.Stage]float64{
	npc.StageCivilianStart:    120,
	npc.StageAcademy:          90,
	npc.StageDivisionPipeline: 140,
	npc.StageMutationPipeline: 110,
	npc.StageInDivision:       40,
}

// Book is the planner's working set for one world: plans, live applications
// and quotas, with the rows each run touched.
type Book struct {
	WorldID      string
	Plans        map[string]*Plan        // by npc id
	Applications map[string]*Application // by application id
	Quotas       map[string]*Quota       // by division code

	dirtyPlans  map[string]bool
	dirtyApps   map[string]bool
	dirtyQuotas map[string]bool
	changedNPCs map[string]*npc.NPC
}

// NewBook wraps loaded rows. Nil maps are allowed.
func NewBook(worldID string, plans map[string]*Plan, apps map[string]*Application, quotas map[string]*Quota) *Book {
	if plans == nil {
		plans = make(map[string]*Plan)
	}
	if apps == nil {
		apps = make(map[string]*Application)
	}
	if quotas == nil {
		quotas = make(map[string]*Quota)
	}
	return &Book{
		WorldID:      worldID,
		Plans:        plans,
		Applications: apps,
		Quotas:       quotas,
		dirtyPlans:   make(map[string]bool),
		dirtyApps:    make(map[string]bool),
		dirtyQuotas:  make(map[string]bool),
		changedNPCs:  make(map[string]*npc.NPC),
	}
}

// DirtyPlans returns the plans created or changed, ordered by npc id.
func (b *Book) DirtyPlans() []*Plan {
	out := make([]*Plan, 0, len(b.dirtyPlans))
	for id := range b.dirtyPlans {
		out = append(out, b.Plans[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NpcID < out[j].NpcID })
	return out
}

// DirtyApplications returns the applications created or changed.
func (b *Book) DirtyApplications() []*Application {
	out := make([]*Application, 0, len(b.dirtyApps))
	for id := range b.dirtyApps {
		out = append(out, b.Applications[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationID < out[j].ApplicationID })
	return out
}

// DirtyQuotas returns the quotas changed.
func (b *Book) DirtyQuotas() []*Quota {
	out := make([]*Quota, 0, len(b.dirtyQuotas))
	for code := range b.dirtyQuotas {
		out = append(out, b.Quotas[code])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Division < out[j].Division })
	return out
}

// ChangedNPCs returns the NPCs whose career fields moved.
func (b *Book) ChangedNPCs() []*npc.NPC {
	out := make([]*npc.NPC, 0, len(b.changedNPCs))
	for _, n := range b.changedNPCs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SlotNo < out[j].SlotNo })
	return out
}

// Planner advances NPC careers. It holds only the static division catalog.
type Planner struct {
	divisions []Division
	byCode    map[string]Division
}

// NewPlanner creates a planner over the division catalog.
func NewPlanner(divisions []Division) *Planner {
	byCode := make(map[string]Division, len(divisions))
	for _, d := range divisions {
		byCode[d.Code] = d
	}
	return &Planner{divisions: divisions, byCode: byCode}
}

// Division looks up a catalog entry.
func (p *Planner) Division(code string) (Division, bool) {
	d, ok := p.byCode[code]
	return d, ok
}

// Priority ranks a plan for this tick. Overdue plans get a flat bonus; plans
// due today or later get a bonus that decays linearly with the wait.
func Priority(plan *Plan, n *npc.NPC, day int) float64 {
	var due float64
	if day > plan.NextActionDay {
		due = overdueBonus
	} else {
		due = float64(dueBonusBase - dueBonusPerDay*(plan.NextActionDay-day))
		if due < 0 {
			due = 0
		}
	}
	return due + stageWeight[plan.CareerStage] + float64(n.AcademyTier)*tierWeight + n.PromotionPoints - n.Traits.Fatigue
}

// Run advances at most budget eligible NPCs by one stage step each and
// returns how many were advanced. KIA NPCs are never planned.
func (p *Planner) Run(book *Book, npcs []*npc.NPC, day, budget int, batch *effects.Batch) int {
	if budget <= 0 {
		return 0
	}

	type candidate struct {
		n        *npc.NPC
		plan     *Plan
		priority float64
	}
	var cands []candidate
	for _, n := range npcs {
		if n.Terminal() {
			continue
		}
		plan, ok := book.Plans[n.NpcID]
		if !ok {
			plan = NewPlan(n)
			book.Plans[n.NpcID] = plan
			book.dirtyPlans[n.NpcID] = true
		}
		if day < plan.NextActionDay {
			continue
		}
		cands = append(cands, candidate{n: n, plan: plan, priority: Priority(plan, n, day)})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].priority != cands[j].priority {
			return cands[i].priority > cands[j].priority
		}
		return cands[i].n.NpcID < cands[j].n.NpcID
	})
	if len(cands) > budget {
		cands = cands[:budget]
	}

	for _, c := range cands {
		p.step(book, c.n, c.plan, day, batch)
		c.plan.LastActionDay = day
		book.dirtyPlans[c.n.NpcID] = true
		p.syncNPC(book, c.n, c.plan)
	}
	return len(cands)
}

// syncNPC mirrors the plan's career fields onto the NPC row.
func (p *Planner) syncNPC(book *Book, n *npc.NPC, plan *Plan) {
	if n.CareerStage != plan.CareerStage || n.StrategyMode != plan.StrategyMode || n.DesiredDivision != plan.DesiredDivision {
		n.CareerStage = plan.CareerStage
		n.StrategyMode = plan.StrategyMode
		n.DesiredDivision = plan.DesiredDivision
		book.changedNPCs[n.NpcID] = n
	}
}

func (p *Planner) step(book *Book, n *npc.NPC, plan *Plan, day int, batch *effects.Batch) {
	switch plan.CareerStage {
	case npc.StageCivilianStart:
		p.enlist(n, plan, day, batch)
	case npc.StageAcademy:
		p.academy(book, n, plan, day, batch)
	case npc.StageDivisionPipeline:
		p.pipeline(book, n, plan, day, TrackDivision, batch)
	case npc.StageMutationPipeline:
		p.pipeline(book, n, plan, day, TrackMutation, batch)
	case npc.StageInDivision:
		p.inDivision(book, n, plan, day, batch)
	default:
		plan.CareerStage = npc.StageCivilianStart
		plan.NextActionDay = day + 1
	}
}

func (p *Planner) enlist(n *npc.NPC, plan *Plan, day int, batch *effects.Batch) {
	div, ok := chooseDivision(n, plan.StrategyMode, p.divisions)
	plan.TargetTier = plan.StrategyMode.Tier()
	if ok {
		plan.DesiredDivision = div.Code
		if div.MinTier > plan.TargetTier {
			plan.TargetTier = div.MinTier
		}
	}
	plan.CareerStage = npc.StageAcademy
	plan.NextActionDay = day + 1
	batch.Event(n.NpcID, effects.KindCareer,
		fmt.Sprintf("%s enrolls at the academy aiming for %s", n.Name, plan.DesiredDivision),
		map[string]any{"stage": string(npc.StageAcademy), "target_tier": plan.TargetTier, "division": plan.DesiredDivision})
}

func (p *Planner) academy(book *Book, n *npc.NPC, plan *Plan, day int, batch *effects.Batch) {
	if n.AcademyTier >= plan.TargetTier {
		plan.AcademyTimer = nil
		p.leaveAcademy(n, plan, day, batch)
		return
	}

	timer := plan.AcademyTimer
	if timer == nil {
		timer = &AcademyTimer{StartDay: day, TargetTier: n.AcademyTier + 1}
		plan.AcademyTimer = timer
		plan.NextActionDay = day + academyDays(timer.TargetTier)
		return
	}

	doneDay := timer.StartDay + academyDays(timer.TargetTier)
	if day < doneDay {
		plan.NextActionDay = doneDay
		return
	}

	n.AcademyTier = timer.TargetTier
	plan.AcademyTimer = nil
	book.changedNPCs[n.NpcID] = n
	batch.Event(n.NpcID, effects.KindAcademyPass,
		fmt.Sprintf("%s passes academy tier %d", n.Name, n.AcademyTier),
		map[string]any{"tier": n.AcademyTier})
	batch.Mail("ACADEMY", fmt.Sprintf("Academy tier %d passed", n.AcademyTier),
		fmt.Sprintf("%s has completed academy tier %d.", n.Name, n.AcademyTier), n.NpcID)

	if n.AcademyTier >= plan.TargetTier {
		p.leaveAcademy(n, plan, day, batch)
		return
	}
	plan.NextActionDay = day + 1
}

func (p *Planner) leaveAcademy(n *npc.NPC, plan *Plan, day int, batch *effects.Batch) {
	next := npc.StageInDivision
	if n.Division == "" {
		next = npc.StageDivisionPipeline
	}
	plan.CareerStage = next
	plan.NextActionDay = day + 1
	batch.Event(n.NpcID, effects.KindCareer,
		fmt.Sprintf("%s leaves the academy for %s", n.Name, next),
		map[string]any{"stage": string(next), "tier": n.AcademyTier})
}

func (p *Planner) pipeline(book *Book, n *npc.NPC, plan *Plan, day int, track Track, batch *effects.Batch) {
	app := book.Applications[plan.LastApplicationID]
	if app == nil || app.Terminal() {
		p.register(book, n, plan, day, track, batch)
		return
	}

	if day < app.NextStageDay() {
		plan.NextActionDay = app.NextStageDay()
		return
	}

	div, ok := p.byCode[app.Division]
	if !ok {
		p.announce(book, n, plan, app, day, batch, RejectNoDivision)
		return
	}

	seed := scoring.Seed(n.WorldID, n.NpcID, app.ApplicationID)
	switch app.Status {
	case StatusRegistration:
		app.TryoutScore = scoring.Clamp100(div.Fit(n.Traits) + float64(n.AcademyTier)*5 +
			float64(scoring.Jitter(seed, "tryout", 6)))
		app.Status = StatusTryout
		d := day
		app.TryoutDay = &d
	case StatusTryout:
		app.FinalScore = scoring.Clamp100(app.TryoutScore*0.6 + n.Traits.Competence*0.2 +
			n.Traits.Loyalty*0.1 + float64(n.AcademyTier)*5 + float64(scoring.Jitter(seed, "selection", 5)))
		app.Status = StatusSelection
		d := day
		app.SelectionDay = &d
	case StatusSelection:
		reason := RejectLowScore
		if app.FinalScore >= AcceptCutoff {
			reason = p.reserve(book, app.Division, day)
		}
		p.announce(book, n, plan, app, day, batch, reason)
		return
	}
	book.dirtyApps[app.ApplicationID] = true
	plan.NextActionDay = app.NextStageDay()
}

func (p *Planner) register(book *Book, n *npc.NPC, plan *Plan, day int, track Track, batch *effects.Batch) {
	if plan.DesiredDivision == "" {
		if div, ok := chooseDivision(n, plan.StrategyMode, p.divisions); ok {
			plan.DesiredDivision = div.Code
		}
	}
	app := &Application{
		ApplicationID: uuid.NewString(),
		WorldID:       n.WorldID,
		NpcID:         n.NpcID,
		NpcName:       n.Name,
		Division:      plan.DesiredDivision,
		Track:         track,
		Status:        StatusRegistration,
		RegisteredDay: day,
	}
	book.Applications[app.ApplicationID] = app
	book.dirtyApps[app.ApplicationID] = true
	plan.LastApplicationID = app.ApplicationID
	plan.NextActionDay = app.NextStageDay()
	batch.Event(n.NpcID, effects.KindPipeline,
		fmt.Sprintf("%s registers for %s", n.Name, app.Division),
		map[string]any{"application_id": app.ApplicationID, "status": string(app.Status), "track": string(track)})
}

// reserve claims a quota place, returning "" or a rejection reason.
func (p *Planner) reserve(book *Book, division string, day int) string {
	q, ok := book.Quotas[division]
	if !ok {
		return RejectNoQuota
	}
	reason := q.Reserve(day)
	book.dirtyQuotas[division] = true
	return reason
}

func (p *Planner) announce(book *Book, n *npc.NPC, plan *Plan, app *Application, day int, batch *effects.Batch, reason string) {
	d := day
	app.AnnouncementDay = &d
	book.dirtyApps[app.ApplicationID] = true

	if reason == "" {
		app.Status = StatusAnnouncementAccepted
		div := p.byCode[app.Division]
		n.Division = div.Code
		n.Unit = div.Unit
		n.Position = div.Position
		if n.Status == npc.StatusRecruiting || n.Status == npc.StatusReserve {
			n.SetStatus(npc.StatusActive)
		}
		book.changedNPCs[n.NpcID] = n

		plan.CareerStage = npc.StageInDivision
		plan.DesiredDivision = div.Code
		plan.NextActionDay = day + 1

		batch.Assign(n.NpcID, div.Code, div.Unit, div.Position, app.Track.AcceptedReason())
		batch.Event(n.NpcID, effects.KindAssignment,
			fmt.Sprintf("%s is accepted into %s", n.Name, div.Name),
			map[string]any{"application_id": app.ApplicationID, "final_score": app.FinalScore, "track": string(app.Track)})
		batch.Mail("PIPELINE", fmt.Sprintf("%s accepted", div.Name),
			fmt.Sprintf("%s joins %s as %s (%s).", n.Name, div.Name, div.Position, div.Unit), n.NpcID)
		batch.Post("ASSIGNMENT", fmt.Sprintf("%s joined %s", n.Name, div.Name),
			map[string]any{"npc_id": n.NpcID, "division": div.Code})
		return
	}

	app.Status = StatusAnnouncementRejected
	app.RejectReason = reason
	plan.LastApplicationID = ""
	if n.AcademyTier < 3 {
		plan.TargetTier = n.AcademyTier + 1
		plan.CareerStage = npc.StageAcademy
		plan.NextActionDay = day + 1
	} else {
		plan.NextActionDay = day + 2
	}

	batch.Event(n.NpcID, effects.KindPipeline,
		fmt.Sprintf("%s is not selected for %s", n.Name, app.Division),
		map[string]any{"application_id": app.ApplicationID, "reason": reason, "final_score": app.FinalScore})
	batch.Mail("PIPELINE", "Selection result",
		fmt.Sprintf("%s was not selected for %s (%s).", n.Name, app.Division, reason), n.NpcID)
}

func (p *Planner) inDivision(book *Book, n *npc.NPC, plan *Plan, day int, batch *effects.Batch) {
	if want := plan.StrategyMode.Tier(); want > n.AcademyTier {
		plan.TargetTier = want
		plan.CareerStage = npc.StageAcademy
		plan.NextActionDay = day + 1
		batch.Event(n.NpcID, effects.KindCareer,
			fmt.Sprintf("%s returns to the academy for tier %d", n.Name, want),
			map[string]any{"stage": string(npc.StageAcademy), "target_tier": want})
		return
	}

	target, ok := p.mutationTarget(book, n, day)
	if !ok {
		plan.NextActionDay = day + 5
		return
	}
	plan.DesiredDivision = target.Code
	plan.LastApplicationID = ""
	plan.CareerStage = npc.StageMutationPipeline
	plan.NextActionDay = day + 1
	batch.Event(n.NpcID, effects.KindCareer,
		fmt.Sprintf("%s seeks a transfer to %s", n.Name, target.Name),
		map[string]any{"stage": string(npc.StageMutationPipeline), "division": target.Code})
}

// mutationTarget finds the best higher-tier division the NPC qualifies for
// whose quota has at least two places left.
func (p *Planner) mutationTarget(book *Book, n *npc.NPC, day int) (Division, bool) {
	current, ok := p.byCode[n.Division]
	if !ok {
		return Division{}, false
	}
	var open []Division
	for _, d := range p.divisions {
		if d.Code == current.Code || d.MinTier <= current.MinTier || d.MinTier > n.AcademyTier {
			continue
		}
		q, ok := book.Quotas[d.Code]
		if !ok || q.Slack(day) < 2 {
			continue
		}
		open = append(open, d)
	}
	return chooseDivision(n, n.StrategyMode, open)
}
