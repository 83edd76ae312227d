package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/npc"
)

type planRow struct {
	NpcID             string         `db:"npc_id"`
	WorldID           string         `db:"world_id"`
	StrategyMode      string         `db:"strategy_mode"`
	CareerStage       string         `db:"career_stage"`
	DesiredDivision   string         `db:"desired_division"`
	TargetTier        int            `db:"target_tier"`
	NextActionDay     int            `db:"next_action_day"`
	LastActionDay     int            `db:"last_action_day"`
	LastApplicationID string         `db:"last_application_id"`
	AcademyTimerJSON  sql.NullString `db:"academy_timer_json"`
}

type applicationRow struct {
	ApplicationID   string        `db:"application_id"`
	WorldID         string        `db:"world_id"`
	NpcID           string        `db:"npc_id"`
	NpcName         string        `db:"npc_name"`
	Division        string        `db:"division"`
	Track           string        `db:"track"`
	Status          string        `db:"status"`
	RegisteredDay   int           `db:"registered_day"`
	TryoutDay       sql.NullInt64 `db:"tryout_day"`
	SelectionDay    sql.NullInt64 `db:"selection_day"`
	AnnouncementDay sql.NullInt64 `db:"announcement_day"`
	TryoutScore     float64       `db:"tryout_score"`
	FinalScore      float64       `db:"final_score"`
	RejectReason    string        `db:"reject_reason"`
}

func nullDay(d *int) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func dayPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	d := int(n.Int64)
	return &d
}

// LoadCareer reads the plans of the given NPCs and the applications their
// plans still point at.
func (t *Tx) LoadCareer(ctx context.Context, worldID string, npcIDs []string) (map[string]*career.Plan, map[string]*career.Application, error) {
	plans := make(map[string]*career.Plan)
	apps := make(map[string]*career.Application)
	if len(npcIDs) == 0 {
		return plans, apps, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM career_plans WHERE world_id = ? AND npc_id IN (?)`, worldID, npcIDs)
	if err != nil {
		return nil, nil, err
	}
	var rows []planRow
	if err := t.tx.SelectContext(ctx, &rows, t.tx.Rebind(query), args...); err != nil {
		return nil, nil, fmt.Errorf("plans: %w", err)
	}

	var appIDs []string
	for _, r := range rows {
		p := &career.Plan{
			WorldID:           r.WorldID,
			NpcID:             r.NpcID,
			StrategyMode:      npc.Strategy(r.StrategyMode),
			CareerStage:       npc.Stage(r.CareerStage),
			DesiredDivision:   r.DesiredDivision,
			TargetTier:        r.TargetTier,
			NextActionDay:     r.NextActionDay,
			LastActionDay:     r.LastActionDay,
			LastApplicationID: r.LastApplicationID,
		}
		if r.AcademyTimerJSON.Valid {
			p.AcademyTimer = &career.AcademyTimer{}
			if err := json.Unmarshal([]byte(r.AcademyTimerJSON.String), p.AcademyTimer); err != nil {
				return nil, nil, fmt.Errorf("academy timer %s: %w", r.NpcID, err)
			}
		}
		plans[p.NpcID] = p
		if p.LastApplicationID != "" {
			appIDs = append(appIDs, p.LastApplicationID)
		}
	}
	if len(appIDs) == 0 {
		return plans, apps, nil
	}

	query, args, err = sqlx.In(`SELECT * FROM pipeline_applications WHERE application_id IN (?)`, appIDs)
	if err != nil {
		return nil, nil, err
	}
	var appRows []applicationRow
	if err := t.tx.SelectContext(ctx, &appRows, t.tx.Rebind(query), args...); err != nil {
		return nil, nil, fmt.Errorf("applications: %w", err)
	}
	for _, r := range appRows {
		apps[r.ApplicationID] = &career.Application{
			ApplicationID:   r.ApplicationID,
			WorldID:         r.WorldID,
			NpcID:           r.NpcID,
			NpcName:         r.NpcName,
			Division:        r.Division,
			Track:           career.Track(r.Track),
			Status:          career.Status(r.Status),
			RegisteredDay:   r.RegisteredDay,
			TryoutDay:       dayPtr(r.TryoutDay),
			SelectionDay:    dayPtr(r.SelectionDay),
			AnnouncementDay: dayPtr(r.AnnouncementDay),
			TryoutScore:     r.TryoutScore,
			FinalScore:      r.FinalScore,
			RejectReason:    r.RejectReason,
		}
	}
	return plans, apps, nil
}

// LockQuotas loads every division quota of the world.
func (t *Tx) LockQuotas(ctx context.Context, worldID string) (map[string]*career.Quota, error) {
	var rows []*career.Quota
	if err := t.tx.SelectContext(ctx, &rows, `SELECT * FROM division_quotas WHERE world_id = ? ORDER BY division`, worldID); err != nil {
		return nil, err
	}
	out := make(map[string]*career.Quota, len(rows))
	for _, q := range rows {
		out[q.Division] = q
	}
	return out, nil
}

func (t *Tx) saveCareer(ctx context.Context, plans []*career.Plan, apps []*career.Application, quotas []*career.Quota) error {
	for _, p := range plans {
		timer, err := nullJSON(p.AcademyTimer)
		if err != nil {
			return fmt.Errorf("academy timer %s: %w", p.NpcID, err)
		}
		if _, err := t.tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO career_plans
			(npc_id, world_id, strategy_mode, career_stage, desired_division, target_tier,
			 next_action_day, last_action_day, last_application_id, academy_timer_json)
			VALUES (:npc_id, :world_id, :strategy_mode, :career_stage, :desired_division, :target_tier,
			 :next_action_day, :last_action_day, :last_application_id, :academy_timer_json)`,
			planRow{
				NpcID:             p.NpcID,
				WorldID:           p.WorldID,
				StrategyMode:      string(p.StrategyMode),
				CareerStage:       string(p.CareerStage),
				DesiredDivision:   p.DesiredDivision,
				TargetTier:        p.TargetTier,
				NextActionDay:     p.NextActionDay,
				LastActionDay:     p.LastActionDay,
				LastApplicationID: p.LastApplicationID,
				AcademyTimerJSON:  timer,
			}); err != nil {
			return fmt.Errorf("plan %s: %w", p.NpcID, err)
		}
	}

	for _, a := range apps {
		if _, err := t.tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO pipeline_applications
			(application_id, world_id, npc_id, npc_name, division, track, status, registered_day,
			 tryout_day, selection_day, announcement_day, tryout_score, final_score, reject_reason)
			VALUES (:application_id, :world_id, :npc_id, :npc_name, :division, :track, :status, :registered_day,
			 :tryout_day, :selection_day, :announcement_day, :tryout_score, :final_score, :reject_reason)`,
			applicationRow{
				ApplicationID:   a.ApplicationID,
				WorldID:         a.WorldID,
				NpcID:           a.NpcID,
				NpcName:         a.NpcName,
				Division:        a.Division,
				Track:           string(a.Track),
				Status:          string(a.Status),
				RegisteredDay:   a.RegisteredDay,
				TryoutDay:       nullDay(a.TryoutDay),
				SelectionDay:    nullDay(a.SelectionDay),
				AnnouncementDay: nullDay(a.AnnouncementDay),
				TryoutScore:     a.TryoutScore,
				FinalScore:      a.FinalScore,
				RejectReason:    a.RejectReason,
			}); err != nil {
			return fmt.Errorf("application %s: %w", a.ApplicationID, err)
		}
	}

	for _, q := range quotas {
		if err := t.upsertQuota(ctx, q); err != nil {
			return fmt.Errorf("quota %s: %w", q.Division, err)
		}
	}
	return nil
}

func (t *Tx) upsertQuota(ctx context.Context, q *career.Quota) error {
	_, err := t.tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO division_quotas
		(world_id, division, quota_total, quota_used, quota_remaining, status, cooldown_until_day, cooldown_days)
		VALUES (:world_id, :division, :quota_total, :quota_used, :quota_remaining, :status, :cooldown_until_day, :cooldown_days)`, q)
	return err
}
