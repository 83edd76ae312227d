package world

import (
	"sort"
	"time"

	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
)

// MaxDeltaRows caps the queue and event rows carried by a delta.
const MaxDeltaRows = 20

// Delta is the immutable record of everything one tick changed.
type Delta struct {
	WorldID     string    `json:"world_id"`
	FromVersion int64     `json:"from_version"`
	ToVersion   int64     `json:"to_version"`
	Day         int       `json:"day"`
	DayGain     int       `json:"day_gain"`
	CreatedAt   time.Time `json:"created_at"`

	Player       Player       `json:"player"`
	PlayerChange PlayerChange `json:"player_change"`
	Governance   Governance   `json:"governance"`

	ChangedNPCs     []*npc.NPC                     `json:"changed_npcs"`
	ActiveMission   *Mission                       `json:"active_mission,omitempty"`
	PendingCeremony *effects.Ceremony              `json:"pending_ceremony,omitempty"`
	Queue           []effects.ReplacementQueueItem `json:"queue"`
	RecentEvents    []effects.LifecycleEvent       `json:"recent_events"`
}

// PlayerChange is the signed change of each player scalar across the delta.
type PlayerChange struct {
	Money            float64 `json:"money"`
	Morale           float64 `json:"morale"`
	Health           float64 `json:"health"`
	CommandAuthority float64 `json:"command_authority"`
	RankIndex        int     `json:"rank_index"`
}

// Diff returns after minus before.
func Diff(before, after Player) PlayerChange {
	return PlayerChange{
		Money:            after.Money - before.Money,
		Morale:           after.Morale - before.Morale,
		Health:           after.Health - before.Health,
		CommandAuthority: after.CommandAuthority - before.CommandAuthority,
		RankIndex:        after.RankIndex - before.RankIndex,
	}
}

// MergeDeltas coalesces the deltas newer than sinceVersion into one. The
// latest NPC state per id wins; queue and event rows are unioned, deduplicated
// by id and capped to the MaxDeltaRows most recent.
func MergeDeltas(sinceVersion int64, deltas []Delta) Delta {
	var run []Delta
	for _, d := range deltas {
		if d.ToVersion > sinceVersion {
			run = append(run, d)
		}
	}
	sort.SliceStable(run, func(i, j int) bool { return run[i].ToVersion < run[j].ToVersion })

	merged := Delta{FromVersion: sinceVersion, ToVersion: sinceVersion}
	if len(run) == 0 {
		return merged
	}

	npcIndex := make(map[string]int)
	queueSeen := make(map[string]int)
	eventSeen := make(map[string]bool)

	for _, d := range run {
		merged.WorldID = d.WorldID
		merged.ToVersion = d.ToVersion
		merged.Day = d.Day
		merged.DayGain += d.DayGain
		merged.CreatedAt = d.CreatedAt
		merged.Player = d.Player
		merged.Governance = d.Governance
		merged.ActiveMission = d.ActiveMission
		if d.PendingCeremony != nil {
			merged.PendingCeremony = d.PendingCeremony
		}

		merged.PlayerChange.Money += d.PlayerChange.Money
		merged.PlayerChange.Morale += d.PlayerChange.Morale
		merged.PlayerChange.Health += d.PlayerChange.Health
		merged.PlayerChange.CommandAuthority += d.PlayerChange.CommandAuthority
		merged.PlayerChange.RankIndex += d.PlayerChange.RankIndex

		for _, n := range d.ChangedNPCs {
			if i, ok := npcIndex[n.NpcID]; ok {
				merged.ChangedNPCs[i] = n
				continue
			}
			npcIndex[n.NpcID] = len(merged.ChangedNPCs)
			merged.ChangedNPCs = append(merged.ChangedNPCs, n)
		}

		// A later row for the same queue id carries the newer status.
		for _, q := range d.Queue {
			if i, ok := queueSeen[q.QueueID]; ok {
				merged.Queue[i] = q
				continue
			}
			queueSeen[q.QueueID] = len(merged.Queue)
			merged.Queue = append(merged.Queue, q)
		}

		for _, e := range d.RecentEvents {
			if eventSeen[e.EventID] {
				continue
			}
			eventSeen[e.EventID] = true
			merged.RecentEvents = append(merged.RecentEvents, e)
		}
	}

	merged.Queue = lastN(merged.Queue, MaxDeltaRows)
	merged.RecentEvents = lastN(merged.RecentEvents, MaxDeltaRows)
	return merged
}

func lastN[T any](rows []T, n int) []T {
	if len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}
