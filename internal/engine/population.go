// Casualties and slot replacement.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
)

// kill marks an NPC KIA and queues a replacement dueIn days out.
func (s *tickState) kill(n *npc.NPC, cause string, dueIn int, meta map[string]any) bool {
	if !n.Kill(s.day) {
		return false
	}
	s.touch(n)
	s.kiaToday++

	if meta == nil {
		meta = map[string]any{}
	}
	meta["cause"] = cause
	s.batch.Event(n.NpcID, effects.KindKIA, fmt.Sprintf("%s was killed in action (%s)", n.Name, cause), meta)

	q := s.batch.Enqueue(n.SlotNo, n.NpcID, n.Generation+1, s.day+dueIn)
	s.queue = append(s.queue, q)

	slog.Info("npc killed in action",
		"world", s.world.WorldID,
		"npc", n.NpcID,
		"name", n.Name,
		"cause", cause,
		"replacement_due", q.DueDay,
	)
	return true
}

// fulfillReplacements fills every queued slot whose due day has arrived.
func (s *tickState) fulfillReplacements(roster npc.Roster) {
	var pending []effects.ReplacementQueueItem
	for _, item := range s.queue {
		if item.Status != effects.QueueQueued || item.DueDay > s.day {
			pending = append(pending, item)
			continue
		}

		recruit := roster.Recruit(s.world.WorldID, item.SlotNo, item.Generation)
		s.retire(item.OldNpcID)
		s.recruits = append(s.recruits, recruit)
		s.npcs = append(s.npcs, recruit)
		s.touch(recruit)
		s.batch.Fulfill(item, recruit.NpcID)

		s.batch.Event(recruit.NpcID, effects.KindReplacementJoined,
			fmt.Sprintf("%s joins as the %s generation of slot %d", recruit.Name, humanize.Ordinal(recruit.Generation), recruit.SlotNo),
			map[string]any{"slot_no": item.SlotNo, "generation": item.Generation, "replaces": item.OldNpcID})
	}
	s.queue = pending
}

// retire drops the old occupant from the working set.
func (s *tickState) retire(npcID string) {
	s.retired = append(s.retired, npcID)
	kept := s.npcs[:0]
	for _, n := range s.npcs {
		if n.NpcID != npcID {
			kept = append(kept, n)
		}
	}
	s.npcs = kept
}
