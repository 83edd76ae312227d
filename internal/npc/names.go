package npc

import (
	"fmt"
	"strings"
)

// slotSuffix is appended to a display name to break a collision.
func slotSuffix(slot int) string {
	return fmt.Sprintf(" #%d", slot)
}

// baseName strips this NPC's own slot suffix, if present.
func baseName(n *NPC) string {
	return strings.TrimSuffix(n.Name, slotSuffix(n.SlotNo))
}

// DedupeNames renames NPCs whose display names collide by appending their
// slot number. The lowest slot keeps the plain name. An already-suffixed
// name is never suffixed again. It returns the NPCs that were renamed.
func DedupeNames(list []*NPC) []*NPC {
	owner := make(map[string]*NPC, len(list))
	for _, n := range list {
		b := baseName(n)
		if cur, ok := owner[b]; !ok || n.SlotNo < cur.SlotNo {
			owner[b] = n
		}
	}

	var renamed []*NPC
	for _, n := range list {
		b := baseName(n)
		if owner[b] == n {
			continue
		}
		if want := b + slotSuffix(n.SlotNo); n.Name != want {
			n.Name = want
			renamed = append(renamed, n)
		}
	}
	return renamed
}
