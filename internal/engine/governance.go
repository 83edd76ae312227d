// Command-chain enforcement.
package engine

import (
	"fmt"

	"github.com/talgya/warfront/internal/scoring"
	"github.com/talgya/warfront/internal/world"
)

// resolveOrders breaches every order whose acknowledgment deadline has
// passed and applies penalties scaled by priority.
func (s *tickState) resolveOrders() {
	p := &s.world.Player
	for _, o := range s.frame.OverdueOrders {
		if o.Status != world.OrderPending || o.AckDeadlineDay >= s.day {
			continue
		}
		w := o.Priority.Weight()
		o.Status = world.OrderBreached
		s.orders = append(s.orders, o)

		p.Morale = scoring.Clamp100(p.Morale - 1.5*w)
		p.CommandAuthority = scoring.Clamp100(p.CommandAuthority - 2*w)
		s.gov.MilitaryStability -= 0.8 * w
		s.gov.NationalStability -= 0.3 * w
		s.gov.Corruption += 0.5 * w

		s.batch.Ack(o.OrderID, world.OrderBreached)
		s.batch.Mail("COMMAND", "Order breached",
			fmt.Sprintf("Order %q (%s) was not acknowledged by day %d.", o.Title, o.Priority, o.AckDeadlineDay), o.TargetNpcID)
		s.batch.Post("COMMAND_BREACH", fmt.Sprintf("Chain of command breached: %s", o.Title),
			map[string]any{"order_id": o.OrderID, "priority": string(o.Priority)})

		if w >= world.PriorityHigh.Weight() && o.TargetNpcID != "" && !s.openCases[o.TargetNpcID] {
			s.batch.OpenCase(o.TargetNpcID, "COMMAND_BREACH", int(w))
			s.openCases[o.TargetNpcID] = true
		}
	}
}
