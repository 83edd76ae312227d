package effects

// Batch collects everything one world tick wants recorded.
type Batch struct {
	WorldID string
	Day     int

	Lifecycle    []LifecycleEvent
	Mailbox      []MailboxMessage
	Timeline     []TimelineEvent
	CourtCases   []CourtCase
	OrderAcks    []OrderAck
	Replacements []ReplacementQueueItem
	Fulfilled    []ReplacementQueueItem
	Assignments  []AssignmentHistory
	Ceremonies   []Ceremony
}

// NewBatch starts an empty batch for one world and day.
func NewBatch(worldID string, day int) *Batch {
	return &Batch{WorldID: worldID, Day: day}
}

// Event appends a lifecycle event.
func (b *Batch) Event(npcID string, kind Kind, description string, meta map[string]any) LifecycleEvent {
	e := LifecycleEvent{
		EventID:     newID(),
		WorldID:     b.WorldID,
		NpcID:       npcID,
		Day:         b.Day,
		Kind:        kind,
		Description: description,
		Meta:        meta,
	}
	b.Lifecycle = append(b.Lifecycle, e)
	return e
}

// Mail appends a system mailbox notice.
func (b *Batch) Mail(category, subject, body, npcID string) {
	b.Mailbox = append(b.Mailbox, MailboxMessage{
		MessageID:    newID(),
		WorldID:      b.WorldID,
		Day:          b.Day,
		Sender:       "SYSTEM",
		Category:     category,
		Subject:      subject,
		Body:         body,
		RelatedNpcID: npcID,
	})
}

// Post appends a social timeline entry.
func (b *Batch) Post(kind, text string, meta map[string]any) {
	b.Timeline = append(b.Timeline, TimelineEvent{
		EventID: newID(),
		WorldID: b.WorldID,
		Day:     b.Day,
		Kind:    kind,
		Text:    text,
		Meta:    meta,
	})
}

// OpenCase appends a court case against an NPC.
func (b *Batch) OpenCase(npcID, reason string, severity int) CourtCase {
	c := CourtCase{
		CaseID:   newID(),
		WorldID:  b.WorldID,
		NpcID:    npcID,
		Day:      b.Day,
		Reason:   reason,
		Severity: severity,
		Status:   "OPEN",
	}
	b.CourtCases = append(b.CourtCases, c)
	return c
}

// Ack records an order resolution.
func (b *Batch) Ack(orderID, status string) {
	b.OrderAcks = append(b.OrderAcks, OrderAck{
		AckID:   newID(),
		WorldID: b.WorldID,
		OrderID: orderID,
		Day:     b.Day,
		Status:  status,
	})
}

// Enqueue schedules a replacement for a slot.
func (b *Batch) Enqueue(slotNo int, oldNpcID string, generation, dueDay int) ReplacementQueueItem {
	q := ReplacementQueueItem{
		QueueID:    newID(),
		WorldID:    b.WorldID,
		SlotNo:     slotNo,
		OldNpcID:   oldNpcID,
		Generation: generation,
		QueuedDay:  b.Day,
		DueDay:     dueDay,
		Status:     QueueQueued,
	}
	b.Replacements = append(b.Replacements, q)
	return q
}

// Fulfill marks a queued replacement as filled by newNpcID.
func (b *Batch) Fulfill(item ReplacementQueueItem, newNpcID string) {
	item.Status = QueueFulfilled
	item.FulfilledNpcID = newNpcID
	b.Fulfilled = append(b.Fulfilled, item)
}

// Assign records an assignment history row.
func (b *Batch) Assign(npcID, division, unit, position, reason string) {
	b.Assignments = append(b.Assignments, AssignmentHistory{
		RecordID: newID(),
		WorldID:  b.WorldID,
		NpcID:    npcID,
		Day:      b.Day,
		Division: division,
		Unit:     unit,
		Position: position,
		Reason:   reason,
	})
}

// Ceremony records a pending ceremony.
func (b *Batch) Ceremony(cycle int, awards []Award, kiaMemorial int) Ceremony {
	c := Ceremony{
		CeremonyID:       newID(),
		WorldID:          b.WorldID,
		Cycle:            cycle,
		Day:              b.Day,
		Status:           "PENDING",
		Awards:           awards,
		KIAMemorialCount: kiaMemorial,
	}
	b.Ceremonies = append(b.Ceremonies, c)
	return c
}

// HasKind reports whether the batch holds a lifecycle event of kind for npcID.
func (b *Batch) HasKind(npcID string, kind Kind) bool {
	for _, e := range b.Lifecycle {
		if e.NpcID == npcID && e.Kind == kind {
			return true
		}
	}
	return false
}
