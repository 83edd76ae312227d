package engine

import (
	"context"
	"errors"
	"time"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/world"
)

// ErrWorldNotFound is returned by Tx.LockWorld for an unknown world.
var ErrWorldNotFound = errors.New("world not found")

// Store opens the transactions a tick runs in.
type Store interface {
	// Batch runs fn inside one transaction. It commits when fn returns nil
	// and rolls back everything otherwise.
	Batch(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the storage surface a tick needs inside its transaction. Lock
// methods hold their rows exclusively until the transaction ends.
type Tx interface {
	// ClaimDueWorlds selects up to limit worlds with an active session whose
	// last tick is at least one simulated day old, skipping rows another
	// transaction holds.
	ClaimDueWorlds(ctx context.Context, now time.Time, msPerDay int64, limit int) ([]string, error)

	LockWorld(ctx context.Context, worldID string) (*world.State, error)
	LockCurrentNPCs(ctx context.Context, worldID string, limit int) ([]*npc.NPC, error)
	LockQuotas(ctx context.Context, worldID string) (map[string]*career.Quota, error)

	LoadCareer(ctx context.Context, worldID string, npcIDs []string) (map[string]*career.Plan, map[string]*career.Application, error)
	PendingReplacements(ctx context.Context, worldID string) ([]effects.ReplacementQueueItem, error)
	OverdueOrders(ctx context.Context, worldID string, day int) ([]world.CommandOrder, error)
	OpenCaseNPCs(ctx context.Context, worldID string) (map[string]bool, error)
	CeremonyExists(ctx context.Context, worldID string, cycle int) (bool, error)
	CountKIASince(ctx context.Context, worldID string, sinceDay int) (int, error)

	// Save writes an outcome: the world row, every changed row, all side
	// effects and the delta, then prunes delta history.
	Save(ctx context.Context, out *Outcome) error

	Snapshot(ctx context.Context, worldID string) (*world.Snapshot, error)
}

// Frame is everything a tick reads for one world, loaded under lock.
type Frame struct {
	World          *world.State
	NPCs           []*npc.NPC
	Plans          map[string]*career.Plan
	Applications   map[string]*career.Application
	Quotas         map[string]*career.Quota
	Queue          []effects.ReplacementQueueItem
	OverdueOrders  []world.CommandOrder
	OpenCases      map[string]bool
	CeremonyExists bool
	RecentKIA      int
}

// Outcome is everything a tick decided for one world.
type Outcome struct {
	World        *world.State
	NPCs         []*npc.NPC // existing rows that changed
	Recruits     []*npc.NPC // new rows
	Retired      []string   // npc ids that are no longer their slot's current occupant
	Plans        []*career.Plan
	Applications []*career.Application
	Quotas       []*career.Quota
	Orders       []world.CommandOrder
	Effects      *effects.Batch
	Delta        world.Delta

	// PrevVersion is the version the world row held when it was locked.
	PrevVersion int64
	// Retention is how many delta versions to keep after this one.
	Retention int
}
