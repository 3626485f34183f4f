package engine

//go:generate go tool mockgen -destination=./mocks/store_mock.go -package=mocks . Store

import (
	"context"
	"time"

	"github.com/nathoo/skirmish/types"
)

// Store is the persistent state the engine reads and writes: the actor
// record, the keyed active battle, the inventory and the history ledger.
// Implementations must be safe for concurrent use.
type Store interface {
	// Actor returns an actor's permanent record, or errs.ErrActorNotFound.
	Actor(ctx context.Context, actorID string) (types.ActorSnapshot, error)

	// CreateBattle inserts b keyed by b.ActorID. The existence check and the
	// insert are one atomic step; an existing record fails with
	// errs.ErrAlreadyInBattle.
	CreateBattle(ctx context.Context, b types.ActiveBattle) error

	// Battle returns the actor's active battle, or errs.ErrBattleNotFound.
	Battle(ctx context.Context, actorID string) (types.ActiveBattle, error)

	// UpdateBattle replaces the stored battle if its version equals
	// b.Version, then bumps the stored version. A missing battle fails with
	// errs.ErrBattleNotFound, a version mismatch with errs.ErrConflict.
	UpdateBattle(ctx context.Context, b types.ActiveBattle) error

	// DeleteBattle removes the actor's battle. Deleting nothing is not an error.
	DeleteBattle(ctx context.Context, actorID string) error

	// Settle applies s as one unit: the actor's hp, mp and currency (never
	// below zero), the inventory grants, the history record and the removal
	// of the battle identified by s.BattleID at s.Version. Either everything
	// is applied or nothing is.
	Settle(ctx context.Context, s types.Settlement) error

	// History returns up to limit records of an actor, most recent first.
	History(ctx context.Context, actorID string, limit int) ([]types.HistoryRecord, error)

	// ExpiredBattles returns battles whose expiry is before now.
	ExpiredBattles(ctx context.Context, now time.Time) ([]types.ActiveBattle, error)
}
