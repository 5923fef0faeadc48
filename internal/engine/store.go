package engine

import (
	"context"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// Tx is the transactional view the engine mutates through.  A Tx covers
// the definition store, the instance store, the currency ledger and the
// asset registry, so one engine operation commits all of its effects
// atomically or none of them.  Implementations back this with a MySQL
// transaction in production and with staged in-memory maps in tests.
type Tx interface {
	// Dungeon definitions.
	Dungeon(id model.DungeonID) (model.DungeonDefinition, error)
	InsertDungeon(def model.DungeonDefinition) error
	UpdateDungeon(def model.DungeonDefinition) error

	// Dungeon instances.
	Instance(id model.TicketID) (model.DungeonInstance, error)
	InsertInstance(inst model.DungeonInstance) error
	UpdateInstance(inst model.DungeonInstance) error
	// OpenInstances returns every instance not yet CLOSED.  The expiry
	// sweep visits all of them once per tick.
	OpenInstances() ([]model.DungeonInstance, error)

	// Currency ledger.  Reserve moves spendable balance into the held
	// balance, Unreserve moves it back, Transfer moves spendable
	// balance between accounts.  With keepAlive set, Transfer fails
	// with ErrInsufficientFunds rather than dropping the sender below
	// the existential minimum.
	Reserve(who model.AccountID, amount model.Balance) error
	Unreserve(who model.AccountID, amount model.Balance) error
	Transfer(from, to model.AccountID, amount model.Balance, keepAlive bool) error

	// Asset registry.  Mint raises the asset's total supply and the
	// beneficiary's balance together.  AssetInUsing reports grant
	// eligibility.
	Mint(id model.AssetID, beneficiary model.AccountID, amount uint64) error
	AssetInUsing(id model.AssetID) (bool, error)
}

// Store runs engine operations against persistent state.  Update is a
// read-modify-write transaction: the callback's effects are committed
// only when it returns nil.  View is read-only.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// ManagerAccess is the authorization collaborator consulted before
// every registry mutation.
type ManagerAccess interface {
	IsManager(ctx context.Context, who model.AccountID) (bool, error)
}

// Clock supplies logical time.  Ticks only ever increase.
type Clock interface {
	Now() model.Tick
}

// TicketMinter derives content-addressed ticket ids.  The id must be
// deterministic for a given generator state and unpredictable before
// the booking that consumes it.
type TicketMinter interface {
	TicketID(d model.DungeonID, p model.AccountID, at model.Tick) model.TicketID
}
