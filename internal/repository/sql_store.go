package repository

import (
	"context"
	"database/sql"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// SQLStore glues the per-entity repositories into the engine's
// transactional Store: one engine operation becomes one MySQL
// transaction, so settlement effects and the status write commit
// together or not at all.
type SQLStore struct {
	db        *sql.DB
	accounts  *AccountRepo
	assets    *AssetRepo
	dungeons  *DungeonRepo
	instances *InstanceRepo
}

// NewSQLStore returns a store over the given repositories.  All
// repositories must share the same *sql.DB.
func NewSQLStore(db *sql.DB, accounts *AccountRepo, assets *AssetRepo, dungeons *DungeonRepo, instances *InstanceRepo) *SQLStore {
	if db == nil || accounts == nil || assets == nil || dungeons == nil || instances == nil {
		panic("nil dependency passed to NewSQLStore")
	}
	return &SQLStore{db: db, accounts: accounts, assets: assets, dungeons: dungeons, instances: instances}
}

// Update runs fn inside a transaction, committing only on nil.
func (s *SQLStore) Update(ctx context.Context, fn func(engine.Tx) error) error {
	return s.run(ctx, fn, false)
}

// View runs fn inside a read-only transaction.
func (s *SQLStore) View(ctx context.Context, fn func(engine.Tx) error) error {
	return s.run(ctx, fn, true)
}

func (s *SQLStore) run(ctx context.Context, fn func(engine.Tx) error, readOnly bool) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&sqlTx{ctx: ctx, tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// IsManager implements engine.ManagerAccess.
func (s *SQLStore) IsManager(ctx context.Context, who model.AccountID) (bool, error) {
	return s.accounts.IsManager(ctx, who)
}

// sqlTx adapts one *sql.Tx to the engine.Tx surface by delegating to
// the Tx-suffixed repository methods.
type sqlTx struct {
	ctx   context.Context
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) Dungeon(id model.DungeonID) (model.DungeonDefinition, error) {
	return t.store.dungeons.GetTx(t.ctx, t.tx, id)
}

func (t *sqlTx) InsertDungeon(def model.DungeonDefinition) error {
	return t.store.dungeons.InsertTx(t.ctx, t.tx, def)
}

func (t *sqlTx) UpdateDungeon(def model.DungeonDefinition) error {
	return t.store.dungeons.UpdateTx(t.ctx, t.tx, def)
}

func (t *sqlTx) Instance(id model.TicketID) (model.DungeonInstance, error) {
	return t.store.instances.GetTx(t.ctx, t.tx, id)
}

func (t *sqlTx) InsertInstance(inst model.DungeonInstance) error {
	return t.store.instances.InsertTx(t.ctx, t.tx, inst)
}

func (t *sqlTx) UpdateInstance(inst model.DungeonInstance) error {
	return t.store.instances.UpdateTx(t.ctx, t.tx, inst)
}

func (t *sqlTx) OpenInstances() ([]model.DungeonInstance, error) {
	return t.store.instances.OpenTx(t.ctx, t.tx)
}

func (t *sqlTx) Reserve(who model.AccountID, amount model.Balance) error {
	return t.store.accounts.ReserveTx(t.ctx, t.tx, who, amount)
}

func (t *sqlTx) Unreserve(who model.AccountID, amount model.Balance) error {
	return t.store.accounts.UnreserveTx(t.ctx, t.tx, who, amount)
}

func (t *sqlTx) Transfer(from, to model.AccountID, amount model.Balance, keepAlive bool) error {
	return t.store.accounts.TransferTx(t.ctx, t.tx, from, to, amount, keepAlive)
}

func (t *sqlTx) Mint(id model.AssetID, beneficiary model.AccountID, amount uint64) error {
	return t.store.assets.MintTx(t.ctx, t.tx, id, beneficiary, amount)
}

func (t *sqlTx) AssetInUsing(id model.AssetID) (bool, error) {
	return t.store.assets.InUsingTx(t.ctx, t.tx, id)
}
