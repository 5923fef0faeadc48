package engine

import (
	"context"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// Params carries the configured lifecycle windows, in ticks.
type Params struct {
	// ClosingGap is how long a booked ticket stays claimable.
	ClosingGap model.Tick
	// PlayingGap is how long a started session may run before the
	// sweep times it out.
	PlayingGap model.Tick
}

// Engine drives the dungeon registry, ticket booking and the instance
// lifecycle.  One logical operation runs at a time from the engine's
// point of view: every mutation is a single Store.Update transaction
// whose preconditions are re-checked inside the transaction, so a
// failed precondition never leaves partial effects behind.
type Engine struct {
	store   Store
	auth    ManagerAccess
	clock   Clock
	tickets TicketMinter
	notify  Notifier
	params  Params
}

// New constructs an Engine.  A nil notifier is replaced with NopNotifier.
func New(store Store, auth ManagerAccess, clock Clock, tickets TicketMinter, notify Notifier, params Params) *Engine {
	if store == nil || auth == nil || clock == nil || tickets == nil {
		panic("nil collaborator passed to engine.New")
	}
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Engine{
		store:   store,
		auth:    auth,
		clock:   clock,
		tickets: tickets,
		notify:  notify,
		params:  params,
	}
}

// requireManager resolves the authorization collaborator before any
// registry mutation touches storage.
func (e *Engine) requireManager(ctx context.Context, who model.AccountID) error {
	ok, err := e.auth.IsManager(ctx, who)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Dungeon returns a definition snapshot.
func (e *Engine) Dungeon(ctx context.Context, id model.DungeonID) (model.DungeonDefinition, error) {
	var def model.DungeonDefinition
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		def, err = tx.Dungeon(id)
		return err
	})
	return def, err
}

// Instance returns an instance snapshot.
func (e *Engine) Instance(ctx context.Context, id model.TicketID) (model.DungeonInstance, error) {
	var inst model.DungeonInstance
	err := e.store.View(ctx, func(tx Tx) error {
		var err error
		inst, err = tx.Instance(id)
		return err
	})
	return inst, err
}
