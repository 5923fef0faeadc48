package engine

import (
	"context"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// validateRewards rejects tables that list an outcome twice or promise
// more than 100% for any outcome.
func validateRewards(rewards []model.OutcomeReward) error {
	seen := make(map[model.Outcome]struct{}, len(rewards))
	for _, r := range rewards {
		if r.Percent > 100 {
			return ErrInvalidDistribution
		}
		if _, dup := seen[r.Outcome]; dup {
			return ErrInvalidDistribution
		}
		seen[r.Outcome] = struct{}{}
	}
	return nil
}

// CreateDungeon stores a new definition.  Manager only.  Every granted
// asset must currently be in use, otherwise ErrAssetUnavailable.
func (e *Engine) CreateDungeon(ctx context.Context, caller model.AccountID, id model.DungeonID, price model.Balance, grants []model.AssetGrant, rewards []model.OutcomeReward) error {
	if err := e.requireManager(ctx, caller); err != nil {
		return err
	}
	if err := validateRewards(rewards); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx Tx) error {
		for _, g := range grants {
			inUse, err := tx.AssetInUsing(g.AssetID)
			if err != nil {
				return err
			}
			if !inUse {
				return ErrAssetUnavailable
			}
		}
		return tx.InsertDungeon(model.DungeonDefinition{
			ID:             id,
			TicketPrice:    price,
			GrantedAssets:  grants,
			OutcomeRewards: rewards,
		})
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{Kind: EventDungeonCreated, DungeonID: id, Price: price, At: e.clock.Now()})
	return nil
}

// ModifyPrice updates a definition's ticket price.  Manager only.  Has
// no effect on instances already booked: they settle with the price
// captured at booking time.
func (e *Engine) ModifyPrice(ctx context.Context, caller model.AccountID, id model.DungeonID, price model.Balance) error {
	if err := e.requireManager(ctx, caller); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx Tx) error {
		def, err := tx.Dungeon(id)
		if err != nil {
			return err
		}
		def.TicketPrice = price
		return tx.UpdateDungeon(def)
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{Kind: EventDungeonPriceModified, DungeonID: id, Price: price, At: e.clock.Now()})
	return nil
}

// ModifyAssetsSupply replaces a definition's granted-asset list.
// Manager only.  The same in-use precondition as CreateDungeon applies.
func (e *Engine) ModifyAssetsSupply(ctx context.Context, caller model.AccountID, id model.DungeonID, grants []model.AssetGrant) error {
	if err := e.requireManager(ctx, caller); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx Tx) error {
		def, err := tx.Dungeon(id)
		if err != nil {
			return err
		}
		for _, g := range grants {
			inUse, err := tx.AssetInUsing(g.AssetID)
			if err != nil {
				return err
			}
			if !inUse {
				return ErrAssetUnavailable
			}
		}
		def.GrantedAssets = grants
		return tx.UpdateDungeon(def)
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{Kind: EventDungeonAssetsModified, DungeonID: id, At: e.clock.Now()})
	return nil
}

// ModifyDistributionRatio replaces a definition's outcome reward table.
// Manager only.
func (e *Engine) ModifyDistributionRatio(ctx context.Context, caller model.AccountID, id model.DungeonID, rewards []model.OutcomeReward) error {
	if err := e.requireManager(ctx, caller); err != nil {
		return err
	}
	if err := validateRewards(rewards); err != nil {
		return err
	}
	err := e.store.Update(ctx, func(tx Tx) error {
		def, err := tx.Dungeon(id)
		if err != nil {
			return err
		}
		def.OutcomeRewards = rewards
		return tx.UpdateDungeon(def)
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{Kind: EventDungeonDistributionModified, DungeonID: id, At: e.clock.Now()})
	return nil
}
