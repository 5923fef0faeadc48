package engine

import "github.com/MintEngine/mintcraft-node/internal/model"

// Settlement is pure effect application.  Both helpers run inside the
// caller's transaction: any failed step aborts the whole Update, so the
// status transition and the ledger effects are committed exactly once
// or not at all.  The state machine gates on status before calling, so
// neither helper ever runs twice for the same transition.

// settleStart moves the reserved price from player to server and mints
// the captured grants to the server.  Unreserve comes first, then the
// keep-alive transfer, then the mints, so a failed mint never leaves
// the price transferred without its reward.
func settleStart(tx Tx, inst *model.DungeonInstance, server model.AccountID) error {
	if err := tx.Unreserve(inst.Player, inst.Price); err != nil {
		return err
	}
	if err := tx.Transfer(inst.Player, server, inst.Price, true); err != nil {
		return err
	}
	for _, g := range inst.GrantedAssets {
		if err := tx.Mint(g.AssetID, server, g.Amount); err != nil {
			return err
		}
	}
	return nil
}

// settleEnd mints the outcome reward to the beneficiary: each captured
// grant scaled by the matched percentage, floor division.  Zero-amount
// mints are skipped.
func settleEnd(tx Tx, inst *model.DungeonInstance, beneficiary model.AccountID, percent uint8) error {
	for _, g := range inst.GrantedAssets {
		amount := g.Amount * uint64(percent) / 100
		if amount == 0 {
			continue
		}
		if err := tx.Mint(g.AssetID, beneficiary, amount); err != nil {
			return err
		}
	}
	return nil
}
