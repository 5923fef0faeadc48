package model

import "time"

// DungeonID identifies a dungeon definition.
type DungeonID uint64

// AssetID identifies a fungible asset in the asset registry.
type AssetID uint64

// AccountID identifies an account on the ledger.
type AccountID uint64

// Balance is an amount of the on-ledger currency.
type Balance uint64

// Tick is the logical time unit.  It is an opaque monotonically
// increasing counter supplied by the host; expiry comparisons only ever
// use ordering, never wall-clock arithmetic.
type Tick uint64

// AssetGrant describes one asset minted to the claiming server when an
// instance starts.  The order of grants in a definition is preserved.
type AssetGrant struct {
	AssetID AssetID `json:"asset_id"`
	Amount  uint64  `json:"amount"`
}

// OutcomeReward maps a reported outcome to the percentage of the granted
// assets re-minted as the session reward.
type OutcomeReward struct {
	Outcome Outcome `json:"outcome"`
	Percent uint8   `json:"percent"`
}

// DungeonDefinition describes one bookable dungeon.  Definitions are
// created and mutated only by managers and are never deleted, so
// historical tickets stay resolvable.  Instances do not read the live
// definition after booking: the price, grants and reward table are
// captured into the instance at booking time.
type DungeonDefinition struct {
	ID             DungeonID       // dungeons.id
	TicketPrice    Balance         // dungeons.ticket_price
	GrantedAssets  []AssetGrant    // dungeons.granted_assets (JSON)
	OutcomeRewards []OutcomeReward // dungeons.outcome_rewards (JSON)
	CreatedAt      time.Time       // dungeons.created_at
	UpdatedAt      time.Time       // dungeons.updated_at
}

// RewardPercent looks up the reward share for an outcome.  The second
// return is false when the outcome has no entry in the table.
func (d *DungeonDefinition) RewardPercent(o Outcome) (uint8, bool) {
	for _, r := range d.OutcomeRewards {
		if r.Outcome == o {
			return r.Percent, true
		}
	}
	return 0, false
}
