package model

import "time"

// Asset mirrors the 'assets' table.  InUsing marks an asset as eligible
// for new dungeon grants; dungeon creation requires every referenced
// asset to be in use.  TotalSupply counts everything ever minted.
type Asset struct {
	ID          AssetID
	Name        string
	InUsing     bool
	TotalSupply uint64
	CreatedAt   time.Time
}

// AssetBalance mirrors one row of 'asset_balances'.
type AssetBalance struct {
	AssetID   AssetID
	AccountID AccountID
	Amount    uint64
}
