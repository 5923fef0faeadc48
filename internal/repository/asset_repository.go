package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// AssetRepo provides access to the 'assets' and 'asset_balances'
// tables.  Minting raises the asset's total supply and the
// beneficiary's balance in the same transaction.
type AssetRepo struct {
	DB *sql.DB
}

// NewAssetRepo returns an AssetRepo bound to the given database.
func NewAssetRepo(db *sql.DB) *AssetRepo { return &AssetRepo{DB: db} }

// Create registers a new asset.  engine.ErrAlreadyExists when the id
// is taken.
func (r *AssetRepo) Create(ctx context.Context, id model.AssetID, name string, inUsing bool) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO assets (id, name, in_using, total_supply) VALUES (?,?,?,0)",
		uint64(id), name, inUsing)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return engine.ErrAlreadyExists
	}
	return err
}

// SetInUsing toggles grant eligibility.
func (r *AssetRepo) SetInUsing(ctx context.Context, id model.AssetID, inUsing bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE assets SET in_using = ? WHERE id = ?", inUsing, uint64(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either missing or already in the requested state.
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM assets WHERE id = ?)", uint64(id)).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return engine.ErrNotFound
		}
	}
	return nil
}

// Get loads one asset.
func (r *AssetRepo) Get(ctx context.Context, id model.AssetID) (model.Asset, error) {
	var a model.Asset
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, in_using, total_supply, created_at FROM assets WHERE id = ?",
		uint64(id)).Scan(&a.ID, &a.Name, &a.InUsing, &a.TotalSupply, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Asset{}, engine.ErrNotFound
	}
	if err != nil {
		return model.Asset{}, err
	}
	return a, nil
}

// List returns every registered asset.
func (r *AssetRepo) List(ctx context.Context) ([]model.Asset, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, in_using, total_supply, created_at FROM assets ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.InUsing, &a.TotalSupply, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Balance returns an account's holding of one asset.  Missing rows read
// as zero.
func (r *AssetRepo) Balance(ctx context.Context, id model.AssetID, who model.AccountID) (uint64, error) {
	var amount uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT amount FROM asset_balances WHERE asset_id = ? AND account_id = ?",
		uint64(id), uint64(who)).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// MintTx credits the beneficiary and raises total supply atomically
// within the caller's transaction.
func (r *AssetRepo) MintTx(ctx context.Context, tx *sql.Tx, id model.AssetID, beneficiary model.AccountID, amount uint64) error {
	if amount == 0 {
		// Nothing to credit; verify the asset exists without creating
		// an empty balance row.
		_, err := r.InUsingTx(ctx, tx, id)
		return err
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE assets SET total_supply = total_supply + ? WHERE id = ?",
		amount, uint64(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engine.ErrNotFound
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO asset_balances (asset_id, account_id, amount) VALUES (?,?,?) "+
			"ON DUPLICATE KEY UPDATE amount = amount + VALUES(amount)",
		uint64(id), uint64(beneficiary), amount)
	return err
}

// InUsingTx reads grant eligibility inside the caller's transaction.
func (r *AssetRepo) InUsingTx(ctx context.Context, tx *sql.Tx, id model.AssetID) (bool, error) {
	var inUsing bool
	err := tx.QueryRowContext(ctx,
		"SELECT in_using FROM assets WHERE id = ?", uint64(id)).Scan(&inUsing)
	if err == sql.ErrNoRows {
		return false, engine.ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return inUsing, nil
}
