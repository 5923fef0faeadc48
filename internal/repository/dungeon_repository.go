package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// DungeonRepo provides access to the 'dungeons' table.  Granted assets
// and the outcome reward table are stored as JSON columns; definitions
// are never deleted, so historical tickets always resolve.
type DungeonRepo struct {
	DB *sql.DB
}

// NewDungeonRepo returns a DungeonRepo bound to the given database.
func NewDungeonRepo(db *sql.DB) *DungeonRepo { return &DungeonRepo{DB: db} }

const dungeonColumns = "id, ticket_price, granted_assets, outcome_rewards, created_at, updated_at"

func scanDungeon(row interface{ Scan(...any) error }) (model.DungeonDefinition, error) {
	var (
		def     model.DungeonDefinition
		grants  []byte
		rewards []byte
	)
	err := row.Scan(&def.ID, &def.TicketPrice, &grants, &rewards, &def.CreatedAt, &def.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.DungeonDefinition{}, engine.ErrNotFound
	}
	if err != nil {
		return model.DungeonDefinition{}, err
	}
	if err := json.Unmarshal(grants, &def.GrantedAssets); err != nil {
		return model.DungeonDefinition{}, err
	}
	if err := json.Unmarshal(rewards, &def.OutcomeRewards); err != nil {
		return model.DungeonDefinition{}, err
	}
	return def, nil
}

func encodeGrantsRewards(grants []model.AssetGrant, rewards []model.OutcomeReward) ([]byte, []byte, error) {
	if grants == nil {
		grants = []model.AssetGrant{}
	}
	if rewards == nil {
		rewards = []model.OutcomeReward{}
	}
	gb, err := json.Marshal(grants)
	if err != nil {
		return nil, nil, err
	}
	rb, err := json.Marshal(rewards)
	if err != nil {
		return nil, nil, err
	}
	return gb, rb, nil
}

// GetTx loads a definition inside a transaction.
func (r *DungeonRepo) GetTx(ctx context.Context, tx *sql.Tx, id model.DungeonID) (model.DungeonDefinition, error) {
	return scanDungeon(tx.QueryRowContext(ctx,
		"SELECT "+dungeonColumns+" FROM dungeons WHERE id = ?", uint64(id)))
}

// InsertTx stores a new definition.  engine.ErrAlreadyExists when the
// id is taken.
func (r *DungeonRepo) InsertTx(ctx context.Context, tx *sql.Tx, def model.DungeonDefinition) error {
	grants, rewards, err := encodeGrantsRewards(def.GrantedAssets, def.OutcomeRewards)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO dungeons (id, ticket_price, granted_assets, outcome_rewards) VALUES (?,?,?,?)",
		uint64(def.ID), uint64(def.TicketPrice), grants, rewards)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return engine.ErrAlreadyExists
	}
	return err
}

// UpdateTx rewrites a definition in place.
func (r *DungeonRepo) UpdateTx(ctx context.Context, tx *sql.Tx, def model.DungeonDefinition) error {
	grants, rewards, err := encodeGrantsRewards(def.GrantedAssets, def.OutcomeRewards)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE dungeons SET ticket_price = ?, granted_assets = ?, outcome_rewards = ?, updated_at = NOW() WHERE id = ?",
		uint64(def.TicketPrice), grants, rewards, uint64(def.ID))
	return err
}

// List returns every definition for public browsing.
func (r *DungeonRepo) List(ctx context.Context) ([]model.DungeonDefinition, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+dungeonColumns+" FROM dungeons ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var defs []model.DungeonDefinition
	for rows.Next() {
		def, err := scanDungeon(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// Get loads a definition outside any transaction.
func (r *DungeonRepo) Get(ctx context.Context, id model.DungeonID) (model.DungeonDefinition, error) {
	return scanDungeon(r.DB.QueryRowContext(ctx,
		"SELECT "+dungeonColumns+" FROM dungeons WHERE id = ?", uint64(id)))
}
