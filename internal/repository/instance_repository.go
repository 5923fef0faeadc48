package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// InstanceRepo provides access to the 'dungeon_instances' table.  The
// price, granted_assets and outcome_rewards columns hold the
// booking-time snapshot of the definition; the status columns encode
// the tagged union (unused variant fields are NULL).
type InstanceRepo struct {
	DB *sql.DB
}

// NewInstanceRepo returns an InstanceRepo bound to the given database.
func NewInstanceRepo(db *sql.DB) *InstanceRepo { return &InstanceRepo{DB: db} }

const instanceColumns = "ticket_id, dungeon_id, player_id, created_at_tick, status, server_id, close_due, report_at, outcome, price, granted_assets, outcome_rewards"

func scanInstance(row interface{ Scan(...any) error }) (model.DungeonInstance, error) {
	var (
		inst     model.DungeonInstance
		kind     string
		serverID sql.NullInt64
		closeDue sql.NullInt64
		reportAt sql.NullInt64
		outcome  sql.NullString
		grants   []byte
		rewards  []byte
	)
	err := row.Scan(&inst.TicketID, &inst.DungeonID, &inst.Player, &inst.CreatedAt,
		&kind, &serverID, &closeDue, &reportAt, &outcome,
		&inst.Price, &grants, &rewards)
	if err == sql.ErrNoRows {
		return model.DungeonInstance{}, engine.ErrNotFound
	}
	if err != nil {
		return model.DungeonInstance{}, err
	}
	inst.Status = model.InstanceStatus{Kind: model.StatusKind(kind)}
	if serverID.Valid {
		inst.Status.Server = model.AccountID(serverID.Int64)
	}
	if closeDue.Valid {
		inst.Status.CloseDue = model.Tick(closeDue.Int64)
	}
	if reportAt.Valid {
		inst.Status.ReportAt = model.Tick(reportAt.Int64)
	}
	if outcome.Valid {
		inst.Status.Outcome = model.Outcome(outcome.String)
	}
	if err := json.Unmarshal(grants, &inst.GrantedAssets); err != nil {
		return model.DungeonInstance{}, err
	}
	if err := json.Unmarshal(rewards, &inst.OutcomeRewards); err != nil {
		return model.DungeonInstance{}, err
	}
	return inst, nil
}

// statusArgs flattens the tagged union into the nullable status columns.
func statusArgs(s model.InstanceStatus) (string, sql.NullInt64, sql.NullInt64, sql.NullInt64, sql.NullString) {
	var serverID, closeDue, reportAt sql.NullInt64
	var outcome sql.NullString
	switch s.Kind {
	case model.StatusBooked:
		closeDue = sql.NullInt64{Int64: int64(s.CloseDue), Valid: true}
	case model.StatusStarted:
		serverID = sql.NullInt64{Int64: int64(s.Server), Valid: true}
		closeDue = sql.NullInt64{Int64: int64(s.CloseDue), Valid: true}
	case model.StatusEnded:
		serverID = sql.NullInt64{Int64: int64(s.Server), Valid: true}
		reportAt = sql.NullInt64{Int64: int64(s.ReportAt), Valid: true}
		outcome = sql.NullString{String: string(s.Outcome), Valid: true}
	}
	return string(s.Kind), serverID, closeDue, reportAt, outcome
}

// GetTx loads an instance inside a transaction.
func (r *InstanceRepo) GetTx(ctx context.Context, tx *sql.Tx, id model.TicketID) (model.DungeonInstance, error) {
	return scanInstance(tx.QueryRowContext(ctx,
		"SELECT "+instanceColumns+" FROM dungeon_instances WHERE ticket_id = ?", string(id)))
}

// InsertTx persists a freshly booked instance.  engine.ErrAlreadyExists
// on a ticket-id clash; the booking service maps that to ErrCollision.
func (r *InstanceRepo) InsertTx(ctx context.Context, tx *sql.Tx, inst model.DungeonInstance) error {
	grants, rewards, err := encodeGrantsRewards(inst.GrantedAssets, inst.OutcomeRewards)
	if err != nil {
		return err
	}
	kind, serverID, closeDue, reportAt, outcome := statusArgs(inst.Status)
	_, err = tx.ExecContext(ctx,
		"INSERT INTO dungeon_instances ("+instanceColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		string(inst.TicketID), uint64(inst.DungeonID), uint64(inst.Player), uint64(inst.CreatedAt),
		kind, serverID, closeDue, reportAt, outcome,
		uint64(inst.Price), grants, rewards)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1062") {
		return engine.ErrAlreadyExists
	}
	return err
}

// UpdateTx rewrites the status columns.  The snapshot columns are
// immutable after booking and deliberately not touched.
func (r *InstanceRepo) UpdateTx(ctx context.Context, tx *sql.Tx, inst model.DungeonInstance) error {
	kind, serverID, closeDue, reportAt, outcome := statusArgs(inst.Status)
	res, err := tx.ExecContext(ctx,
		"UPDATE dungeon_instances SET status = ?, server_id = ?, close_due = ?, report_at = ?, outcome = ? WHERE ticket_id = ?",
		kind, serverID, closeDue, reportAt, outcome, string(inst.TicketID))
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
	return nil
}

// OpenTx returns every instance not yet CLOSED, for the expiry sweep.
func (r *InstanceRepo) OpenTx(ctx context.Context, tx *sql.Tx) ([]model.DungeonInstance, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+instanceColumns+" FROM dungeon_instances WHERE status <> ? ORDER BY ticket_id",
		string(model.StatusClosed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DungeonInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// Get loads an instance outside any transaction.
func (r *InstanceRepo) Get(ctx context.Context, id model.TicketID) (model.DungeonInstance, error) {
	return scanInstance(r.DB.QueryRowContext(ctx,
		"SELECT "+instanceColumns+" FROM dungeon_instances WHERE ticket_id = ?", string(id)))
}

// ListByPlayer returns a player's instances, newest booking first.
func (r *InstanceRepo) ListByPlayer(ctx context.Context, player model.AccountID) ([]model.DungeonInstance, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+instanceColumns+" FROM dungeon_instances WHERE player_id = ? ORDER BY created_at_tick DESC",
		uint64(player))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.DungeonInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}
