package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
	"github.com/MintEngine/mintcraft-node/internal/utils"
)

// AccountRepo provides access to the 'accounts' table: registration and
// lookup for the auth layer, the manager registry, and the currency
// ledger the settlement engine drives.  Ledger mutations are Tx-only so
// they always join the transaction of the engine operation that caused
// them.
type AccountRepo struct {
	DB *sql.DB
	// Existential is the minimum spendable balance a keep-alive
	// transfer must leave behind on the sender.
	Existential model.Balance
}

// NewAccountRepo returns an AccountRepo bound to the given database.
func NewAccountRepo(db *sql.DB, existential model.Balance) *AccountRepo {
	return &AccountRepo{DB: db, Existential: existential}
}

// Create inserts an account and returns its ID.  New accounts are
// credited the configured starting balance so they can buy tickets
// right away.
func (r *AccountRepo) Create(ctx context.Context, email, password, role string, cost int, starting model.Balance) (model.AccountID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO accounts (email, password_hash, role, balance, reserved) VALUES (?,?,?,?,0)",
		email, hash, role, uint64(starting))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return model.AccountID(id), nil
}

// GetByEmail loads an account for login.  Returns engine.ErrNotFound
// when the email is unknown.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, role, balance, reserved, created_at, updated_at FROM accounts WHERE email = ?",
		email))
}

// GetByID loads an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id model.AccountID) (model.Account, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id, email, password_hash, role, balance, reserved, created_at, updated_at FROM accounts WHERE id = ?",
		uint64(id)))
}

func (r *AccountRepo) scanOne(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.Balance, &a.Reserved, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Account{}, engine.ErrNotFound
	}
	if err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// IsManager reports whether the account holds the MANAGER role.
func (r *AccountRepo) IsManager(ctx context.Context, id model.AccountID) (bool, error) {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM accounts WHERE id = ?", uint64(id)).Scan(&role)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == model.RoleManager, nil
}

// Promote grants manager rights.  ErrAlreadyManager when the account is
// one already, engine.ErrNotFound when it does not exist.
func (r *AccountRepo) Promote(ctx context.Context, id model.AccountID) error {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM accounts WHERE id = ?", uint64(id)).Scan(&role)
	if err == sql.ErrNoRows {
		return engine.ErrNotFound
	}
	if err != nil {
		return err
	}
	if role == model.RoleManager {
		return ErrAlreadyManager
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE accounts SET role = ? WHERE id = ?", model.RoleManager, uint64(id))
	return err
}

// Demote revokes manager rights, reverting the account to PLAYER.
func (r *AccountRepo) Demote(ctx context.Context, id model.AccountID) error {
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM accounts WHERE id = ?", uint64(id)).Scan(&role)
	if err == sql.ErrNoRows {
		return engine.ErrNotFound
	}
	if err != nil {
		return err
	}
	if role != model.RoleManager {
		return ErrNotManager
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE accounts SET role = ? WHERE id = ?", model.RolePlayer, uint64(id))
	return err
}

// ReserveTx moves spendable balance into the held balance.  The guard
// in the WHERE clause makes the check and the debit one atomic write.
func (r *AccountRepo) ReserveTx(ctx context.Context, tx *sql.Tx, who model.AccountID, amount model.Balance) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance - ?, reserved = reserved + ? WHERE id = ? AND balance >= ?",
		uint64(amount), uint64(amount), uint64(who), uint64(amount))
	if err != nil {
		return err
	}
	return r.explainNoRows(ctx, tx, res, who, engine.ErrInsufficientFunds)
}

// UnreserveTx releases held balance back to spendable.
func (r *AccountRepo) UnreserveTx(ctx context.Context, tx *sql.Tx, who model.AccountID, amount model.Balance) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + ?, reserved = reserved - ? WHERE id = ? AND reserved >= ?",
		uint64(amount), uint64(amount), uint64(who), uint64(amount))
	if err != nil {
		return err
	}
	return r.explainNoRows(ctx, tx, res, who, engine.ErrInsufficientFunds)
}

// TransferTx moves spendable balance between accounts.  With keepAlive
// the sender must retain at least the existential minimum.
func (r *AccountRepo) TransferTx(ctx context.Context, tx *sql.Tx, from, to model.AccountID, amount model.Balance, keepAlive bool) error {
	floor := model.Balance(0)
	if keepAlive {
		floor = r.Existential
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance - ? WHERE id = ? AND balance >= ?",
		uint64(amount), uint64(from), uint64(amount)+uint64(floor))
	if err != nil {
		return err
	}
	if err := r.explainNoRows(ctx, tx, res, from, engine.ErrInsufficientFunds); err != nil {
		return err
	}
	res, err = tx.ExecContext(ctx,
		"UPDATE accounts SET balance = balance + ? WHERE id = ?",
		uint64(amount), uint64(to))
	if err != nil {
		return err
	}
	return r.explainNoRows(ctx, tx, res, to, engine.ErrNotFound)
}

// explainNoRows turns a zero-row guarded update into the right
// sentinel: missing account or failed balance guard.  The pool runs
// with clientFoundRows=true, so zero here means the WHERE clause
// matched nothing, not that a matched row happened to write identical
// values (a zero-amount reserve on a funded account still counts).
func (r *AccountRepo) explainNoRows(ctx context.Context, tx *sql.Tx, res sql.Result, who model.AccountID, guardErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE id = ?)", uint64(who)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return engine.ErrNotFound
	}
	return guardErr
}
