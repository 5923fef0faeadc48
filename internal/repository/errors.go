// Package repository implements persistence over MySQL in the same
// shape for every entity: a small repo struct around *sql.DB with
// Tx-suffixed methods for work that must join a caller-owned
// transaction.  Precondition failures are reported with the engine's
// sentinel errors so handlers translate uniformly regardless of which
// layer detected them.
package repository

import "errors"

// ErrEmailExists is returned when registering an account with an email
// that is already taken.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyManager is returned when promoting an account that already
// holds manager rights.
var ErrAlreadyManager = errors.New("account is already a manager")

// ErrNotManager is returned when demoting an account that does not
// hold manager rights.
var ErrNotManager = errors.New("account is not a manager")
