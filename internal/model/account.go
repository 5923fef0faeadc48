package model

import "time"

// Account roles.  MANAGER may mutate the dungeon and asset registries,
// PLAYER buys tickets, SERVER claims and reports instances.
const (
	RoleManager = "MANAGER"
	RolePlayer  = "PLAYER"
	RoleServer  = "SERVER"
)

// Account mirrors the 'accounts' table.  Balance is the spendable
// balance; Reserved is the held balance backing booked tickets.  The
// two never overlap: reserve moves funds from Balance to Reserved,
// unreserve moves them back.
type Account struct {
	ID           AccountID
	Email        string
	PasswordHash string
	Role         string
	Balance      Balance
	Reserved     Balance
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
