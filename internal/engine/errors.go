// Package engine implements the dungeon instance lifecycle: definition
// registry, ticket booking, the BOOKED/STARTED/ENDED/CLOSED state
// machine, the settlement effects tied to each transition, and the
// expiry sweep.  All mutations run through a transactional Store so a
// settlement and its status write commit or roll back together.
package engine

import "errors"

// Sentinel errors returned by engine operations.  Handlers compare with
// errors.Is and translate to HTTP codes; the store backends return the
// same sentinels so callers never see backend-specific failures for
// precondition violations.
var (
	// ErrAlreadyExists is returned when creating a dungeon or asset
	// whose id is already present.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when a dungeon, instance, account or
	// asset id resolves to nothing.
	ErrNotFound = errors.New("not found")

	// ErrAssetUnavailable is returned by dungeon creation when a
	// granted asset is not currently in use.
	ErrAssetUnavailable = errors.New("asset not in use")

	// ErrInsufficientFunds is returned by the currency ledger when a
	// reserve or keep-alive transfer cannot be honored.  It passes
	// through the engine unchanged.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWrongState is returned when a transition is attempted from a
	// status that does not admit it.
	ErrWrongState = errors.New("wrong instance state")

	// ErrExpired is returned by Start when the booking window has
	// elapsed.
	ErrExpired = errors.New("ticket expired")

	// ErrUnauthorized is returned when the caller is not the recorded
	// server, not the player, or lacks manager rights.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownOutcome is returned by End when the reported outcome
	// has no entry in the instance's captured reward table.
	ErrUnknownOutcome = errors.New("unknown outcome")

	// ErrCollision is returned when a freshly derived ticket id is
	// already present in storage.  With a content hash over a
	// randomness-derived nonce this is vanishingly unlikely, but a
	// booking must never silently overwrite an existing instance.
	ErrCollision = errors.New("ticket id collision")

	// ErrInvalidDistribution is returned when a reward table carries a
	// percentage above 100 or lists the same outcome twice.
	ErrInvalidDistribution = errors.New("invalid distribution table")
)
