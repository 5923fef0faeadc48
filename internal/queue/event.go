// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

import "github.com/MintEngine/mintcraft-node/internal/model"

// LifecycleQueueName is the durable queue every lifecycle notification
// goes through.  One queue for all kinds keeps ordering per dungeon
// run intact.
const LifecycleQueueName = "dungeon.lifecycle"

// LifecycleEvent is the broker envelope for a committed engine event.
// It carries enough for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type LifecycleEvent struct {
	EventID     string          `json:"event_id"`
	Kind        string          `json:"kind"`
	DungeonID   model.DungeonID `json:"dungeon_id,omitempty"`
	TicketID    model.TicketID  `json:"ticket_id,omitempty"`
	PlayerID    model.AccountID `json:"player_id,omitempty"`
	ServerID    model.AccountID `json:"server_id,omitempty"`
	PriceUnits  model.Balance   `json:"price_units,omitempty"`
	Outcome     model.Outcome   `json:"outcome,omitempty"`
	AtTick      model.Tick      `json:"at_tick"`
	PublishedAt string          `json:"published_at"`
}
