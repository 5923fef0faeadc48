package engine

import "github.com/MintEngine/mintcraft-node/internal/model"

// EventKind names a lifecycle notification.
type EventKind string

const (
	EventDungeonCreated              EventKind = "dungeon.created"
	EventDungeonPriceModified        EventKind = "dungeon.price_modified"
	EventDungeonAssetsModified       EventKind = "dungeon.assets_modified"
	EventDungeonDistributionModified EventKind = "dungeon.distribution_modified"
	EventTicketBooked                EventKind = "ticket.booked"
	EventInstanceStarted             EventKind = "instance.started"
	EventInstanceEnded               EventKind = "instance.ended"
	EventInstanceClosed              EventKind = "instance.closed"
)

// Event is emitted after an engine operation commits.  Fields that do
// not apply to a kind are left zero.
type Event struct {
	Kind      EventKind       `json:"kind"`
	DungeonID model.DungeonID `json:"dungeon_id,omitempty"`
	TicketID  model.TicketID  `json:"ticket_id,omitempty"`
	Player    model.AccountID `json:"player,omitempty"`
	Server    model.AccountID `json:"server,omitempty"`
	Price     model.Balance   `json:"price,omitempty"`
	Outcome   model.Outcome   `json:"outcome,omitempty"`
	At        model.Tick      `json:"at"`
}

// Notifier receives committed events.  Delivery is best effort: the
// engine never fails an operation because a notification could not be
// published.
type Notifier interface {
	Notify(ev Event)
}

// NopNotifier drops every event.  Used in tests and when no broker is
// configured.
type NopNotifier struct{}

func (NopNotifier) Notify(Event) {}
