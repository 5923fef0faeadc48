package model

// TicketID is the content hash that identifies a dungeon instance.  It
// is derived at booking time from (dungeon, player, created_at, nonce)
// and stored as a hex string.
type TicketID string

// Outcome is the reported result of a played session.  The set of
// meaningful outcomes is defined per dungeon by its reward table; the
// engine only interprets OutcomeTimeout, which the expiry sweep assigns
// to sessions whose playing window elapsed.
type Outcome string

// OutcomeTimeout is the designated outcome for swept-out sessions.
const OutcomeTimeout Outcome = "TIMEOUT"

// StatusKind enumerates the lifecycle states of an instance.
type StatusKind string

const (
	StatusBooked  StatusKind = "BOOKED"
	StatusStarted StatusKind = "STARTED"
	StatusEnded   StatusKind = "ENDED"
	StatusClosed  StatusKind = "CLOSED"
)

// InstanceStatus is the tagged union of lifecycle states.  Kind selects
// the active variant; the remaining fields are meaningful only for the
// kinds noted on each field.  Transitions are strictly forward:
// BOOKED -> STARTED -> ENDED -> CLOSED, with CLOSED also reachable
// directly from BOOKED via expiry or finalize.
type InstanceStatus struct {
	Kind     StatusKind `json:"kind"`
	Server   AccountID  `json:"server,omitempty"`    // STARTED, ENDED
	CloseDue Tick       `json:"close_due,omitempty"` // BOOKED, STARTED
	ReportAt Tick       `json:"report_at,omitempty"` // ENDED
	Outcome  Outcome    `json:"outcome,omitempty"`   // ENDED
}

// CanBecome reports whether a transition from the receiver's kind to the
// target kind is a legal forward edge.
func (s InstanceStatus) CanBecome(to StatusKind) bool {
	switch s.Kind {
	case StatusBooked:
		return to == StatusStarted || to == StatusClosed
	case StatusStarted:
		return to == StatusEnded
	case StatusEnded:
		return to == StatusClosed
	}
	return false
}

// DungeonInstance is one booked session.  Price, GrantedAssets and
// OutcomeRewards are the booking-time snapshot of the definition; a
// later modification of the dungeon never changes what an in-flight
// ticket settles with.  Instances become immutable once CLOSED.
type DungeonInstance struct {
	TicketID  TicketID       // dungeon_instances.ticket_id
	DungeonID DungeonID      // dungeon_instances.dungeon_id
	Player    AccountID      // dungeon_instances.player_id
	CreatedAt Tick           // dungeon_instances.created_at_tick
	Status    InstanceStatus // status columns

	Price          Balance         // dungeon_instances.price
	GrantedAssets  []AssetGrant    // dungeon_instances.granted_assets (JSON)
	OutcomeRewards []OutcomeReward // dungeon_instances.outcome_rewards (JSON)
}

// RewardPercent looks up the captured reward share for an outcome.
func (i *DungeonInstance) RewardPercent(o Outcome) (uint8, bool) {
	for _, r := range i.OutcomeRewards {
		if r.Outcome == o {
			return r.Percent, true
		}
	}
	return 0, false
}
