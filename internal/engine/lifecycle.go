package engine

import (
	"context"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// Start claims a booked ticket for a server.  The reserved price moves
// to the server and the captured grants are minted to it, atomically
// with the BOOKED -> STARTED transition.
func (e *Engine) Start(ctx context.Context, server model.AccountID, ticketID model.TicketID) error {
	now := e.clock.Now()
	var inst model.DungeonInstance
	err := e.store.Update(ctx, func(tx Tx) error {
		var err error
		inst, err = tx.Instance(ticketID)
		if err != nil {
			return err
		}
		if !inst.Status.CanBecome(model.StatusStarted) {
			return ErrWrongState
		}
		if now >= inst.Status.CloseDue {
			return ErrExpired
		}
		if err := settleStart(tx, &inst, server); err != nil {
			return err
		}
		inst.Status = model.InstanceStatus{
			Kind:     model.StatusStarted,
			Server:   server,
			CloseDue: now + e.params.PlayingGap,
		}
		return tx.UpdateInstance(inst)
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{
		Kind:      EventInstanceStarted,
		DungeonID: inst.DungeonID,
		TicketID:  ticketID,
		Player:    inst.Player,
		Server:    server,
		Price:     inst.Price,
		At:        now,
	})
	return nil
}

// End reports a started session's outcome.  Only the server recorded at
// Start may report.  The outcome must appear in the captured reward
// table; its percentage scales the reward minted to the player.
func (e *Engine) End(ctx context.Context, server model.AccountID, ticketID model.TicketID, outcome model.Outcome) error {
	now := e.clock.Now()
	var inst model.DungeonInstance
	err := e.store.Update(ctx, func(tx Tx) error {
		var err error
		inst, err = tx.Instance(ticketID)
		if err != nil {
			return err
		}
		if !inst.Status.CanBecome(model.StatusEnded) {
			return ErrWrongState
		}
		if inst.Status.Server != server {
			return ErrUnauthorized
		}
		percent, ok := inst.RewardPercent(outcome)
		if !ok {
			return ErrUnknownOutcome
		}
		if err := settleEnd(tx, &inst, inst.Player, percent); err != nil {
			return err
		}
		inst.Status = model.InstanceStatus{
			Kind:     model.StatusEnded,
			Server:   server,
			ReportAt: now,
			Outcome:  outcome,
		}
		return tx.UpdateInstance(inst)
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{
		Kind:      EventInstanceEnded,
		DungeonID: inst.DungeonID,
		TicketID:  ticketID,
		Player:    inst.Player,
		Server:    server,
		Outcome:   outcome,
		At:        now,
	})
	return nil
}

// Finalize closes an instance without waiting for the sweep.  A booked
// ticket may be finalized by its player or a manager; the held price is
// released back to the player.  An ended instance may be finalized by
// its player, its server or a manager.  Started sessions must be ended
// (or timed out by the sweep) first.
func (e *Engine) Finalize(ctx context.Context, caller model.AccountID, ticketID model.TicketID) error {
	now := e.clock.Now()
	var inst model.DungeonInstance
	err := e.store.Update(ctx, func(tx Tx) error {
		var err error
		inst, err = tx.Instance(ticketID)
		if err != nil {
			return err
		}
		if !inst.Status.CanBecome(model.StatusClosed) {
			return ErrWrongState
		}
		switch inst.Status.Kind {
		case model.StatusBooked:
			if caller != inst.Player {
				if err := e.requireManager(ctx, caller); err != nil {
					return err
				}
			}
			if err := tx.Unreserve(inst.Player, inst.Price); err != nil {
				return err
			}
		case model.StatusEnded:
			if caller != inst.Player && caller != inst.Status.Server {
				if err := e.requireManager(ctx, caller); err != nil {
					return err
				}
			}
		}
		inst.Status = model.InstanceStatus{Kind: model.StatusClosed}
		return tx.UpdateInstance(inst)
	})
	if err != nil {
		return err
	}
	e.notify.Notify(Event{
		Kind:      EventInstanceClosed,
		DungeonID: inst.DungeonID,
		TicketID:  ticketID,
		Player:    inst.Player,
		At:        now,
	})
	return nil
}

// Sweep is the once-per-tick maintenance entry point.  It visits every
// open instance: booked tickets past their closing window release the
// held price and close; started sessions past their playing window end
// with the TIMEOUT outcome (rewarded only if the captured table lists
// it) and are closed by a later sweep; ended instances close.  Skipping
// or delaying a sweep delays closure but violates nothing else.
func (e *Engine) Sweep(ctx context.Context) (int, error) {
	now := e.clock.Now()
	var events []Event
	err := e.store.Update(ctx, func(tx Tx) error {
		events = events[:0]
		open, err := tx.OpenInstances()
		if err != nil {
			return err
		}
		for _, inst := range open {
			switch inst.Status.Kind {
			case model.StatusBooked:
				if now < inst.Status.CloseDue {
					continue
				}
				if err := tx.Unreserve(inst.Player, inst.Price); err != nil {
					return err
				}
				inst.Status = model.InstanceStatus{Kind: model.StatusClosed}
				if err := tx.UpdateInstance(inst); err != nil {
					return err
				}
				events = append(events, Event{
					Kind: EventInstanceClosed, DungeonID: inst.DungeonID,
					TicketID: inst.TicketID, Player: inst.Player, At: now,
				})
			case model.StatusStarted:
				if now < inst.Status.CloseDue {
					continue
				}
				// A missing TIMEOUT entry means no reward, not a failure.
				if percent, ok := inst.RewardPercent(model.OutcomeTimeout); ok {
					if err := settleEnd(tx, &inst, inst.Player, percent); err != nil {
						return err
					}
				}
				server := inst.Status.Server
				inst.Status = model.InstanceStatus{
					Kind:     model.StatusEnded,
					Server:   server,
					ReportAt: now,
					Outcome:  model.OutcomeTimeout,
				}
				if err := tx.UpdateInstance(inst); err != nil {
					return err
				}
				events = append(events, Event{
					Kind: EventInstanceEnded, DungeonID: inst.DungeonID,
					TicketID: inst.TicketID, Player: inst.Player,
					Server: server, Outcome: model.OutcomeTimeout, At: now,
				})
			case model.StatusEnded:
				inst.Status = model.InstanceStatus{Kind: model.StatusClosed}
				if err := tx.UpdateInstance(inst); err != nil {
					return err
				}
				events = append(events, Event{
					Kind: EventInstanceClosed, DungeonID: inst.DungeonID,
					TicketID: inst.TicketID, Player: inst.Player, At: now,
				})
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, ev := range events {
		e.notify.Notify(ev)
	}
	return len(events), nil
}
