package engine

import (
	"context"
	"errors"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// BuyTicket reserves the dungeon's ticket price from the player and
// books a new instance.  The returned ticket id is a content hash over
// (dungeon, player, created_at, nonce); the nonce comes from the
// deterministic generator, so the id cannot be precomputed before the
// booking runs.  The definition's price, grants and reward table are
// captured into the instance here and never re-read afterwards.
func (e *Engine) BuyTicket(ctx context.Context, player model.AccountID, dungeonID model.DungeonID) (model.TicketID, error) {
	now := e.clock.Now()
	var ticket model.TicketID
	err := e.store.Update(ctx, func(tx Tx) error {
		def, err := tx.Dungeon(dungeonID)
		if err != nil {
			return err
		}
		if err := tx.Reserve(player, def.TicketPrice); err != nil {
			return err
		}
		ticket = e.tickets.TicketID(dungeonID, player, now)
		inst := model.DungeonInstance{
			TicketID:  ticket,
			DungeonID: dungeonID,
			Player:    player,
			CreatedAt: now,
			Status: model.InstanceStatus{
				Kind:     model.StatusBooked,
				CloseDue: now + e.params.ClosingGap,
			},
			Price:          def.TicketPrice,
			GrantedAssets:  def.GrantedAssets,
			OutcomeRewards: def.OutcomeRewards,
		}
		if err := tx.InsertInstance(inst); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				return ErrCollision
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	e.notify.Notify(Event{
		Kind:      EventTicketBooked,
		DungeonID: dungeonID,
		TicketID:  ticket,
		Player:    player,
		At:        now,
	})
	return ticket, nil
}
