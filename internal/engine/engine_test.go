package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
	"github.com/MintEngine/mintcraft-node/internal/random"
	"github.com/MintEngine/mintcraft-node/internal/repository"
)

const (
	manager  = model.AccountID(1)
	player   = model.AccountID(2)
	server   = model.AccountID(3)
	stranger = model.AccountID(4)

	keyAsset = model.AssetID(7)

	dungeonID = model.DungeonID(42)
	price     = model.Balance(100)

	closingGap = model.Tick(10)
	playingGap = model.Tick(30)
)

// recorder collects emitted events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []engine.Event
}

func (r *recorder) Notify(ev engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []engine.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type fixture struct {
	eng   *engine.Engine
	store *repository.MemoryStore
	clock *engine.TickClock
	rec   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore(1)
	store.CreateAccount(manager, model.RoleManager, 1000)
	store.CreateAccount(player, model.RolePlayer, 1000)
	store.CreateAccount(server, model.RoleServer, 100)
	store.CreateAccount(stranger, model.RolePlayer, 1000)
	store.CreateAsset(keyAsset, "dungeon-key", true)

	clock := engine.NewTickClock(100)
	rec := &recorder{}
	gen := random.NewGenerator("test-seed", 10)
	eng := engine.New(store, store, clock, gen, rec, engine.Params{
		ClosingGap: closingGap,
		PlayingGap: playingGap,
	})
	return &fixture{eng: eng, store: store, clock: clock, rec: rec}
}

func (f *fixture) advance(n int) {
	for i := 0; i < n; i++ {
		f.clock.Advance()
	}
}

func (f *fixture) createDungeon(t *testing.T) {
	t.Helper()
	err := f.eng.CreateDungeon(context.Background(), manager, dungeonID, price,
		[]model.AssetGrant{{AssetID: keyAsset, Amount: 8}},
		[]model.OutcomeReward{
			{Outcome: "VICTORY", Percent: 50},
			{Outcome: model.OutcomeTimeout, Percent: 25},
		})
	if err != nil {
		t.Fatalf("CreateDungeon: %v", err)
	}
}

func (f *fixture) buy(t *testing.T) model.TicketID {
	t.Helper()
	ticket, err := f.eng.BuyTicket(context.Background(), player, dungeonID)
	if err != nil {
		t.Fatalf("BuyTicket: %v", err)
	}
	return ticket
}

func (f *fixture) instance(t *testing.T, id model.TicketID) model.DungeonInstance {
	t.Helper()
	inst, err := f.eng.Instance(context.Background(), id)
	if err != nil {
		t.Fatalf("Instance(%s): %v", id, err)
	}
	return inst
}

func (f *fixture) account(t *testing.T, id model.AccountID) model.Account {
	t.Helper()
	a, ok := f.store.Account(id)
	if !ok {
		t.Fatalf("account %d missing", id)
	}
	return a
}

func TestCreateDungeonRequiresManager(t *testing.T) {
	f := newFixture(t)
	err := f.eng.CreateDungeon(context.Background(), player, dungeonID, price, nil, nil)
	if !errors.Is(err, engine.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestCreateDungeonDuplicateID(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	err := f.eng.CreateDungeon(context.Background(), manager, dungeonID, price, nil, nil)
	if !errors.Is(err, engine.ErrAlreadyExists) {
		t.Fatalf("got %v, want ErrAlreadyExists", err)
	}
}

func TestCreateDungeonRejectsUnusedAsset(t *testing.T) {
	f := newFixture(t)
	f.store.CreateAsset(8, "retired", false)
	err := f.eng.CreateDungeon(context.Background(), manager, dungeonID, price,
		[]model.AssetGrant{{AssetID: 8, Amount: 1}}, nil)
	if !errors.Is(err, engine.ErrAssetUnavailable) {
		t.Fatalf("got %v, want ErrAssetUnavailable", err)
	}
}

func TestCreateDungeonRejectsBadRewardTable(t *testing.T) {
	f := newFixture(t)
	cases := [][]model.OutcomeReward{
		{{Outcome: "WIN", Percent: 101}},
		{{Outcome: "WIN", Percent: 10}, {Outcome: "WIN", Percent: 20}},
	}
	for i, rewards := range cases {
		err := f.eng.CreateDungeon(context.Background(), manager, dungeonID, price, nil, rewards)
		if !errors.Is(err, engine.ErrInvalidDistribution) {
			t.Fatalf("case %d: got %v, want ErrInvalidDistribution", i, err)
		}
	}
}

func TestBuyTicketReservesPriceAndCapturesSnapshot(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)

	a := f.account(t, player)
	if a.Balance != 900 || a.Reserved != 100 {
		t.Fatalf("player balance=%d reserved=%d, want 900/100", a.Balance, a.Reserved)
	}

	inst := f.instance(t, ticket)
	if inst.Status.Kind != model.StatusBooked {
		t.Fatalf("status %s, want BOOKED", inst.Status.Kind)
	}
	if want := f.clock.Now() + closingGap; inst.Status.CloseDue != want {
		t.Fatalf("close due %d, want %d", inst.Status.CloseDue, want)
	}
	if inst.Price != price || len(inst.GrantedAssets) != 1 || len(inst.OutcomeRewards) != 2 {
		t.Fatalf("snapshot not captured: %+v", inst)
	}
}

func TestBuyTicketUnknownDungeon(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.BuyTicket(context.Background(), player, 999)
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestBuyTicketInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	err := f.eng.CreateDungeon(context.Background(), manager, dungeonID, 5000, nil, nil)
	if err != nil {
		t.Fatalf("CreateDungeon: %v", err)
	}
	_, err = f.eng.BuyTicket(context.Background(), player, dungeonID)
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	// The failed booking must leave no hold behind.
	a := f.account(t, player)
	if a.Balance != 1000 || a.Reserved != 0 {
		t.Fatalf("player balance=%d reserved=%d after failed buy", a.Balance, a.Reserved)
	}
}

func TestTicketIDsAreUniqueWithinATick(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	first := f.buy(t)
	second := f.buy(t)
	if first == second {
		t.Fatalf("two bookings produced the same ticket id %s", first)
	}
}

func TestStartSettlesPriceAndGrants(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)

	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}

	p := f.account(t, player)
	s := f.account(t, server)
	if p.Balance != 900 || p.Reserved != 0 {
		t.Fatalf("player balance=%d reserved=%d, want 900/0", p.Balance, p.Reserved)
	}
	if s.Balance != 200 {
		t.Fatalf("server balance=%d, want 200", s.Balance)
	}
	if got := f.store.AssetBalance(keyAsset, server); got != 8 {
		t.Fatalf("server asset balance=%d, want 8", got)
	}
	if asset, _ := f.store.Asset(keyAsset); asset.TotalSupply != 8 {
		t.Fatalf("total supply=%d, want 8", asset.TotalSupply)
	}

	inst := f.instance(t, ticket)
	if inst.Status.Kind != model.StatusStarted || inst.Status.Server != server {
		t.Fatalf("status %+v, want STARTED by server", inst.Status)
	}
	if want := f.clock.Now() + playingGap; inst.Status.CloseDue != want {
		t.Fatalf("playing deadline %d, want %d", inst.Status.CloseDue, want)
	}
}

func TestStartTwiceIsWrongState(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.Start(context.Background(), server, ticket); !errors.Is(err, engine.ErrWrongState) {
		t.Fatalf("got %v, want ErrWrongState", err)
	}
}

func TestStartAfterClosingWindowIsExpired(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	f.advance(int(closingGap))
	if err := f.eng.Start(context.Background(), server, ticket); !errors.Is(err, engine.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
}

func TestStartAbortsAtomicallyWhenTransferFails(t *testing.T) {
	f := newFixture(t)
	// A player holding exactly the price cannot satisfy the keep-alive
	// minimum on transfer, so Start must fail after the funds were
	// unreserved inside the transaction.
	poor := model.AccountID(9)
	f.store.CreateAccount(poor, model.RolePlayer, 100)
	f.createDungeon(t)
	ticket, err := f.eng.BuyTicket(context.Background(), poor, dungeonID)
	if err != nil {
		t.Fatalf("BuyTicket: %v", err)
	}

	if err := f.eng.Start(context.Background(), server, ticket); !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
	// Nothing may have moved: the hold is still in place and the ticket
	// is still claimable.
	a := f.account(t, poor)
	if a.Balance != 0 || a.Reserved != 100 {
		t.Fatalf("poor balance=%d reserved=%d, want 0/100", a.Balance, a.Reserved)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusBooked {
		t.Fatalf("status %s, want BOOKED", inst.Status.Kind)
	}
}

func TestEndMintsScaledRewardToPlayer(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.End(context.Background(), server, ticket, "VICTORY"); err != nil {
		t.Fatalf("End: %v", err)
	}

	// 50% of the 8 granted keys, floor division.
	if got := f.store.AssetBalance(keyAsset, player); got != 4 {
		t.Fatalf("player asset balance=%d, want 4", got)
	}
	inst := f.instance(t, ticket)
	if inst.Status.Kind != model.StatusEnded || inst.Status.Outcome != "VICTORY" {
		t.Fatalf("status %+v, want ENDED/VICTORY", inst.Status)
	}
	if inst.Status.ReportAt != f.clock.Now() {
		t.Fatalf("report tick %d, want %d", inst.Status.ReportAt, f.clock.Now())
	}
}

func TestEndByWrongServerIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.End(context.Background(), stranger, ticket, "VICTORY"); !errors.Is(err, engine.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestEndUnknownOutcome(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.End(context.Background(), server, ticket, "DRAW"); !errors.Is(err, engine.ErrUnknownOutcome) {
		t.Fatalf("got %v, want ErrUnknownOutcome", err)
	}
	// Nothing minted on the failed report.
	if got := f.store.AssetBalance(keyAsset, player); got != 0 {
		t.Fatalf("player asset balance=%d, want 0", got)
	}
}

func TestEndBeforeStartIsWrongState(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.End(context.Background(), server, ticket, "VICTORY"); !errors.Is(err, engine.ErrWrongState) {
		t.Fatalf("got %v, want ErrWrongState", err)
	}
}

func TestPriceChangeDoesNotTouchBookedTickets(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)

	if err := f.eng.ModifyPrice(context.Background(), manager, dungeonID, 9999); err != nil {
		t.Fatalf("ModifyPrice: %v", err)
	}
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// The server received the captured price, not the new one.
	if s := f.account(t, server); s.Balance != 200 {
		t.Fatalf("server balance=%d, want 200", s.Balance)
	}
}

func TestFinalizeBookedRefundsPlayer(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)

	if err := f.eng.Finalize(context.Background(), player, ticket); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	a := f.account(t, player)
	if a.Balance != 1000 || a.Reserved != 0 {
		t.Fatalf("player balance=%d reserved=%d, want 1000/0", a.Balance, a.Reserved)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusClosed {
		t.Fatalf("status %s, want CLOSED", inst.Status.Kind)
	}
}

func TestFinalizeBookedByStrangerIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Finalize(context.Background(), stranger, ticket); !errors.Is(err, engine.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestFinalizeStartedIsWrongState(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.Finalize(context.Background(), player, ticket); !errors.Is(err, engine.ErrWrongState) {
		t.Fatalf("got %v, want ErrWrongState", err)
	}
}

func TestFinalizeEndedByServer(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.End(context.Background(), server, ticket, "VICTORY"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := f.eng.Finalize(context.Background(), server, ticket); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusClosed {
		t.Fatalf("status %s, want CLOSED", inst.Status.Kind)
	}
}

func TestFinalizeClosedTicketIsWrongState(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Finalize(context.Background(), player, ticket); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := f.eng.Finalize(context.Background(), player, ticket); !errors.Is(err, engine.ErrWrongState) {
		t.Fatalf("got %v, want ErrWrongState", err)
	}
}

func TestZeroPriceTicketLifecycle(t *testing.T) {
	f := newFixture(t)
	free := model.DungeonID(43)
	err := f.eng.CreateDungeon(context.Background(), manager, free, 0,
		[]model.AssetGrant{{AssetID: keyAsset, Amount: 8}},
		[]model.OutcomeReward{{Outcome: "VICTORY", Percent: 50}})
	if err != nil {
		t.Fatalf("CreateDungeon: %v", err)
	}

	ticket, err := f.eng.BuyTicket(context.Background(), player, free)
	if err != nil {
		t.Fatalf("BuyTicket: %v", err)
	}
	if a := f.account(t, player); a.Balance != 1000 || a.Reserved != 0 {
		t.Fatalf("player balance=%d reserved=%d after free booking, want 1000/0", a.Balance, a.Reserved)
	}

	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s := f.account(t, server); s.Balance != 100 {
		t.Fatalf("server balance=%d, want 100", s.Balance)
	}
	if got := f.store.AssetBalance(keyAsset, server); got != 8 {
		t.Fatalf("server asset balance=%d, want 8", got)
	}

	if err := f.eng.End(context.Background(), server, ticket, "VICTORY"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if got := f.store.AssetBalance(keyAsset, player); got != 4 {
		t.Fatalf("player asset balance=%d, want 4", got)
	}
}

func TestSweepClosesExpiredBooking(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	f.advance(int(closingGap))

	n, err := f.eng.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d instances, want 1", n)
	}
	a := f.account(t, player)
	if a.Balance != 1000 || a.Reserved != 0 {
		t.Fatalf("player balance=%d reserved=%d after sweep", a.Balance, a.Reserved)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusClosed {
		t.Fatalf("status %s, want CLOSED", inst.Status.Kind)
	}
}

func TestSweepLeavesFreshBookingAlone(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)

	n, err := f.eng.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("swept %d instances, want 0", n)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusBooked {
		t.Fatalf("status %s, want BOOKED", inst.Status.Kind)
	}
}

func TestSweepTimesOutStartedSession(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.advance(int(playingGap))

	if _, err := f.eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	inst := f.instance(t, ticket)
	if inst.Status.Kind != model.StatusEnded || inst.Status.Outcome != model.OutcomeTimeout {
		t.Fatalf("status %+v, want ENDED/TIMEOUT", inst.Status)
	}
	// TIMEOUT is listed at 25%: floor(8*25/100) = 2 keys to the player.
	if got := f.store.AssetBalance(keyAsset, player); got != 2 {
		t.Fatalf("player asset balance=%d, want 2", got)
	}

	// The next sweep closes the timed-out instance.
	if _, err := f.eng.Sweep(context.Background()); err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusClosed {
		t.Fatalf("status %s, want CLOSED", inst.Status.Kind)
	}
}

func TestSweepTimeoutWithoutTableEntryMintsNothing(t *testing.T) {
	f := newFixture(t)
	err := f.eng.CreateDungeon(context.Background(), manager, dungeonID, price,
		[]model.AssetGrant{{AssetID: keyAsset, Amount: 8}},
		[]model.OutcomeReward{{Outcome: "VICTORY", Percent: 50}})
	if err != nil {
		t.Fatalf("CreateDungeon: %v", err)
	}
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.advance(int(playingGap))

	if _, err := f.eng.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if got := f.store.AssetBalance(keyAsset, player); got != 0 {
		t.Fatalf("player asset balance=%d, want 0", got)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusEnded {
		t.Fatalf("status %s, want ENDED", inst.Status.Kind)
	}
}

func TestSweepClosesEndedInstance(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.End(context.Background(), server, ticket, "VICTORY"); err != nil {
		t.Fatalf("End: %v", err)
	}
	n, err := f.eng.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d instances, want 1", n)
	}
	if inst := f.instance(t, ticket); inst.Status.Kind != model.StatusClosed {
		t.Fatalf("status %s, want CLOSED", inst.Status.Kind)
	}
}

func TestLifecycleEmitsEventsInOrder(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	ticket := f.buy(t)
	if err := f.eng.Start(context.Background(), server, ticket); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.eng.End(context.Background(), server, ticket, "VICTORY"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if err := f.eng.Finalize(context.Background(), player, ticket); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	want := []engine.EventKind{
		engine.EventDungeonCreated,
		engine.EventTicketBooked,
		engine.EventInstanceStarted,
		engine.EventInstanceEnded,
		engine.EventInstanceClosed,
	}
	got := f.rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestModifyAssetsSupplyRequiresUsableAssets(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	f.store.CreateAsset(8, "retired", false)

	err := f.eng.ModifyAssetsSupply(context.Background(), manager, dungeonID,
		[]model.AssetGrant{{AssetID: 8, Amount: 1}})
	if !errors.Is(err, engine.ErrAssetUnavailable) {
		t.Fatalf("got %v, want ErrAssetUnavailable", err)
	}
}

func TestModifyDistributionRatio(t *testing.T) {
	f := newFixture(t)
	f.createDungeon(t)
	err := f.eng.ModifyDistributionRatio(context.Background(), manager, dungeonID,
		[]model.OutcomeReward{{Outcome: "FLAWLESS", Percent: 100}})
	if err != nil {
		t.Fatalf("ModifyDistributionRatio: %v", err)
	}
	def, err := f.eng.Dungeon(context.Background(), dungeonID)
	if err != nil {
		t.Fatalf("Dungeon: %v", err)
	}
	if len(def.OutcomeRewards) != 1 || def.OutcomeRewards[0].Outcome != "FLAWLESS" {
		t.Fatalf("reward table not replaced: %+v", def.OutcomeRewards)
	}
}
