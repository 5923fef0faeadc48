package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

// MemoryStore is the map-backed engine.Store.  It demonstrates that
// the engine is storage-agnostic and carries the engine test suite
// without a database.  Update stages all writes on a copy of the state
// and swaps it in only when the callback succeeds, giving the same
// all-or-nothing semantics as a MySQL transaction.
type MemoryStore struct {
	mu          sync.Mutex
	state       memState
	Existential model.Balance
}

type balanceKey struct {
	asset   model.AssetID
	account model.AccountID
}

type memState struct {
	dungeons  map[model.DungeonID]model.DungeonDefinition
	instances map[model.TicketID]model.DungeonInstance
	accounts  map[model.AccountID]model.Account
	assets    map[model.AssetID]model.Asset
	balances  map[balanceKey]uint64
}

func (s memState) clone() memState {
	out := memState{
		dungeons:  make(map[model.DungeonID]model.DungeonDefinition, len(s.dungeons)),
		instances: make(map[model.TicketID]model.DungeonInstance, len(s.instances)),
		accounts:  make(map[model.AccountID]model.Account, len(s.accounts)),
		assets:    make(map[model.AssetID]model.Asset, len(s.assets)),
		balances:  make(map[balanceKey]uint64, len(s.balances)),
	}
	for k, v := range s.dungeons {
		out.dungeons[k] = v
	}
	for k, v := range s.instances {
		out.instances[k] = v
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.assets {
		out.assets[k] = v
	}
	for k, v := range s.balances {
		out.balances[k] = v
	}
	return out
}

// NewMemoryStore returns an empty store with the given existential
// minimum for keep-alive transfers.
func NewMemoryStore(existential model.Balance) *MemoryStore {
	return &MemoryStore{
		state: memState{
			dungeons:  map[model.DungeonID]model.DungeonDefinition{},
			instances: map[model.TicketID]model.DungeonInstance{},
			accounts:  map[model.AccountID]model.Account{},
			assets:    map[model.AssetID]model.Asset{},
			balances:  map[balanceKey]uint64{},
		},
		Existential: existential,
	}
}

// Update implements engine.Store with staged-copy transactions.
func (s *MemoryStore) Update(ctx context.Context, fn func(engine.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.state.clone()
	if err := fn(&memTx{state: &staged, existential: s.Existential}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

// View implements engine.Store.  The callback still receives a staged
// copy, so stray writes never leak.
func (s *MemoryStore) View(ctx context.Context, fn func(engine.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := s.state.clone()
	return fn(&memTx{state: &staged, existential: s.Existential})
}

// IsManager implements engine.ManagerAccess.
func (s *MemoryStore) IsManager(ctx context.Context, who model.AccountID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.accounts[who]
	return ok && a.Role == model.RoleManager, nil
}

// CreateAccount seeds an account.
func (s *MemoryStore) CreateAccount(id model.AccountID, role string, balance model.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.accounts[id] = model.Account{ID: id, Role: role, Balance: balance}
}

// CreateAsset seeds an asset.
func (s *MemoryStore) CreateAsset(id model.AssetID, name string, inUsing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.assets[id] = model.Asset{ID: id, Name: name, InUsing: inUsing, CreatedAt: time.Now()}
}

// Account reads an account snapshot.
func (s *MemoryStore) Account(id model.AccountID) (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.accounts[id]
	return a, ok
}

// Asset reads an asset snapshot.
func (s *MemoryStore) Asset(id model.AssetID) (model.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.assets[id]
	return a, ok
}

// AssetBalance reads an account's holding of one asset.
func (s *MemoryStore) AssetBalance(id model.AssetID, who model.AccountID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.balances[balanceKey{asset: id, account: who}]
}

// memTx mutates one staged state copy.
type memTx struct {
	state       *memState
	existential model.Balance
}

func (t *memTx) Dungeon(id model.DungeonID) (model.DungeonDefinition, error) {
	def, ok := t.state.dungeons[id]
	if !ok {
		return model.DungeonDefinition{}, engine.ErrNotFound
	}
	return def, nil
}

func (t *memTx) InsertDungeon(def model.DungeonDefinition) error {
	if _, ok := t.state.dungeons[def.ID]; ok {
		return engine.ErrAlreadyExists
	}
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	t.state.dungeons[def.ID] = def
	return nil
}

func (t *memTx) UpdateDungeon(def model.DungeonDefinition) error {
	if _, ok := t.state.dungeons[def.ID]; !ok {
		return engine.ErrNotFound
	}
	def.UpdatedAt = time.Now()
	t.state.dungeons[def.ID] = def
	return nil
}

func (t *memTx) Instance(id model.TicketID) (model.DungeonInstance, error) {
	inst, ok := t.state.instances[id]
	if !ok {
		return model.DungeonInstance{}, engine.ErrNotFound
	}
	return inst, nil
}

func (t *memTx) InsertInstance(inst model.DungeonInstance) error {
	if _, ok := t.state.instances[inst.TicketID]; ok {
		return engine.ErrAlreadyExists
	}
	t.state.instances[inst.TicketID] = inst
	return nil
}

func (t *memTx) UpdateInstance(inst model.DungeonInstance) error {
	if _, ok := t.state.instances[inst.TicketID]; !ok {
		return engine.ErrNotFound
	}
	t.state.instances[inst.TicketID] = inst
	return nil
}

func (t *memTx) OpenInstances() ([]model.DungeonInstance, error) {
	var out []model.DungeonInstance
	for _, inst := range t.state.instances {
		if inst.Status.Kind != model.StatusClosed {
			out = append(out, inst)
		}
	}
	// Deterministic visit order, mirroring the SQL backend.
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out, nil
}

func (t *memTx) Reserve(who model.AccountID, amount model.Balance) error {
	a, ok := t.state.accounts[who]
	if !ok {
		return engine.ErrNotFound
	}
	if a.Balance < amount {
		return engine.ErrInsufficientFunds
	}
	a.Balance -= amount
	a.Reserved += amount
	t.state.accounts[who] = a
	return nil
}

func (t *memTx) Unreserve(who model.AccountID, amount model.Balance) error {
	a, ok := t.state.accounts[who]
	if !ok {
		return engine.ErrNotFound
	}
	if a.Reserved < amount {
		return engine.ErrInsufficientFunds
	}
	a.Reserved -= amount
	a.Balance += amount
	t.state.accounts[who] = a
	return nil
}

func (t *memTx) Transfer(from, to model.AccountID, amount model.Balance, keepAlive bool) error {
	src, ok := t.state.accounts[from]
	if !ok {
		return engine.ErrNotFound
	}
	dst, ok := t.state.accounts[to]
	if !ok {
		return engine.ErrNotFound
	}
	floor := model.Balance(0)
	if keepAlive {
		floor = t.existential
	}
	if src.Balance < amount+floor {
		return engine.ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	src.Balance -= amount
	dst.Balance += amount
	t.state.accounts[from] = src
	t.state.accounts[to] = dst
	return nil
}

func (t *memTx) Mint(id model.AssetID, beneficiary model.AccountID, amount uint64) error {
	a, ok := t.state.assets[id]
	if !ok {
		return engine.ErrNotFound
	}
	a.TotalSupply += amount
	t.state.assets[id] = a
	t.state.balances[balanceKey{asset: id, account: beneficiary}] += amount
	return nil
}

func (t *memTx) AssetInUsing(id model.AssetID) (bool, error) {
	a, ok := t.state.assets[id]
	if !ok {
		return false, engine.ErrNotFound
	}
	return a.InUsing, nil
}
