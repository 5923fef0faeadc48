package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/model"
)

func TestMemoryStoreUpdateRollsBackOnError(t *testing.T) {
	s := NewMemoryStore(1)
	s.CreateAccount(1, model.RolePlayer, 100)

	boom := errors.New("boom")
	err := s.Update(context.Background(), func(tx engine.Tx) error {
		if err := tx.Reserve(1, 50); err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	a, _ := s.Account(1)
	if a.Balance != 100 || a.Reserved != 0 {
		t.Fatalf("staged write leaked: balance=%d reserved=%d", a.Balance, a.Reserved)
	}
}

func TestMemoryStoreTransferKeepAliveFloor(t *testing.T) {
	s := NewMemoryStore(10)
	s.CreateAccount(1, model.RolePlayer, 100)
	s.CreateAccount(2, model.RoleServer, 0)

	err := s.Update(context.Background(), func(tx engine.Tx) error {
		return tx.Transfer(1, 2, 95, true)
	})
	if !errors.Is(err, engine.ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}

	if err := s.Update(context.Background(), func(tx engine.Tx) error {
		return tx.Transfer(1, 2, 90, true)
	}); err != nil {
		t.Fatalf("Transfer within floor: %v", err)
	}
	a, _ := s.Account(1)
	b, _ := s.Account(2)
	if a.Balance != 10 || b.Balance != 90 {
		t.Fatalf("balances %d/%d, want 10/90", a.Balance, b.Balance)
	}
}

func TestMemoryStoreSelfTransferIsNoop(t *testing.T) {
	s := NewMemoryStore(1)
	s.CreateAccount(1, model.RolePlayer, 100)

	if err := s.Update(context.Background(), func(tx engine.Tx) error {
		return tx.Transfer(1, 1, 40, false)
	}); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	a, _ := s.Account(1)
	if a.Balance != 100 {
		t.Fatalf("self transfer changed balance to %d", a.Balance)
	}
}

func TestMemoryStoreMintTracksSupplyAndBalance(t *testing.T) {
	s := NewMemoryStore(1)
	s.CreateAsset(5, "gem", true)

	if err := s.Update(context.Background(), func(tx engine.Tx) error {
		if err := tx.Mint(5, 3, 7); err != nil {
			return err
		}
		return tx.Mint(5, 3, 2)
	}); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if got := s.AssetBalance(5, 3); got != 9 {
		t.Fatalf("balance=%d, want 9", got)
	}
	asset, _ := s.Asset(5)
	if asset.TotalSupply != 9 {
		t.Fatalf("supply=%d, want 9", asset.TotalSupply)
	}

	err := s.Update(context.Background(), func(tx engine.Tx) error {
		return tx.Mint(99, 3, 1)
	})
	if !errors.Is(err, engine.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound for unknown asset", err)
	}
}
