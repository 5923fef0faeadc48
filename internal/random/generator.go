// Package random provides the deterministic randomness and hashing
// collaborator.  Given the same server seed and the same sequence of
// draws, every replica derives the same values; the outputs are still
// unpredictable to anyone without the seed.
package random

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/MintEngine/mintcraft-node/internal/model"
)

// Generator draws values as HMAC-SHA256 over "domain:subseed" keyed by
// the server seed.  It also derives content-addressed ticket ids and
// implements engine.TicketMinter.
type Generator struct {
	seed     []byte
	maxRetry uint32
	nonce    atomic.Uint64
}

// NewGenerator builds a Generator from the configured server seed.
// maxRetry bounds the bias-correction loop in Uint32InRange; the larger
// it is, the more computation may be spent removing modulo bias.
func NewGenerator(serverSeed string, maxRetry uint32) *Generator {
	if maxRetry == 0 {
		maxRetry = 1
	}
	return &Generator{seed: []byte(serverSeed), maxRetry: maxRetry}
}

// Uint32 returns the deterministic draw for (domain, subseed).
func (g *Generator) Uint32(domain string, subseed uint64) uint32 {
	mac := hmac.New(sha256.New, g.seed)
	fmt.Fprintf(mac, "%s:%d", domain, subseed)
	return binary.BigEndian.Uint32(mac.Sum(nil)[:4])
}

// Uint32InRange maps a draw uniformly onto [0, total).  Modulo alone
// would bias low values, so the draw is retried with successive
// subseeds until it falls under the largest multiple of total, up to
// maxRetry attempts.
func (g *Generator) Uint32InRange(domain string, total uint32) uint32 {
	if total == 0 {
		return 0
	}
	v := g.Uint32(domain, 0)
	for i := uint32(1); i < g.maxRetry; i++ {
		if v < math.MaxUint32-math.MaxUint32%total {
			break
		}
		v = g.Uint32(domain, uint64(i))
	}
	return v % total
}

// TicketID derives a ticket id: SHA-256 over the instance's identifying
// content (dungeon, player, logical time) plus a seed-keyed nonce draw.
// The nonce counter makes two bookings by the same player at the same
// tick collide only by hash collision; the keyed draw makes the id
// unpredictable before the booking is admitted.
func (g *Generator) TicketID(d model.DungeonID, p model.AccountID, at model.Tick) model.TicketID {
	n := g.nonce.Add(1)
	draw := g.Uint32("ticket-nonce", n)

	var buf [36]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(d))
	binary.BigEndian.PutUint64(buf[8:16], uint64(p))
	binary.BigEndian.PutUint64(buf[16:24], uint64(at))
	binary.BigEndian.PutUint64(buf[24:32], n)
	binary.BigEndian.PutUint32(buf[32:36], draw)
	sum := sha256.Sum256(buf[:])
	return model.TicketID(hex.EncodeToString(sum[:]))
}
