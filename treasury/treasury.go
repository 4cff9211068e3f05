// Package treasury provides the native-value port backing the minting
// engine: refunds and withdrawals are credited to per-address books rather
// than moved on a real value ledger.
package treasury

import (
	"encoding/hex"

	"github.com/holiman/uint256"

	"mintgate/core/events"
)

// EventTypePayout is emitted for every outbound transfer.
const EventTypePayout = "treasury.payout"

// Book accumulates outbound value per recipient. It has no locking of its
// own; calls reach it through the engine, whose hosting RPC server
// serializes them.
type Book struct {
	emitter events.Emitter
	credits map[[20]byte]*uint256.Int
}

// NewBook returns an empty payout book.
func NewBook() *Book {
	return &Book{
		emitter: events.NoopEmitter{},
		credits: make(map[[20]byte]*uint256.Int),
	}
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (b *Book) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		b.emitter = events.NoopEmitter{}
		return
	}
	b.emitter = emitter
}

// Send implements the engine's PaymentPort: it credits the recipient's book.
func (b *Book) Send(to [20]byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	current, ok := b.credits[to]
	if !ok {
		current = uint256.NewInt(0)
	}
	b.credits[to] = new(uint256.Int).Add(current, amount)
	b.emitter.Emit(&events.Record{
		Type: EventTypePayout,
		Attributes: map[string]string{
			"to":     hex.EncodeToString(to[:]),
			"amount": amount.Dec(),
		},
	})
	return nil
}

// CreditOf returns the total value paid out to addr.
func (b *Book) CreditOf(addr [20]byte) *uint256.Int {
	current, ok := b.credits[addr]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(current)
}
