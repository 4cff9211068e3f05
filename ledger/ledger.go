// Package ledger implements the non-fungible token ledger the minting engine
// mints into: ownership mapping, per-owner balances and sequential token id
// allocation. Blocks of ids are allocated contiguously; each token in a block
// gets its own ownership entry and persisted record.
package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"mintgate/core/events"
	"mintgate/storage"
)

var (
	// ErrZeroQuantity indicates a mint request for zero tokens.
	ErrZeroQuantity = errors.New("ledger: zero quantity")
	// ErrZeroAddress indicates a mint or transfer targeting the zero address.
	ErrZeroAddress = errors.New("ledger: zero address")
	// ErrTokenNotFound indicates a query for an id that was never issued.
	ErrTokenNotFound = errors.New("ledger: token not found")
	// ErrNotTokenOwner indicates a transfer from an address that does not own the token.
	ErrNotTokenOwner = errors.New("ledger: not token owner")
)

// EventTypeTransfer is emitted once per token for mints and transfers. Mints
// carry the zero address as the sender.
const EventTypeTransfer = "token.transfer"

var (
	tokenPrefix = []byte("token/")
	nextIDKey   = []byte("ledger/next")
)

type tokenRecord struct {
	Owner string `json:"owner"`
}

// Ledger is an in-memory ownership index with write-through persistence. It
// has no locking of its own; mints reach it through the minting engine, whose
// hosting RPC server serializes them.
type Ledger struct {
	name   string
	symbol string

	db      storage.Database
	emitter events.Emitter

	nextID   uint64
	owners   map[uint64][20]byte
	balances map[[20]byte]uint64
}

// New opens a ledger over the given database, replaying any persisted tokens.
// Passing a nil database yields a purely in-memory ledger.
func New(name, symbol string, db storage.Database) (*Ledger, error) {
	l := &Ledger{
		name:     name,
		symbol:   symbol,
		db:       db,
		emitter:  events.NoopEmitter{},
		owners:   make(map[uint64][20]byte),
		balances: make(map[[20]byte]uint64),
	}
	if db == nil {
		return l, nil
	}
	if raw, err := db.Get(nextIDKey); err == nil {
		if len(raw) != 8 {
			return nil, fmt.Errorf("ledger: corrupt next-id record")
		}
		l.nextID = binary.BigEndian.Uint64(raw)
	}
	err := db.Iterate(tokenPrefix, func(key, value []byte) error {
		if len(key) != len(tokenPrefix)+8 {
			return fmt.Errorf("ledger: corrupt token key %q", key)
		}
		id := binary.BigEndian.Uint64(key[len(tokenPrefix):])
		var rec tokenRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("ledger: corrupt token record %d: %w", id, err)
		}
		raw, err := hex.DecodeString(rec.Owner)
		if err != nil || len(raw) != 20 {
			return fmt.Errorf("ledger: corrupt owner for token %d", id)
		}
		var owner [20]byte
		copy(owner[:], raw)
		l.owners[id] = owner
		l.balances[owner]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// Name returns the collection name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the collection symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// TotalSupply returns the number of issued tokens.
func (l *Ledger) TotalSupply() uint64 { return uint64(len(l.owners)) }

// NextTokenID returns the id the next mint will allocate first.
func (l *Ledger) NextTokenID() uint64 { return l.nextID }

// MintTo allocates the contiguous id block [first, first+quantity) to the
// recipient and returns first.
func (l *Ledger) MintTo(recipient [20]byte, quantity uint32) (uint64, error) {
	if quantity == 0 {
		return 0, ErrZeroQuantity
	}
	if recipient == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	first := l.nextID
	for i := uint32(0); i < quantity; i++ {
		id := first + uint64(i)
		l.owners[id] = recipient
		if err := l.persistToken(id, recipient); err != nil {
			l.unwind(first, i+1)
			return 0, err
		}
	}
	l.balances[recipient] += uint64(quantity)
	l.nextID = first + uint64(quantity)
	if err := l.persistNextID(); err != nil {
		l.balances[recipient] -= uint64(quantity)
		l.nextID = first
		l.unwind(first, quantity)
		return 0, err
	}
	for i := uint32(0); i < quantity; i++ {
		l.emitTransfer([20]byte{}, recipient, first+uint64(i))
	}
	return first, nil
}

// unwind drops the first n in-memory ownership entries of a failed batch.
func (l *Ledger) unwind(first uint64, n uint32) {
	for i := uint32(0); i < n; i++ {
		delete(l.owners, first+uint64(i))
	}
}

// BalanceOf returns the number of tokens held by addr.
func (l *Ledger) BalanceOf(addr [20]byte) uint64 {
	return l.balances[addr]
}

// Exists reports whether the token id has been issued.
func (l *Ledger) Exists(tokenID uint64) bool {
	_, ok := l.owners[tokenID]
	return ok
}

// OwnerOf returns the current owner of a token.
func (l *Ledger) OwnerOf(tokenID uint64) ([20]byte, error) {
	owner, ok := l.owners[tokenID]
	if !ok {
		return [20]byte{}, ErrTokenNotFound
	}
	return owner, nil
}

// Transfer moves a token between wallets. Only the current owner may move it.
func (l *Ledger) Transfer(from, to [20]byte, tokenID uint64) error {
	if to == ([20]byte{}) {
		return ErrZeroAddress
	}
	owner, ok := l.owners[tokenID]
	if !ok {
		return ErrTokenNotFound
	}
	if owner != from {
		return ErrNotTokenOwner
	}
	l.owners[tokenID] = to
	if err := l.persistToken(tokenID, to); err != nil {
		l.owners[tokenID] = from
		return err
	}
	l.balances[from]--
	l.balances[to]++
	l.emitTransfer(from, to, tokenID)
	return nil
}

func (l *Ledger) persistToken(id uint64, owner [20]byte) error {
	if l.db == nil {
		return nil
	}
	key := make([]byte, 0, len(tokenPrefix)+8)
	key = append(key, tokenPrefix...)
	key = binary.BigEndian.AppendUint64(key, id)
	raw, err := json.Marshal(tokenRecord{Owner: hex.EncodeToString(owner[:])})
	if err != nil {
		return err
	}
	return l.db.Put(key, raw)
}

func (l *Ledger) persistNextID() error {
	if l.db == nil {
		return nil
	}
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, l.nextID)
	return l.db.Put(nextIDKey, raw)
}

func (l *Ledger) emitTransfer(from, to [20]byte, id uint64) {
	if l.emitter == nil {
		return
	}
	l.emitter.Emit(&events.Record{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from": hex.EncodeToString(from[:]),
			"to":   hex.EncodeToString(to[:]),
			"id":   fmt.Sprintf("%d", id),
		},
	})
}
