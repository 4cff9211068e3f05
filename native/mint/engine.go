package mint

import (
	"time"

	"github.com/holiman/uint256"

	"mintgate/core/events"
)

// Ledger is the slice of the token ledger the engine consumes. MintTo
// allocates a contiguous block of new token ids for the recipient and returns
// the first id of the block.
type Ledger interface {
	MintTo(recipient [20]byte, quantity uint32) (uint64, error)
	BalanceOf(addr [20]byte) uint64
	Exists(tokenID uint64) bool
}

// PaymentPort moves native value out of the engine: refunds of excess
// payment and owner withdrawals. A port implementation may hand control to
// arbitrary recipient code, so every call through it happens under the
// reentrancy latch.
type PaymentPort interface {
	Send(to [20]byte, amount *uint256.Int) error
}

// Params carries the constructor arguments for the engine.
type Params struct {
	// Engine is the address of the engine itself; it is bound into every
	// cosign digest.
	Engine [20]byte
	// Owner is the fixed privileged principal.
	Owner [20]byte
	// BaseURI seeds the metadata policy; it stays mutable until frozen.
	BaseURI string
	// MaxMintableSupply caps total supply; it can only decrease later.
	MaxMintableSupply uint32
	// GlobalWalletLimit caps any wallet's ledger balance; zero disables it.
	GlobalWalletLimit uint32
	// Cosigner, when non-zero, requires a fresh co-signature on every mint.
	Cosigner [20]byte
}

// walletStageKey scopes per-wallet stage counters to a schedule generation so
// counters from a replaced schedule can never alias the new stage indices.
type walletStageKey struct {
	generation uint64
	stage      int
	wallet     [20]byte
}

// Engine is the gated, staged, capped minting state machine. It owns the
// stage schedule, all supply accounting, the allowlist and cosigner checks,
// and the metadata policy; token ownership itself lives behind the Ledger.
//
// The engine is single-writer by contract: the hosting surface serializes
// mutating calls the way a transactional ledger serializes transactions. The
// reentrancy latch guards against the payment port calling back into a
// mutating path during a refund or withdrawal.
type Engine struct {
	entered bool

	engineAddr [20]byte
	owner      [20]byte

	ledger   Ledger
	payments PaymentPort
	emitter  events.Emitter
	nowFn    func() int64

	mintable          bool
	maxMintableSupply uint32
	globalWalletLimit uint32
	totalSupply       uint32
	ownerMinted       uint32

	stages       []Stage
	generation   uint64
	activeStage  int
	stageMinted  []uint32
	walletMinted map[walletStageKey]uint32

	cosigner  [20]byte
	crossmint [20]byte

	baseURI        string
	tokenURISuffix string
	baseURIFrozen  bool

	held *uint256.Int
}

// NewEngine constructs an engine with an empty schedule and minting disabled.
func NewEngine(params Params, ledger Ledger, payments PaymentPort) (*Engine, error) {
	if params.GlobalWalletLimit > params.MaxMintableSupply {
		return nil, ErrGlobalWalletLimitOverflow
	}
	return &Engine{
		engineAddr:        params.Engine,
		owner:             params.Owner,
		ledger:            ledger,
		payments:          payments,
		emitter:           events.NoopEmitter{},
		nowFn:             func() int64 { return time.Now().Unix() },
		maxMintableSupply: params.MaxMintableSupply,
		globalWalletLimit: params.GlobalWalletLimit,
		cosigner:          params.Cosigner,
		baseURI:           params.BaseURI,
		walletMinted:      make(map[walletStageKey]uint32),
		held:              uint256.NewInt(0),
	}, nil
}

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the engine clock, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() int64 { return e.nowFn() }

func (e *Engine) emit(evt events.Event) {
	if e.emitter != nil && evt != nil {
		e.emitter.Emit(evt)
	}
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if caller != e.owner {
		return ErrNotOwner
	}
	return nil
}

// latch acquires the reentrancy guard; release must be deferred immediately.
func (e *Engine) latch() error {
	if e.entered {
		return ErrReentrantCall
	}
	e.entered = true
	return nil
}

func (e *Engine) release() { e.entered = false }

// --- caps & counters ---

// SetMaxMintableSupply lowers the supply cap. Equal values are accepted;
// raising the cap or shrinking it below what has already been minted fails.
func (e *Engine) SetMaxMintableSupply(caller [20]byte, n uint32) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if n > e.maxMintableSupply {
		return ErrCannotIncreaseMaxMintableSupply
	}
	if n < e.totalSupply {
		return ErrSupplyBelowMinted
	}
	e.maxMintableSupply = n
	return nil
}

// SetGlobalWalletLimit updates the per-wallet global cap.
func (e *Engine) SetGlobalWalletLimit(caller [20]byte, n uint32) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if n > e.maxMintableSupply {
		return ErrGlobalWalletLimitOverflow
	}
	e.globalWalletLimit = n
	return nil
}

// MaxMintableSupply returns the current supply cap.
func (e *Engine) MaxMintableSupply() uint32 { return e.maxMintableSupply }

// GlobalWalletLimit returns the per-wallet global cap; zero means disabled.
func (e *Engine) GlobalWalletLimit() uint32 { return e.globalWalletLimit }

// TotalSupply returns the number of tokens minted through the engine.
func (e *Engine) TotalSupply() uint32 { return e.totalSupply }

// OwnerMinted returns the portion of total supply issued via OwnerMint.
func (e *Engine) OwnerMinted() uint32 { return e.ownerMinted }

// Held returns the accumulated payment balance awaiting withdrawal.
func (e *Engine) Held() *uint256.Int { return new(uint256.Int).Set(e.held) }

// --- stage schedule ---

// SetStages atomically replaces the schedule. All per-stage counters reset,
// per-wallet stage counters are re-scoped to a fresh generation, and the
// active stage pointer re-anchors to 0.
func (e *Engine) SetStages(caller [20]byte, stages []Stage) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := ValidateSchedule(stages); err != nil {
		return err
	}
	e.stages = cloneSchedule(stages)
	e.stageMinted = make([]uint32, len(e.stages))
	e.generation++
	e.activeStage = 0
	for i := range e.stages {
		e.emit(NewUpdateStageEvent(i, e.stages[i]))
	}
	return nil
}

// UpdateStage edits a single schedule entry in place. The stage window and
// the gaps to its immediate neighbours are re-validated; the stage's counters
// are left untouched.
func (e *Engine) UpdateStage(caller [20]byte, index int, stage Stage) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if index < 0 || index >= len(e.stages) {
		return ErrInvalidStage
	}
	if err := stage.validate(); err != nil {
		return err
	}
	if index > 0 && stage.StartUnix < e.stages[index-1].EndUnix+MinStageGap {
		return ErrInsufficientStageTimeGap
	}
	if index+1 < len(e.stages) && e.stages[index+1].StartUnix < stage.EndUnix+MinStageGap {
		return ErrInsufficientStageTimeGap
	}
	e.stages[index] = stage.Clone()
	e.emit(NewUpdateStageEvent(index, e.stages[index]))
	return nil
}

// SetActiveStage moves the owner-selected stage pointer.
func (e *Engine) SetActiveStage(caller [20]byte, index int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if index < 0 || index >= len(e.stages) {
		return ErrInvalidStage
	}
	e.activeStage = index
	return nil
}

// NumberStages returns the schedule length.
func (e *Engine) NumberStages() int { return len(e.stages) }

// ActiveStage returns the owner-selected stage index.
func (e *Engine) ActiveStage() int { return e.activeStage }

// GetStageInfo returns the stage definition plus the caller's per-stage mint
// count and the stage's total mint count.
func (e *Engine) GetStageInfo(index int, caller [20]byte) (StageInfo, error) {
	if index < 0 || index >= len(e.stages) {
		return StageInfo{}, ErrInvalidStage
	}
	return StageInfo{
		Stage:        e.stages[index].Clone(),
		WalletMinted: e.walletMinted[e.walletKey(index, caller)],
		StageMinted:  e.stageMinted[index],
	}, nil
}

func (e *Engine) walletKey(stage int, wallet [20]byte) walletStageKey {
	return walletStageKey{generation: e.generation, stage: stage, wallet: wallet}
}

// stageForTimestamp resolves the stage whose window contains ts.
func (e *Engine) stageForTimestamp(ts uint64) (int, bool) {
	for i := range e.stages {
		if e.stages[i].contains(ts) {
			return i, true
		}
	}
	return 0, false
}

// --- authorization wiring ---

// SetMintable toggles the public mint gate.
func (e *Engine) SetMintable(caller [20]byte, mintable bool) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mintable = mintable
	e.emit(NewSetMintableEvent(mintable))
	return nil
}

// Mintable reports whether public mint paths are open.
func (e *Engine) Mintable() bool { return e.mintable }

// SetCosigner installs or clears (zero address) the off-chain co-signer.
func (e *Engine) SetCosigner(caller, cosigner [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.cosigner = cosigner
	return nil
}

// Cosigner returns the configured co-signer, zero when unset.
func (e *Engine) Cosigner() [20]byte { return e.cosigner }

// SetCrossmintAddress designates the third-party payer principal.
func (e *Engine) SetCrossmintAddress(caller, addr [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.crossmint = addr
	return nil
}

// CrossmintAddress returns the third-party payer, zero when unset.
func (e *Engine) CrossmintAddress() [20]byte { return e.crossmint }

// GetCosignDigest exposes the canonical digest for off-chain signing.
func (e *Engine) GetCosignDigest(minter [20]byte, quantity uint32, timestamp uint64) ([32]byte, error) {
	if e.cosigner == ([20]byte{}) {
		return [32]byte{}, ErrCosignerNotSet
	}
	return CosignDigest(e.engineAddr, minter, quantity, e.cosigner, timestamp), nil
}

// AssertValidCosign verifies the cosigner's signature and the freshness of
// the cosigned timestamp. It returns nil on a valid, fresh co-signature.
func (e *Engine) AssertValidCosign(minter [20]byte, quantity uint32, timestamp uint64, sig []byte) error {
	if e.cosigner == ([20]byte{}) {
		return ErrCosignerNotSet
	}
	digest := CosignDigest(e.engineAddr, minter, quantity, e.cosigner, timestamp)
	signer, err := recoverCosigner(digest, sig)
	if err != nil {
		return err
	}
	if signer != e.cosigner {
		return ErrInvalidCosignSignature
	}
	now := e.now()
	age := now - int64(timestamp)
	if age < 0 {
		age = -age
	}
	if age > CosignFreshness {
		return ErrTimestampExpired
	}
	return nil
}

// --- mint state machine ---

// Mint is the direct entry point: the caller pays and receives the tokens.
// It returns the first token id of the allocated block.
func (e *Engine) Mint(caller [20]byte, quantity uint32, proof [][32]byte, timestamp uint64, sig []byte, value *uint256.Int) (uint64, error) {
	if err := e.latch(); err != nil {
		return 0, err
	}
	defer e.release()
	return e.mintLocked(caller, caller, quantity, proof, timestamp, sig, value)
}

// Crossmint is the third-party-payer entry point: the designated crossmint
// principal pays, the named recipient receives, and every authorization check
// (allowlist, wallet caps) is keyed by the recipient.
func (e *Engine) Crossmint(caller [20]byte, quantity uint32, recipient [20]byte, proof [][32]byte, timestamp uint64, sig []byte, value *uint256.Int) (uint64, error) {
	if err := e.latch(); err != nil {
		return 0, err
	}
	defer e.release()
	if e.crossmint == ([20]byte{}) {
		return 0, ErrCrossmintAddressNotSet
	}
	if caller != e.crossmint {
		return 0, ErrCrossmintOnly
	}
	return e.mintLocked(caller, recipient, quantity, proof, timestamp, sig, value)
}

// mintLocked runs the check sequence of the user mint paths. The caller must
// hold the reentrancy latch. Check ordering is part of the contract: the
// first failing check names the error the caller observes.
func (e *Engine) mintLocked(payer, recipient [20]byte, quantity uint32, proof [][32]byte, timestamp uint64, sig []byte, value *uint256.Int) (uint64, error) {
	if !e.mintable {
		return 0, ErrNotMintable
	}

	var stageIdx int
	if e.cosigner != ([20]byte{}) {
		idx, ok := e.stageForTimestamp(timestamp)
		if !ok {
			return 0, ErrInvalidStage
		}
		stageIdx = idx
		if err := e.AssertValidCosign(recipient, quantity, timestamp, sig); err != nil {
			return 0, err
		}
	} else {
		if e.activeStage >= len(e.stages) {
			return 0, ErrInvalidStage
		}
		stageIdx = e.activeStage
	}
	stage := e.stages[stageIdx]

	if stage.MerkleRoot != ([32]byte{}) {
		if !VerifyAllowlistProof(stage.MerkleRoot, proof, recipient) {
			return 0, ErrInvalidProof
		}
	}

	cost, overflow := new(uint256.Int).MulOverflow(stage.price(), uint256.NewInt(uint64(quantity)))
	if overflow {
		return 0, ErrNotEnoughValue
	}
	if value == nil {
		value = uint256.NewInt(0)
	}
	if value.Lt(cost) {
		return 0, ErrNotEnoughValue
	}

	if uint64(e.totalSupply)+uint64(quantity) > uint64(e.maxMintableSupply) {
		return 0, ErrNoSupplyLeft
	}
	if stage.MaxStageSupply != 0 && uint64(e.stageMinted[stageIdx])+uint64(quantity) > uint64(stage.MaxStageSupply) {
		return 0, ErrStageSupplyExceeded
	}
	if e.globalWalletLimit != 0 && e.ledger.BalanceOf(recipient)+uint64(quantity) > uint64(e.globalWalletLimit) {
		return 0, ErrWalletGlobalLimitExceeded
	}
	key := e.walletKey(stageIdx, recipient)
	if stage.WalletLimit != 0 && uint64(e.walletMinted[key])+uint64(quantity) > uint64(stage.WalletLimit) {
		return 0, ErrWalletStageLimitExceeded
	}

	// Commit point. Counter updates below are rolled back if the ledger
	// mint or the refund transfer fails.
	e.stageMinted[stageIdx] += quantity
	e.walletMinted[key] += quantity
	e.totalSupply += quantity
	revert := func() {
		e.stageMinted[stageIdx] -= quantity
		e.walletMinted[key] -= quantity
		e.totalSupply -= quantity
	}

	firstID, err := e.ledger.MintTo(recipient, quantity)
	if err != nil {
		revert()
		return 0, err
	}

	e.held = new(uint256.Int).Add(e.held, cost)
	if value.Gt(cost) {
		excess := new(uint256.Int).Sub(value, cost)
		if err := e.payments.Send(payer, excess); err != nil {
			e.held = new(uint256.Int).Sub(e.held, cost)
			revert()
			return 0, err
		}
	}
	return firstID, nil
}

// OwnerMint issues tokens outside the stage machinery: no stage, allowlist,
// cosigner or wallet-cap checks, and no stage counters move. The supply cap
// still binds.
func (e *Engine) OwnerMint(caller [20]byte, quantity uint32, recipient [20]byte) (uint64, error) {
	if err := e.latch(); err != nil {
		return 0, err
	}
	defer e.release()
	if err := e.requireOwner(caller); err != nil {
		return 0, err
	}
	if uint64(e.totalSupply)+uint64(quantity) > uint64(e.maxMintableSupply) {
		return 0, ErrNoSupplyLeft
	}
	firstID, err := e.ledger.MintTo(recipient, quantity)
	if err != nil {
		return 0, err
	}
	e.totalSupply += quantity
	e.ownerMinted += quantity
	return firstID, nil
}

// Withdraw transfers the full held balance to the owner.
func (e *Engine) Withdraw(caller [20]byte) (*uint256.Int, error) {
	if err := e.latch(); err != nil {
		return nil, err
	}
	defer e.release()
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	amount := new(uint256.Int).Set(e.held)
	if amount.IsZero() {
		return amount, nil
	}
	if err := e.payments.Send(e.owner, amount); err != nil {
		return nil, err
	}
	e.held = uint256.NewInt(0)
	return amount, nil
}
