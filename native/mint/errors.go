package mint

import "errors"

var (
	// ErrNotOwner indicates the caller does not hold the owner role.
	ErrNotOwner = errors.New("mint: caller is not the owner")
	// ErrNotMintable indicates the engine has not been opened for minting.
	ErrNotMintable = errors.New("mint: not mintable")
	// ErrInvalidStage indicates a stage index or timestamp resolved to no stage.
	ErrInvalidStage = errors.New("mint: invalid stage")
	// ErrInvalidStartAndEndTimestamp indicates a stage window with start >= end.
	ErrInvalidStartAndEndTimestamp = errors.New("mint: invalid start and end timestamp")
	// ErrInsufficientStageTimeGap indicates adjacent stages closer than the minimum gap.
	ErrInsufficientStageTimeGap = errors.New("mint: insufficient stage time gap")
	// ErrNotEnoughValue indicates the supplied payment does not cover price * quantity.
	ErrNotEnoughValue = errors.New("mint: not enough value")
	// ErrNoSupplyLeft indicates the mint would exceed the maximum mintable supply.
	ErrNoSupplyLeft = errors.New("mint: no supply left")
	// ErrStageSupplyExceeded indicates the mint would exceed the stage supply cap.
	ErrStageSupplyExceeded = errors.New("mint: stage supply exceeded")
	// ErrWalletStageLimitExceeded indicates the recipient hit the per-stage wallet cap.
	ErrWalletStageLimitExceeded = errors.New("mint: wallet stage limit exceeded")
	// ErrWalletGlobalLimitExceeded indicates the recipient hit the global wallet cap.
	ErrWalletGlobalLimitExceeded = errors.New("mint: wallet global limit exceeded")
	// ErrGlobalWalletLimitOverflow indicates a global wallet limit above the supply cap.
	ErrGlobalWalletLimitOverflow = errors.New("mint: global wallet limit overflow")
	// ErrCannotIncreaseMaxMintableSupply indicates an attempt to raise the supply cap.
	ErrCannotIncreaseMaxMintableSupply = errors.New("mint: cannot increase max mintable supply")
	// ErrSupplyBelowMinted indicates an attempt to lower the supply cap under what was minted.
	ErrSupplyBelowMinted = errors.New("mint: supply cap below minted supply")
	// ErrInvalidProof indicates the allowlist proof did not resolve to the stage root.
	ErrInvalidProof = errors.New("mint: invalid proof")
	// ErrCosignerNotSet indicates a cosign helper was invoked without a configured cosigner.
	ErrCosignerNotSet = errors.New("mint: cosigner not set")
	// ErrInvalidCosignSignature indicates the signature is malformed or signed by the wrong key.
	ErrInvalidCosignSignature = errors.New("mint: invalid cosign signature")
	// ErrTimestampExpired indicates the cosigned timestamp aged past the freshness window.
	ErrTimestampExpired = errors.New("mint: timestamp expired")
	// ErrCrossmintOnly indicates a crossmint call from a principal other than the payer.
	ErrCrossmintOnly = errors.New("mint: crossmint only")
	// ErrCrossmintAddressNotSet indicates crossmint was invoked before wiring the payer.
	ErrCrossmintAddressNotSet = errors.New("mint: crossmint address not set")
	// ErrNonexistentToken indicates a token URI query for an id the ledger never issued.
	ErrNonexistentToken = errors.New("mint: uri query for nonexistent token")
	// ErrPermanentBaseURI indicates a base URI update after the freeze latch was set.
	ErrPermanentBaseURI = errors.New("mint: cannot update permanent base uri")
	// ErrReentrantCall indicates re-entry into a mutating path while one is in flight.
	ErrReentrantCall = errors.New("ReentrancyGuard: reentrant call")
)
