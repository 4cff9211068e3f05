package mint

import (
	"github.com/holiman/uint256"
)

const (
	// MinStageGap is the minimum number of seconds between the end of one
	// stage and the start of the next.
	MinStageGap uint64 = 60
	// CosignFreshness is the maximum age, in seconds, of a cosigned
	// timestamp relative to the engine clock.
	CosignFreshness int64 = 60
)

// Stage describes one timed sale window with uniform price and access rules.
// A zero WalletLimit, MaxStageSupply or MerkleRoot disables the corresponding
// check.
type Stage struct {
	Price          *uint256.Int
	WalletLimit    uint32
	MerkleRoot     [32]byte
	MaxStageSupply uint32
	StartUnix      uint64
	EndUnix        uint64
}

// Clone returns a deep copy of the stage so callers can mutate the copy
// without affecting stored schedule entries.
func (s Stage) Clone() Stage {
	clone := s
	if s.Price != nil {
		clone.Price = new(uint256.Int).Set(s.Price)
	} else {
		clone.Price = uint256.NewInt(0)
	}
	return clone
}

// price returns a non-nil price for arithmetic.
func (s Stage) price() *uint256.Int {
	if s.Price == nil {
		return uint256.NewInt(0)
	}
	return s.Price
}

// contains reports whether ts falls inside the stage window, inclusive on
// both ends.
func (s Stage) contains(ts uint64) bool {
	return ts >= s.StartUnix && ts <= s.EndUnix
}

func (s Stage) validate() error {
	if s.StartUnix >= s.EndUnix {
		return ErrInvalidStartAndEndTimestamp
	}
	return nil
}

// ValidateSchedule checks every stage window and the inter-stage gap for an
// ordered schedule. SetStages applies it; UpdateStage applies the same rules
// inline to the edited entry and its immediate neighbours.
func ValidateSchedule(stages []Stage) error {
	for i := range stages {
		if err := stages[i].validate(); err != nil {
			return err
		}
		if i > 0 && stages[i].StartUnix < stages[i-1].EndUnix+MinStageGap {
			return ErrInsufficientStageTimeGap
		}
	}
	return nil
}

// cloneSchedule deep-copies a stage slice.
func cloneSchedule(stages []Stage) []Stage {
	if len(stages) == 0 {
		return nil
	}
	out := make([]Stage, len(stages))
	for i := range stages {
		out[i] = stages[i].Clone()
	}
	return out
}

// StageInfo bundles a stage with the caller-facing counters returned by
// GetStageInfo.
type StageInfo struct {
	Stage        Stage
	WalletMinted uint32
	StageMinted  uint32
}
