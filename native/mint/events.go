package mint

import (
	"encoding/hex"
	"strconv"

	"mintgate/core/events"
)

const (
	EventTypeSetMintable      = "mint.set_mintable"
	EventTypeUpdateStage      = "mint.update_stage"
	EventTypePermanentBaseURI = "mint.permanent_base_uri"
)

// NewSetMintableEvent returns the canonical payload emitted when the mint
// gate toggles.
func NewSetMintableEvent(mintable bool) *events.Record {
	return &events.Record{
		Type: EventTypeSetMintable,
		Attributes: map[string]string{
			"mintable": strconv.FormatBool(mintable),
		},
	}
}

// NewUpdateStageEvent returns the canonical payload describing one schedule
// entry; SetStages emits one per stage.
func NewUpdateStageEvent(index int, stage Stage) *events.Record {
	return &events.Record{
		Type: EventTypeUpdateStage,
		Attributes: map[string]string{
			"index":          strconv.Itoa(index),
			"price":          stage.price().Dec(),
			"walletLimit":    strconv.FormatUint(uint64(stage.WalletLimit), 10),
			"merkleRoot":     hex.EncodeToString(stage.MerkleRoot[:]),
			"maxStageSupply": strconv.FormatUint(uint64(stage.MaxStageSupply), 10),
			"start":          strconv.FormatUint(stage.StartUnix, 10),
			"end":            strconv.FormatUint(stage.EndUnix, 10),
		},
	}
}

// NewPermanentBaseURIEvent returns the payload emitted when the base URI is
// frozen.
func NewPermanentBaseURIEvent() *events.Record {
	return &events.Record{Type: EventTypePermanentBaseURI, Attributes: map[string]string{}}
}
