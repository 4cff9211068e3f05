package mint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"mintgate/storage"
)

var stateKey = []byte("mint/state")

type storedStage struct {
	Price          string `json:"price"`
	WalletLimit    uint32 `json:"walletLimit"`
	MerkleRoot     string `json:"merkleRoot"`
	MaxStageSupply uint32 `json:"maxStageSupply"`
	StartUnix      uint64 `json:"start"`
	EndUnix        uint64 `json:"end"`
}

type storedState struct {
	Mintable          bool              `json:"mintable"`
	MaxMintableSupply uint32            `json:"maxMintableSupply"`
	GlobalWalletLimit uint32            `json:"globalWalletLimit"`
	TotalSupply       uint32            `json:"totalSupply"`
	OwnerMinted       uint32            `json:"ownerMinted"`
	Stages            []storedStage     `json:"stages"`
	Generation        uint64            `json:"generation"`
	ActiveStage       int               `json:"activeStage"`
	StageMinted       []uint32          `json:"stageMinted"`
	WalletMinted      map[string]uint32 `json:"walletMinted"`
	Cosigner          string            `json:"cosigner"`
	Crossmint         string            `json:"crossmint"`
	BaseURI           string            `json:"baseUri"`
	TokenURISuffix    string            `json:"tokenUriSuffix"`
	BaseURIFrozen     bool              `json:"baseUriFrozen"`
	Held              string            `json:"held"`
}

func (k walletStageKey) encode() string {
	return fmt.Sprintf("%d/%d/%s", k.generation, k.stage, hex.EncodeToString(k.wallet[:]))
}

func decodeWalletStageKey(s string) (walletStageKey, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return walletStageKey{}, fmt.Errorf("mint: malformed wallet counter key %q", s)
	}
	gen, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return walletStageKey{}, err
	}
	stage, err := strconv.Atoi(parts[1])
	if err != nil {
		return walletStageKey{}, err
	}
	raw, err := hex.DecodeString(parts[2])
	if err != nil || len(raw) != 20 {
		return walletStageKey{}, fmt.Errorf("mint: malformed wallet address in counter key %q", s)
	}
	key := walletStageKey{generation: gen, stage: stage}
	copy(key.wallet[:], raw)
	return key, nil
}

// Save serializes the full engine state into the database. The hosting
// surface calls it after every committed mutation so a restart resumes with
// identical counters.
func (e *Engine) Save(db storage.Database) error {
	stored := storedState{
		Mintable:          e.mintable,
		MaxMintableSupply: e.maxMintableSupply,
		GlobalWalletLimit: e.globalWalletLimit,
		TotalSupply:       e.totalSupply,
		OwnerMinted:       e.ownerMinted,
		Generation:        e.generation,
		ActiveStage:       e.activeStage,
		StageMinted:       append([]uint32(nil), e.stageMinted...),
		WalletMinted:      make(map[string]uint32, len(e.walletMinted)),
		Cosigner:          hex.EncodeToString(e.cosigner[:]),
		Crossmint:         hex.EncodeToString(e.crossmint[:]),
		BaseURI:           e.baseURI,
		TokenURISuffix:    e.tokenURISuffix,
		BaseURIFrozen:     e.baseURIFrozen,
		Held:              e.held.Dec(),
	}
	for i := range e.stages {
		stored.Stages = append(stored.Stages, storedStage{
			Price:          e.stages[i].price().Dec(),
			WalletLimit:    e.stages[i].WalletLimit,
			MerkleRoot:     hex.EncodeToString(e.stages[i].MerkleRoot[:]),
			MaxStageSupply: e.stages[i].MaxStageSupply,
			StartUnix:      e.stages[i].StartUnix,
			EndUnix:        e.stages[i].EndUnix,
		})
	}
	for key, count := range e.walletMinted {
		stored.WalletMinted[key.encode()] = count
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return db.Put(stateKey, raw)
}

// Load restores engine state previously written by Save. A missing record is
// not an error; the engine keeps its constructor state.
func (e *Engine) Load(db storage.Database) error {
	raw, err := db.Get(stateKey)
	if err != nil {
		return nil
	}
	var stored storedState
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("mint: corrupt state record: %w", err)
	}
	stages := make([]Stage, 0, len(stored.Stages))
	for _, s := range stored.Stages {
		price, err := uint256.FromDecimal(s.Price)
		if err != nil {
			return fmt.Errorf("mint: corrupt stage price %q: %w", s.Price, err)
		}
		root, err := hex.DecodeString(s.MerkleRoot)
		if err != nil || len(root) != 32 {
			return fmt.Errorf("mint: corrupt stage merkle root %q", s.MerkleRoot)
		}
		stage := Stage{
			Price:          price,
			WalletLimit:    s.WalletLimit,
			MaxStageSupply: s.MaxStageSupply,
			StartUnix:      s.StartUnix,
			EndUnix:        s.EndUnix,
		}
		copy(stage.MerkleRoot[:], root)
		stages = append(stages, stage)
	}
	walletMinted := make(map[walletStageKey]uint32, len(stored.WalletMinted))
	for enc, count := range stored.WalletMinted {
		key, err := decodeWalletStageKey(enc)
		if err != nil {
			return err
		}
		walletMinted[key] = count
	}
	cosigner, err := hex.DecodeString(stored.Cosigner)
	if err != nil || len(cosigner) != 20 {
		return fmt.Errorf("mint: corrupt cosigner record")
	}
	crossmint, err := hex.DecodeString(stored.Crossmint)
	if err != nil || len(crossmint) != 20 {
		return fmt.Errorf("mint: corrupt crossmint record")
	}
	held, err := uint256.FromDecimal(stored.Held)
	if err != nil {
		return fmt.Errorf("mint: corrupt held balance %q: %w", stored.Held, err)
	}

	e.mintable = stored.Mintable
	e.maxMintableSupply = stored.MaxMintableSupply
	e.globalWalletLimit = stored.GlobalWalletLimit
	e.totalSupply = stored.TotalSupply
	e.ownerMinted = stored.OwnerMinted
	e.stages = stages
	e.generation = stored.Generation
	e.activeStage = stored.ActiveStage
	e.stageMinted = append([]uint32(nil), stored.StageMinted...)
	if e.stageMinted == nil {
		e.stageMinted = make([]uint32, len(stages))
	}
	e.walletMinted = walletMinted
	copy(e.cosigner[:], cosigner)
	copy(e.crossmint[:], crossmint)
	e.baseURI = stored.BaseURI
	e.tokenURISuffix = stored.TokenURISuffix
	e.baseURIFrozen = stored.BaseURIFrozen
	e.held = held
	return nil
}
