package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"mintgate/crypto"
	"mintgate/native/mint"
)

type handler struct {
	ownerOnly bool
	fn        func(params json.RawMessage) (interface{}, *rpcError)
}

func (s *Server) methods() map[string]handler {
	return map[string]handler{
		"mint_mint":                 {fn: s.handleMint},
		"mint_crossmint":            {fn: s.handleCrossmint},
		"mint_ownerMint":            {ownerOnly: true, fn: s.handleOwnerMint},
		"mint_setStages":            {ownerOnly: true, fn: s.handleSetStages},
		"mint_updateStage":          {ownerOnly: true, fn: s.handleUpdateStage},
		"mint_setActiveStage":       {ownerOnly: true, fn: s.handleSetActiveStage},
		"mint_stageInfo":            {fn: s.handleStageInfo},
		"mint_setMintable":          {ownerOnly: true, fn: s.handleSetMintable},
		"mint_setCosigner":          {ownerOnly: true, fn: s.handleSetCosigner},
		"mint_setCrossmintAddress":  {ownerOnly: true, fn: s.handleSetCrossmintAddress},
		"mint_setMaxMintableSupply": {ownerOnly: true, fn: s.handleSetMaxMintableSupply},
		"mint_setGlobalWalletLimit": {ownerOnly: true, fn: s.handleSetGlobalWalletLimit},
		"mint_setBaseURI":           {ownerOnly: true, fn: s.handleSetBaseURI},
		"mint_setTokenURISuffix":    {ownerOnly: true, fn: s.handleSetTokenURISuffix},
		"mint_freezeBaseURI":        {ownerOnly: true, fn: s.handleFreezeBaseURI},
		"mint_withdraw":             {ownerOnly: true, fn: s.handleWithdraw},
		"mint_tokenURI":             {fn: s.handleTokenURI},
		"mint_cosignDigest":         {ownerOnly: true, fn: s.handleCosignDigest},
		"mint_state":                {fn: s.handleState},
	}
}

// --- param plumbing ---

func invalidParams(format string, args ...interface{}) *rpcError {
	return &rpcError{Code: codeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func decodeParams(raw json.RawMessage, into interface{}) *rpcError {
	if len(raw) == 0 {
		return invalidParams("params required")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return invalidParams("malformed params: %v", err)
	}
	return nil
}

func decodeBech32(value string) ([20]byte, *rpcError) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, invalidParams("invalid address %q: %v", value, err)
	}
	return addr.Bytes(), nil
}

func decodeProof(entries []string) ([][32]byte, *rpcError) {
	proof := make([][32]byte, 0, len(entries))
	for _, entry := range entries {
		raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(entry)), "0x"))
		if err != nil || len(raw) != 32 {
			return nil, invalidParams("invalid proof element %q", entry)
		}
		var node [32]byte
		copy(node[:], raw)
		proof = append(proof, node)
	}
	return proof, nil
}

func decodeSignature(value string) ([]byte, *rpcError) {
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), "0x")
	if trimmed == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, invalidParams("invalid signature encoding")
	}
	return raw, nil
}

func decodeValue(value string) (*uint256.Int, *rpcError) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return uint256.NewInt(0), nil
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, invalidParams("invalid value %q", value)
	}
	return parsed, nil
}

type stageParam struct {
	Price          string `json:"price"`
	WalletLimit    uint32 `json:"walletLimit"`
	MerkleRoot     string `json:"merkleRoot"`
	MaxStageSupply uint32 `json:"maxStageSupply"`
	Start          uint64 `json:"start"`
	End            uint64 `json:"end"`
}

func decodeStage(p stageParam) (mint.Stage, *rpcError) {
	price, rerr := decodeValue(p.Price)
	if rerr != nil {
		return mint.Stage{}, rerr
	}
	stage := mint.Stage{
		Price:          price,
		WalletLimit:    p.WalletLimit,
		MaxStageSupply: p.MaxStageSupply,
		StartUnix:      p.Start,
		EndUnix:        p.End,
	}
	root := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p.MerkleRoot)), "0x")
	if root != "" {
		raw, err := hex.DecodeString(root)
		if err != nil || len(raw) != 32 {
			return mint.Stage{}, invalidParams("invalid merkle root %q", p.MerkleRoot)
		}
		copy(stage.MerkleRoot[:], raw)
	}
	return stage, nil
}

func encodeStage(stage mint.Stage) stageParam {
	price := "0"
	if stage.Price != nil {
		price = stage.Price.Dec()
	}
	return stageParam{
		Price:          price,
		WalletLimit:    stage.WalletLimit,
		MerkleRoot:     hex.EncodeToString(stage.MerkleRoot[:]),
		MaxStageSupply: stage.MaxStageSupply,
		Start:          stage.StartUnix,
		End:            stage.EndUnix,
	}
}

// --- mint paths ---

type mintParams struct {
	Minter    string   `json:"minter"`
	Quantity  uint32   `json:"quantity"`
	Proof     []string `json:"proof"`
	Timestamp uint64   `json:"timestamp"`
	Signature string   `json:"signature"`
	Value     string   `json:"value"`
}

type mintResult struct {
	FirstTokenID uint64 `json:"firstTokenId"`
	Quantity     uint32 `json:"quantity"`
	TotalSupply  uint32 `json:"totalSupply"`
}

func (s *Server) handleMint(raw json.RawMessage) (interface{}, *rpcError) {
	var p mintParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	minter, rerr := decodeBech32(p.Minter)
	if rerr != nil {
		return nil, rerr
	}
	proof, rerr := decodeProof(p.Proof)
	if rerr != nil {
		return nil, rerr
	}
	sig, rerr := decodeSignature(p.Signature)
	if rerr != nil {
		return nil, rerr
	}
	value, rerr := decodeValue(p.Value)
	if rerr != nil {
		return nil, rerr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.ObserveAttempt("mint")
	firstID, err := s.engine.Mint(minter, p.Quantity, proof, p.Timestamp, sig, value)
	if err != nil {
		s.metrics.ObserveFailure("mint", errorKind(err))
		return nil, engineError(err)
	}
	s.metrics.ObserveMinted(p.Quantity, s.engine.TotalSupply())
	s.persist()
	return mintResult{FirstTokenID: firstID, Quantity: p.Quantity, TotalSupply: s.engine.TotalSupply()}, nil
}

type crossmintParams struct {
	Caller    string   `json:"caller"`
	Recipient string   `json:"recipient"`
	Quantity  uint32   `json:"quantity"`
	Proof     []string `json:"proof"`
	Timestamp uint64   `json:"timestamp"`
	Signature string   `json:"signature"`
	Value     string   `json:"value"`
}

func (s *Server) handleCrossmint(raw json.RawMessage) (interface{}, *rpcError) {
	var p crossmintParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	caller, rerr := decodeBech32(p.Caller)
	if rerr != nil {
		return nil, rerr
	}
	recipient, rerr := decodeBech32(p.Recipient)
	if rerr != nil {
		return nil, rerr
	}
	proof, rerr := decodeProof(p.Proof)
	if rerr != nil {
		return nil, rerr
	}
	sig, rerr := decodeSignature(p.Signature)
	if rerr != nil {
		return nil, rerr
	}
	value, rerr := decodeValue(p.Value)
	if rerr != nil {
		return nil, rerr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.ObserveAttempt("crossmint")
	firstID, err := s.engine.Crossmint(caller, p.Quantity, recipient, proof, p.Timestamp, sig, value)
	if err != nil {
		s.metrics.ObserveFailure("crossmint", errorKind(err))
		return nil, engineError(err)
	}
	s.metrics.ObserveMinted(p.Quantity, s.engine.TotalSupply())
	s.persist()
	return mintResult{FirstTokenID: firstID, Quantity: p.Quantity, TotalSupply: s.engine.TotalSupply()}, nil
}

type ownerMintParams struct {
	Recipient string `json:"recipient"`
	Quantity  uint32 `json:"quantity"`
}

func (s *Server) handleOwnerMint(raw json.RawMessage) (interface{}, *rpcError) {
	var p ownerMintParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	recipient, rerr := decodeBech32(p.Recipient)
	if rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.ObserveAttempt("owner_mint")
	firstID, err := s.engine.OwnerMint(s.owner, p.Quantity, recipient)
	if err != nil {
		s.metrics.ObserveFailure("owner_mint", errorKind(err))
		return nil, engineError(err)
	}
	s.metrics.ObserveMinted(p.Quantity, s.engine.TotalSupply())
	s.persist()
	return mintResult{FirstTokenID: firstID, Quantity: p.Quantity, TotalSupply: s.engine.TotalSupply()}, nil
}

// --- schedule administration ---

type setStagesParams struct {
	Stages []stageParam `json:"stages"`
}

func (s *Server) handleSetStages(raw json.RawMessage) (interface{}, *rpcError) {
	var p setStagesParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	stages := make([]mint.Stage, 0, len(p.Stages))
	for _, sp := range p.Stages {
		stage, rerr := decodeStage(sp)
		if rerr != nil {
			return nil, rerr
		}
		stages = append(stages, stage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetStages(s.owner, stages); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return map[string]int{"stages": s.engine.NumberStages()}, nil
}

type updateStageParams struct {
	Index int        `json:"index"`
	Stage stageParam `json:"stage"`
}

func (s *Server) handleUpdateStage(raw json.RawMessage) (interface{}, *rpcError) {
	var p updateStageParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	stage, rerr := decodeStage(p.Stage)
	if rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.UpdateStage(s.owner, p.Index, stage); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

type activeStageParams struct {
	Index int `json:"index"`
}

func (s *Server) handleSetActiveStage(raw json.RawMessage) (interface{}, *rpcError) {
	var p activeStageParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetActiveStage(s.owner, p.Index); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

type stageInfoParams struct {
	Index  int    `json:"index"`
	Wallet string `json:"wallet"`
}

type stageInfoResult struct {
	Stage        stageParam `json:"stage"`
	WalletMinted uint32     `json:"walletMinted"`
	StageMinted  uint32     `json:"stageMinted"`
}

func (s *Server) handleStageInfo(raw json.RawMessage) (interface{}, *rpcError) {
	var p stageInfoParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	var wallet [20]byte
	if strings.TrimSpace(p.Wallet) != "" {
		decoded, rerr := decodeBech32(p.Wallet)
		if rerr != nil {
			return nil, rerr
		}
		wallet = decoded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := s.engine.GetStageInfo(p.Index, wallet)
	if err != nil {
		return nil, engineError(err)
	}
	return stageInfoResult{
		Stage:        encodeStage(info.Stage),
		WalletMinted: info.WalletMinted,
		StageMinted:  info.StageMinted,
	}, nil
}

// --- flag and cap administration ---

type boolParams struct {
	Value bool `json:"value"`
}

func (s *Server) handleSetMintable(raw json.RawMessage) (interface{}, *rpcError) {
	var p boolParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetMintable(s.owner, p.Value); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handleSetCosigner(raw json.RawMessage) (interface{}, *rpcError) {
	var p addressParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	var addr [20]byte
	if strings.TrimSpace(p.Address) != "" {
		decoded, rerr := decodeBech32(p.Address)
		if rerr != nil {
			return nil, rerr
		}
		addr = decoded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetCosigner(s.owner, addr); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

func (s *Server) handleSetCrossmintAddress(raw json.RawMessage) (interface{}, *rpcError) {
	var p addressParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	var addr [20]byte
	if strings.TrimSpace(p.Address) != "" {
		decoded, rerr := decodeBech32(p.Address)
		if rerr != nil {
			return nil, rerr
		}
		addr = decoded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetCrossmintAddress(s.owner, addr); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

type uint32Params struct {
	Value uint32 `json:"value"`
}

func (s *Server) handleSetMaxMintableSupply(raw json.RawMessage) (interface{}, *rpcError) {
	var p uint32Params
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetMaxMintableSupply(s.owner, p.Value); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

func (s *Server) handleSetGlobalWalletLimit(raw json.RawMessage) (interface{}, *rpcError) {
	var p uint32Params
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetGlobalWalletLimit(s.owner, p.Value); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

// --- metadata ---

type stringParams struct {
	Value string `json:"value"`
}

func (s *Server) handleSetBaseURI(raw json.RawMessage) (interface{}, *rpcError) {
	var p stringParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetBaseURI(s.owner, p.Value); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

func (s *Server) handleSetTokenURISuffix(raw json.RawMessage) (interface{}, *rpcError) {
	var p stringParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.SetTokenURISuffix(s.owner, p.Value); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

func (s *Server) handleFreezeBaseURI(raw json.RawMessage) (interface{}, *rpcError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.FreezeBaseURI(s.owner); err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return true, nil
}

type tokenURIParams struct {
	TokenID uint64 `json:"tokenId"`
}

func (s *Server) handleTokenURI(raw json.RawMessage) (interface{}, *rpcError) {
	var p tokenURIParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	uri, err := s.engine.TokenURI(p.TokenID)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"uri": uri}, nil
}

// --- cosign tooling and treasury ---

type cosignDigestParams struct {
	Minter    string `json:"minter"`
	Quantity  uint32 `json:"quantity"`
	Timestamp uint64 `json:"timestamp"`
}

func (s *Server) handleCosignDigest(raw json.RawMessage) (interface{}, *rpcError) {
	var p cosignDigestParams
	if rerr := decodeParams(raw, &p); rerr != nil {
		return nil, rerr
	}
	minter, rerr := decodeBech32(p.Minter)
	if rerr != nil {
		return nil, rerr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	digest, err := s.engine.GetCosignDigest(minter, p.Quantity, p.Timestamp)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"digest": hex.EncodeToString(digest[:])}, nil
}

func (s *Server) handleWithdraw(raw json.RawMessage) (interface{}, *rpcError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, err := s.engine.Withdraw(s.owner)
	if err != nil {
		return nil, engineError(err)
	}
	s.persist()
	return map[string]string{"amount": amount.Dec()}, nil
}

type stateResult struct {
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Mintable          bool   `json:"mintable"`
	TotalSupply       uint32 `json:"totalSupply"`
	MaxMintableSupply uint32 `json:"maxMintableSupply"`
	GlobalWalletLimit uint32 `json:"globalWalletLimit"`
	NumberStages      int    `json:"numberStages"`
	ActiveStage       int    `json:"activeStage"`
	BaseURIFrozen     bool   `json:"baseUriFrozen"`
	Held              string `json:"held"`
}

func (s *Server) handleState(json.RawMessage) (interface{}, *rpcError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateResult{
		Name:              s.tokens.Name(),
		Symbol:            s.tokens.Symbol(),
		Mintable:          s.engine.Mintable(),
		TotalSupply:       s.engine.TotalSupply(),
		MaxMintableSupply: s.engine.MaxMintableSupply(),
		GlobalWalletLimit: s.engine.GlobalWalletLimit(),
		NumberStages:      s.engine.NumberStages(),
		ActiveStage:       s.engine.ActiveStage(),
		BaseURIFrozen:     s.engine.BaseURIFrozen(),
		Held:              s.engine.Held().Dec(),
	}, nil
}
