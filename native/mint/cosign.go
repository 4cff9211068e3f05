package mint

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// personalMessagePrefix is the Ethereum personal-sign prefix for a 32-byte
// payload. Cosigners sign keccak256(prefix || digest).
const personalMessagePrefix = "\x19Ethereum Signed Message:\n32"

// CosignDigest composes the canonical 92-byte preimage authorised by the
// cosigner and returns its keccak256 digest:
//
//	engine (20) || minter (20) || quantity (4, BE) || cosigner (20) || timestamp (8, BE)
func CosignDigest(engine, minter [20]byte, quantity uint32, cosigner [20]byte, timestamp uint64) [32]byte {
	buf := make([]byte, 0, 92)
	buf = append(buf, engine[:]...)
	buf = append(buf, minter[:]...)
	buf = binary.BigEndian.AppendUint32(buf, quantity)
	buf = append(buf, cosigner[:]...)
	buf = binary.BigEndian.AppendUint64(buf, timestamp)
	var digest [32]byte
	copy(digest[:], ethcrypto.Keccak256(buf))
	return digest
}

// SignedCosignHash applies the personal-message prefix to the digest. This is
// the hash the recovery routine operates on and the hash off-chain cosigner
// tooling must sign.
func SignedCosignHash(digest [32]byte) [32]byte {
	var hash [32]byte
	copy(hash[:], ethcrypto.Keccak256([]byte(personalMessagePrefix), digest[:]))
	return hash
}

// recoverCosigner recovers the signer address from a 65-byte r||s||v
// signature over the prefixed digest. Both v in {0,1} and the legacy {27,28}
// encoding are accepted; high-s signatures are rejected.
func recoverCosigner(digest [32]byte, sig []byte) ([20]byte, error) {
	if len(sig) != ethcrypto.SignatureLength {
		return [20]byte{}, ErrInvalidCosignSignature
	}
	normalized := make([]byte, ethcrypto.SignatureLength)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	if normalized[64] > 1 {
		return [20]byte{}, ErrInvalidCosignSignature
	}
	r := new(big.Int).SetBytes(normalized[:32])
	s := new(big.Int).SetBytes(normalized[32:64])
	if !ethcrypto.ValidateSignatureValues(normalized[64], r, s, true) {
		return [20]byte{}, ErrInvalidCosignSignature
	}
	hash := SignedCosignHash(digest)
	pubKey, err := ethcrypto.SigToPub(hash[:], normalized)
	if err != nil {
		return [20]byte{}, ErrInvalidCosignSignature
	}
	addr := ethcrypto.PubkeyToAddress(*pubKey)
	var out [20]byte
	copy(out[:], addr[:])
	return out, nil
}
