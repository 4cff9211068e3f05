package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressHRP is the human-readable prefix used when rendering engine
// addresses for operators and RPC clients.
const AddressHRP = "mint"

// Address represents a 20-byte account address.
type Address struct {
	bytes [20]byte
}

// NewAddress wraps a raw 20-byte value.
func NewAddress(b [20]byte) Address {
	return Address{bytes: b}
}

// AddressFromBytes validates the length of b and wraps it.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("address must be 20 bytes, got %d", len(b))
	}
	var raw [20]byte
	copy(raw[:], b)
	return Address{bytes: raw}, nil
}

// String renders the address as bech32 with the mint prefix.
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(AddressHRP, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns the raw 20-byte form.
func (a Address) Bytes() [20]byte { return a.bytes }

// IsZero reports whether the address is all zero.
func (a Address) IsZero() bool { return a.bytes == [20]byte{} }

// DecodeAddress parses a bech32 mint address.
func DecodeAddress(addrStr string) (Address, error) {
	hrp, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if hrp != AddressHRP {
		return Address{}, fmt.Errorf("unexpected address prefix %q", hrp)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return AddressFromBytes(conv)
}

// --- Key management ---

type PrivateKey struct {
	*ecdsa.PrivateKey
}

type PublicKey struct {
	*ecdsa.PublicKey
}

func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(ethcrypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the byte representation of the private key.
func (k *PrivateKey) Bytes() []byte {
	return ethcrypto.FromECDSA(k.PrivateKey)
}

func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Sign produces a 65-byte r||s||v signature over a 32-byte digest.
func (k *PrivateKey) Sign(digest [32]byte) ([]byte, error) {
	return ethcrypto.Sign(digest[:], k.PrivateKey)
}

func (k *PublicKey) Address() Address {
	var raw [20]byte
	copy(raw[:], ethcrypto.PubkeyToAddress(*k.PublicKey).Bytes())
	return NewAddress(raw)
}

func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := ethcrypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}
