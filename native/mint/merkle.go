package mint

import (
	"bytes"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// LeafHash computes the allowlist leaf for an address: keccak256 over the raw
// 20 bytes.
func LeafHash(addr [20]byte) [32]byte {
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(addr[:]))
	return leaf
}

// hashPair combines two nodes in sorted order, matching the commitment scheme
// used by the allowlist tooling: keccak256(lower || higher).
func hashPair(a, b [32]byte) [32]byte {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	return out
}

// VerifyAllowlistProof walks a sorted-pair Merkle proof from the leaf address
// up to root. An all-zero root never verifies here; callers treat a zero root
// as "no allowlist" and skip the check entirely.
func VerifyAllowlistProof(root [32]byte, proof [][32]byte, addr [20]byte) bool {
	node := LeafHash(addr)
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

// AllowlistTree is a sorted-pair keccak256 Merkle tree over a set of
// addresses. It backs the operator tooling that publishes stage roots and
// hands proofs to minters; the engine itself only ever verifies.
type AllowlistTree struct {
	leaves [][32]byte
	index  map[[32]byte]int
	layers [][][32]byte
}

// NewAllowlistTree builds the tree. Duplicate addresses collapse to a single
// leaf. Leaves are sorted so the root is independent of input order.
func NewAllowlistTree(addrs [][20]byte) *AllowlistTree {
	seen := make(map[[32]byte]struct{}, len(addrs))
	leaves := make([][32]byte, 0, len(addrs))
	for _, addr := range addrs {
		leaf := LeafHash(addr)
		if _, ok := seen[leaf]; ok {
			continue
		}
		seen[leaf] = struct{}{}
		leaves = append(leaves, leaf)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i][:], leaves[j][:]) < 0
	})
	t := &AllowlistTree{leaves: leaves, index: make(map[[32]byte]int, len(leaves))}
	for i, leaf := range leaves {
		t.index[leaf] = i
	}
	t.layers = append(t.layers, leaves)
	for layer := leaves; len(layer) > 1; {
		next := make([][32]byte, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 == len(layer) {
				// odd node promotes unchanged
				next = append(next, layer[i])
				continue
			}
			next = append(next, hashPair(layer[i], layer[i+1]))
		}
		t.layers = append(t.layers, next)
		layer = next
	}
	return t
}

// Root returns the tree root, or the zero hash for an empty tree.
func (t *AllowlistTree) Root() [32]byte {
	if t == nil || len(t.leaves) == 0 {
		return [32]byte{}
	}
	top := t.layers[len(t.layers)-1]
	return top[0]
}

// Proof returns the sibling path for addr, or false when the address is not
// committed to by the tree.
func (t *AllowlistTree) Proof(addr [20]byte) ([][32]byte, bool) {
	if t == nil {
		return nil, false
	}
	pos, ok := t.index[LeafHash(addr)]
	if !ok {
		return nil, false
	}
	var proof [][32]byte
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := pos ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		pos /= 2
	}
	return proof, true
}
