package mint

import (
	"testing"
)

func testAddresses(n int) [][20]byte {
	addrs := make([][20]byte, n)
	for i := range addrs {
		addrs[i] = newTestAddress(byte(0x30 + i))
	}
	return addrs
}

func TestAllowlistProofRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		addrs := testAddresses(n)
		tree := NewAllowlistTree(addrs)
		root := tree.Root()
		if root == ([32]byte{}) {
			t.Fatalf("n=%d: expected non-zero root", n)
		}
		for _, addr := range addrs {
			proof, ok := tree.Proof(addr)
			if !ok {
				t.Fatalf("n=%d: missing proof for listed address", n)
			}
			if !VerifyAllowlistProof(root, proof, addr) {
				t.Fatalf("n=%d: valid proof rejected", n)
			}
		}
	}
}

func TestAllowlistProofRejectsOutsiders(t *testing.T) {
	addrs := testAddresses(6)
	tree := NewAllowlistTree(addrs)
	root := tree.Root()

	outsider := newTestAddress(0xEE)
	if _, ok := tree.Proof(outsider); ok {
		t.Fatal("expected no proof for unlisted address")
	}
	if VerifyAllowlistProof(root, nil, outsider) {
		t.Fatal("empty proof must not verify an outsider")
	}
	proof, _ := tree.Proof(addrs[0])
	if VerifyAllowlistProof(root, proof, outsider) {
		t.Fatal("borrowed proof must not verify an outsider")
	}
}

func TestAllowlistProofRejectsTamperedProof(t *testing.T) {
	addrs := testAddresses(4)
	tree := NewAllowlistTree(addrs)
	proof, _ := tree.Proof(addrs[1])
	if len(proof) == 0 {
		t.Fatal("expected non-empty proof")
	}
	proof[0][0] ^= 0xFF
	if VerifyAllowlistProof(tree.Root(), proof, addrs[1]) {
		t.Fatal("tampered proof must not verify")
	}
}

func TestAllowlistRootIndependentOfInputOrder(t *testing.T) {
	addrs := testAddresses(7)
	reversed := make([][20]byte, len(addrs))
	for i := range addrs {
		reversed[len(addrs)-1-i] = addrs[i]
	}
	if NewAllowlistTree(addrs).Root() != NewAllowlistTree(reversed).Root() {
		t.Fatal("root must not depend on input order")
	}
}

func TestAllowlistTreeDeduplicates(t *testing.T) {
	addrs := testAddresses(3)
	withDupes := append(append([][20]byte{}, addrs...), addrs...)
	if NewAllowlistTree(addrs).Root() != NewAllowlistTree(withDupes).Root() {
		t.Fatal("duplicate addresses must collapse to one leaf")
	}
}

func TestEmptyTreeRootIsZero(t *testing.T) {
	if NewAllowlistTree(nil).Root() != ([32]byte{}) {
		t.Fatal("empty tree must commit to the zero root")
	}
}
