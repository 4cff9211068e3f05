package crypto

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	addr := key.PubKey().Address()
	encoded := addr.String()
	if !strings.HasPrefix(encoded, AddressHRP+"1") {
		t.Fatalf("expected %s prefix, got %q", AddressHRP, encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("DecodeAddress: %v", err)
	}
	if decoded.Bytes() != addr.Bytes() {
		t.Fatalf("round trip mismatch: %x vs %x", decoded.Bytes(), addr.Bytes())
	}
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	if _, err := DecodeAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"); err == nil {
		t.Fatal("expected foreign prefix rejection")
	}
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if restored.PubKey().Address() != key.PubKey().Address() {
		t.Fatal("restored key derives a different address")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	path := t.TempDir() + "/cosigner.json"
	if err := SaveToKeystore(path, key, "hunter2"); err != nil {
		t.Fatalf("SaveToKeystore: %v", err)
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatal("expected wrong passphrase to fail")
	}
	restored, err := LoadFromKeystore(path, "hunter2")
	if err != nil {
		t.Fatalf("LoadFromKeystore: %v", err)
	}
	if restored.PubKey().Address() != key.PubKey().Address() {
		t.Fatal("keystore round trip changed the key")
	}
}
