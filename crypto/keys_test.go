package crypto

import (
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, AddressLength)
	for i := range raw {
		raw[i] = byte(i)
	}
	addr, err := NewAddress(Prefix, raw)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(Prefix)+"1") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
}

func TestNewAddressRejectsBadLength(t *testing.T) {
	if _, err := NewAddress(Prefix, make([]byte, AddressLength-1)); err == nil {
		t.Fatalf("expected error for short payload")
	}
	if _, err := NewAddress(Prefix, make([]byte, AddressLength+1)); err == nil {
		t.Fatalf("expected error for long payload")
	}
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	if _, err := DecodeAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"); err == nil {
		t.Fatalf("expected prefix rejection")
	}
	if _, err := DecodeAddress("garbage"); err == nil {
		t.Fatalf("expected bech32 rejection")
	}
}

func TestDeriveModuleAddressIsStable(t *testing.T) {
	a := DeriveModuleAddress("staking/pool/1/principal")
	b := DeriveModuleAddress("staking/pool/1/principal")
	c := DeriveModuleAddress("staking/pool/1/rewards")
	if !a.Equal(b) {
		t.Fatalf("same namespace derived different addresses")
	}
	if a.Equal(c) {
		t.Fatalf("distinct namespaces collided")
	}
	if a.IsZero() {
		t.Fatalf("derived address is zero")
	}
}

func TestKeyToAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr := key.PubKey().Address()
	if addr.IsZero() {
		t.Fatalf("key derived zero address")
	}
	restored, err := PrivateKeyFromBytes(key.Bytes())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.PubKey().Address().Equal(addr) {
		t.Fatalf("restored key derived different address")
	}
}
