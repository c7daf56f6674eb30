package signer

import (
	"errors"
	"math/big"
	"testing"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// Well-known development key (hardhat account #0); never holds real funds.
const (
	devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// TestNewWithPrivateKey verifies key loading and address derivation
func TestNewWithPrivateKey(t *testing.T) {
	s, err := New(WithPrivateKey(devPrivateKey))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Address().Hex() != devAddress {
		t.Errorf("Address() = %s, want %s", s.Address().Hex(), devAddress)
	}

	// The 0x prefix is optional.
	s2, err := New(WithPrivateKey(devPrivateKey[2:]))
	if err != nil {
		t.Fatalf("New() without prefix error = %v", err)
	}
	if s2.Address() != s.Address() {
		t.Error("address differs for identical key with and without prefix")
	}
}

// TestNewWithInvalidKey verifies malformed keys are rejected
func TestNewWithInvalidKey(t *testing.T) {
	for _, key := range []string{"", "0x1234", "not hex at all"} {
		if _, err := New(WithPrivateKey(key)); err == nil {
			t.Errorf("New(WithPrivateKey(%q)) expected error", key)
		}
	}
}

// TestNewWithoutKeySource verifies a signer cannot be built without a key
func TestNewWithoutKeySource(t *testing.T) {
	_, err := New()
	if !errors.Is(err, chainvoice.ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable", err)
	}
}

// TestWithMnemonic verifies BIP39 derivation accepts a valid phrase and rejects junk
func TestWithMnemonic(t *testing.T) {
	const mnemonic = "test test test test test test test test test test test junk"
	s, err := New(WithMnemonic(mnemonic, 0))
	if err != nil {
		t.Fatalf("New(WithMnemonic) error = %v", err)
	}
	if s.Address().Hex() == "0x0000000000000000000000000000000000000000" {
		t.Error("derived address is zero")
	}

	other, err := New(WithMnemonic(mnemonic, 1))
	if err != nil {
		t.Fatalf("New(WithMnemonic, 1) error = %v", err)
	}
	if other.Address() == s.Address() {
		t.Error("different account indexes derived the same address")
	}

	if _, err := New(WithMnemonic("definitely not a mnemonic", 0)); !errors.Is(err, chainvoice.ErrInvalidInput) {
		t.Errorf("invalid mnemonic error = %v, want ErrInvalidInput", err)
	}
}

// TestTransactor verifies transaction options carry the signer address
func TestTransactor(t *testing.T) {
	s, err := New(WithPrivateKey(devPrivateKey))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	opts, err := s.Transactor(big.NewInt(11155111))
	if err != nil {
		t.Fatalf("Transactor() error = %v", err)
	}
	if opts.From != s.Address() {
		t.Errorf("From = %s, want %s", opts.From.Hex(), s.Address().Hex())
	}
	if opts.Signer == nil {
		t.Error("Signer func is nil")
	}
}
