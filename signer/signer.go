// Package signer provides local key material for server-side contract sends
// when no external wallet drives the transaction. Keys load from a raw hex
// string, an encrypted keystore file, or a BIP39 mnemonic.
package signer

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// Signer holds a loaded private key and its derived address.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// Option configures a Signer.
type Option func(*Signer) error

// New creates a Signer from the given options. Exactly one key source option
// must succeed.
func New(opts ...Option) (*Signer, error) {
	s := &Signer{}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.privateKey == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"no signing key configured", chainvoice.ErrProviderUnavailable)
	}
	s.address = crypto.PubkeyToAddress(s.privateKey.PublicKey)
	return s, nil
}

// WithPrivateKey sets the private key from a hex string.
func WithPrivateKey(hexKey string) Option {
	return func(s *Signer) error {
		hexKey = strings.TrimPrefix(hexKey, "0x")
		privateKey, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return chainvoice.InvalidFieldError("privateKey", "invalid hex private key")
		}
		s.privateKey = privateKey
		return nil
	}
}

// Address returns the signer's Ethereum address.
func (s *Signer) Address() common.Address {
	return s.address
}

// Transactor returns transaction options that sign with this key for the
// given chain id.
func (s *Signer) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(s.privateKey, chainID)
	if err != nil {
		return nil, chainvoice.InvalidFieldError("chainId", err.Error())
	}
	return opts, nil
}
