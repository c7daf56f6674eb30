// Package wallet owns the single source of truth for wallet connection state:
// which address is connected, on which chain, whether that chain is
// supported, and the current balances. The Synchronizer reconciles that state
// against an external, asynchronously-mutating wallet provider.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// EventType identifies an asynchronous provider notification.
type EventType string

const (
	// EventAccountsChanged reports the new account list; an empty list means
	// the wallet disconnected.
	EventAccountsChanged EventType = "accountsChanged"

	// EventChainChanged reports the new chain id.
	EventChainChanged EventType = "chainChanged"
)

// Event is a provider notification.
type Event struct {
	Type     EventType
	Accounts []string
	ChainID  uint64
}

// Provider is the wallet capability boundary. The synchronizer is polymorphic
// over this interface and never assumes a specific provider brand; EIP-1193
// hex quantities are parsed at the adapter edge (see ParseChainIDHex).
type Provider interface {
	// RequestAccounts asks the provider for its account list. An empty list
	// or an error means no connection was established.
	RequestAccounts(ctx context.Context) ([]string, error)

	// ChainID returns the provider's current chain id.
	ChainID(ctx context.Context) (uint64, error)

	// SwitchChain asks the provider to switch to the given chain.
	SwitchChain(ctx context.Context, chainID uint64) error

	// AddChain asks the provider to register an unknown network from its
	// bootstrap parameters.
	AddChain(ctx context.Context, network chainvoice.Network) error

	// Balance returns the native-currency balance of an address in wei.
	Balance(ctx context.Context, address string) (*big.Int, error)

	// Subscribe returns a channel of provider notifications and a function
	// that cancels the subscription. Subscribing twice returns independent
	// channels.
	Subscribe() (<-chan Event, func(), error)
}

// TokenBalanceReader reads the stablecoin balance of an address. The gateway
// implements it over the token contract binding.
type TokenBalanceReader interface {
	TokenBalance(ctx context.Context, address string) (*big.Int, error)
}

// Rebinder re-initializes the contract-binding layer against a new network.
// The synchronizer invokes it synchronously inside the chain-change handler,
// before any subsequently-initiated contract call can proceed. network is nil
// when the new chain id has no registry entry.
type Rebinder interface {
	Rebind(network *chainvoice.Network) error
}

// ParseChainIDHex parses an EIP-1193 hex chain id quantity (e.g. "0xaa36a7").
func ParseChainIDHex(chainIDHex string) (uint64, error) {
	id, err := hexutil.DecodeUint64(chainIDHex)
	if err != nil {
		return 0, chainvoice.InvalidFieldError("chainId", "must be a 0x-prefixed hex quantity")
	}
	return id, nil
}
