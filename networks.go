// Package chainvoice implements the core of a blockchain invoicing
// application: a registry of supported networks, decimal/base-unit amount
// conversion for a 6-decimal stablecoin, invoice types, and the shared error
// taxonomy. Payment URI construction, QR encoding, wallet state
// synchronization, and the invoice contract gateway live in subpackages.
package chainvoice

import "strings"

// Network describes a blockchain network the application knows about.
// Token payments are only possible on networks with a configured TokenAddress.
type Network struct {
	// ChainID is the numeric EIP-155 chain identifier.
	ChainID uint64 `json:"chainId"`

	// Name is the human-readable network name.
	Name string `json:"name"`

	// NativeCurrencySymbol is the gas currency symbol (e.g. "ETH", "POL").
	NativeCurrencySymbol string `json:"nativeCurrencySymbol"`

	// RPCURL is the public JSON-RPC endpoint used when bootstrapping a wallet.
	RPCURL string `json:"rpcUrl"`

	// BlockExplorerURL is the base URL of the network's block explorer.
	BlockExplorerURL string `json:"blockExplorerUrl"`

	// TokenAddress is the stablecoin contract address, empty when the token
	// is not deployed on this network.
	TokenAddress string `json:"tokenAddress,omitempty"`

	// IsTestnet reports whether the network is a test network.
	IsTestnet bool `json:"isTestnet"`

	// IsSupported reports whether invoices can be created and paid here.
	IsSupported bool `json:"isSupported"`
}

// HasToken reports whether the network has a stablecoin contract configured.
func (n Network) HasToken() bool {
	return n.TokenAddress != ""
}

// Registry networks. USDC addresses verified against the Circle developer
// docs; Sepolia is the primary invoicing network.
var (
	// Sepolia is the Ethereum Sepolia testnet, the default invoicing network.
	Sepolia = Network{
		ChainID:              11155111,
		Name:                 "Sepolia",
		NativeCurrencySymbol: "ETH",
		RPCURL:               "https://rpc.sepolia.org",
		BlockExplorerURL:     "https://sepolia.etherscan.io",
		TokenAddress:         "0xCaC5244dF5C21fA44EA353acaA571C24bB6B3bB9",
		IsTestnet:            true,
		IsSupported:          true,
	}

	// BaseSepolia is the Base Sepolia testnet.
	BaseSepolia = Network{
		ChainID:              84532,
		Name:                 "Base Sepolia",
		NativeCurrencySymbol: "ETH",
		RPCURL:               "https://sepolia.base.org",
		BlockExplorerURL:     "https://sepolia.basescan.org",
		TokenAddress:         "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		IsTestnet:            true,
		IsSupported:          true,
	}

	// EthereumMainnet is listed for recognition only; the invoice contract is
	// not deployed there.
	EthereumMainnet = Network{
		ChainID:              1,
		Name:                 "Ethereum",
		NativeCurrencySymbol: "ETH",
		RPCURL:               "https://eth.llamarpc.com",
		BlockExplorerURL:     "https://etherscan.io",
		IsTestnet:            false,
		IsSupported:          false,
	}

	// Polygon is listed for recognition only; no stablecoin is configured.
	Polygon = Network{
		ChainID:              137,
		Name:                 "Polygon",
		NativeCurrencySymbol: "POL",
		RPCURL:               "https://polygon-rpc.com",
		BlockExplorerURL:     "https://polygonscan.com",
		IsTestnet:            false,
		IsSupported:          false,
	}
)

// networks is the registry table in declaration order. Chain ids must be
// unique across the table.
var networks = []Network{
	Sepolia,
	BaseSepolia,
	EthereumMainnet,
	Polygon,
}

// LookupByChainID returns the network with the given chain id. The second
// return value is false when the chain id is not in the registry; lookups
// never panic and callers decide the fallback.
func LookupByChainID(chainID uint64) (Network, bool) {
	for _, n := range networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}

// LookupByName returns the network with the given name, compared
// case-insensitively.
func LookupByName(name string) (Network, bool) {
	for _, n := range networks {
		if strings.EqualFold(n.Name, name) {
			return n, true
		}
	}
	return Network{}, false
}

// SupportedNetworks returns the networks invoices can be created on, in
// registry declaration order.
func SupportedNetworks() []Network {
	var supported []Network
	for _, n := range networks {
		if n.IsSupported {
			supported = append(supported, n)
		}
	}
	return supported
}

// AllNetworks returns a copy of the full registry in declaration order.
func AllNetworks() []Network {
	out := make([]Network, len(networks))
	copy(out, networks)
	return out
}
