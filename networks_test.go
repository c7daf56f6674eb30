package chainvoice

import (
	"strings"
	"testing"
)

// TestNetworkConstants verifies the registry entries have coherent values
func TestNetworkConstants(t *testing.T) {
	tests := []struct {
		name    string
		network Network
	}{
		{"Sepolia", Sepolia},
		{"BaseSepolia", BaseSepolia},
		{"EthereumMainnet", EthereumMainnet},
		{"Polygon", Polygon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.network.ChainID == 0 {
				t.Errorf("%s: ChainID is zero", tt.name)
			}
			if tt.network.Name == "" {
				t.Errorf("%s: Name is empty", tt.name)
			}
			if tt.network.NativeCurrencySymbol == "" {
				t.Errorf("%s: NativeCurrencySymbol is empty", tt.name)
			}
			if tt.network.TokenAddress != "" && !strings.HasPrefix(tt.network.TokenAddress, "0x") {
				t.Errorf("%s: TokenAddress %q lacks 0x prefix", tt.name, tt.network.TokenAddress)
			}
		})
	}
}

// TestLookupByChainID verifies chain id lookup
func TestLookupByChainID(t *testing.T) {
	tests := []struct {
		name     string
		chainID  uint64
		found    bool
		wantName string
	}{
		{"sepolia", 11155111, true, "Sepolia"},
		{"base sepolia", 84532, true, "Base Sepolia"},
		{"mainnet", 1, true, "Ethereum"},
		{"polygon", 137, true, "Polygon"},
		{"unknown", 99999, false, ""},
		{"zero", 0, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, ok := LookupByChainID(tt.chainID)
			if ok != tt.found {
				t.Fatalf("LookupByChainID(%d) found = %v, want %v", tt.chainID, ok, tt.found)
			}
			if tt.found && network.Name != tt.wantName {
				t.Errorf("LookupByChainID(%d).Name = %q, want %q", tt.chainID, network.Name, tt.wantName)
			}
		})
	}
}

// TestLookupByName verifies name lookup is case-insensitive
func TestLookupByName(t *testing.T) {
	tests := []struct {
		query       string
		found       bool
		wantChainID uint64
	}{
		{"Sepolia", true, 11155111},
		{"sepolia", true, 11155111},
		{"SEPOLIA", true, 11155111},
		{"base sepolia", true, 84532},
		{"nonesuch", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			network, ok := LookupByName(tt.query)
			if ok != tt.found {
				t.Fatalf("LookupByName(%q) found = %v, want %v", tt.query, ok, tt.found)
			}
			if tt.found && network.ChainID != tt.wantChainID {
				t.Errorf("LookupByName(%q).ChainID = %d, want %d", tt.query, network.ChainID, tt.wantChainID)
			}
		})
	}
}

// TestSupportedNetworks verifies only supported entries are returned
func TestSupportedNetworks(t *testing.T) {
	supported := SupportedNetworks()
	if len(supported) == 0 {
		t.Fatal("SupportedNetworks() returned no entries")
	}
	for _, n := range supported {
		if !n.IsSupported {
			t.Errorf("SupportedNetworks() includes unsupported %q", n.Name)
		}
		if !n.HasToken() {
			t.Errorf("supported network %q has no token address", n.Name)
		}
	}

	if len(AllNetworks()) <= len(supported) {
		t.Error("AllNetworks() should include unsupported entries")
	}
}

// TestHasToken verifies token presence detection
func TestHasToken(t *testing.T) {
	if !Sepolia.HasToken() {
		t.Error("Sepolia.HasToken() = false, want true")
	}
	if Polygon.HasToken() {
		t.Error("Polygon.HasToken() = true, want false")
	}
}
