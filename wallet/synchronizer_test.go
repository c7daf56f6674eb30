package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

const (
	accountA = "0x3BEa30431539669E94B2E79149654586F7746A16"
	accountB = "0x1111111111111111111111111111111111111111"
)

// fakeProvider is a scriptable wallet provider.
type fakeProvider struct {
	mu          sync.Mutex
	accounts    []string
	accountsErr error
	chainID     uint64
	chainErr    error
	balances    map[string]*big.Int
	switchErr   error
	addErr      error
	switched    []uint64
	added       []string
	events      chan Event
}

func newFakeProvider(accounts []string, chainID uint64) *fakeProvider {
	return &fakeProvider{
		accounts: accounts,
		chainID:  chainID,
		balances: map[string]*big.Int{},
		events:   make(chan Event, 8),
	}
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if p.accountsErr != nil {
		return nil, p.accountsErr
	}
	return p.accounts, nil
}

func (p *fakeProvider) ChainID(ctx context.Context) (uint64, error) {
	if p.chainErr != nil {
		return 0, p.chainErr
	}
	return p.chainID, nil
}

func (p *fakeProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.switchErr != nil {
		return p.switchErr
	}
	p.switched = append(p.switched, chainID)
	p.chainID = chainID
	return nil
}

func (p *fakeProvider) AddChain(ctx context.Context, network chainvoice.Network) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.addErr != nil {
		return p.addErr
	}
	p.added = append(p.added, network.Name)
	p.switchErr = nil
	return nil
}

func (p *fakeProvider) Balance(ctx context.Context, address string) (*big.Int, error) {
	if b, ok := p.balances[address]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (p *fakeProvider) Subscribe() (<-chan Event, func(), error) {
	return p.events, func() {}, nil
}

// fakeTokens serves token balances per address.
type fakeTokens struct {
	balances map[string]*big.Int
}

func (f *fakeTokens) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	if b, ok := f.balances[address]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

// recordingRebinder records every rebind target.
type recordingRebinder struct {
	mu      sync.Mutex
	targets []*chainvoice.Network
	err     error
}

func (r *recordingRebinder) Rebind(network *chainvoice.Network) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, network)
	return r.err
}

// TestConnect verifies the full connect sequence populates the state
func TestConnect(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	provider.balances[accountA] = big.NewInt(2000000000000000000)
	tokens := &fakeTokens{balances: map[string]*big.Int{accountA: big.NewInt(100500000)}}
	rebinder := &recordingRebinder{}

	s := NewSynchronizer(provider, WithTokenReader(tokens), WithRebinder(rebinder))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	state := s.Snapshot()
	if state.Phase != PhaseConnected || !state.Connected {
		t.Fatalf("state = %+v, want connected", state)
	}
	if state.Address != accountA {
		t.Errorf("Address = %q, want %q", state.Address, accountA)
	}
	if state.ChainID != 11155111 {
		t.Errorf("ChainID = %d, want 11155111", state.ChainID)
	}
	if state.Network == nil || state.Network.Name != "Sepolia" {
		t.Errorf("Network = %v, want Sepolia", state.Network)
	}
	if state.UnsupportedNetwork {
		t.Error("UnsupportedNetwork = true for Sepolia")
	}
	if state.NativeBalance != "2" {
		t.Errorf("NativeBalance = %q, want 2", state.NativeBalance)
	}
	if state.TokenBalance != "100.5" {
		t.Errorf("TokenBalance = %q, want 100.5", state.TokenBalance)
	}
	if len(rebinder.targets) != 1 || rebinder.targets[0] == nil {
		t.Errorf("rebinder targets = %v, want one non-nil", rebinder.targets)
	}
}

// TestConnectFailures verifies error states clear wallet fields
func TestConnectFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		sentinel error
	}{
		{
			name: "account request fails",
			provider: func() *fakeProvider {
				p := newFakeProvider(nil, 1)
				p.accountsErr = errors.New("rpc down")
				return p
			}(),
			sentinel: chainvoice.ErrExternalCallFailed,
		},
		{
			name:     "no accounts returned",
			provider: newFakeProvider([]string{}, 1),
			sentinel: chainvoice.ErrUserRejected,
		},
		{
			name: "chain id fails",
			provider: func() *fakeProvider {
				p := newFakeProvider([]string{accountA}, 1)
				p.chainErr = errors.New("rpc down")
				return p
			}(),
			sentinel: chainvoice.ErrExternalCallFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynchronizer(tt.provider)
			err := s.Connect(context.Background())
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("error = %v, want %v", err, tt.sentinel)
			}
			state := s.Snapshot()
			if state.Phase != PhaseError {
				t.Errorf("Phase = %s, want error", state.Phase)
			}
			if state.Connected || state.Address != "" {
				t.Errorf("state not cleared: %+v", state)
			}
			if state.LastError == "" {
				t.Error("LastError is empty")
			}
		})
	}
}

// TestConnectNoProvider verifies a nil provider yields ProviderUnavailable
func TestConnectNoProvider(t *testing.T) {
	s := NewSynchronizer(nil)
	err := s.Connect(context.Background())
	if !errors.Is(err, chainvoice.ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable", err)
	}
}

// TestConnectUnsupportedChain verifies connecting on an unknown chain flags it
func TestConnectUnsupportedChain(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 99999)
	s := NewSynchronizer(provider)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	state := s.Snapshot()
	if !state.UnsupportedNetwork {
		t.Error("UnsupportedNetwork = false for unknown chain")
	}
	if state.Network != nil {
		t.Errorf("Network = %v, want nil", state.Network)
	}
	if !state.Connected {
		t.Error("connection should survive an unsupported chain")
	}
}

// TestDisconnect verifies a full state reset
func TestDisconnect(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	s := NewSynchronizer(provider)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	s.Disconnect()
	state := s.Snapshot()
	if state.Phase != PhaseDisconnected || state.Connected {
		t.Errorf("state = %+v, want disconnected", state)
	}
	if state.Address != "" || state.ChainID != 0 || state.TokenBalance != "" {
		t.Errorf("state not cleared: %+v", state)
	}
}

// TestHandleAccountsChangedEmpty verifies an empty account list disconnects
func TestHandleAccountsChangedEmpty(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	s := NewSynchronizer(provider)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	s.HandleAccountsChanged(context.Background(), nil)
	state := s.Snapshot()
	if state.Phase != PhaseDisconnected || state.Connected || state.Address != "" {
		t.Errorf("state = %+v, want disconnected and cleared", state)
	}
}

// TestHandleAccountsChangedSwitch verifies balances are refetched for the new account
func TestHandleAccountsChangedSwitch(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	provider.balances[accountA] = big.NewInt(1000000000000000000)
	provider.balances[accountB] = big.NewInt(3000000000000000000)
	tokens := &fakeTokens{balances: map[string]*big.Int{
		accountA: big.NewInt(1000000),
		accountB: big.NewInt(7500000),
	}}

	s := NewSynchronizer(provider, WithTokenReader(tokens))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	s.HandleAccountsChanged(context.Background(), []string{accountB})
	state := s.Snapshot()
	if state.Address != accountB {
		t.Fatalf("Address = %q, want %q", state.Address, accountB)
	}
	if state.NativeBalance != "3" {
		t.Errorf("NativeBalance = %q, want 3", state.NativeBalance)
	}
	if state.TokenBalance != "7.5" {
		t.Errorf("TokenBalance = %q, want 7.5", state.TokenBalance)
	}
	if state.RefreshingBalance {
		t.Error("RefreshingBalance should clear after the refetch")
	}
}

// TestHandleAccountsChangedSameAccount verifies a repeat notification is a no-op
func TestHandleAccountsChangedSameAccount(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	s := NewSynchronizer(provider)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	before := s.Snapshot()
	s.HandleAccountsChanged(context.Background(), []string{accountA})
	after := s.Snapshot()
	if before.Address != after.Address || before.Phase != after.Phase {
		t.Errorf("state changed on same-account notification: %+v -> %+v", before, after)
	}
}

// TestHandleChainChanged verifies the rebind happens before the handler returns
func TestHandleChainChanged(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	rebinder := &recordingRebinder{}
	s := NewSynchronizer(provider, WithRebinder(rebinder))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := s.HandleChainChanged(context.Background(), 84532); err != nil {
		t.Fatalf("HandleChainChanged() error = %v", err)
	}

	state := s.Snapshot()
	if state.ChainID != 84532 {
		t.Errorf("ChainID = %d, want 84532", state.ChainID)
	}
	if state.Network == nil || state.Network.Name != "Base Sepolia" {
		t.Errorf("Network = %v, want Base Sepolia", state.Network)
	}

	rebinder.mu.Lock()
	defer rebinder.mu.Unlock()
	if len(rebinder.targets) != 2 {
		t.Fatalf("rebinder targets = %d, want 2 (connect + chain change)", len(rebinder.targets))
	}
	last := rebinder.targets[1]
	if last == nil || last.ChainID != 84532 {
		t.Errorf("last rebind target = %v, want Base Sepolia", last)
	}
}

// TestHandleChainChangedUnknown verifies an unknown chain rebinds to nil
func TestHandleChainChangedUnknown(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	rebinder := &recordingRebinder{}
	s := NewSynchronizer(provider, WithRebinder(rebinder))
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := s.HandleChainChanged(context.Background(), 99999); err != nil {
		t.Fatalf("HandleChainChanged() error = %v", err)
	}
	state := s.Snapshot()
	if !state.UnsupportedNetwork || state.Network != nil {
		t.Errorf("state = %+v, want unsupported with nil network", state)
	}

	rebinder.mu.Lock()
	defer rebinder.mu.Unlock()
	if last := rebinder.targets[len(rebinder.targets)-1]; last != nil {
		t.Errorf("last rebind target = %v, want nil", last)
	}
}

// TestSwitchNetwork verifies the add-then-retry path for unknown provider chains
func TestSwitchNetwork(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	provider.switchErr = errors.New("unrecognized chain")
	s := NewSynchronizer(provider)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := s.SwitchNetwork(context.Background(), 84532); err != nil {
		t.Fatalf("SwitchNetwork() error = %v", err)
	}
	if len(provider.added) != 1 || provider.added[0] != "Base Sepolia" {
		t.Errorf("added = %v, want [Base Sepolia]", provider.added)
	}
	if s.Snapshot().ChainID != 84532 {
		t.Errorf("ChainID = %d, want 84532", s.Snapshot().ChainID)
	}
}

// TestSwitchNetworkUnknownChain verifies registry misses are rejected locally
func TestSwitchNetworkUnknownChain(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	s := NewSynchronizer(provider)
	err := s.SwitchNetwork(context.Background(), 424242)
	if !errors.Is(err, chainvoice.ErrUnsupportedNetwork) {
		t.Fatalf("error = %v, want ErrUnsupportedNetwork", err)
	}
	if len(provider.switched) != 0 {
		t.Error("provider switch attempted for unknown chain")
	}
}

// TestRunDispatchesEvents verifies provider notifications drive the reducers
func TestRunDispatchesEvents(t *testing.T) {
	provider := newFakeProvider([]string{accountA}, 11155111)
	s := NewSynchronizer(provider)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	provider.events <- Event{Type: EventChainChanged, ChainID: 84532}
	waitFor(t, func() bool { return s.Snapshot().ChainID == 84532 })

	provider.events <- Event{Type: EventAccountsChanged, Accounts: nil}
	waitFor(t, func() bool { return s.Snapshot().Phase == PhaseDisconnected })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// TestParseChainIDHex verifies hex quantity parsing and its rejections
func TestParseChainIDHex(t *testing.T) {
	tests := []struct {
		hex   string
		want  uint64
		valid bool
	}{
		{"0xaa36a7", 11155111, true},
		{"0x14a34", 84532, true},
		{"0x1", 1, true},
		{"aa36a7", 0, false},
		{"0x", 0, false},
		{"", 0, false},
		{"nonsense", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseChainIDHex(tt.hex)
		if tt.valid {
			if err != nil {
				t.Errorf("ParseChainIDHex(%q) error = %v", tt.hex, err)
			}
			if got != tt.want {
				t.Errorf("ParseChainIDHex(%q) = %d, want %d", tt.hex, got, tt.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("ParseChainIDHex(%q) expected error", tt.hex)
		} else if !errors.Is(err, chainvoice.ErrInvalidInput) {
			t.Errorf("ParseChainIDHex(%q) error = %v, want ErrInvalidInput", tt.hex, err)
		}
	}
}
