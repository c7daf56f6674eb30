package wallet

import (
	"context"
	"math/big"
	"sync"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// Phase is the connection state of the synchronizer.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseError        Phase = "error"
)

// nativeDecimals is the decimal count of the chain's native currency.
const nativeDecimals = 18

// State is the reconciled wallet view. Connected implies a non-empty Address.
// Network is nil when the chain id has no registry entry; such chains are
// treated as unsupported.
type State struct {
	Phase              Phase               `json:"phase"`
	Connected          bool                `json:"connected"`
	Address            string              `json:"address,omitempty"`
	ChainID            uint64              `json:"chainId,omitempty"`
	Network            *chainvoice.Network `json:"network,omitempty"`
	UnsupportedNetwork bool                `json:"unsupportedNetwork,omitempty"`
	NativeBalance      string              `json:"nativeBalance,omitempty"`
	TokenBalance       string              `json:"tokenBalance,omitempty"`
	RefreshingBalance  bool                `json:"refreshingBalance,omitempty"`
	LastError          string              `json:"lastError,omitempty"`
}

// Synchronizer reconciles local wallet state with an external provider. It is
// the single writer over State: every mutation happens under its mutex,
// triggered either by an explicit Connect/Disconnect or by a provider
// notification. Balance refreshes carry the epoch they were issued under and
// are discarded when an account or chain change supersedes them, so a stale
// balance is never attached to a new address.
type Synchronizer struct {
	mu          sync.Mutex
	provider    Provider
	tokens      TokenBalanceReader
	rebinder    Rebinder
	state       State
	epoch       uint64
	unsubscribe func()
}

// SynchronizerOption configures a Synchronizer.
type SynchronizerOption func(*Synchronizer)

// WithTokenReader wires the stablecoin balance source.
func WithTokenReader(tokens TokenBalanceReader) SynchronizerOption {
	return func(s *Synchronizer) { s.tokens = tokens }
}

// WithRebinder wires the contract-binding layer re-initialized on chain
// changes.
func WithRebinder(rebinder Rebinder) SynchronizerOption {
	return func(s *Synchronizer) { s.rebinder = rebinder }
}

// NewSynchronizer creates a Synchronizer in the Disconnected state. provider
// may be nil, in which case Connect fails with ProviderUnavailable.
func NewSynchronizer(provider Provider, opts ...SynchronizerOption) *Synchronizer {
	s := &Synchronizer{
		provider: provider,
		state:    State{Phase: PhaseDisconnected},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state. The Network pointer, when
// set, points at a private copy so readers can never mutate shared state.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	if s.state.Network != nil {
		network := *s.state.Network
		snap.Network = &network
	}
	return snap
}

// Connect moves Disconnected (or Error, which falls back to Disconnected on
// the next user action) to Connected via Connecting. It requests accounts,
// fetches the chain id, re-binds the contract layer, and refreshes balances.
// On any failure the state is never left partially updated: it is either the
// full Connected state or Error with everything cleared.
func (s *Synchronizer) Connect(ctx context.Context) error {
	if s.provider == nil {
		err := chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"no wallet provider detected", chainvoice.ErrProviderUnavailable)
		s.setError(err.Error())
		return err
	}

	s.mu.Lock()
	if s.state.Phase == PhaseConnected {
		s.mu.Unlock()
		return nil
	}
	s.state = State{Phase: PhaseConnecting}
	s.mu.Unlock()

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		connErr := chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"account request failed", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
		s.setError(connErr.Error())
		return connErr
	}
	if len(accounts) == 0 {
		connErr := chainvoice.NewInvoiceError(chainvoice.ErrCodeUserRejected,
			"provider returned no accounts", chainvoice.ErrUserRejected)
		s.setError(connErr.Error())
		return connErr
	}

	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		connErr := chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"chain id request failed", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
		s.setError(connErr.Error())
		return connErr
	}

	network, known := chainvoice.LookupByChainID(chainID)

	s.mu.Lock()
	s.state = State{
		Phase:              PhaseConnected,
		Connected:          true,
		Address:            accounts[0],
		ChainID:            chainID,
		UnsupportedNetwork: !known || !network.IsSupported,
		RefreshingBalance:  true,
	}
	if known {
		n := network
		s.state.Network = &n
	}
	s.epoch++
	epoch := s.epoch
	address := accounts[0]

	if s.rebinder != nil {
		var np *chainvoice.Network
		if known {
			n := network
			np = &n
		}
		if rebindErr := s.rebinder.Rebind(np); rebindErr != nil {
			s.state.LastError = rebindErr.Error()
		}
	}
	s.mu.Unlock()

	s.refreshBalances(ctx, epoch, address)
	return nil
}

// Disconnect unconditionally resets to Disconnected, clearing address,
// balances, and chain id, and removes the provider event subscription.
func (s *Synchronizer) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.state = State{Phase: PhaseDisconnected}
	s.epoch++
}

// HandleAccountsChanged is the reducer for an external accountsChanged
// notification. An empty account list disconnects immediately; a different
// first account replaces the address, invalidates the balances, and refetches
// them, discarding the refetch if it arrives after a later change.
func (s *Synchronizer) HandleAccountsChanged(ctx context.Context, accounts []string) {
	s.mu.Lock()
	if len(accounts) == 0 {
		s.state = State{Phase: PhaseDisconnected}
		s.epoch++
		s.mu.Unlock()
		return
	}
	if s.state.Phase != PhaseConnected || accounts[0] == s.state.Address {
		s.mu.Unlock()
		return
	}

	s.state.Address = accounts[0]
	s.state.NativeBalance = ""
	s.state.TokenBalance = ""
	s.state.RefreshingBalance = true
	s.epoch++
	epoch := s.epoch
	address := accounts[0]
	s.mu.Unlock()

	s.refreshBalances(ctx, epoch, address)
}

// HandleChainChanged is the reducer for an external chainChanged
// notification. The chain id and network descriptor are replaced and the
// contract-binding layer is re-initialized before the handler returns, so any
// contract call initiated after the notification uses the new chain's
// binding.
func (s *Synchronizer) HandleChainChanged(ctx context.Context, chainID uint64) error {
	s.mu.Lock()
	if s.state.Phase != PhaseConnected {
		s.mu.Unlock()
		return nil
	}

	network, known := chainvoice.LookupByChainID(chainID)
	s.state.ChainID = chainID
	s.state.Network = nil
	if known {
		n := network
		s.state.Network = &n
	}
	s.state.UnsupportedNetwork = !known || !network.IsSupported
	s.state.TokenBalance = ""
	s.state.RefreshingBalance = true
	s.epoch++
	epoch := s.epoch
	address := s.state.Address

	var rebindErr error
	if s.rebinder != nil {
		var np *chainvoice.Network
		if known {
			n := network
			np = &n
		}
		rebindErr = s.rebinder.Rebind(np)
		if rebindErr != nil {
			s.state.LastError = rebindErr.Error()
		}
	}
	s.mu.Unlock()

	s.refreshBalances(ctx, epoch, address)
	return rebindErr
}

// SwitchNetwork asks the provider to switch chains, registering the network
// first when the provider does not know it, then runs the chain-change
// reducer directly so callers that poll providers without notification
// support still converge.
func (s *Synchronizer) SwitchNetwork(ctx context.Context, chainID uint64) error {
	network, known := chainvoice.LookupByChainID(chainID)
	if !known {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"chain id not in registry", chainvoice.ErrUnsupportedNetwork).WithDetails("chainId", chainID)
	}
	if s.provider == nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"no wallet provider detected", chainvoice.ErrProviderUnavailable)
	}

	if err := s.provider.SwitchChain(ctx, chainID); err != nil {
		if addErr := s.provider.AddChain(ctx, network); addErr != nil {
			return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
				"provider could not switch chains", chainvoice.ErrExternalCallFailed).
				WithDetails("cause", err.Error())
		}
		if err := s.provider.SwitchChain(ctx, chainID); err != nil {
			return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
				"provider could not switch chains after adding network", chainvoice.ErrExternalCallFailed).
				WithDetails("cause", err.Error())
		}
	}

	return s.HandleChainChanged(ctx, chainID)
}

// Run subscribes to provider notifications and dispatches them to the
// reducers. Each event is handled to completion before the next is read,
// which serializes external notifications against contract calls. Run
// returns when the context is cancelled or the subscription closes.
func (s *Synchronizer) Run(ctx context.Context) error {
	if s.provider == nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"no wallet provider detected", chainvoice.ErrProviderUnavailable)
	}

	events, cancel, err := s.provider.Subscribe()
	if err != nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"provider subscription failed", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
	}
	s.mu.Lock()
	s.unsubscribe = cancel
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			cancel()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case EventAccountsChanged:
				s.HandleAccountsChanged(ctx, ev.Accounts)
			case EventChainChanged:
				s.HandleChainChanged(ctx, ev.ChainID)
			}
		}
	}
}

// setError clears all wallet fields and records the failure message.
func (s *Synchronizer) setError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Phase: PhaseError, LastError: message}
	s.epoch++
}

// refreshBalances fetches native and token balances for address and writes
// them back only if no account or chain change happened in between.
func (s *Synchronizer) refreshBalances(ctx context.Context, epoch uint64, address string) {
	var native, token *bigIntResult
	if s.provider != nil {
		native = newBigIntResult(s.provider.Balance(ctx, address))
	}
	if s.tokens != nil {
		token = newBigIntResult(s.tokens.TokenBalance(ctx, address))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state.Address != address {
		// A newer account or chain supersedes this refresh.
		return
	}
	s.state.RefreshingBalance = false
	if native != nil {
		if native.err != nil {
			s.state.LastError = native.err.Error()
		} else {
			s.state.NativeBalance = chainvoice.FromBaseUnits(native.value, nativeDecimals)
		}
	}
	if token != nil {
		if token.err != nil {
			s.state.LastError = token.err.Error()
		} else {
			s.state.TokenBalance = chainvoice.FromBaseUnits(token.value, chainvoice.USDCDecimals)
		}
	}
}

type bigIntResult struct {
	value *big.Int
	err   error
}

func newBigIntResult(value *big.Int, err error) *bigIntResult {
	return &bigIntResult{value: value, err: err}
}
