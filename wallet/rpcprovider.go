package wallet

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// DefaultPollInterval is how often RPCProvider re-checks the endpoint's chain
// id for change notifications.
const DefaultPollInterval = 15 * time.Second

// RPCProvider implements Provider over a JSON-RPC node. It serves headless
// deployments where no browser wallet injects a provider: accounts come from
// configuration (the local signer address) and chain changes are detected by
// polling, since a bare RPC endpoint pushes no notifications.
type RPCProvider struct {
	client       *ethclient.Client
	accounts     []string
	pollInterval time.Duration

	mu          sync.Mutex
	lastChainID uint64
}

// NewRPCProvider creates a provider over client exposing the given accounts.
func NewRPCProvider(client *ethclient.Client, accounts ...string) *RPCProvider {
	return &RPCProvider{
		client:       client,
		accounts:     accounts,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval overrides the chain-id poll interval.
func (p *RPCProvider) SetPollInterval(interval time.Duration) {
	p.pollInterval = interval
}

// RequestAccounts implements Provider.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	out := make([]string, len(p.accounts))
	copy(out, p.accounts)
	return out, nil
}

// ChainID implements Provider.
func (p *RPCProvider) ChainID(ctx context.Context) (uint64, error) {
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return 0, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"chain id query failed", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
	}
	p.mu.Lock()
	p.lastChainID = id.Uint64()
	p.mu.Unlock()
	return id.Uint64(), nil
}

// SwitchChain implements Provider. An RPC endpoint is pinned to a single
// chain, so switching is only accepted when it names the chain already
// served.
func (p *RPCProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	current, err := p.ChainID(ctx)
	if err != nil {
		return err
	}
	if current != chainID {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"rpc endpoint is pinned to its chain", chainvoice.ErrProviderUnavailable).
			WithDetails("endpointChainId", current).
			WithDetails("requestedChainId", chainID)
	}
	return nil
}

// AddChain implements Provider. RPC endpoints have no chain registry.
func (p *RPCProvider) AddChain(ctx context.Context, network chainvoice.Network) error {
	return chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
		"rpc endpoint cannot register networks", chainvoice.ErrProviderUnavailable)
}

// Balance implements Provider.
func (p *RPCProvider) Balance(ctx context.Context, address string) (*big.Int, error) {
	balance, err := p.client.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"balance query failed", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
	}
	return balance, nil
}

// Subscribe implements Provider by polling the endpoint's chain id and
// emitting a chainChanged event when it moves.
func (p *RPCProvider) Subscribe() (<-chan Event, func(), error) {
	events := make(chan Event, 1)
	stop := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(events)
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), p.pollInterval)
				id, err := p.client.ChainID(ctx)
				cancel()
				if err != nil {
					continue
				}
				p.mu.Lock()
				changed := p.lastChainID != 0 && p.lastChainID != id.Uint64()
				p.lastChainID = id.Uint64()
				p.mu.Unlock()
				if changed {
					select {
					case events <- Event{Type: EventChainChanged, ChainID: id.Uint64()}:
					case <-stop:
						return
					}
				}
			}
		}
	}()

	cancel := func() { once.Do(func() { close(stop) }) }
	return events, cancel, nil
}
