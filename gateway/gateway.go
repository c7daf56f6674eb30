// Package gateway turns domain actions (create invoice, pay invoice, read
// invoices) into calls against the contract binding boundary. It performs
// every local rejection (status, self-payment, balance) before issuing any
// external call, runs the strictly-ordered approve-then-pay sequence, and
// re-initializes its bindings when the wallet synchronizer reports a chain
// change.
package gateway

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/contract"
	"github.com/chainvoice/chainvoice-go/ipfs"
	"github.com/chainvoice/chainvoice-go/validation"
)

// Bindings holds the bound contracts for one network.
type Bindings struct {
	// Invoice is the invoice contract binding.
	Invoice contract.Binding

	// Token is the stablecoin binding used for balance, allowance, and
	// approval.
	Token contract.Binding

	// InvoiceAddress is the invoice contract address, the spender of token
	// approvals.
	InvoiceAddress string
}

// BindingFactory creates bindings for a network. The synchronizer triggers it
// through Rebind on every chain change.
type BindingFactory func(network chainvoice.Network) (*Bindings, error)

// CallerFunc reports the current caller address. The second return value is
// false when no wallet is connected.
type CallerFunc func() (string, bool)

// CreateResult is the outcome of a successful invoice creation.
type CreateResult struct {
	InvoiceID       uint64 `json:"invoiceId"`
	TransactionHash string `json:"transactionHash"`
	MetadataHash    string `json:"metadataHash"`
}

// PayResult is the outcome of a successful payment.
type PayResult struct {
	TransactionHash string `json:"transactionHash"`
}

// Gateway is the invoice/contract façade. Bindings are guarded by a mutex and
// swapped atomically on rebind; every operation snapshots the binding epoch
// it was issued under and discards results that complete after a chain
// change, so a stale-chain read is never surfaced.
type Gateway struct {
	mu       sync.Mutex
	bindings *Bindings
	epoch    uint64

	factory BindingFactory
	store   ipfs.Store
	caller  CallerFunc
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithBindingFactory wires the factory used on chain changes.
func WithBindingFactory(factory BindingFactory) Option {
	return func(g *Gateway) { g.factory = factory }
}

// WithCaller wires the caller address source, normally the wallet
// synchronizer snapshot.
func WithCaller(caller CallerFunc) Option {
	return func(g *Gateway) { g.caller = caller }
}

// New creates a Gateway over the initial bindings and metadata store.
// bindings may be nil when no network is bound yet.
func New(bindings *Bindings, store ipfs.Store, opts ...Option) *Gateway {
	g := &Gateway{
		bindings: bindings,
		store:    store,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Rebind implements wallet.Rebinder. A nil network unbinds the gateway;
// contract calls then fail with UnsupportedNetwork until the wallet moves to
// a known chain.
func (g *Gateway) Rebind(network *chainvoice.Network) error {
	if network == nil {
		g.mu.Lock()
		g.bindings = nil
		g.epoch++
		g.mu.Unlock()
		return nil
	}
	if g.factory == nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"no binding factory configured", chainvoice.ErrUnsupportedNetwork)
	}
	bindings, err := g.factory(*network)
	if err != nil {
		g.mu.Lock()
		g.bindings = nil
		g.epoch++
		g.mu.Unlock()
		return err
	}
	g.mu.Lock()
	g.bindings = bindings
	g.epoch++
	g.mu.Unlock()
	return nil
}

// snapshot returns the current bindings and their epoch.
func (g *Gateway) snapshot() (*Bindings, uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bindings == nil || g.bindings.Invoice == nil {
		return nil, 0, chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"no contract binding for the current network", chainvoice.ErrUnsupportedNetwork)
	}
	return g.bindings, g.epoch, nil
}

// stillCurrent reports whether no rebind happened since epoch. Results from a
// superseded binding are discarded rather than displayed.
func (g *Gateway) stillCurrent(epoch uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.epoch != epoch {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"result discarded: chain changed while the call was in flight", chainvoice.ErrExternalCallFailed)
	}
	return nil
}

// CreateInvoice uploads the draft to the metadata store and then creates the
// invoice on chain. The contract call is never attempted when the upload
// fails.
func (g *Gateway) CreateInvoice(ctx context.Context, draft *chainvoice.InvoiceDraft) (*CreateResult, error) {
	if draft == nil || len(draft.Items) == 0 {
		return nil, chainvoice.InvalidFieldError("items", "draft must have at least one item")
	}
	if err := draft.RecomputeTotal(); err != nil {
		return nil, err
	}
	amount, err := chainvoice.ToBaseUnits(draft.TotalAmount, chainvoice.USDCDecimals)
	if err != nil {
		return nil, chainvoice.InvalidFieldError("totalAmount", err.Error())
	}
	if amount.Sign() <= 0 {
		return nil, chainvoice.InvalidFieldError("totalAmount", "must be greater than 0")
	}

	bindings, epoch, err := g.snapshot()
	if err != nil {
		return nil, err
	}

	hash, err := g.store.Upload(ctx, draft)
	if err != nil {
		return nil, err
	}

	// The contract assigns the next id to this invoice; read it before the
	// send so the result can name the created invoice.
	var idOut []interface{}
	if err := bindings.Invoice.Call(ctx, &idOut, "nextInvoiceId"); err != nil {
		return nil, err
	}
	nextID, ok := firstBigInt(idOut)
	if !ok {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"unexpected nextInvoiceId result", chainvoice.ErrExternalCallFailed)
	}

	tx, err := bindings.Invoice.Send(ctx, "createInvoice", amount, hash)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Wait(ctx); err != nil {
		return nil, err
	}
	if err := g.stillCurrent(epoch); err != nil {
		return nil, err
	}

	return &CreateResult{
		InvoiceID:       nextID.Uint64(),
		TransactionHash: tx.Hash().Hex(),
		MetadataHash:    hash,
	}, nil
}

// PayInvoice pays an unpaid invoice. It rejects locally, without a single
// external send, when the invoice is not payable, the caller created it, or
// the caller's token balance is below the amount. When the allowance is below
// the amount (exact comparison) an approval is submitted and confirmed before
// the payment transaction is issued.
func (g *Gateway) PayInvoice(ctx context.Context, invoiceID uint64) (*PayResult, error) {
	caller, connected := g.callerAddress()
	if !connected {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"no wallet connected", chainvoice.ErrNotConnected)
	}

	bindings, epoch, err := g.snapshot()
	if err != nil {
		return nil, err
	}

	inv, err := g.getInvoice(ctx, bindings, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeNotFound,
			fmt.Sprintf("invoice %d does not exist", invoiceID), chainvoice.ErrNotFound)
	}
	if inv.Status != chainvoice.StatusUnpaid {
		return nil, chainvoice.InvalidFieldError("invoiceId",
			fmt.Sprintf("invoice is %s and cannot be paid", inv.Status))
	}
	if strings.EqualFold(caller, inv.Creator) {
		return nil, chainvoice.InvalidFieldError("invoiceId", "cannot pay own invoice")
	}

	amount := inv.Amount()
	if amount == nil {
		return nil, chainvoice.InvalidFieldError("amount", "invoice amount is malformed")
	}

	balance, err := g.tokenBalanceOf(ctx, bindings, caller)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeInsufficientBalance,
			"token balance is below the invoice amount", chainvoice.ErrInsufficientBalance).
			WithDetails("balance", balance.String()).
			WithDetails("amount", amount.String())
	}

	allowance, err := g.allowanceOf(ctx, bindings, caller)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(amount) < 0 {
		// Approval must be confirmed before the payment is submitted.
		approveTx, err := bindings.Token.Send(ctx, "approve", common.HexToAddress(bindings.InvoiceAddress), amount)
		if err != nil {
			return nil, err
		}
		if _, err := approveTx.Wait(ctx); err != nil {
			return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeInsufficientAllowance,
				"token approval failed", chainvoice.ErrInsufficientAllowance).
				WithDetails("cause", err.Error())
		}
	}

	payTx, err := bindings.Invoice.Send(ctx, "payInvoice", new(big.Int).SetUint64(invoiceID))
	if err != nil {
		return nil, err
	}
	if _, err := payTx.Wait(ctx); err != nil {
		return nil, err
	}
	if err := g.stillCurrent(epoch); err != nil {
		return nil, err
	}

	return &PayResult{TransactionHash: payTx.Hash().Hex()}, nil
}

// GetInvoice reads an invoice projection. A missing invoice returns
// (nil, nil), never an error.
func (g *Gateway) GetInvoice(ctx context.Context, invoiceID uint64) (*chainvoice.Invoice, error) {
	bindings, epoch, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	inv, err := g.getInvoice(ctx, bindings, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := g.stillCurrent(epoch); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvoicesFor returns the invoices created by or addressed to address, in
// contract order. An address with no invoices returns an empty slice.
func (g *Gateway) ListInvoicesFor(ctx context.Context, address string) ([]*chainvoice.Invoice, error) {
	if err := validation.ValidateAddress(address); err != nil {
		return nil, chainvoice.InvalidFieldError("address", err.Error())
	}

	bindings, epoch, err := g.snapshot()
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := bindings.Invoice.Call(ctx, &out, "invoicesOf", common.HexToAddress(address)); err != nil {
		return nil, err
	}

	invoices := []*chainvoice.Invoice{}
	if len(out) > 0 {
		ids, ok := out[0].([]*big.Int)
		if !ok {
			return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
				"unexpected invoicesOf result", chainvoice.ErrExternalCallFailed)
		}
		for _, id := range ids {
			inv, err := g.getInvoice(ctx, bindings, id.Uint64())
			if err != nil {
				return nil, err
			}
			if inv != nil {
				invoices = append(invoices, inv)
			}
		}
	}

	if err := g.stillCurrent(epoch); err != nil {
		return nil, err
	}
	return invoices, nil
}

// ContractAddress returns the invoice contract address of the current
// binding. The second return value is false when no network is bound.
func (g *Gateway) ContractAddress() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bindings == nil {
		return "", false
	}
	return g.bindings.InvoiceAddress, true
}

// TokenBalance implements wallet.TokenBalanceReader over the token binding.
func (g *Gateway) TokenBalance(ctx context.Context, address string) (*big.Int, error) {
	bindings, _, err := g.snapshot()
	if err != nil {
		return nil, err
	}
	return g.tokenBalanceOf(ctx, bindings, address)
}

func (g *Gateway) callerAddress() (string, bool) {
	if g.caller == nil {
		return "", false
	}
	return g.caller()
}

func (g *Gateway) tokenBalanceOf(ctx context.Context, bindings *Bindings, address string) (*big.Int, error) {
	if bindings.Token == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"no token binding for the current network", chainvoice.ErrUnsupportedNetwork)
	}
	var out []interface{}
	if err := bindings.Token.Call(ctx, &out, "balanceOf", common.HexToAddress(address)); err != nil {
		return nil, err
	}
	balance, ok := firstBigInt(out)
	if !ok {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"unexpected balanceOf result", chainvoice.ErrExternalCallFailed)
	}
	return balance, nil
}

func (g *Gateway) allowanceOf(ctx context.Context, bindings *Bindings, owner string) (*big.Int, error) {
	var out []interface{}
	err := bindings.Token.Call(ctx, &out, "allowance",
		common.HexToAddress(owner), common.HexToAddress(bindings.InvoiceAddress))
	if err != nil {
		return nil, err
	}
	allowance, ok := firstBigInt(out)
	if !ok {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"unexpected allowance result", chainvoice.ErrExternalCallFailed)
	}
	return allowance, nil
}

// getInvoice reads and maps one invoice. The contract returns a zeroed tuple
// for ids it never assigned; that maps to nil.
func (g *Gateway) getInvoice(ctx context.Context, bindings *Bindings, invoiceID uint64) (*chainvoice.Invoice, error) {
	var out []interface{}
	if err := bindings.Invoice.Call(ctx, &out, "getInvoice", new(big.Int).SetUint64(invoiceID)); err != nil {
		return nil, err
	}
	if len(out) != 8 {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"unexpected getInvoice result", chainvoice.ErrExternalCallFailed).
			WithDetails("fields", len(out))
	}

	id, _ := out[0].(*big.Int)
	creator, _ := out[1].(common.Address)
	payer, _ := out[2].(common.Address)
	amount, _ := out[3].(*big.Int)
	status, _ := out[4].(uint8)
	metadataHash, _ := out[5].(string)
	createdAt, _ := out[6].(*big.Int)
	paidAt, _ := out[7].(*big.Int)

	if id == nil || amount == nil || createdAt == nil || paidAt == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"unexpected getInvoice field types", chainvoice.ErrExternalCallFailed)
	}
	if id.Sign() == 0 && creator == (common.Address{}) {
		return nil, nil
	}

	inv := &chainvoice.Invoice{
		ID:              id.Uint64(),
		Creator:         creator.Hex(),
		AmountBaseUnits: amount.String(),
		Status:          chainvoice.InvoiceStatus(status),
		MetadataHash:    metadataHash,
		CreatedAt:       createdAt.Int64(),
		PaidAt:          paidAt.Int64(),
	}
	// The contract only stores positive amounts; anything else is a corrupt
	// response, not an invoice.
	if err := validation.ValidateBaseUnits(inv.AmountBaseUnits); err != nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"invoice amount is malformed", chainvoice.ErrExternalCallFailed).
			WithDetails("cause", err.Error())
	}
	if payer != (common.Address{}) {
		inv.Payer = payer.Hex()
	}
	return inv, nil
}

func firstBigInt(out []interface{}) (*big.Int, bool) {
	if len(out) == 0 {
		return nil, false
	}
	value, ok := out[0].(*big.Int)
	return value, ok
}
