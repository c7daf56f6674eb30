package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// EthBinding implements Binding over a go-ethereum BoundContract. Sends
// require a transactor; a read-only binding returns ProviderUnavailable from
// Send.
type EthBinding struct {
	address  common.Address
	client   *ethclient.Client
	bound    *bind.BoundContract
	transact *bind.TransactOpts
}

// NewEthBinding binds the contract at address with the given ABI JSON.
// transact may be nil for a read-only binding.
func NewEthBinding(client *ethclient.Client, address common.Address, abiJSON string, transact *bind.TransactOpts) (*EthBinding, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract ABI: %w", err)
	}
	return &EthBinding{
		address:  address,
		client:   client,
		bound:    bind.NewBoundContract(address, parsed, client, client, client),
		transact: transact,
	}, nil
}

// Address returns the bound contract address.
func (b *EthBinding) Address() common.Address {
	return b.address
}

// Call implements Binding.
func (b *EthBinding) Call(ctx context.Context, out *[]interface{}, method string, args ...interface{}) error {
	opts := &bind.CallOpts{Context: ctx}
	if err := b.bound.Call(opts, out, method, args...); err != nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			fmt.Sprintf("contract call %s failed", method), chainvoice.ErrExternalCallFailed).
			WithDetails("cause", err.Error())
	}
	return nil
}

// Send implements Binding.
func (b *EthBinding) Send(ctx context.Context, method string, args ...interface{}) (Transaction, error) {
	if b.transact == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeProviderUnavailable,
			"no transactor configured for contract sends", chainvoice.ErrProviderUnavailable)
	}

	opts := *b.transact
	opts.Context = ctx
	tx, err := b.bound.Transact(&opts, method, args...)
	if err != nil {
		return nil, MapSendError(err)
	}
	return &ethTransaction{tx: tx, client: b.client}, nil
}

// ethTransaction wraps a submitted go-ethereum transaction.
type ethTransaction struct {
	tx     *types.Transaction
	client *ethclient.Client
}

func (t *ethTransaction) Hash() common.Hash {
	return t.tx.Hash()
}

// Wait blocks until the transaction is mined. A receipt with a failed status
// is reported as a ContractCallReverted error.
func (t *ethTransaction) Wait(ctx context.Context) (*Receipt, error) {
	receipt, err := bind.WaitMined(ctx, t.client, t.tx)
	if err != nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"failed waiting for transaction receipt", chainvoice.ErrExternalCallFailed).
			WithDetails("txHash", t.tx.Hash().Hex())
	}
	mapped := &Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		Status:      receipt.Status,
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return mapped, chainvoice.NewInvoiceError(chainvoice.ErrCodeContractCallReverted,
			"transaction reverted on chain", chainvoice.ErrContractCallReverted).
			WithDetails("txHash", t.tx.Hash().Hex())
	}
	return mapped, nil
}
