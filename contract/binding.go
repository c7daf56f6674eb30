// Package contract defines the thin boundary to an externally-provided
// contract binding: read-only calls and state-changing sends addressed by
// method name. The gateway depends only on this shape, never on a specific
// binding library; EthBinding is the go-ethereum-backed implementation.
package contract

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// Binding abstracts a bound contract instance.
type Binding interface {
	// Call performs a read-only contract call, unpacking the results into out.
	Call(ctx context.Context, out *[]interface{}, method string, args ...interface{}) error

	// Send submits a state-changing transaction. The returned Transaction can
	// be waited on for the receipt; a once-signed transaction cannot be
	// cancelled, so waiting is bounded only by the caller's context.
	Send(ctx context.Context, method string, args ...interface{}) (Transaction, error)
}

// Transaction is a submitted state-changing call.
type Transaction interface {
	// Hash returns the transaction hash.
	Hash() common.Hash

	// Wait blocks until the transaction is mined and returns its receipt.
	// A failed receipt surfaces as a ContractCallReverted error.
	Wait(ctx context.Context) (*Receipt, error)
}

// Receipt is the mined result of a transaction.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	Status      uint64
}

// ReceiptStatusSuccessful is the receipt status of a successful transaction.
const ReceiptStatusSuccessful = 1

// MapSendError classifies a raw binding error into the chainvoice taxonomy:
// an explicit decline at the wallet becomes UserRejected, a chain-level
// revert becomes ContractCallReverted with the message passed through
// verbatim, and everything else is an external call failure.
func MapSendError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "user denied") || strings.Contains(lower, "user rejected"):
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeContractCallRejected, "transaction rejected by signer", chainvoice.ErrContractCallRejected)
	case strings.Contains(lower, "execution reverted"):
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeContractCallReverted, msg, chainvoice.ErrContractCallReverted)
	default:
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed, msg, chainvoice.ErrExternalCallFailed)
	}
}
