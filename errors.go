package chainvoice

import (
	"errors"
	"fmt"
)

// Standard chainvoice error definitions

var (
	// ErrInvalidInput indicates a malformed address, amount, or invoice id caught before any external call.
	ErrInvalidInput = errors.New("chainvoice: invalid input")

	// ErrInvalidAmount indicates a negative, empty, or non-numeric decimal amount.
	ErrInvalidAmount = errors.New("chainvoice: invalid amount")

	// ErrProviderUnavailable indicates no wallet provider was detected.
	ErrProviderUnavailable = errors.New("chainvoice: wallet provider unavailable")

	// ErrUserRejected indicates the user declined the request at the wallet UI.
	ErrUserRejected = errors.New("chainvoice: user rejected request")

	// ErrInsufficientBalance indicates the payer's token balance is below the invoice amount.
	ErrInsufficientBalance = errors.New("chainvoice: insufficient token balance")

	// ErrInsufficientAllowance indicates the spender allowance is below the invoice amount.
	ErrInsufficientAllowance = errors.New("chainvoice: insufficient token allowance")

	// ErrUnsupportedNetwork indicates a chain id absent from the network registry.
	ErrUnsupportedNetwork = errors.New("chainvoice: unsupported network")

	// ErrExternalCallFailed indicates a network, HTTP, or RPC failure.
	ErrExternalCallFailed = errors.New("chainvoice: external call failed")

	// ErrNotFound indicates the requested invoice does not exist.
	ErrNotFound = errors.New("chainvoice: not found")

	// ErrMetadataUploadFailed indicates the metadata store rejected the upload;
	// the contract call is never attempted in this case.
	ErrMetadataUploadFailed = errors.New("chainvoice: metadata upload failed")

	// ErrContractCallRejected indicates the signer declined to sign the transaction.
	ErrContractCallRejected = errors.New("chainvoice: contract call rejected")

	// ErrContractCallReverted indicates a chain-level rejection of the transaction.
	ErrContractCallReverted = errors.New("chainvoice: contract call reverted")

	// ErrNotConnected indicates an operation that requires a connected wallet.
	ErrNotConnected = errors.New("chainvoice: wallet not connected")
)

// ErrorCode is a stable, machine-checkable error kind.
type ErrorCode string

const (
	ErrCodeInvalidInput          ErrorCode = "invalid_input"
	ErrCodeProviderUnavailable   ErrorCode = "provider_unavailable"
	ErrCodeUserRejected          ErrorCode = "user_rejected"
	ErrCodeInsufficientBalance   ErrorCode = "insufficient_balance"
	ErrCodeInsufficientAllowance ErrorCode = "insufficient_allowance"
	ErrCodeUnsupportedNetwork    ErrorCode = "unsupported_network"
	ErrCodeExternalCallFailed    ErrorCode = "external_call_failed"
	ErrCodeNotFound              ErrorCode = "not_found"
	ErrCodeMetadataUploadFailed  ErrorCode = "metadata_upload_failed"
	ErrCodeContractCallRejected  ErrorCode = "contract_call_rejected"
	ErrCodeContractCallReverted  ErrorCode = "contract_call_reverted"
)

// InvoiceError carries an ErrorCode alongside a human-readable message and
// optional structured details. The wrapped error, when present, is one of the
// sentinel errors above so callers can branch with errors.Is.
type InvoiceError struct {
	Code    ErrorCode
	Message string
	Err     error
	Details map[string]interface{}
}

// NewInvoiceError creates an InvoiceError with the given code, message, and underlying error.
func NewInvoiceError(code ErrorCode, message string, err error) *InvoiceError {
	return &InvoiceError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

func (e *InvoiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *InvoiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value pair to the error and returns it for chaining.
func (e *InvoiceError) WithDetails(key string, value interface{}) *InvoiceError {
	e.Details[key] = value
	return e
}

// CodeOf extracts the ErrorCode from err. Returns an empty code when err is
// not an InvoiceError.
func CodeOf(err error) ErrorCode {
	var ie *InvoiceError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// InvalidFieldError builds the InvalidInput error used by the URI builders and
// the gateway to name the offending field before any string or external call
// is constructed.
func InvalidFieldError(field, reason string) *InvoiceError {
	return NewInvoiceError(ErrCodeInvalidInput, fmt.Sprintf("%s: %s", field, reason), ErrInvalidInput).
		WithDetails("field", field)
}
