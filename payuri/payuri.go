// Package payuri constructs the candidate representations of an invoice
// payment request: an EIP-681 token-transfer deep-link, a mobile wallet
// deep-link carrying ABI-encoded calldata, a structured JSON payload, and a
// generic EIP-681 address URI. Every builder validates its inputs and fails
// before emitting any part of a URI; none of them depends on wallet state.
package payuri

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/validation"
)

// MobileDeepLinkHost is the fixed external mobile-app host the wallet
// deep-link is built under. A wallet scanning the link can bootstrap the
// network from the embedded parameters before pre-filling the transfer.
const MobileDeepLinkHost = "https://metamask.app.link/send"

// Format identifies one of the payment URI representations.
type Format string

const (
	// FormatTokenTransfer is the EIP-681 token-transfer deep-link, the
	// canonical representation most wallets understand.
	FormatTokenTransfer Format = "token-transfer"
	// FormatMobileDeepLink is the mobile wallet deep-link with embedded
	// calldata and network bootstrap parameters.
	FormatMobileDeepLink Format = "mobile-deeplink"
	// FormatJSON is the structured JSON payload with redundant key names.
	FormatJSON Format = "json"
	// FormatGeneric is the bare EIP-681 address form.
	FormatGeneric Format = "generic"
)

// Request carries the inputs common to all builders.
type Request struct {
	// InvoiceID is the contract-assigned invoice id.
	InvoiceID uint64

	// Amount is the human-readable decimal amount, converted to base units
	// with the floor policy of chainvoice.ToBaseUnits.
	Amount string

	// Recipient is the address the transfer is directed to, normally the
	// invoice contract.
	Recipient string

	// Network supplies the chain id, token address, and bootstrap parameters.
	Network chainvoice.Network
}

// Validate checks every field and returns an InvalidInput error naming the
// first offending field. All builders call it before constructing anything.
func (r *Request) Validate() error {
	if err := validation.ValidateAddress(r.Recipient); err != nil {
		return chainvoice.InvalidFieldError("recipientAddress", err.Error())
	}
	if err := validation.ValidatePositiveDecimal(r.Amount); err != nil {
		return chainvoice.InvalidFieldError("amount", err.Error())
	}
	if r.Network.ChainID == 0 {
		return chainvoice.InvalidFieldError("chainId", "must be non-zero")
	}
	if !r.Network.HasToken() {
		return chainvoice.InvalidFieldError("tokenAddress", fmt.Sprintf("network %q has no token configured", r.Network.Name))
	}
	if err := validation.ValidateAddress(r.Network.TokenAddress); err != nil {
		return chainvoice.InvalidFieldError("tokenAddress", err.Error())
	}
	return nil
}

// baseUnits converts the request amount, assuming Validate has passed.
func (r *Request) baseUnits() (*big.Int, error) {
	units, err := chainvoice.ToBaseUnits(r.Amount, chainvoice.USDCDecimals)
	if err != nil {
		return nil, chainvoice.InvalidFieldError("amount", err.Error())
	}
	if units.Sign() <= 0 {
		return nil, chainvoice.InvalidFieldError("amount", "must be greater than 0 after conversion")
	}
	return units, nil
}

// TokenTransferURI builds the EIP-681 token-transfer deep-link:
//
//	ethereum:<tokenAddress>@<chainId>/transfer?address=<recipient>&uint256=<baseUnits>
func (r *Request) TokenTransferURI() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	units, err := r.baseUnits()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ethereum:%s@%d/transfer?address=%s&uint256=%s",
		r.Network.TokenAddress, r.Network.ChainID, r.Recipient, units.String()), nil
}

// MobileDeepLink builds a wallet deep-link under MobileDeepLinkHost. The query
// string carries the token contract as the call target, the ABI-encoded
// transfer calldata, and the full network bootstrap parameters so a scanning
// wallet can add the chain before pre-filling the transfer.
func (r *Request) MobileDeepLink() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	units, err := r.baseUnits()
	if err != nil {
		return "", err
	}

	calldata, err := EncodeTransferCalldata(common.HexToAddress(r.Recipient), units)
	if err != nil {
		return "", chainvoice.InvalidFieldError("amount", err.Error())
	}

	params := url.Values{}
	params.Set("to", r.Network.TokenAddress)
	params.Set("data", hexutil.Encode(calldata))
	params.Set("invoiceId", strconv.FormatUint(r.InvoiceID, 10))
	params.Set("chainId", strconv.FormatUint(r.Network.ChainID, 10))
	params.Set("chainName", r.Network.Name)
	params.Set("nativeCurrency", r.Network.NativeCurrencySymbol)
	params.Set("rpcUrl", r.Network.RPCURL)
	params.Set("explorerUrl", r.Network.BlockExplorerURL)

	return MobileDeepLinkHost + "?" + params.Encode(), nil
}

// jsonPayload is the structured QR payload. Field order is fixed by the
// struct, so marshaling is canonical: identical requests produce identical
// bytes. Key names are deliberately redundant (to/recipient,
// token/tokenAddress, value/amount) so wallets with different parsers can all
// find what they need.
type jsonPayload struct {
	To           string `json:"to"`
	Recipient    string `json:"recipient"`
	Token        string `json:"token"`
	TokenAddress string `json:"tokenAddress"`
	Value        string `json:"value"`
	Amount       string `json:"amount"`
	InvoiceID    uint64 `json:"invoiceId"`
	ChainID      uint64 `json:"chainId"`
}

// JSONPayload builds the structured JSON representation, used when neither
// deep-link format is understood by the scanning app.
func (r *Request) JSONPayload() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	units, err := r.baseUnits()
	if err != nil {
		return "", err
	}
	payload := jsonPayload{
		To:           r.Recipient,
		Recipient:    r.Recipient,
		Token:        r.Network.TokenAddress,
		TokenAddress: r.Network.TokenAddress,
		Value:        units.String(),
		Amount:       units.String(),
		InvoiceID:    r.InvoiceID,
		ChainID:      r.Network.ChainID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment payload: %w", err)
	}
	return string(data), nil
}

// GenericOptions are the optional query parameters of the generic URI form.
type GenericOptions struct {
	// Value is an optional native-currency amount in wei.
	Value *big.Int
	// Data is optional calldata, hex-encoded with a 0x prefix.
	Data string
}

// GenericURI builds the bare EIP-681 address form,
// ethereum:<recipient>@<chainId>, with optional value and data parameters.
// It validates the same inputs as every other builder, the network token
// address included.
func (r *Request) GenericURI(opts GenericOptions) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	uri := fmt.Sprintf("ethereum:%s@%d", r.Recipient, r.Network.ChainID)
	sep := "?"
	if opts.Value != nil {
		if opts.Value.Sign() < 0 {
			return "", chainvoice.InvalidFieldError("value", "must be non-negative")
		}
		uri += sep + "value=" + opts.Value.String()
		sep = "&"
	}
	if opts.Data != "" {
		if _, err := hexutil.Decode(opts.Data); err != nil {
			return "", chainvoice.InvalidFieldError("data", "must be 0x-prefixed hex")
		}
		uri += sep + "data=" + opts.Data
	}
	return uri, nil
}

// Result is a successfully built representation together with its format.
type Result struct {
	Format  Format
	Content string
}

// Build dispatches to the builder for the given format.
func (r *Request) Build(format Format) (string, error) {
	switch format {
	case FormatTokenTransfer:
		return r.TokenTransferURI()
	case FormatMobileDeepLink:
		return r.MobileDeepLink()
	case FormatJSON:
		return r.JSONPayload()
	case FormatGeneric:
		return r.GenericURI(GenericOptions{})
	default:
		return "", chainvoice.InvalidFieldError("format", fmt.Sprintf("unknown format %q", format))
	}
}

// fallbackOrder is the multi-format fallback policy: token-transfer first,
// then the mobile deep-link, then the generic form. The JSON payload is only
// built on explicit request.
var fallbackOrder = []Format{FormatTokenTransfer, FormatMobileDeepLink, FormatGeneric}

// BuildPreferred walks the fallback order and returns the first
// representation that builds successfully. When every builder fails the last
// error is returned.
func (r *Request) BuildPreferred() (*Result, error) {
	var lastErr error
	for _, format := range fallbackOrder {
		content, err := r.Build(format)
		if err != nil {
			lastErr = err
			continue
		}
		return &Result{Format: format, Content: content}, nil
	}
	return nil, lastErr
}
