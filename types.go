package chainvoice

import "math/big"

// InvoiceStatus is the lifecycle state of an invoice. Paid and Failed are
// terminal.
type InvoiceStatus uint8

const (
	// StatusUnpaid is the initial state of every invoice.
	StatusUnpaid InvoiceStatus = iota
	// StatusPaid indicates a confirmed on-chain payment.
	StatusPaid
	// StatusFailed indicates an administrative failure transition.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s InvoiceStatus) String() string {
	switch s {
	case StatusUnpaid:
		return "unpaid"
	case StatusPaid:
		return "paid"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Invoice is the application projection of an invoice owned by the contract.
// The contract is the source of truth; this type is read-only on the client
// side and state transitions are requested through the gateway.
type Invoice struct {
	// ID is the contract-assigned invoice id.
	ID uint64 `json:"id"`

	// Creator is the address that created the invoice.
	Creator string `json:"creator"`

	// Payer is the address that paid the invoice, empty while unpaid.
	Payer string `json:"payer,omitempty"`

	// AmountBaseUnits is the invoice amount in token base units, kept as a
	// decimal string to avoid precision loss in JSON.
	AmountBaseUnits string `json:"amountBaseUnits"`

	// Status is the current lifecycle state.
	Status InvoiceStatus `json:"status"`

	// MetadataHash is the content hash of the invoice metadata document.
	MetadataHash string `json:"metadataHash"`

	// CreatedAt is the unix timestamp of invoice creation.
	CreatedAt int64 `json:"createdAt"`

	// PaidAt is the unix timestamp of payment, zero while unpaid.
	PaidAt int64 `json:"paidAt,omitempty"`
}

// Amount returns the invoice amount as a big integer. Returns nil when
// AmountBaseUnits is not a valid decimal integer.
func (inv *Invoice) Amount() *big.Int {
	amt, ok := new(big.Int).SetString(inv.AmountBaseUnits, 10)
	if !ok {
		return nil
	}
	return amt
}

// LineItem is a single billable row of an invoice draft.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitRate    string `json:"unitRate"`
	LineTotal   string `json:"lineTotal"`
}

// InvoiceDraft is the client-side invoice being composed before submission.
// TotalAmount is derived from the items and is never set independently;
// RecomputeTotal must be called after any item mutation.
type InvoiceDraft struct {
	CompanyName    string     `json:"companyName"`
	CompanyAddress string     `json:"companyAddress"`
	ClientName     string     `json:"clientName"`
	ClientAddress  string     `json:"clientAddress"`
	Description    string     `json:"description"`
	Items          []LineItem `json:"items"`
	Notes          string     `json:"notes,omitempty"`
	Terms          string     `json:"terms,omitempty"`
	TotalAmount    string     `json:"totalAmount"`
}

// RecomputeTotal recalculates every line total and the draft total from the
// items. Line totals are quantity x unit rate; the arithmetic runs in base
// units so the floor policy of ToBaseUnits applies uniformly.
//
// Returns ErrInvalidAmount when an item has a non-positive quantity or a
// malformed unit rate.
func (d *InvoiceDraft) RecomputeTotal() error {
	total := new(big.Int)
	for i := range d.Items {
		item := &d.Items[i]
		if item.Quantity <= 0 {
			return InvalidFieldError("items.quantity", "must be positive")
		}
		rate, err := ToBaseUnits(item.UnitRate, USDCDecimals)
		if err != nil {
			return InvalidFieldError("items.unitRate", "must be a non-negative decimal")
		}
		line := new(big.Int).Mul(rate, big.NewInt(int64(item.Quantity)))
		item.LineTotal = FromBaseUnits(line, USDCDecimals)
		total.Add(total, line)
	}
	d.TotalAmount = FromBaseUnits(total, USDCDecimals)
	return nil
}

// PaymentRequest is the ephemeral descriptor a QR display is generated from.
// It is a pure function of an Invoice and a Network and is never persisted.
type PaymentRequest struct {
	InvoiceID        uint64 `json:"invoiceId"`
	RecipientAddress string `json:"recipientAddress"`
	TokenAddress     string `json:"tokenAddress"`
	ChainID          uint64 `json:"chainId"`
	AmountBaseUnits  string `json:"amountBaseUnits"`
}

// NewPaymentRequest derives the payment request for an invoice on a network.
// The recipient is the invoice contract, which routes the payment to the
// creator.
func NewPaymentRequest(inv *Invoice, contractAddress string, network Network) PaymentRequest {
	return PaymentRequest{
		InvoiceID:        inv.ID,
		RecipientAddress: contractAddress,
		TokenAddress:     network.TokenAddress,
		ChainID:          network.ChainID,
		AmountBaseUnits:  inv.AmountBaseUnits,
	}
}
