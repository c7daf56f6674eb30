package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/payuri"
	"github.com/chainvoice/chainvoice-go/qr"
	"github.com/chainvoice/chainvoice-go/wallet"
)

func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	networks := chainvoice.SupportedNetworks()
	if r.URL.Query().Get("all") == "true" {
		networks = chainvoice.AllNetworks()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"networks": networks})
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, chainvoice.InvalidFieldError("address", "query parameter is required"))
		return
	}
	invoices, err := s.gateway.ListInvoicesFor(r.Context(), address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invoices": invoices})
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft chainvoice.InvoiceDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, chainvoice.InvalidFieldError("body", "must be a JSON invoice draft"))
		return
	}
	result, err := s.gateway.CreateInvoice(r.Context(), &draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	inv, err := s.gateway.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if inv == nil {
		writeError(w, chainvoice.NewInvoiceError(chainvoice.ErrCodeNotFound,
			"invoice does not exist", chainvoice.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := invoiceID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.gateway.PayInvoice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInvoiceURI(w http.ResponseWriter, r *http.Request) {
	result, err := s.buildPaymentURI(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"format":  string(result.Format),
		"content": result.Content,
	})
}

func (s *Server) handleInvoiceQR(w http.ResponseWriter, r *http.Request) {
	result, err := s.buildPaymentURI(r)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := qr.Options{Size: s.qrSize, Level: s.qrLevel}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			writeError(w, chainvoice.InvalidFieldError("size", "must be a positive integer"))
			return
		}
		opts.Size = size
	}
	if raw := r.URL.Query().Get("level"); raw != "" {
		opts.Level = qr.Level(raw)
	}

	if r.URL.Query().Get("encoding") == "datauri" {
		uri, err := qr.DataURI(result.Content, opts)
		if err != nil {
			writeError(w, chainvoice.InvalidFieldError("level", err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"format":  string(result.Format),
			"dataUri": uri,
		})
		return
	}

	png, err := qr.EncodePNG(result.Content, opts)
	if err != nil {
		writeError(w, chainvoice.InvalidFieldError("level", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// buildPaymentURI assembles the payment request for an invoice from the
// current network and contract binding, then builds either the requested
// format or the first format in the fallback order.
func (s *Server) buildPaymentURI(r *http.Request) (*payuri.Result, error) {
	id, err := invoiceID(r)
	if err != nil {
		return nil, err
	}
	inv, err := s.gateway.GetInvoice(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeNotFound,
			"invoice does not exist", chainvoice.ErrNotFound)
	}

	snap := s.wallet.Snapshot()
	if snap.Network == nil {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"no supported network selected", chainvoice.ErrUnsupportedNetwork)
	}
	contractAddress, bound := s.gateway.ContractAddress()
	if !bound {
		return nil, chainvoice.NewInvoiceError(chainvoice.ErrCodeUnsupportedNetwork,
			"no contract binding for the current network", chainvoice.ErrUnsupportedNetwork)
	}

	amount := inv.Amount()
	if amount == nil {
		return nil, chainvoice.InvalidFieldError("amount", "invoice amount is malformed")
	}
	req := payuri.Request{
		InvoiceID: inv.ID,
		Amount:    chainvoice.FromBaseUnits(amount, chainvoice.USDCDecimals),
		Recipient: contractAddress,
		Network:   *snap.Network,
	}

	if format := r.URL.Query().Get("format"); format != "" {
		content, err := req.Build(payuri.Format(format))
		if err != nil {
			return nil, err
		}
		return &payuri.Result{Format: payuri.Format(format), Content: content}, nil
	}
	return req.BuildPreferred()
}

func (s *Server) handleWalletState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.Snapshot())
}

func (s *Server) handleWalletConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Connect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wallet.Snapshot())
}

func (s *Server) handleWalletDisconnect(w http.ResponseWriter, r *http.Request) {
	s.wallet.Disconnect()
	writeJSON(w, http.StatusOK, s.wallet.Snapshot())
}

func (s *Server) handleWalletSwitch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChainID json.RawMessage `json:"chainId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.ChainID) == 0 {
		writeError(w, chainvoice.InvalidFieldError("body", "must be a JSON object with a chainId"))
		return
	}
	chainID, err := parseChainID(body.ChainID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.wallet.SwitchNetwork(r.Context(), chainID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wallet.Snapshot())
}

// parseChainID accepts the numeric form and the 0x-prefixed hex quantity form
// EIP-1193 providers report in chainChanged notifications.
func parseChainID(raw json.RawMessage) (uint64, error) {
	var num uint64
	if err := json.Unmarshal(raw, &num); err == nil {
		return num, nil
	}
	var hex string
	if err := json.Unmarshal(raw, &hex); err == nil {
		return wallet.ParseChainIDHex(hex)
	}
	return 0, chainvoice.InvalidFieldError("chainId", "must be a number or a 0x-prefixed hex quantity")
}

func invoiceID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, chainvoice.InvalidFieldError("invoiceId", "must be a positive integer")
	}
	return id, nil
}
