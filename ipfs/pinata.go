// Package ipfs provides the metadata store boundary: uploading invoice
// metadata as a pinned JSON document and retrieving it by content hash. The
// production implementation talks to the Pinata pinning API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	chainvoice "github.com/chainvoice/chainvoice-go"
	"github.com/chainvoice/chainvoice-go/retry"
)

// Store is the metadata store boundary the gateway depends on.
type Store interface {
	// Upload pins v as a JSON document and returns its content hash.
	Upload(ctx context.Context, v interface{}) (string, error)

	// Retrieve fetches the document at hash and unmarshals it into out.
	Retrieve(ctx context.Context, hash string, out interface{}) error
}

// DefaultBaseURL is the Pinata pinning API.
const DefaultBaseURL = "https://api.pinata.cloud"

// DefaultGatewayURL is the public IPFS gateway documents are read back from.
const DefaultGatewayURL = "https://gateway.pinata.cloud"

// PinataClient implements Store against the Pinata HTTP API. Network failures
// and 5xx responses are retried under Retry; client errors are not.
type PinataClient struct {
	BaseURL    string
	GatewayURL string
	APIKey     string
	APISecret  string
	Client     *http.Client
	Retry      retry.Policy
}

// NewPinataClient creates a client with the default endpoints and a 30s HTTP
// timeout.
func NewPinataClient(apiKey, apiSecret string) *PinataClient {
	return &PinataClient{
		BaseURL:    DefaultBaseURL,
		GatewayURL: DefaultGatewayURL,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Retry:      retry.DefaultPolicy,
	}
}

// transientError marks failures worth another attempt.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// pinRequest is the fixed JSON envelope of the pinJSONToIPFS endpoint.
type pinRequest struct {
	PinataContent interface{} `json:"pinataContent"`
}

// pinResponse is the subset of the pin response the store needs.
type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int    `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload implements Store.
func (c *PinataClient) Upload(ctx context.Context, v interface{}) (string, error) {
	data, err := json.Marshal(pinRequest{PinataContent: v})
	if err != nil {
		return "", fmt.Errorf("failed to marshal pin request: %w", err)
	}

	hash, err := retry.Do(ctx, c.Retry, isTransient, func() (string, error) {
		return c.pinOnce(ctx, data)
	})
	if err != nil {
		var te *transientError
		if errors.As(err, &te) {
			err = te.Unwrap()
		}
		return "", err
	}
	return hash, nil
}

func (c *PinataClient) pinOnce(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create pin request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("pinata_api_key", c.APIKey)
	req.Header.Set("pinata_secret_api_key", c.APISecret)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", &transientError{err: chainvoice.NewInvoiceError(chainvoice.ErrCodeMetadataUploadFailed,
			"pinning service unreachable", chainvoice.ErrMetadataUploadFailed).WithDetails("cause", err.Error())}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		uploadErr := chainvoice.NewInvoiceError(chainvoice.ErrCodeMetadataUploadFailed,
			fmt.Sprintf("pinning service returned status %d", resp.StatusCode), chainvoice.ErrMetadataUploadFailed).
			WithDetails("body", string(body))
		if resp.StatusCode >= http.StatusInternalServerError {
			return "", &transientError{err: uploadErr}
		}
		return "", uploadErr
	}

	var pinned pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinned); err != nil {
		return "", chainvoice.NewInvoiceError(chainvoice.ErrCodeMetadataUploadFailed,
			"failed to decode pin response", chainvoice.ErrMetadataUploadFailed).WithDetails("cause", err.Error())
	}
	if pinned.IpfsHash == "" {
		return "", chainvoice.NewInvoiceError(chainvoice.ErrCodeMetadataUploadFailed,
			"pin response missing content hash", chainvoice.ErrMetadataUploadFailed)
	}
	return pinned.IpfsHash, nil
}

// Retrieve implements Store.
func (c *PinataClient) Retrieve(ctx context.Context, hash string, out interface{}) error {
	if hash == "" {
		return chainvoice.InvalidFieldError("contentHash", "cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GatewayURL+"/ipfs/"+hash, nil)
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"gateway unreachable", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeNotFound,
			"document not found at gateway", chainvoice.ErrNotFound).WithDetails("contentHash", hash)
	}
	if resp.StatusCode != http.StatusOK {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			fmt.Sprintf("gateway returned status %d", resp.StatusCode), chainvoice.ErrExternalCallFailed)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return chainvoice.NewInvoiceError(chainvoice.ErrCodeExternalCallFailed,
			"failed to decode document", chainvoice.ErrExternalCallFailed).WithDetails("cause", err.Error())
	}
	return nil
}

func (c *PinataClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
