package http

import (
	"encoding/json"
	"errors"
	"net/http"

	chainvoice "github.com/chainvoice/chainvoice-go"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// statusFor maps a domain error code to an HTTP status.
func statusFor(code chainvoice.ErrorCode) int {
	switch code {
	case chainvoice.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case chainvoice.ErrCodeNotFound:
		return http.StatusNotFound
	case chainvoice.ErrCodeUnsupportedNetwork:
		return http.StatusBadRequest
	case chainvoice.ErrCodeInsufficientBalance, chainvoice.ErrCodeInsufficientAllowance:
		return http.StatusUnprocessableEntity
	case chainvoice.ErrCodeUserRejected, chainvoice.ErrCodeContractCallRejected:
		return http.StatusConflict
	case chainvoice.ErrCodeContractCallReverted:
		return http.StatusUnprocessableEntity
	case chainvoice.ErrCodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case chainvoice.ErrCodeMetadataUploadFailed, chainvoice.ErrCodeExternalCallFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to the JSON error envelope. Non-domain errors are
// reported as internal without leaking their message.
func writeError(w http.ResponseWriter, err error) {
	code := chainvoice.CodeOf(err)
	if code == "" {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    "internal",
			Message: "internal server error",
		}})
		return
	}

	detail := errorDetail{Code: string(code), Message: err.Error()}
	var ie *chainvoice.InvoiceError
	if errors.As(err, &ie) && len(ie.Details) > 0 {
		detail.Details = ie.Details
	}
	writeJSON(w, statusFor(code), errorBody{Error: detail})
}
