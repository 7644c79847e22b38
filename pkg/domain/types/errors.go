package types

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidOption    = goerr.New("invalid option")
	ErrValidationFailed = goerr.New("validation failed")
	ErrConfiguration    = goerr.New("configuration error")

	// Signature errors abort the whole delivery before any automation runs.
	ErrMissingSignature     = goerr.New("signature header is missing")
	ErrUnsupportedAlgorithm = goerr.New("signature algorithm is not supported")
	ErrSignatureMismatch    = goerr.New("signature does not match")

	// ErrInvalidScope is raised when an automation scope path does not
	// resolve to an array in the event payload.
	ErrInvalidScope = goerr.New("scope path does not resolve to an array")
)

// ProviderErrorDetail is one structured sub-error of a provider API response.
type ProviderErrorDetail struct {
	Resource string `json:"resource,omitempty"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ProviderAPIError is a non-2xx response from the provider REST API. It
// keeps the HTTP status, the provider message and its structured sub-errors
// so callers can render them without re-parsing the response body.
type ProviderAPIError struct {
	StatusCode int
	Message    string
	Details    []ProviderErrorDetail
}

func (x *ProviderAPIError) Error() string {
	if len(x.Details) == 0 {
		return fmt.Sprintf("provider API error (%d): %s", x.StatusCode, x.Message)
	}

	lines := make([]string, 0, len(x.Details))
	for _, d := range x.Details {
		lines = append(lines, fmt.Sprintf("resource=%s code=%s: %s", d.Resource, d.Code, d.Message))
	}
	return fmt.Sprintf("provider API error (%d): %s [%s]", x.StatusCode, x.Message, strings.Join(lines, "; "))
}

// Hint returns a short contextual help message keyed by the verbatim
// provider error string, for operators diagnosing credential and naming
// problems.
func (x *ProviderAPIError) Hint() string {
	switch x.Message {
	case "Not Found":
		return "verify the repository name and the connector owner"
	case "Bad credentials":
		return "verify the connector authentication"
	case "Validation Failed":
		return "refer to the attached error details"
	case "Integration not found":
		return "verify the connector app id"
	case "A JSON web token could not be decoded":
		return "verify the connector app private key"
	default:
		return ""
	}
}
