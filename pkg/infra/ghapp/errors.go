package ghapp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/go-github/v53/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// mapAPIError converts a go-github error into *types.ProviderAPIError so
// callers see the provider's HTTP status, message and structured
// sub-errors without depending on the client library.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return goerr.Wrap(err, "provider API request failed")
	}

	apiErr := &types.ProviderAPIError{
		Message: ghErr.Message,
	}
	if ghErr.Response != nil {
		apiErr.StatusCode = ghErr.Response.StatusCode
	}
	for _, e := range ghErr.Errors {
		apiErr.Details = append(apiErr.Details, types.ProviderErrorDetail{
			Resource: e.Resource,
			Field:    e.Field,
			Code:     e.Code,
			Message:  e.Message,
		})
	}

	return apiErr
}

// isNotFound reports whether the error is a provider 404, which existence
// probes treat as "not found" rather than a failure.
func isNotFound(err error) bool {
	var apiErr *types.ProviderAPIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type apiErrorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors"`
}

// decodeAPIError builds a *types.ProviderAPIError from a raw non-2xx REST
// response.
func decodeAPIError(resp *http.Response) error {
	apiErr := &types.ProviderAPIError{
		StatusCode: resp.StatusCode,
	}

	body, err := io.ReadAll(resp.Body)
	if err == nil {
		var decoded apiErrorBody
		if json.Unmarshal(body, &decoded) == nil {
			apiErr.Message = decoded.Message
			for _, e := range decoded.Errors {
				apiErr.Details = append(apiErr.Details, types.ProviderErrorDetail{
					Resource: e.Resource,
					Field:    e.Field,
					Code:     e.Code,
					Message:  e.Message,
				})
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}
