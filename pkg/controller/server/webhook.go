package server

import (
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/errutil"
)

const (
	headerSignature = "X-Hub-Signature"
	headerEvent     = "X-GitHub-Event"
)

// urlComponents is the diagnostic echo of the request URL returned with a
// successful ingestion.
type urlComponents struct {
	Scheme string `json:"scheme,omitempty"`
	Host   string `json:"host,omitempty"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`
}

type webhookResponse struct {
	URL    urlComponents         `json:"url"`
	Result *model.DeliveryResult `json:"result"`
}

func parseDelivery(r *http.Request) (*interfaces.DeliveryInput, error) {
	event := r.Header.Get(headerEvent)
	if event == "" {
		return nil, goerr.Wrap(types.ErrValidationFailed, "X-GitHub-Event header is required")
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return nil, goerr.Wrap(types.ErrValidationFailed, "Content-Type header is required")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, goerr.Wrap(types.ErrValidationFailed, "malformed Content-Type header",
			goerr.V("contentType", contentType),
		)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read request body")
	}

	input := &interfaces.DeliveryInput{
		BindingID: types.BindingID(chi.URLParam(r, "binding")),
		Event:     types.EventType(event),
		Signature: r.Header.Get(headerSignature),
		Body:      body,
	}

	switch mediaType {
	case "application/json":
		// body is the payload document itself

	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, goerr.Wrap(types.ErrValidationFailed, "malformed form body")
		}
		payload := form.Get("payload")
		if payload == "" {
			return nil, goerr.Wrap(types.ErrValidationFailed, "form delivery has no payload field")
		}
		input.Payload = []byte(payload)

	default:
		return nil, goerr.Wrap(types.ErrValidationFailed, "unsupported Content-Type",
			goerr.V("mediaType", mediaType),
		)
	}

	return input, nil
}

func handleWebhook(uc interfaces.UseCase, w http.ResponseWriter, r *http.Request) {
	input, err := parseDelivery(r)
	if err != nil {
		errutil.HandleError(r.Context(), "fail to parse webhook delivery", err)
		safeWrite(w, http.StatusInternalServerError, []byte(err.Error()))
		return
	}

	result, err := uc.HandleDelivery(r.Context(), input)
	if err != nil {
		errutil.HandleError(r.Context(), "fail to handle webhook delivery", err)
		safeWrite(w, http.StatusInternalServerError, []byte(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, &webhookResponse{
		URL: urlComponents{
			Scheme: r.URL.Scheme,
			Host:   r.Host,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
		},
		Result: result,
	})
}
