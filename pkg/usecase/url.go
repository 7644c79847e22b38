package usecase

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

const callbackPathPrefix = "/webhook/github/"

// callbackURL computes the delivery endpoint the remote webhook must point
// at. It is recomputed on every write (never trusted from storage) so a
// changed reverse-proxy host or scheme self-heals on the next
// synchronization.
func (x *UseCase) callbackURL(binding *model.Binding) (string, error) {
	if x.baseURL == "" {
		return "", goerr.Wrap(types.ErrConfiguration, "callback base URL is not configured")
	}

	parsed, err := url.Parse(x.baseURL)
	if err != nil {
		return "", goerr.Wrap(err, "invalid callback base URL",
			goerr.V("baseURL", x.baseURL),
		)
	}

	if x.hostOverride != "" {
		parsed.Host = x.hostOverride
	}
	if x.schemeOverride != "" {
		parsed.Scheme = x.schemeOverride
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + callbackPathPrefix + string(binding.ID)

	return parsed.String(), nil
}
