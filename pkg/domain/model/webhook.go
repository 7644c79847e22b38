package model

import (
	"slices"

	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Hook is a provider-side webhook configuration as returned by the REST
// API.
type Hook struct {
	ID     types.GitHubHookID
	Active bool
	Events []string
	Config HookConfig
}

// HookConfig mirrors the "config" object of the provider's webhook
// resource. The secret field is write-only on the provider side and comes
// back redacted, so it never participates in remote comparison.
type HookConfig struct {
	URL         string
	ContentType string
	InsecureSSL string
	Secret      types.WebhookSecret `masq:"secret"`
}

// HookInput is the desired state sent on create/update calls.
type HookInput struct {
	URL    string
	Secret types.WebhookSecret `masq:"secret"`
	Events []string
	Active bool
}

// Matches reports whether the remote hook carries the expected callback URL
// and event set. Both event slices must be lexicographically sorted by the
// caller for the comparison to be deterministic.
func (x *Hook) Matches(url string, events []string) bool {
	if x.Config.URL != url {
		return false
	}
	return slices.Equal(x.Events, events)
}
