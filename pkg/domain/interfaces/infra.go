package interfaces

import (
	"context"
	"net/http"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// CredentialCache stores per-connector installation credentials. Entries
// are the unit of invalidation; implementations may be an in-process map or
// a shared store. The acquire-or-refresh sequence is deliberately not
// guarded by a cross-process lock: two callers racing past an expired token
// both issue a fresh one, which wastes an issuance call but loses nothing.
type CredentialCache interface {
	Get(key string) (*model.CredentialCacheEntry, bool)
	Set(key string, entry *model.CredentialCacheEntry)
	Delete(key string)
}

// AuthHeaderSource produces the request headers for a connector's auth
// mode and invalidates cached credentials on demand.
type AuthHeaderSource interface {
	AuthHeaders(ctx context.Context, connector *model.Connector) (http.Header, error)
	Revoke(connector *model.Connector)
}

// Provider is the thin REST surface of the version-control provider. Hook
// probes return (nil, nil) when the remote answers 404; every other non-2xx
// response surfaces as *types.ProviderAPIError.
type Provider interface {
	GetRepositoryMetadata(ctx context.Context, connector *model.Connector, owner, repo string) (*model.RepositoryMetadata, error)

	GetHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) (*model.Hook, error)
	CreateHook(ctx context.Context, connector *model.Connector, target model.Target, input *model.HookInput) (*model.Hook, error)
	UpdateHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID, input *model.HookInput) (*model.Hook, error)
	DeleteHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) error

	FindInstallation(ctx context.Context, connector *model.Connector) (types.GitHubAppInstallID, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
