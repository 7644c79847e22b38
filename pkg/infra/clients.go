package infra

import (
	"net/http"

	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/infra/ghapp"
	"github.com/m-mizutani/ghsync/pkg/repository/memory"
)

// Clients bundles the infrastructure dependencies injected into use
// cases. Defaults are the in-memory implementations so tests and
// single-process deployments need no options.
type Clients struct {
	provider   interfaces.Provider
	auth       interfaces.AuthHeaderSource
	credCache  interfaces.CredentialCache
	bindings   interfaces.BindingRepository
	deliveries interfaces.DeliveryStore
	httpClient interfaces.HTTPClient
}

type Option func(*Clients)

func New(options ...Option) *Clients {
	client := &Clients{
		credCache:  ghapp.NewMemoryCache(),
		bindings:   memory.NewBindingRepository(),
		deliveries: memory.NewDeliveryStore(),
		httpClient: http.DefaultClient,
	}

	for _, opt := range options {
		opt(client)
	}

	if client.auth == nil {
		client.auth = ghapp.NewHeaderBuilder(
			ghapp.WithCache(client.credCache),
			ghapp.WithAuthHTTPClient(client.httpClient),
		)
	}
	if client.provider == nil {
		if builder, ok := client.auth.(*ghapp.HeaderBuilder); ok {
			client.provider = ghapp.NewClient(builder)
		}
	}

	return client
}

func (x *Clients) Provider() interfaces.Provider {
	return x.provider
}
func (x *Clients) Auth() interfaces.AuthHeaderSource {
	return x.auth
}
func (x *Clients) CredentialCache() interfaces.CredentialCache {
	return x.credCache
}
func (x *Clients) Bindings() interfaces.BindingRepository {
	return x.bindings
}
func (x *Clients) Deliveries() interfaces.DeliveryStore {
	return x.deliveries
}
func (x *Clients) HTTPClient() interfaces.HTTPClient {
	return x.httpClient
}

func WithProvider(provider interfaces.Provider) Option {
	return func(x *Clients) {
		x.provider = provider
	}
}

func WithAuth(auth interfaces.AuthHeaderSource) Option {
	return func(x *Clients) {
		x.auth = auth
	}
}

func WithCredentialCache(cache interfaces.CredentialCache) Option {
	return func(x *Clients) {
		x.credCache = cache
	}
}

func WithBindings(repo interfaces.BindingRepository) Option {
	return func(x *Clients) {
		x.bindings = repo
	}
}

func WithDeliveries(store interfaces.DeliveryStore) Option {
	return func(x *Clients) {
		x.deliveries = store
	}
}

func WithHTTPClient(client interfaces.HTTPClient) Option {
	return func(x *Clients) {
		x.httpClient = client
	}
}
