package usecase

import (
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/infra"
)

type UseCase struct {
	clients *infra.Clients

	baseURL        string
	hostOverride   string
	schemeOverride string

	// defaultStatus is assigned when a binding has a sync mode but no
	// remote configuration yet. Kept configurable as deployment policy.
	defaultStatus types.SyncStatus

	// async stores deliveries for later draining instead of dispatching
	// inline.
	async bool
}

var _ interfaces.UseCase = (*UseCase)(nil)

type Option func(*UseCase)

// WithBaseURL sets the externally visible application root used to compute
// callback URLs.
func WithBaseURL(baseURL string) Option {
	return func(x *UseCase) {
		x.baseURL = baseURL
	}
}

// WithAuthorityOverride rewrites the host and/or scheme of computed
// callback URLs, for deployments behind a reverse proxy.
func WithAuthorityOverride(host, scheme string) Option {
	return func(x *UseCase) {
		x.hostOverride = host
		x.schemeOverride = scheme
	}
}

func WithDefaultStatus(status types.SyncStatus) Option {
	return func(x *UseCase) {
		x.defaultStatus = status
	}
}

func WithAsyncDelivery(async bool) Option {
	return func(x *UseCase) {
		x.async = async
	}
}

func New(clients *infra.Clients, options ...Option) *UseCase {
	uc := &UseCase{
		clients:       clients,
		defaultStatus: types.SyncStatusUnsynchronized,
	}

	for _, opt := range options {
		opt(uc)
	}

	return uc
}
