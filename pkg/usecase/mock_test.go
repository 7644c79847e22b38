package usecase_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/infra"
	"github.com/m-mizutani/ghsync/pkg/usecase"
)

type providerMock struct {
	getHook         func(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) (*model.Hook, error)
	createHook      func(ctx context.Context, connector *model.Connector, target model.Target, input *model.HookInput) (*model.Hook, error)
	updateHook      func(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID, input *model.HookInput) (*model.Hook, error)
	deleteHook      func(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) error
	getMetadata     func(ctx context.Context, connector *model.Connector, owner, repo string) (*model.RepositoryMetadata, error)
	findInstallMock func(ctx context.Context, connector *model.Connector) (types.GitHubAppInstallID, error)
}

var _ interfaces.Provider = (*providerMock)(nil)

func (x *providerMock) GetHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) (*model.Hook, error) {
	if x.getHook == nil {
		return nil, nil
	}
	return x.getHook(ctx, connector, target, hookID)
}

func (x *providerMock) CreateHook(ctx context.Context, connector *model.Connector, target model.Target, input *model.HookInput) (*model.Hook, error) {
	return x.createHook(ctx, connector, target, input)
}

func (x *providerMock) UpdateHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID, input *model.HookInput) (*model.Hook, error) {
	return x.updateHook(ctx, connector, target, hookID, input)
}

func (x *providerMock) DeleteHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) error {
	return x.deleteHook(ctx, connector, target, hookID)
}

func (x *providerMock) GetRepositoryMetadata(ctx context.Context, connector *model.Connector, owner, repo string) (*model.RepositoryMetadata, error) {
	return x.getMetadata(ctx, connector, owner, repo)
}

func (x *providerMock) FindInstallation(ctx context.Context, connector *model.Connector) (types.GitHubAppInstallID, error) {
	return x.findInstallMock(ctx, connector)
}

type authMock struct {
	revoked []types.ConnectorID
}

var _ interfaces.AuthHeaderSource = (*authMock)(nil)

func (x *authMock) AuthHeaders(ctx context.Context, connector *model.Connector) (http.Header, error) {
	return nil, nil
}

func (x *authMock) Revoke(connector *model.Connector) {
	x.revoked = append(x.revoked, connector.ID)
}

// handlerMock records invocations; errors and panics are injectable.
type handlerMock struct {
	mu         sync.Mutex
	events     []model.Payload
	scopes     []model.Payload
	scopeEnds  int
	eventErr   error
	panicOnRun bool
}

var _ model.Handler = (*handlerMock)(nil)

func (x *handlerMock) HandleEvent(ctx context.Context, event types.EventType, payload, scope model.Payload, acc map[string]any) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.panicOnRun {
		panic("handler blew up")
	}
	x.events = append(x.events, payload)
	x.scopes = append(x.scopes, scope)
	if acc != nil {
		count, _ := acc["count"].(int)
		acc["count"] = count + 1
	}
	return x.eventErr
}

func (x *handlerMock) HandleScopeEnd(ctx context.Context, event types.EventType, payload model.Payload, acc map[string]any) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.scopeEnds++
	return nil
}

func infraWithAuth(provider interfaces.Provider, auth interfaces.AuthHeaderSource) *infra.Clients {
	return infra.New(
		infra.WithProvider(provider),
		infra.WithAuth(auth),
	)
}

func newTestUseCase(provider interfaces.Provider, options ...usecase.Option) (*usecase.UseCase, *infra.Clients) {
	clients := infraWithAuth(provider, &authMock{})
	options = append([]usecase.Option{usecase.WithBaseURL("https://ghsync.example.com")}, options...)
	return usecase.New(clients, options...), clients
}
