package ghapp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Client is the provider API client for webhook management. Each call
// authenticates through the header builder with the caller's connector, so
// one Client serves any number of connectors.
type Client struct {
	auth    *HeaderBuilder
	base    http.RoundTripper
	baseURL string
	nowFunc func() time.Time
}

var _ interfaces.Provider = (*Client)(nil)

type ClientOption func(*Client)

// WithBaseURL redirects API calls, mainly to a local test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(x *Client) {
		x.baseURL = baseURL
	}
}

func WithTransport(base http.RoundTripper) ClientOption {
	return func(x *Client) {
		x.base = base
	}
}

func WithClientClock(now func() time.Time) ClientOption {
	return func(x *Client) {
		x.nowFunc = now
	}
}

func NewClient(auth *HeaderBuilder, options ...ClientOption) *Client {
	client := &Client{
		auth:    auth,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

// githubClient builds a go-github client whose every request is routed
// through the auth header builder for the given connector.
func (x *Client) githubClient(connector *model.Connector) (*github.Client, error) {
	httpClient := &http.Client{
		Transport: &headerTransport{
			base: x.base,
			headers: func(ctx context.Context) (http.Header, error) {
				return x.auth.AuthHeaders(ctx, connector)
			},
		},
	}

	gh := github.NewClient(httpClient)
	if x.baseURL != "" {
		parsed, err := url.Parse(strings.TrimSuffix(x.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid API base URL",
				goerr.V("baseURL", x.baseURL),
			)
		}
		gh.BaseURL = parsed
	}

	return gh, nil
}

// hookAPI narrows the repository/organization webhook endpoints to one
// shape. The target variant is resolved here, once, and the rest of the
// call chain is target-agnostic.
type hookAPI interface {
	get(ctx context.Context, id int64) (*github.Hook, *github.Response, error)
	create(ctx context.Context, hook *github.Hook) (*github.Hook, *github.Response, error)
	edit(ctx context.Context, id int64, hook *github.Hook) (*github.Hook, *github.Response, error)
	delete(ctx context.Context, id int64) (*github.Response, error)
}

type repoHooks struct {
	svc   *github.RepositoriesService
	owner string
	repo  string
}

func (x repoHooks) get(ctx context.Context, id int64) (*github.Hook, *github.Response, error) {
	return x.svc.GetHook(ctx, x.owner, x.repo, id)
}

func (x repoHooks) create(ctx context.Context, hook *github.Hook) (*github.Hook, *github.Response, error) {
	return x.svc.CreateHook(ctx, x.owner, x.repo, hook)
}

func (x repoHooks) edit(ctx context.Context, id int64, hook *github.Hook) (*github.Hook, *github.Response, error) {
	return x.svc.EditHook(ctx, x.owner, x.repo, id, hook)
}

func (x repoHooks) delete(ctx context.Context, id int64) (*github.Response, error) {
	return x.svc.DeleteHook(ctx, x.owner, x.repo, id)
}

type orgHooks struct {
	svc *github.OrganizationsService
	org string
}

func (x orgHooks) get(ctx context.Context, id int64) (*github.Hook, *github.Response, error) {
	return x.svc.GetHook(ctx, x.org, id)
}

func (x orgHooks) create(ctx context.Context, hook *github.Hook) (*github.Hook, *github.Response, error) {
	return x.svc.CreateHook(ctx, x.org, hook)
}

func (x orgHooks) edit(ctx context.Context, id int64, hook *github.Hook) (*github.Hook, *github.Response, error) {
	return x.svc.EditHook(ctx, x.org, id, hook)
}

func (x orgHooks) delete(ctx context.Context, id int64) (*github.Response, error) {
	return x.svc.DeleteHook(ctx, x.org, id)
}

func (x *Client) hooksFor(connector *model.Connector, target model.Target) (hookAPI, error) {
	gh, err := x.githubClient(connector)
	if err != nil {
		return nil, err
	}

	switch t := target.(type) {
	case model.RepositoryTarget:
		return repoHooks{svc: gh.Repositories, owner: t.Owner, repo: t.Name}, nil
	case model.OrganizationTarget:
		return orgHooks{svc: gh.Organizations, org: t.Name}, nil
	default:
		return nil, goerr.New("unknown target type",
			goerr.V("target", target.APIPath()),
		)
	}
}

// GetHook fetches the webhook by its remote ID. A 404 means the hook was
// removed behind our back and is reported as (nil, nil), not an error.
func (x *Client) GetHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) (*model.Hook, error) {
	hooks, err := x.hooksFor(connector, target)
	if err != nil {
		return nil, err
	}

	hook, _, err := hooks.get(ctx, int64(hookID))
	if err != nil {
		mapped := mapAPIError(err)
		if isNotFound(mapped) {
			return nil, nil
		}
		return nil, mapped
	}

	return importHook(hook), nil
}

func (x *Client) CreateHook(ctx context.Context, connector *model.Connector, target model.Target, input *model.HookInput) (*model.Hook, error) {
	hooks, err := x.hooksFor(connector, target)
	if err != nil {
		return nil, err
	}

	created, _, err := hooks.create(ctx, exportHook(input))
	if err != nil {
		return nil, mapAPIError(err)
	}

	return importHook(created), nil
}

func (x *Client) UpdateHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID, input *model.HookInput) (*model.Hook, error) {
	hooks, err := x.hooksFor(connector, target)
	if err != nil {
		return nil, err
	}

	updated, _, err := hooks.edit(ctx, int64(hookID), exportHook(input))
	if err != nil {
		return nil, mapAPIError(err)
	}

	return importHook(updated), nil
}

func (x *Client) DeleteHook(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) error {
	hooks, err := x.hooksFor(connector, target)
	if err != nil {
		return err
	}

	if _, err := hooks.delete(ctx, int64(hookID)); err != nil {
		return mapAPIError(err)
	}

	return nil
}

// GetRepositoryMetadata fetches the denormalized repository info shown by
// the external layer.
func (x *Client) GetRepositoryMetadata(ctx context.Context, connector *model.Connector, owner, repo string) (*model.RepositoryMetadata, error) {
	gh, err := x.githubClient(connector)
	if err != nil {
		return nil, err
	}

	repository, _, err := gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, mapAPIError(err)
	}

	metadata := &model.RepositoryMetadata{
		FetchedAt:      x.nowFunc(),
		WatchersCount:  repository.GetWatchersCount(),
		ForksCount:     repository.GetForksCount(),
		OpenIssueCount: repository.GetOpenIssuesCount(),
		Description:    repository.GetDescription(),
		CloneURL:       repository.GetCloneURL(),
	}
	if repoOwner := repository.GetOwner(); repoOwner != nil {
		metadata.OwnerLogin = repoOwner.GetLogin()
		metadata.OwnerAvatarURL = repoOwner.GetAvatarURL()
		metadata.OwnerURL = repoOwner.GetHTMLURL()
	}

	return metadata, nil
}

// FindInstallation resolves the App installation for the connector without
// issuing a token. Used by the diagnostics endpoint.
func (x *Client) FindInstallation(ctx context.Context, connector *model.Connector) (types.GitHubAppInstallID, error) {
	if !connector.Mode.IsAppMode() {
		return 0, goerr.Wrap(types.ErrConfiguration, "connector is not in an app mode",
			goerr.V("connector", connector.ID),
			goerr.V("mode", connector.Mode),
		)
	}
	return x.auth.ResolveInstallation(ctx, connector)
}

const hookContentType = "json"

// exportHook converts the desired state into the provider's webhook
// resource. The name is always "web"; the provider accepts nothing else
// for repository and organization hooks.
func exportHook(input *model.HookInput) *github.Hook {
	config := map[string]interface{}{
		"url":          input.URL,
		"content_type": hookContentType,
		"insecure_ssl": "0",
	}
	if input.Secret != "" {
		config["secret"] = string(input.Secret)
	}

	return &github.Hook{
		Name:   github.String("web"),
		Active: github.Bool(input.Active),
		Events: input.Events,
		Config: config,
	}
}

func importHook(hook *github.Hook) *model.Hook {
	if hook == nil {
		return nil
	}

	imported := &model.Hook{
		ID:     types.GitHubHookID(hook.GetID()),
		Active: hook.GetActive(),
		Events: hook.Events,
		Config: model.HookConfig{
			URL:         configString(hook.Config, "url"),
			ContentType: configString(hook.Config, "content_type"),
			InsecureSSL: configString(hook.Config, "insecure_ssl"),
			Secret:      types.WebhookSecret(configString(hook.Config, "secret")),
		},
	}

	return imported
}

func configString(config map[string]interface{}, key string) string {
	if config == nil {
		return ""
	}
	if v, ok := config[key].(string); ok {
		return v
	}
	return ""
}
