package ghapp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"
	"github.com/m-mizutani/ghsync/pkg/utils/safe"
)

const (
	defaultAPIBase = "https://api.github.com"
	apiVersion     = "2022-11-28"
	acceptHeader   = "application/vnd.github+json"

	// App JWTs must not outlive the provider's 10 minute ceiling. The
	// issued-at claim is backdated to absorb clock drift.
	appJWTLifetime = 5 * time.Minute
	appJWTBackdate = time.Minute
)

// HeaderBuilder produces the authorization headers for a connector's auth
// mode. For App modes it runs the two-step exchange (App JWT, then
// installation access token) and caches the result per connector.
type HeaderBuilder struct {
	cache      interfaces.CredentialCache
	httpClient interfaces.HTTPClient
	apiBase    string
	now        func() time.Time
}

var _ interfaces.AuthHeaderSource = (*HeaderBuilder)(nil)

type HeaderBuilderOption func(*HeaderBuilder)

func WithCache(cache interfaces.CredentialCache) HeaderBuilderOption {
	return func(x *HeaderBuilder) {
		x.cache = cache
	}
}

func WithAuthHTTPClient(client interfaces.HTTPClient) HeaderBuilderOption {
	return func(x *HeaderBuilder) {
		x.httpClient = client
	}
}

func WithAuthAPIBase(base string) HeaderBuilderOption {
	return func(x *HeaderBuilder) {
		x.apiBase = base
	}
}

func WithClock(now func() time.Time) HeaderBuilderOption {
	return func(x *HeaderBuilder) {
		x.now = now
	}
}

func NewHeaderBuilder(options ...HeaderBuilderOption) *HeaderBuilder {
	builder := &HeaderBuilder{
		cache:      NewMemoryCache(),
		httpClient: http.DefaultClient,
		apiBase:    defaultAPIBase,
		now:        time.Now,
	}
	for _, opt := range options {
		opt(builder)
	}
	return builder
}

func baseHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", acceptHeader)
	h.Set("X-GitHub-Api-Version", apiVersion)
	return h
}

// AuthHeaders builds the request headers for an API call authenticated as
// the connector. Personal tokens are used as-is; App modes go through the
// cached installation token.
func (x *HeaderBuilder) AuthHeaders(ctx context.Context, connector *model.Connector) (http.Header, error) {
	if err := connector.Validate(); err != nil {
		return nil, err
	}

	headers := baseHeaders()

	switch {
	case connector.Mode == types.AuthModeNone:
		// unauthenticated calls still carry Accept and API version

	case connector.Mode == types.AuthModePersonal:
		headers.Set("Authorization", "Bearer "+string(connector.PersonalAccessToken))

	case connector.Mode.IsAppMode():
		token, err := x.installationToken(ctx, connector)
		if err != nil {
			return nil, err
		}
		headers.Set("Authorization", "Bearer "+token)

	default:
		return nil, goerr.Wrap(types.ErrConfiguration, "unknown auth mode",
			goerr.V("mode", connector.Mode),
		)
	}

	return headers, nil
}

// Revoke drops the connector's cached credentials unconditionally; the
// next authenticated call re-issues from scratch.
func (x *HeaderBuilder) Revoke(connector *model.Connector) {
	x.cache.Delete(connector.CacheKey())
	logging.Default().Info("Revoked cached installation token",
		slog.Any("connector", connector.ID),
	)
}

// installationToken returns a valid installation access token, reusing the
// cached one while unexpired. The installation ID, once resolved, is kept
// across token refreshes because it does not expire.
func (x *HeaderBuilder) installationToken(ctx context.Context, connector *model.Connector) (string, error) {
	key := connector.CacheKey()
	now := x.now()

	entry, _ := x.cache.Get(key)
	if entry.Valid(now) {
		return entry.AccessToken, nil
	}

	installID := types.GitHubAppInstallID(0)
	if entry != nil {
		installID = entry.InstallationID
	}
	if installID == 0 {
		resolved, err := x.ResolveInstallation(ctx, connector)
		if err != nil {
			return "", err
		}
		installID = resolved
	}

	token, expiresAt, err := x.issueToken(ctx, connector, installID)
	if err != nil {
		return "", err
	}

	logging.From(ctx).Debug("Issued new installation access token",
		slog.Any("connector", connector.ID),
		slog.Any("installID", installID),
		slog.Time("expiresAt", expiresAt),
	)

	x.cache.Set(key, &model.CredentialCacheEntry{
		InstallationID: installID,
		AccessToken:    token,
		ExpiresAt:      expiresAt,
	})

	return token, nil
}

// appJWT signs a short-lived JWT that authenticates as the App itself, not
// an installation.
func (x *HeaderBuilder) appJWT(connector *model.Connector) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(connector.AppPrivateKey))
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse app private key",
			goerr.V("connector", connector.ID),
		)
	}

	now := x.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-appJWTBackdate)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
		Issuer:    strconv.FormatInt(int64(connector.AppID), 10),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign app JWT",
			goerr.V("connector", connector.ID),
		)
	}

	return signed, nil
}

func (x *HeaderBuilder) appRequest(ctx context.Context, connector *model.Connector, method, path string) (*http.Response, error) {
	appJWT, err := x.appJWT(connector)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, x.apiBase+path, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build app API request",
			goerr.V("path", path),
		)
	}
	req.Header = baseHeaders()
	req.Header.Set("Authorization", "Bearer "+appJWT)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "app API request failed",
			goerr.V("path", path),
		)
	}

	return resp, nil
}

// ResolveInstallation finds the App installation ID for the connector's
// target (repository, user or organization).
func (x *HeaderBuilder) ResolveInstallation(ctx context.Context, connector *model.Connector) (types.GitHubAppInstallID, error) {
	var path string
	switch connector.Mode {
	case types.AuthModeAppRepository:
		path = fmt.Sprintf("/repos/%s/%s/installation", connector.AppRepositoryOwner, connector.AppRepositoryName)
	case types.AuthModeAppUser:
		path = fmt.Sprintf("/users/%s/installation", connector.AppUserName)
	case types.AuthModeAppOrganization:
		path = fmt.Sprintf("/orgs/%s/installation", connector.AppOrganizationName)
	default:
		return 0, goerr.Wrap(types.ErrConfiguration, "connector mode has no installation target",
			goerr.V("mode", connector.Mode),
		)
	}

	resp, err := x.appRequest(ctx, connector, http.MethodGet, path)
	if err != nil {
		return 0, err
	}
	defer safe.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, decodeAPIError(resp)
	}

	var installation struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&installation); err != nil {
		return 0, goerr.Wrap(err, "failed to decode installation response")
	}

	return types.GitHubAppInstallID(installation.ID), nil
}

// issueToken exchanges an installation ID for an installation access
// token.
func (x *HeaderBuilder) issueToken(ctx context.Context, connector *model.Connector, installID types.GitHubAppInstallID) (string, time.Time, error) {
	path := fmt.Sprintf("/app/installations/%d/access_tokens", installID)

	resp, err := x.appRequest(ctx, connector, http.MethodPost, path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer safe.Close(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", time.Time{}, decodeAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, goerr.Wrap(err, "failed to read token response")
	}

	var issued struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &issued); err != nil {
		return "", time.Time{}, goerr.Wrap(err, "failed to decode token response")
	}
	if issued.Token == "" {
		return "", time.Time{}, goerr.New("token response has no token",
			goerr.V("installID", installID),
		)
	}

	return issued.Token, issued.ExpiresAt, nil
}
