package model

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Binding is the local declaration of a provider-side resource to keep
// synchronized: a repository or organization, its shared secret, and the
// cached remote webhook configuration.
type Binding struct {
	ID    types.BindingID  `json:"id"`
	Name  string           `json:"name"`
	Owner string           `json:"owner,omitempty"`
	Type  types.TargetType `json:"type"`

	Connector *Connector          `json:"connector,omitempty"`
	Secret    types.WebhookSecret `json:"secret,omitempty" masq:"secret"`

	SyncMode types.SyncMode   `json:"sync_mode"`
	Status   types.SyncStatus `json:"status"`

	// CallbackURL is recomputed on every write so infrastructure changes
	// (reverse-proxy host, scheme) self-heal without manual edits.
	CallbackURL string `json:"callback_url,omitempty"`

	Configuration *RemoteConfiguration `json:"configuration,omitempty"`
	ExternalData  *RepositoryMetadata  `json:"external_data,omitempty"`

	Links []*AutomationLink `json:"links,omitempty"`

	EventCount  int64      `json:"event_count"`
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
}

// RemoteConfiguration records the provider-side webhook this binding maps
// to. RemoteID is set iff a create/update call has succeeded at least once
// and is cleared when the synchronization is deleted.
type RemoteConfiguration struct {
	RemoteID types.GitHubHookID `json:"remote_id"`
	SyncedAt time.Time          `json:"synced_at"`
}

// RepositoryMetadata is the denormalized repository information refreshed
// from the provider for display by the external layer.
type RepositoryMetadata struct {
	FetchedAt      time.Time `json:"fetched_at"`
	WatchersCount  int       `json:"watchers_count"`
	ForksCount     int       `json:"forks_count"`
	OpenIssueCount int       `json:"open_issues"`
	Description    string    `json:"description"`
	CloneURL       string    `json:"clone_url"`
	OwnerLogin     string    `json:"owner_login"`
	OwnerAvatarURL string    `json:"owner_avatar_url"`
	OwnerURL       string    `json:"owner_url"`
}

// Target is the closed variant of provider-side resources a binding can
// point at. It is resolved once at the API-client boundary instead of
// re-switching on the type discriminator in every call.
type Target interface {
	APIPath() string
	isTarget()
}

type RepositoryTarget struct {
	Owner string
	Name  string
}

func (x RepositoryTarget) APIPath() string { return fmt.Sprintf("repos/%s/%s", x.Owner, x.Name) }
func (x RepositoryTarget) isTarget()       {}

type OrganizationTarget struct {
	Name string
}

func (x OrganizationTarget) APIPath() string { return "orgs/" + x.Name }
func (x OrganizationTarget) isTarget()       {}

// Target resolves the binding's type discriminator into the typed variant.
func (x *Binding) Target() Target {
	if x.Type == types.TargetOrganization {
		return OrganizationTarget{Name: x.Name}
	}
	return RepositoryTarget{Owner: x.Owner, Name: x.Name}
}

// HasConnector reports whether the binding can make authenticated calls.
func (x *Binding) HasConnector() bool {
	return x.Connector != nil && x.Connector.Mode != types.AuthModeNone
}

const (
	secretLowerCase = "abcdefghijklmnopqrstuvwxyz"
	secretUpperCase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	secretDigits    = "1234567890"
	secretSymbols   = "!@#$%^&*"
)

// GenerateSecret builds a random shared secret with the requested number of
// characters from each class.
func GenerateSecret(lower, upper, digits, symbols int) types.WebhookSecret {
	var sb strings.Builder
	pick := func(class string, n int) {
		for i := 0; i < n; i++ {
			sb.WriteByte(class[rand.Intn(len(class))])
		}
	}
	pick(secretLowerCase, lower)
	pick(secretUpperCase, upper)
	pick(secretDigits, digits)
	pick(secretSymbols, symbols)

	chars := []byte(sb.String())
	rand.Shuffle(len(chars), func(i, j int) {
		chars[i], chars[j] = chars[j], chars[i]
	})

	return types.WebhookSecret(chars)
}
