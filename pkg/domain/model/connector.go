package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Connector is an authentication profile shared by one or more bindings.
// It is owned by the external CRUD layer; this package only reads it.
type Connector struct {
	ID   types.ConnectorID `json:"id"`
	Name string            `json:"name"`
	Mode types.AuthMode    `json:"mode"`

	PersonalAccessToken types.PersonalAccessToken `json:"personal_access_token,omitempty" masq:"secret"`

	AppID         types.GitHubAppID   `json:"app_id,omitempty"`
	AppPrivateKey types.AppPrivateKey `json:"app_private_key,omitempty" masq:"secret"`

	// Installation resolution target, one group per app mode.
	AppRepositoryOwner  string `json:"app_repository_owner,omitempty"`
	AppRepositoryName   string `json:"app_repository_name,omitempty"`
	AppUserName         string `json:"app_user_name,omitempty"`
	AppOrganizationName string `json:"app_organization_name,omitempty"`
}

func (x *Connector) Validate() error {
	switch x.Mode {
	case types.AuthModeNone:
		return nil

	case types.AuthModePersonal:
		if x.PersonalAccessToken == "" {
			return goerr.Wrap(types.ErrConfiguration, "personal access token is empty",
				goerr.V("connector", x.ID),
			)
		}

	case types.AuthModeAppUser, types.AuthModeAppRepository, types.AuthModeAppOrganization:
		if x.AppID == 0 {
			return goerr.Wrap(types.ErrConfiguration, "app ID is empty",
				goerr.V("connector", x.ID),
			)
		}
		if x.AppPrivateKey == "" {
			return goerr.Wrap(types.ErrConfiguration, "app private key is empty",
				goerr.V("connector", x.ID),
			)
		}
		switch x.Mode {
		case types.AuthModeAppUser:
			if x.AppUserName == "" {
				return goerr.Wrap(types.ErrConfiguration, "app user name is empty",
					goerr.V("connector", x.ID),
				)
			}
		case types.AuthModeAppRepository:
			if x.AppRepositoryOwner == "" || x.AppRepositoryName == "" {
				return goerr.Wrap(types.ErrConfiguration, "app repository owner/name is empty",
					goerr.V("connector", x.ID),
				)
			}
		case types.AuthModeAppOrganization:
			if x.AppOrganizationName == "" {
				return goerr.Wrap(types.ErrConfiguration, "app organization name is empty",
					goerr.V("connector", x.ID),
				)
			}
		}

	default:
		return goerr.Wrap(types.ErrConfiguration, "unknown auth mode",
			goerr.V("connector", x.ID),
			goerr.V("mode", x.Mode),
		)
	}

	return nil
}

// CacheKey identifies this connector's entry in the credential cache.
func (x *Connector) CacheKey() string {
	return "connector:" + string(x.ID)
}

// CredentialCacheEntry holds the installation credentials issued for one
// connector. Entries are ephemeral: recreated when absent or expired, and
// removed by an explicit revoke.
type CredentialCacheEntry struct {
	InstallationID types.GitHubAppInstallID
	AccessToken    string
	ExpiresAt      time.Time
}

// Valid reports whether the access token may still be used at the given
// time. The installation ID outlives the token and is reused even when
// this returns false.
func (x *CredentialCacheEntry) Valid(now time.Time) bool {
	return x != nil && x.AccessToken != "" && now.Before(x.ExpiresAt)
}
