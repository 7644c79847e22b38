package types

import "log/slog"

type (
	GitHubAppID        int64
	GitHubAppInstallID int64
	GitHubHookID       int64

	AppPrivateKey       string
	PersonalAccessToken string
	WebhookSecret       string

	ConnectorID  string
	BindingID    string
	AutomationID string
	DeliveryID   string

	EventType string

	AuthMode   string
	TargetType string
	SyncMode   string
	SyncStatus string
	LinkStatus string
)

const (
	AuthModeNone            AuthMode = "none"
	AuthModePersonal        AuthMode = "personal"
	AuthModeAppUser         AuthMode = "app_user"
	AuthModeAppRepository   AuthMode = "app_repository"
	AuthModeAppOrganization AuthMode = "app_organization"
)

const (
	TargetRepository   TargetType = "repository"
	TargetOrganization TargetType = "organization"
)

const (
	SyncModeNone   SyncMode = "none"
	SyncModeManual SyncMode = "manual"
	SyncModeAuto   SyncMode = "auto"
)

const (
	SyncStatusUnset          SyncStatus = "unset"
	SyncStatusUnsynchronized SyncStatus = "unsynchronized"
	SyncStatusActive         SyncStatus = "active"
	SyncStatusInactive       SyncStatus = "inactive"
	SyncStatusError          SyncStatus = "error"
)

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusInactive LinkStatus = "inactive"
)

// IsAppMode reports whether the mode requires the App JWT / installation
// token exchange.
func (x AuthMode) IsAppMode() bool {
	switch x {
	case AuthModeAppUser, AuthModeAppRepository, AuthModeAppOrganization:
		return true
	}
	return false
}

func (x AppPrivateKey) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x AppPrivateKey) String() string {
	return "***********"
}

func (x PersonalAccessToken) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x PersonalAccessToken) String() string {
	return "***********"
}

func (x WebhookSecret) LogValue() slog.Value {
	return slog.StringValue("***********")
}

func (x WebhookSecret) String() string {
	return "***********"
}
