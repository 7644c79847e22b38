package model

import (
	"time"

	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Delivery is a raw inbound webhook delivery stored for asynchronous
// processing. Seq is the arrival sequence assigned by the store; stored
// deliveries are processed in Seq order and deleted only after their
// automations have run.
type Delivery struct {
	ID         types.DeliveryID `json:"id"`
	Seq        int64            `json:"seq"`
	BindingID  types.BindingID  `json:"binding_id"`
	Event      types.EventType  `json:"event"`
	Payload    []byte           `json:"payload"`
	ReceivedAt time.Time        `json:"received_at"`
}

// DeliveryResult is what an ingestion returns to the caller: the number of
// triggered automations and a pre-rendered log line for the external
// case-log writer.
type DeliveryResult struct {
	Event       types.EventType `json:"event"`
	SenderLogin string          `json:"sender_login,omitempty"`
	Triggered   int             `json:"triggered_count"`
	Queued      bool            `json:"queued"`
	LogEntry    string          `json:"log_entry"`
}

// AdminResult is the uniform response of administrative operations. Errors
// are collected rather than raised so the external controller layer can
// render them without special-casing.
type AdminResult struct {
	Errors []string `json:"errors"`

	Status         types.SyncStatus         `json:"status,omitempty"`
	Metadata       *RepositoryMetadata      `json:"metadata,omitempty"`
	InstallationID types.GitHubAppInstallID `json:"installation_id,omitempty"`
}

func (x *AdminResult) AddError(msg string) {
	x.Errors = append(x.Errors, msg)
}

func (x *AdminResult) HasError() bool {
	return len(x.Errors) > 0
}
