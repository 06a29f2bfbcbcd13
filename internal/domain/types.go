package domain

import (
	"encoding/json"
	"time"
)

// ActionID identifies one of the discrete operations the host platform can invoke.
type ActionID string

const (
	ActionTestConnectivity ActionID = "test_connectivity"
	ActionDisableUser      ActionID = "disable_user"
	ActionDisableDataAging ActionID = "disable_data_aging"
	ActionDisableIdp       ActionID = "disable_idp"
	ActionOnPoll           ActionID = "on_poll"
)

func (a ActionID) String() string {
	return string(a)
}

// AssetConfig is the endpoint/credential bundle supplied once per connector invocation.
// It is never persisted by the connector.
type AssetConfig struct {
	Endpoint         string `json:"endpoint" validate:"required,url"`
	AccessToken      string `json:"access_token" validate:"required"`
	PlatformAPIToken string `json:"platform_api_token" validate:"required"`
}

// AlertRecord is a normalized view of one remote anomaly alert.  Identity is
// RemoteID and it is the deduplication key for ingestion.
type AlertRecord struct {
	RemoteID    string
	Title       string
	Description string
	Severity    string
	DetectedAt  time.Time
	Raw         json.RawMessage
}

// CaseCreationRequest is submitted to the host platform once per new AlertRecord.
type CaseCreationRequest struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Severity       string                 `json:"severity"`
	SourceRecordID string                 `json:"source_record_id"`
	Fields         map[string]interface{} `json:"fields"`
}
