// Package events defines the event names and payloads published to the bus.
package events

import (
	"time"

	"example.com/fitbitsync/internal/domain"
)

// Event names carried in the event_type header and mapped to topics by the
// publisher catalog.
const (
	TypeSyncRequested    = "sync.requested"
	TypeActivitiesSynced = "sync.activities"
	TypeSleepSynced      = "sync.sleep"
	TypeBodyWeightSynced = "sync.body_weight"
	TypeDevicesSynced    = "sync.devices"
	TypeTimeSeriesSynced = "sync.timeseries"
	TypeIntradaySynced   = "sync.timeseries_intraday"
	TypeLastSyncUpdated  = "sync.last_sync"
	TypeSyncFailed       = "sync.failed"
)

// SyncRequested asks the sync worker to run a pass for one user.
type SyncRequested struct {
	UserID    string    `json:"user_id"`
	Trigger   string    `json:"trigger,omitempty"`
	Requested time.Time `json:"requested_at"`
}

// ActivitiesSynced carries the newly synced activities of one pass.
type ActivitiesSynced struct {
	UserID     string            `json:"user_id"`
	Activities []domain.Activity `json:"activities"`
}

// SleepSynced carries the newly synced sleep sessions of one pass.
type SleepSynced struct {
	UserID string         `json:"user_id"`
	Sleep  []domain.Sleep `json:"sleep"`
}

// BodyWeightSynced carries the newly synced body measurements of one pass.
type BodyWeightSynced struct {
	UserID  string          `json:"user_id"`
	Weights []domain.Weight `json:"weights"`
}

// DevicesSynced carries the devices registered to the account.
type DevicesSynced struct {
	UserID  string          `json:"user_id"`
	Devices []domain.Device `json:"devices"`
}

// TimeSeriesSynced carries one non-empty daily time series.
type TimeSeriesSynced struct {
	UserID string            `json:"user_id"`
	Series domain.TimeSeries `json:"series"`
}

// IntradaySynced carries one non-empty single-day intraday series.
type IntradaySynced struct {
	UserID string                    `json:"user_id"`
	Series domain.IntradayTimeSeries `json:"series"`
}

// LastSyncUpdated marks the completion of a pass.
type LastSyncUpdated struct {
	UserID   string    `json:"user_id"`
	SyncedAt time.Time `json:"synced_at"`
}

// SyncFailed reports an unrecoverable provider failure for a pass.
type SyncFailed struct {
	UserID    string `json:"user_id"`
	Code      int    `json:"code"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message,omitempty"`
}
