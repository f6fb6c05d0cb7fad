package domain

import (
	"encoding/json"
	"time"
)

// LedgerCategory names one raw-resource category tracked by the ledger.
type LedgerCategory string

const (
	LedgerActivity LedgerCategory = "activity"
	LedgerBody     LedgerCategory = "body"
	LedgerSleep    LedgerCategory = "sleep"
	LedgerDevice   LedgerCategory = "device"
)

// LedgerEntry is one persisted raw resource, kept for deduplication and audit.
// The ledger for each category is replaced wholesale at the end of a pass.
type LedgerEntry struct {
	ID       string          `json:"id"`
	UserID   string          `json:"user_id"`
	Category LedgerCategory  `json:"category"`
	LogID    int64           `json:"log_id"`
	Weight   *float64        `json:"weight,omitempty"`
	Resource json.RawMessage `json:"resource"`
	Provider string          `json:"provider"`
	DateSync time.Time       `json:"date_sync"`
}

// LedgerQuery is the natural-key existence probe for one raw resource.
// Keys use provider-native identifiers: logId for activities and sleep,
// logId plus the measured weight for body entries.
type LedgerQuery struct {
	UserID   string
	Category LedgerCategory
	LogID    int64
	Weight   *float64
}
