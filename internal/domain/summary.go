package domain

// SeriesCounts tallies published series events per type.
type SeriesCounts struct {
	Steps         int `json:"steps"`
	Calories      int `json:"calories"`
	Distance      int `json:"distance"`
	ActiveMinutes int `json:"active_minutes"`
	HeartRate     int `json:"heart_rate"`
}

// PublishFailure records one best-effort publish that failed during a pass.
// Failures never abort the pass; they are reported alongside the summary.
type PublishFailure struct {
	Event      string `json:"event"`
	RoutingKey string `json:"routing_key"`
	Reason     string `json:"reason"`
}

// SyncSummary aggregates what one sync pass actually published.
type SyncSummary struct {
	Activities      int              `json:"activities"`
	Sleep           int              `json:"sleep"`
	Weights         int              `json:"weights"`
	Devices         int              `json:"devices"`
	TimeSeries      SeriesCounts     `json:"timeseries"`
	Intraday        SeriesCounts     `json:"intraday"`
	PublishFailures []PublishFailure `json:"publish_failures,omitempty"`
}
