package domain

// SeriesType identifies one logical time-series resource.
type SeriesType string

const (
	SeriesSteps         SeriesType = "steps"
	SeriesCalories      SeriesType = "calories"
	SeriesDistance      SeriesType = "distance"
	SeriesActiveMinutes SeriesType = "active_minutes"
	SeriesHeartRate     SeriesType = "heart_rate"
)

// DataPoint is one daily sample.
type DataPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ZonedDataPoint is one daily heart-rate sample carrying the four band
// summaries instead of a scalar value.
type ZonedDataPoint struct {
	Date  string         `json:"date"`
	Zones HeartRateZones `json:"zones"`
}

// TimeSeries is a multi-day series with one point per day. Exactly one of
// DataSet or ZoneSet is populated; ZoneSet is used for heart rate only.
type TimeSeries struct {
	UserID    string           `json:"user_id"`
	Type      SeriesType       `json:"type"`
	Interval  string           `json:"interval"`
	StartTime string           `json:"start_time"`
	EndTime   string           `json:"end_time"`
	DataSet   []DataPoint      `json:"data_set,omitempty"`
	ZoneSet   []ZonedDataPoint `json:"zone_set,omitempty"`
}

// IntradayPoint is one sub-daily sample within a single day.
type IntradayPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// IntradayTimeSeries is a single-day series at second or minute granularity.
// Zones is set for heart rate only.
type IntradayTimeSeries struct {
	UserID    string          `json:"user_id"`
	Type      SeriesType      `json:"type"`
	Interval  string          `json:"interval"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	Zones     *HeartRateZones `json:"zones,omitempty"`
	DataSet   []IntradayPoint `json:"data_set"`
}
