package fitbit

// Provider-shaped payloads. Field names mirror the upstream JSON so ledger
// natural keys and parser inputs stay provider-native.

// WeightLog is one body measurement entry.
type WeightLog struct {
	LogID  int64    `json:"logId"`
	Date   string   `json:"date"`
	Time   string   `json:"time"`
	Weight float64  `json:"weight"`
	BMI    *float64 `json:"bmi,omitempty"`
	Fat    *float64 `json:"fat,omitempty"`
	Source string   `json:"source,omitempty"`
}

type weightLogsResponse struct {
	Weight []WeightLog `json:"weight"`
}

// SleepLog is one sleep session entry.
type SleepLog struct {
	LogID         int64  `json:"logId"`
	DateOfSleep   string `json:"dateOfSleep"`
	StartTime     string `json:"startTime"`
	Duration      int64  `json:"duration"`
	Efficiency    int    `json:"efficiency"`
	MinutesAsleep int    `json:"minutesAsleep"`
	MinutesAwake  int    `json:"minutesAwake"`
	TimeInBed     int    `json:"timeInBed"`
	IsMainSleep   bool   `json:"isMainSleep"`
}

type sleepLogsResponse struct {
	Sleep []SleepLog `json:"sleep"`
}

// ActivityLevel is one flat intensity minute count on an activity log.
type ActivityLevel struct {
	Name    string `json:"name"`
	Minutes int    `json:"minutes"`
}

// HeartRateZone is one flat heart-rate band summary.
type HeartRateZone struct {
	Name        string  `json:"name"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Minutes     int     `json:"minutes"`
	CaloriesOut float64 `json:"caloriesOut"`
}

// ActivityLog is one logged activity entry.
type ActivityLog struct {
	LogID            int64           `json:"logId"`
	ActivityName     string          `json:"activityName"`
	StartTime        string          `json:"startTime"`
	Duration         int64           `json:"duration"`
	Distance         *float64        `json:"distance,omitempty"`
	DistanceUnit     string          `json:"distanceUnit,omitempty"`
	Calories         int             `json:"calories"`
	Steps            int             `json:"steps"`
	AverageHeartRate *int            `json:"averageHeartRate,omitempty"`
	ActivityLevel    []ActivityLevel `json:"activityLevel,omitempty"`
	HeartRateZones   []HeartRateZone `json:"heartRateZones,omitempty"`
}

type activityLogsResponse struct {
	Activities []ActivityLog `json:"activities"`
}

// SeriesPoint is one daily sample of a scalar time series. Value arrives as
// a string and is parsed during reshaping.
type SeriesPoint struct {
	DateTime string `json:"dateTime"`
	Value    string `json:"value"`
}

// HeartValue is the daily heart-rate sample payload.
type HeartValue struct {
	HeartRateZones   []HeartRateZone `json:"heartRateZones"`
	RestingHeartRate *int            `json:"restingHeartRate,omitempty"`
}

// HeartSeriesPoint is one daily heart-rate sample.
type HeartSeriesPoint struct {
	DateTime string     `json:"dateTime"`
	Value    HeartValue `json:"value"`
}

// IntradayPoint is one sub-daily sample.
type IntradayPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// IntradayDataset is the nested intraday block of a single-day response.
type IntradayDataset struct {
	Dataset         []IntradayPoint `json:"dataset"`
	DatasetInterval int             `json:"datasetInterval"`
	DatasetType     string          `json:"datasetType"`
}

// IntradayResponse is a single-day scalar series with its intraday block.
type IntradayResponse struct {
	Day      []SeriesPoint
	Intraday IntradayDataset
}

// HeartIntradayResponse is the single-day heart-rate series with its
// intraday block; the daily element carries the zone summaries.
type HeartIntradayResponse struct {
	Day      []HeartSeriesPoint
	Intraday IntradayDataset
}

// Device is one wearable registered to the account.
type Device struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	DeviceVersion string `json:"deviceVersion"`
	Battery       string `json:"battery"`
	BatteryLevel  *int   `json:"batteryLevel,omitempty"`
	LastSyncTime  string `json:"lastSyncTime,omitempty"`
}

// TokenPair is the response of a successful token refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type apiErrorBody struct {
	Errors []struct {
		ErrorType string `json:"errorType"`
		Message   string `json:"message"`
	} `json:"errors"`
}
