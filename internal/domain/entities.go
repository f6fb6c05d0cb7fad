package domain

import "time"

// HeartRateZone is one named heart-rate band. Duration is in milliseconds.
type HeartRateZone struct {
	Min      int     `json:"min"`
	Max      int     `json:"max"`
	Duration int64   `json:"duration"`
	Calories float64 `json:"calories"`
}

// HeartRateZones nests the four provider bands by name.
type HeartRateZones struct {
	OutOfRange HeartRateZone `json:"out_of_range"`
	FatBurn    HeartRateZone `json:"fat_burn"`
	Cardio     HeartRateZone `json:"cardio"`
	Peak       HeartRateZone `json:"peak"`
}

// ActivityLevels nests the flat provider minute counts by intensity name.
type ActivityLevels struct {
	SedentaryMinutes     int `json:"sedentary_minutes"`
	LightlyActiveMinutes int `json:"lightly_active_minutes"`
	FairlyActiveMinutes  int `json:"fairly_active_minutes"`
	VeryActiveMinutes    int `json:"very_active_minutes"`
}

// Activity is one normalized logged workout. Durations are in milliseconds,
// distances in meters, timestamps in UTC.
type Activity struct {
	UserID           string          `json:"user_id"`
	LogID            int64           `json:"log_id"`
	Name             string          `json:"name"`
	StartTime        time.Time       `json:"start_time"`
	EndTime          time.Time       `json:"end_time"`
	Duration         int64           `json:"duration"`
	DistanceMeters   *int            `json:"distance_meters,omitempty"`
	Calories         int             `json:"calories"`
	Steps            int             `json:"steps"`
	AverageHeartRate *int            `json:"average_heart_rate,omitempty"`
	Levels           *ActivityLevels `json:"levels,omitempty"`
	HeartRateZones   *HeartRateZones `json:"heart_rate_zones,omitempty"`
}

// Sleep is one normalized sleep session.
type Sleep struct {
	UserID        string    `json:"user_id"`
	LogID         int64     `json:"log_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Duration      int64     `json:"duration"`
	Efficiency    int       `json:"efficiency"`
	MinutesAsleep int       `json:"minutes_asleep"`
	MinutesAwake  int       `json:"minutes_awake"`
	TimeInBed     int       `json:"time_in_bed"`
	IsMainSleep   bool      `json:"is_main_sleep"`
}

// Weight is one normalized body measurement. Weight is in kilograms.
type Weight struct {
	UserID     string    `json:"user_id"`
	LogID      int64     `json:"log_id"`
	MeasuredAt time.Time `json:"measured_at"`
	Kilograms  float64   `json:"kilograms"`
	BMI        *float64  `json:"bmi,omitempty"`
	FatPercent *float64  `json:"fat_percent,omitempty"`
	Source     string    `json:"source,omitempty"`
}

// Device is one normalized wearable registered to the user's account.
type Device struct {
	UserID       string     `json:"user_id"`
	DeviceID     string     `json:"device_id"`
	Type         string     `json:"type"`
	Version      string     `json:"version"`
	Battery      string     `json:"battery"`
	BatteryLevel *int       `json:"battery_level,omitempty"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
}
