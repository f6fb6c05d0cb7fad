// Package parse maps provider-shaped resources into the internal domain model.
// All functions are pure and total over well-formed input: missing optional
// fields stay absent on the output instead of erroring.
package parse

import (
	"math"
	"time"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/fitbit"
)

const (
	metersPerMile      = 1609.344
	metersPerKilometer = 1000.0
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05.000-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
}

// Activity normalizes one logged activity, stamping it with userID.
func Activity(raw fitbit.ActivityLog, userID string) domain.Activity {
	out := domain.Activity{
		UserID:           userID,
		LogID:            raw.LogID,
		Name:             raw.ActivityName,
		Duration:         raw.Duration,
		Calories:         raw.Calories,
		Steps:            raw.Steps,
		AverageHeartRate: raw.AverageHeartRate,
	}

	if start, ok := parseTimestamp(raw.StartTime); ok {
		out.StartTime = start
		out.EndTime = start.Add(time.Duration(raw.Duration) * time.Millisecond)
	}
	if raw.Distance != nil {
		meters := DistanceMeters(*raw.Distance, raw.DistanceUnit)
		out.DistanceMeters = &meters
	}
	if levels := activityLevels(raw.ActivityLevel); levels != nil {
		out.Levels = levels
	}
	if zones := HeartRateZones(raw.HeartRateZones); zones != nil {
		out.HeartRateZones = zones
	}
	return out
}

// Sleep normalizes one sleep session, stamping it with userID.
func Sleep(raw fitbit.SleepLog, userID string) domain.Sleep {
	out := domain.Sleep{
		UserID:        userID,
		LogID:         raw.LogID,
		Duration:      raw.Duration,
		Efficiency:    raw.Efficiency,
		MinutesAsleep: raw.MinutesAsleep,
		MinutesAwake:  raw.MinutesAwake,
		TimeInBed:     raw.TimeInBed,
		IsMainSleep:   raw.IsMainSleep,
	}
	if start, ok := parseTimestamp(raw.StartTime); ok {
		out.StartTime = start
		out.EndTime = start.Add(time.Duration(raw.Duration) * time.Millisecond)
	}
	return out
}

// Weight normalizes one body measurement, stamping it with userID.
func Weight(raw fitbit.WeightLog, userID string) domain.Weight {
	out := domain.Weight{
		UserID:     userID,
		LogID:      raw.LogID,
		Kilograms:  raw.Weight,
		BMI:        raw.BMI,
		FatPercent: raw.Fat,
		Source:     raw.Source,
	}
	if raw.Date != "" {
		clock := raw.Time
		if clock == "" {
			clock = "00:00:00"
		}
		if measured, err := time.Parse("2006-01-02 15:04:05", raw.Date+" "+clock); err == nil {
			out.MeasuredAt = measured.UTC()
		}
	}
	return out
}

// Device normalizes one registered wearable, stamping it with userID.
func Device(raw fitbit.Device, userID string) domain.Device {
	out := domain.Device{
		UserID:       userID,
		DeviceID:     raw.ID,
		Type:         raw.Type,
		Version:      raw.DeviceVersion,
		Battery:      raw.Battery,
		BatteryLevel: raw.BatteryLevel,
	}
	if raw.LastSyncTime != "" {
		if ts, ok := parseTimestamp(raw.LastSyncTime); ok {
			out.LastSyncTime = &ts
		}
	}
	return out
}

// DistanceMeters converts a provider distance to whole meters.
func DistanceMeters(distance float64, unit string) int {
	switch unit {
	case "Mile":
		return int(math.Round(distance * metersPerMile))
	case "Kilometer":
		return int(math.Round(distance * metersPerKilometer))
	default:
		// The provider reports meters when no unit is named.
		return int(math.Round(distance))
	}
}

// HeartRateZones restructures the flat provider band array into the
// nested-by-name shape. Band durations convert from minutes to milliseconds.
func HeartRateZones(zones []fitbit.HeartRateZone) *domain.HeartRateZones {
	if len(zones) == 0 {
		return nil
	}
	out := &domain.HeartRateZones{}
	for _, zone := range zones {
		band := domain.HeartRateZone{
			Min:      zone.Min,
			Max:      zone.Max,
			Duration: int64(zone.Minutes) * 60000,
			Calories: zone.CaloriesOut,
		}
		switch zone.Name {
		case "Out of Range":
			out.OutOfRange = band
		case "Fat Burn":
			out.FatBurn = band
		case "Cardio":
			out.Cardio = band
		case "Peak":
			out.Peak = band
		}
	}
	return out
}

func activityLevels(levels []fitbit.ActivityLevel) *domain.ActivityLevels {
	if len(levels) == 0 {
		return nil
	}
	out := &domain.ActivityLevels{}
	for _, level := range levels {
		switch level.Name {
		case "sedentary":
			out.SedentaryMinutes = level.Minutes
		case "lightly":
			out.LightlyActiveMinutes = level.Minutes
		case "fairly":
			out.FairlyActiveMinutes = level.Minutes
		case "very":
			out.VeryActiveMinutes = level.Minutes
		}
	}
	return out
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
