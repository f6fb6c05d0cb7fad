package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/fitbit"
)

func TestDistanceMeters(t *testing.T) {
	require.Equal(t, 16093, DistanceMeters(10, "Mile"))
	require.Equal(t, 10000, DistanceMeters(10, "Kilometer"))
	require.Equal(t, 5250, DistanceMeters(5249.7, ""))
	require.Equal(t, 805, DistanceMeters(0.5, "Mile"))
}

func TestActivityMapsFieldsAndComputesEndTime(t *testing.T) {
	distance := 3.2
	hr := 132
	raw := fitbit.ActivityLog{
		LogID:            5551234,
		ActivityName:     "Run",
		StartTime:        "2026-08-29T07:15:00.000-04:00",
		Duration:         1800000,
		Distance:         &distance,
		DistanceUnit:     "Kilometer",
		Calories:         320,
		Steps:            4100,
		AverageHeartRate: &hr,
		ActivityLevel: []fitbit.ActivityLevel{
			{Name: "sedentary", Minutes: 0},
			{Name: "lightly", Minutes: 3},
			{Name: "fairly", Minutes: 7},
			{Name: "very", Minutes: 20},
		},
		HeartRateZones: []fitbit.HeartRateZone{
			{Name: "Cardio", Min: 127, Max: 154, Minutes: 22, CaloriesOut: 250},
		},
	}

	out := Activity(raw, "user-1")
	require.Equal(t, "user-1", out.UserID)
	require.Equal(t, int64(5551234), out.LogID)
	require.Equal(t, "Run", out.Name)
	require.Equal(t, time.Date(2026, time.August, 29, 11, 15, 0, 0, time.UTC), out.StartTime)
	require.Equal(t, out.StartTime.Add(30*time.Minute), out.EndTime)
	require.NotNil(t, out.DistanceMeters)
	require.Equal(t, 3200, *out.DistanceMeters)
	require.NotNil(t, out.Levels)
	require.Equal(t, 7, out.Levels.FairlyActiveMinutes)
	require.Equal(t, 20, out.Levels.VeryActiveMinutes)
	require.NotNil(t, out.HeartRateZones)
	require.Equal(t, int64(1320000), out.HeartRateZones.Cardio.Duration)
}

func TestActivityOptionalFieldsStayAbsent(t *testing.T) {
	out := Activity(fitbit.ActivityLog{
		LogID:        99,
		ActivityName: "Walk",
		StartTime:    "2026-08-29T08:00:00",
		Duration:     600000,
	}, "user-1")

	require.Nil(t, out.DistanceMeters)
	require.Nil(t, out.Levels)
	require.Nil(t, out.HeartRateZones)
	require.Nil(t, out.AverageHeartRate)
}

func TestSleepMapsFields(t *testing.T) {
	out := Sleep(fitbit.SleepLog{
		LogID:         778812,
		DateOfSleep:   "2026-08-29",
		StartTime:     "2026-08-28T23:40:00.000",
		Duration:      27000000,
		Efficiency:    93,
		MinutesAsleep: 420,
		MinutesAwake:  30,
		TimeInBed:     450,
		IsMainSleep:   true,
	}, "user-2")

	require.Equal(t, "user-2", out.UserID)
	require.Equal(t, int64(778812), out.LogID)
	require.Equal(t, time.Date(2026, time.August, 28, 23, 40, 0, 0, time.UTC), out.StartTime)
	require.Equal(t, out.StartTime.Add(27000000*time.Millisecond), out.EndTime)
	require.Equal(t, 93, out.Efficiency)
	require.True(t, out.IsMainSleep)
}

func TestWeightMapsMeasurementTime(t *testing.T) {
	bmi := 23.1
	out := Weight(fitbit.WeightLog{
		LogID:  123,
		Date:   "2026-08-29",
		Time:   "07:12:33",
		Weight: 72.4,
		BMI:    &bmi,
	}, "user-3")

	require.Equal(t, 72.4, out.Kilograms)
	require.Equal(t, time.Date(2026, time.August, 29, 7, 12, 33, 0, time.UTC), out.MeasuredAt)
	require.NotNil(t, out.BMI)
	require.Nil(t, out.FatPercent)
}

func TestWeightMissingClockDefaultsToMidnight(t *testing.T) {
	out := Weight(fitbit.WeightLog{LogID: 124, Date: "2026-08-29", Weight: 71.0}, "user-3")
	require.Equal(t, time.Date(2026, time.August, 29, 0, 0, 0, 0, time.UTC), out.MeasuredAt)
}

func TestDeviceMapsLastSync(t *testing.T) {
	level := 80
	out := Device(fitbit.Device{
		ID:            "dev-1",
		Type:          "TRACKER",
		DeviceVersion: "Charge 6",
		Battery:       "High",
		BatteryLevel:  &level,
		LastSyncTime:  "2026-08-29T06:00:00.000",
	}, "user-4")

	require.Equal(t, "dev-1", out.DeviceID)
	require.Equal(t, "Charge 6", out.Version)
	require.NotNil(t, out.LastSyncTime)
	require.Equal(t, time.Date(2026, time.August, 29, 6, 0, 0, 0, time.UTC), *out.LastSyncTime)
}

func TestHeartRateZonesUnknownBandIgnored(t *testing.T) {
	zones := HeartRateZones([]fitbit.HeartRateZone{
		{Name: "Peak", Min: 154, Max: 220, Minutes: 2, CaloriesOut: 30},
		{Name: "Custom Zone", Min: 100, Max: 140, Minutes: 15, CaloriesOut: 90},
	})
	require.NotNil(t, zones)
	require.Equal(t, int64(120000), zones.Peak.Duration)
	require.Equal(t, domain.HeartRateZone{}, zones.Cardio)
}

func TestHeartRateZonesEmptyIsNil(t *testing.T) {
	require.Nil(t, HeartRateZones(nil))
}
