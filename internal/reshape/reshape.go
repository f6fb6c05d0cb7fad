// Package reshape turns provider time-series responses into the internal
// time-series model and merges split data streams.
package reshape

import (
	"fmt"
	"strconv"
	"time"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/fitbit"
	"example.com/fitbitsync/internal/parse"
)

const dailyInterval = "1day"

// Daily maps a multi-day scalar series into the internal shape. A nil return
// signals an empty series: nothing to publish, nothing to count.
func Daily(seriesType domain.SeriesType, points []fitbit.SeriesPoint) *domain.TimeSeries {
	if len(points) == 0 {
		return nil
	}
	out := &domain.TimeSeries{
		Type:      seriesType,
		Interval:  dailyInterval,
		StartTime: points[0].DateTime,
		EndTime:   points[len(points)-1].DateTime,
		DataSet:   make([]domain.DataPoint, 0, len(points)),
	}
	for _, point := range points {
		value, _ := strconv.ParseFloat(point.Value, 64)
		out.DataSet = append(out.DataSet, domain.DataPoint{Date: point.DateTime, Value: value})
	}
	return out
}

// DailyHeartRate maps the multi-day heart-rate series, extracting the four
// named bands of each day into the nested zone shape.
func DailyHeartRate(points []fitbit.HeartSeriesPoint) *domain.TimeSeries {
	if len(points) == 0 {
		return nil
	}
	out := &domain.TimeSeries{
		Type:      domain.SeriesHeartRate,
		Interval:  dailyInterval,
		StartTime: points[0].DateTime,
		EndTime:   points[len(points)-1].DateTime,
		ZoneSet:   make([]domain.ZonedDataPoint, 0, len(points)),
	}
	for _, point := range points {
		zoned := domain.ZonedDataPoint{Date: point.DateTime}
		if zones := parse.HeartRateZones(point.Value.HeartRateZones); zones != nil {
			zoned.Zones = *zones
		}
		out.ZoneSet = append(out.ZoneSet, zoned)
	}
	return out
}

// Intraday maps a single-day intraday response. Start and end times come
// from the first and last dataset entries stamped onto day's date; the
// interval label concatenates the numeric interval with a three-character
// unit abbreviation ("1min", "1sec").
func Intraday(seriesType domain.SeriesType, resp *fitbit.IntradayResponse, day time.Time) *domain.IntradayTimeSeries {
	if resp == nil || len(resp.Intraday.Dataset) == 0 {
		return nil
	}
	return &domain.IntradayTimeSeries{
		Type:      seriesType,
		Interval:  intervalLabel(resp.Intraday),
		StartTime: stampTime(day, resp.Intraday.Dataset[0].Time),
		EndTime:   stampTime(day, resp.Intraday.Dataset[len(resp.Intraday.Dataset)-1].Time),
		DataSet:   intradayPoints(resp.Intraday.Dataset),
	}
}

// IntradayHeartRate maps the single-day heart-rate response, attaching the
// four-band summary carried on the daily element.
func IntradayHeartRate(resp *fitbit.HeartIntradayResponse, day time.Time) *domain.IntradayTimeSeries {
	if resp == nil || len(resp.Intraday.Dataset) == 0 {
		return nil
	}
	out := &domain.IntradayTimeSeries{
		Type:      domain.SeriesHeartRate,
		Interval:  intervalLabel(resp.Intraday),
		StartTime: stampTime(day, resp.Intraday.Dataset[0].Time),
		EndTime:   stampTime(day, resp.Intraday.Dataset[len(resp.Intraday.Dataset)-1].Time),
		DataSet:   intradayPoints(resp.Intraday.Dataset),
	}
	if len(resp.Day) > 0 {
		out.Zones = parse.HeartRateZones(resp.Day[len(resp.Day)-1].Value.HeartRateZones)
	}
	return out
}

// MergeDaily sums two daily series positionally. Pairs merge only when the
// dates at equal index match; mismatched pairs are dropped from the result.
// The first series' metadata is preserved.
func MergeDaily(a, b *domain.TimeSeries) *domain.TimeSeries {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := &domain.TimeSeries{
		Type:      a.Type,
		Interval:  a.Interval,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
	}
	n := len(a.DataSet)
	if len(b.DataSet) < n {
		n = len(b.DataSet)
	}
	for i := 0; i < n; i++ {
		if a.DataSet[i].Date != b.DataSet[i].Date {
			continue
		}
		merged.DataSet = append(merged.DataSet, domain.DataPoint{
			Date:  a.DataSet[i].Date,
			Value: a.DataSet[i].Value + b.DataSet[i].Value,
		})
	}
	if len(merged.DataSet) == 0 {
		return nil
	}
	return merged
}

// MergeIntraday sums two intraday series positionally, keeping the first
// series' interval and type metadata. Mismatched timestamps are dropped.
func MergeIntraday(a, b *domain.IntradayTimeSeries) *domain.IntradayTimeSeries {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := &domain.IntradayTimeSeries{
		Type:      a.Type,
		Interval:  a.Interval,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
	}
	n := len(a.DataSet)
	if len(b.DataSet) < n {
		n = len(b.DataSet)
	}
	for i := 0; i < n; i++ {
		if a.DataSet[i].Time != b.DataSet[i].Time {
			continue
		}
		merged.DataSet = append(merged.DataSet, domain.IntradayPoint{
			Time:  a.DataSet[i].Time,
			Value: a.DataSet[i].Value + b.DataSet[i].Value,
		})
	}
	if len(merged.DataSet) == 0 {
		return nil
	}
	return merged
}

func intradayPoints(dataset []fitbit.IntradayPoint) []domain.IntradayPoint {
	out := make([]domain.IntradayPoint, 0, len(dataset))
	for _, point := range dataset {
		out = append(out, domain.IntradayPoint{Time: point.Time, Value: point.Value})
	}
	return out
}

func intervalLabel(block fitbit.IntradayDataset) string {
	unit := block.DatasetType
	if len(unit) > 3 {
		unit = unit[:3]
	}
	return fmt.Sprintf("%d%s", block.DatasetInterval, unit)
}

func stampTime(day time.Time, clock string) string {
	return fmt.Sprintf("%sT%sZ", day.UTC().Format("2006-01-02"), clock)
}
