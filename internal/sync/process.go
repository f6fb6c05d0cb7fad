package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/events"
	"example.com/fitbitsync/internal/fitbit"
	"example.com/fitbitsync/internal/observability"
	"example.com/fitbitsync/internal/parse"
	"example.com/fitbitsync/internal/reshape"
)

// processPass reconciles the fetched resources against the ledger, reshapes
// them into the domain model, publishes per-category events, replaces the
// ledger snapshots, and stamps the credential record.
func (o *Orchestrator) processPass(ctx context.Context, creds *domain.Credentials, scopes domain.ScopeSet, resources *fetched) (*domain.SyncSummary, error) {
	userID := creds.UserID
	summary := &domain.SyncSummary{}

	o.publishWeights(ctx, userID, resources.weights, summary)
	o.publishSleep(ctx, userID, resources.sleeps, summary)
	o.publishActivities(ctx, userID, resources.activities, summary)
	o.publishDailySeries(ctx, userID, resources, summary)
	o.publishIntradaySeries(ctx, userID, resources, summary)
	o.publishDevices(ctx, userID, resources.devices, summary)

	// Replace-not-append: the ledger snapshot holds everything fetched this
	// pass, not just the items that survived deduplication.
	o.replaceLedger(ctx, userID, domain.LedgerBody, weightLedgerEntries(userID, resources.weights, o.now()))
	o.replaceLedger(ctx, userID, domain.LedgerSleep, sleepLedgerEntries(userID, resources.sleeps, o.now()))
	o.replaceLedger(ctx, userID, domain.LedgerActivity, activityLedgerEntries(userID, resources.activities, o.now()))
	if scopes.Has(domain.ScopeSettings) {
		o.replaceLedger(ctx, userID, domain.LedgerDevice, deviceLedgerEntries(userID, resources.devices, o.now()))
	}

	syncedAt := o.now()
	if err := o.credentials.UpdateLastSync(ctx, userID, syncedAt); err != nil {
		o.logger.Printf("last-sync update failed (user=%s): %v", userID, err)
	} else {
		o.publish(ctx, events.TypeLastSyncUpdated, events.LastSyncUpdated{UserID: userID, SyncedAt: syncedAt}, userID, summary)
	}

	return summary, nil
}

func (o *Orchestrator) publishWeights(ctx context.Context, userID string, logs []fitbit.WeightLog, summary *domain.SyncSummary) {
	fresh := make([]domain.Weight, 0, len(logs))
	for _, raw := range logs {
		weight := raw.Weight
		if o.alreadySynced(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerBody, LogID: raw.LogID, Weight: &weight}) {
			continue
		}
		fresh = append(fresh, parse.Weight(raw, userID))
	}
	if len(fresh) == 0 {
		return
	}
	if o.publish(ctx, events.TypeBodyWeightSynced, events.BodyWeightSynced{UserID: userID, Weights: fresh}, userID, summary) {
		summary.Weights = len(fresh)
		observability.RecordItemsPublished("weight", len(fresh))
	}
}

func (o *Orchestrator) publishSleep(ctx context.Context, userID string, logs []fitbit.SleepLog, summary *domain.SyncSummary) {
	fresh := make([]domain.Sleep, 0, len(logs))
	for _, raw := range logs {
		if o.alreadySynced(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerSleep, LogID: raw.LogID}) {
			continue
		}
		fresh = append(fresh, parse.Sleep(raw, userID))
	}
	if len(fresh) == 0 {
		return
	}
	if o.publish(ctx, events.TypeSleepSynced, events.SleepSynced{UserID: userID, Sleep: fresh}, userID, summary) {
		summary.Sleep = len(fresh)
		observability.RecordItemsPublished("sleep", len(fresh))
	}
}

func (o *Orchestrator) publishActivities(ctx context.Context, userID string, logs []fitbit.ActivityLog, summary *domain.SyncSummary) {
	fresh := make([]domain.Activity, 0, len(logs))
	for _, raw := range logs {
		if o.alreadySynced(ctx, domain.LedgerQuery{UserID: userID, Category: domain.LedgerActivity, LogID: raw.LogID}) {
			continue
		}
		fresh = append(fresh, parse.Activity(raw, userID))
	}
	if len(fresh) == 0 {
		return
	}
	if o.publish(ctx, events.TypeActivitiesSynced, events.ActivitiesSynced{UserID: userID, Activities: fresh}, userID, summary) {
		summary.Activities = len(fresh)
		observability.RecordItemsPublished("activity", len(fresh))
	}
}

func (o *Orchestrator) publishDevices(ctx context.Context, userID string, devices []fitbit.Device, summary *domain.SyncSummary) {
	if len(devices) == 0 {
		return
	}
	parsed := make([]domain.Device, 0, len(devices))
	for _, raw := range devices {
		parsed = append(parsed, parse.Device(raw, userID))
	}
	if o.publish(ctx, events.TypeDevicesSynced, events.DevicesSynced{UserID: userID, Devices: parsed}, userID, summary) {
		summary.Devices = len(parsed)
		observability.RecordItemsPublished("device", len(parsed))
	}
}

func (o *Orchestrator) publishDailySeries(ctx context.Context, userID string, resources *fetched, summary *domain.SyncSummary) {
	publishSeries := func(series *domain.TimeSeries, counter *int) {
		if series == nil {
			return
		}
		series.UserID = userID
		if o.publish(ctx, events.TypeTimeSeriesSynced, events.TimeSeriesSynced{UserID: userID, Series: *series}, userID, summary) {
			*counter = 1
			observability.RecordItemsPublished("timeseries", 1)
		}
	}

	publishSeries(reshape.Daily(domain.SeriesSteps, resources.dailySteps), &summary.TimeSeries.Steps)
	publishSeries(reshape.Daily(domain.SeriesCalories, resources.dailyCalories), &summary.TimeSeries.Calories)
	publishSeries(reshape.Daily(domain.SeriesDistance, resources.dailyDistance), &summary.TimeSeries.Distance)

	// The provider splits "active minutes" into two intensity sub-series;
	// they merge into one stream before publishing.
	fairly := reshape.Daily(domain.SeriesActiveMinutes, resources.dailyFairly)
	very := reshape.Daily(domain.SeriesActiveMinutes, resources.dailyVery)
	publishSeries(reshape.MergeDaily(fairly, very), &summary.TimeSeries.ActiveMinutes)

	publishSeries(reshape.DailyHeartRate(resources.dailyHeart), &summary.TimeSeries.HeartRate)
}

func (o *Orchestrator) publishIntradaySeries(ctx context.Context, userID string, resources *fetched, summary *domain.SyncSummary) {
	today := o.now()

	publishSeries := func(series *domain.IntradayTimeSeries, counter *int) {
		if series == nil {
			return
		}
		series.UserID = userID
		if o.publish(ctx, events.TypeIntradaySynced, events.IntradaySynced{UserID: userID, Series: *series}, userID, summary) {
			*counter = 1
			observability.RecordItemsPublished("intraday", 1)
		}
	}

	publishSeries(reshape.Intraday(domain.SeriesSteps, resources.intradaySteps, today), &summary.Intraday.Steps)
	publishSeries(reshape.Intraday(domain.SeriesCalories, resources.intradayCalories, today), &summary.Intraday.Calories)
	publishSeries(reshape.Intraday(domain.SeriesDistance, resources.intradayDistance, today), &summary.Intraday.Distance)

	fairly := reshape.Intraday(domain.SeriesActiveMinutes, resources.intradayFairly, today)
	very := reshape.Intraday(domain.SeriesActiveMinutes, resources.intradayVery, today)
	publishSeries(reshape.MergeIntraday(fairly, very), &summary.Intraday.ActiveMinutes)

	publishSeries(reshape.IntradayHeartRate(resources.intradayHeart, today), &summary.Intraday.HeartRate)
}

// alreadySynced probes the ledger for the natural key. A probe failure is
// treated as "not seen": the item is reprocessed rather than dropped.
func (o *Orchestrator) alreadySynced(ctx context.Context, query domain.LedgerQuery) bool {
	exists, err := o.ledger.Exists(ctx, query)
	if err != nil {
		o.logger.Printf("ledger probe failed (user=%s, category=%s, log=%d): %v", query.UserID, query.Category, query.LogID, err)
		return false
	}
	return exists
}

// replaceLedger swaps the category snapshot: delete everything, insert the
// current fetch. Failures are logged and never fail the pass.
func (o *Orchestrator) replaceLedger(ctx context.Context, userID string, category domain.LedgerCategory, entries []domain.LedgerEntry) {
	if err := o.ledger.DeleteAll(ctx, userID, category); err != nil {
		o.logger.Printf("ledger delete failed (user=%s, category=%s): %v", userID, category, err)
		return
	}
	for _, entry := range entries {
		if err := o.ledger.Insert(ctx, entry); err != nil {
			o.logger.Printf("ledger insert failed (user=%s, category=%s, log=%d): %v", userID, category, entry.LogID, err)
		}
	}
}

// publish is fire-and-forget: failures are logged, recorded on the summary,
// and never abort the pass.
func (o *Orchestrator) publish(ctx context.Context, eventName string, payload interface{}, routingKey string, summary *domain.SyncSummary) bool {
	if err := o.publisher.Publish(ctx, eventName, payload, routingKey); err != nil {
		o.logger.Printf("publish failed (event=%s, key=%s): %v", eventName, routingKey, err)
		summary.PublishFailures = append(summary.PublishFailures, domain.PublishFailure{
			Event:      eventName,
			RoutingKey: routingKey,
			Reason:     err.Error(),
		})
		return false
	}
	return true
}

func weightLedgerEntries(userID string, logs []fitbit.WeightLog, now time.Time) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(logs))
	for _, raw := range logs {
		weight := raw.Weight
		entries = append(entries, newLedgerEntry(userID, domain.LedgerBody, raw.LogID, &weight, raw, now))
	}
	return entries
}

func sleepLedgerEntries(userID string, logs []fitbit.SleepLog, now time.Time) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(logs))
	for _, raw := range logs {
		entries = append(entries, newLedgerEntry(userID, domain.LedgerSleep, raw.LogID, nil, raw, now))
	}
	return entries
}

func activityLedgerEntries(userID string, logs []fitbit.ActivityLog, now time.Time) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(logs))
	for _, raw := range logs {
		entries = append(entries, newLedgerEntry(userID, domain.LedgerActivity, raw.LogID, nil, raw, now))
	}
	return entries
}

func deviceLedgerEntries(userID string, devices []fitbit.Device, now time.Time) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(devices))
	for _, raw := range devices {
		entries = append(entries, newLedgerEntry(userID, domain.LedgerDevice, 0, nil, raw, now))
	}
	return entries
}

func newLedgerEntry(userID string, category domain.LedgerCategory, logID int64, weight *float64, resource interface{}, now time.Time) domain.LedgerEntry {
	payload, err := json.Marshal(resource)
	if err != nil {
		payload = nil
	}
	return domain.LedgerEntry{
		ID:       uuid.NewString(),
		UserID:   userID,
		Category: category,
		LogID:    logID,
		Weight:   weight,
		Resource: payload,
		Provider: providerName,
		DateSync: now,
	}
}
