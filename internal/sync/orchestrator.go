// Package sync drives one complete provider synchronization pass per user.
package sync

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/fitbit"
	"example.com/fitbitsync/internal/observability"
)

const (
	providerName       = "fitbit"
	activityFetchLimit = 100
	sleepFetchLimit    = 100
	backfillMonths     = 12
)

// CredentialStore loads and mutates the stored provider link for a user.
type CredentialStore interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Credentials, error)
	UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string) error
	UpdateStatus(ctx context.Context, userID string, status domain.CredentialStatus) error
	UpdateLastSync(ctx context.Context, userID string, ts time.Time) error
}

// ResourceLedger is the persisted store of already-synced raw resources.
type ResourceLedger interface {
	Exists(ctx context.Context, query domain.LedgerQuery) (bool, error)
	DeleteAll(ctx context.Context, userID string, category domain.LedgerCategory) error
	Insert(ctx context.Context, entry domain.LedgerEntry) error
}

// EventPublisher is the best-effort publish contract. Errors are logged by
// the orchestrator and recorded on the summary, never rethrown into a pass.
type EventPublisher interface {
	Publish(ctx context.Context, eventName string, payload interface{}, routingKey string) error
}

// ProviderAPI is the authenticated provider client consumed by the pass.
type ProviderAPI interface {
	WeightLogs(ctx context.Context, token string, end time.Time) ([]fitbit.WeightLog, error)
	SleepLogs(ctx context.Context, token string, before time.Time, limit int) ([]fitbit.SleepLog, error)
	ActivityLogs(ctx context.Context, token string, before time.Time, limit int) ([]fitbit.ActivityLog, error)
	DailySeries(ctx context.Context, token, resource string) ([]fitbit.SeriesPoint, error)
	DailyHeartSeries(ctx context.Context, token string) ([]fitbit.HeartSeriesPoint, error)
	IntradaySeries(ctx context.Context, token, resource string) (*fitbit.IntradayResponse, error)
	IntradayHeartSeries(ctx context.Context, token string) (*fitbit.HeartIntradayResponse, error)
	Devices(ctx context.Context, token string) ([]fitbit.Device, error)
	Refresh(ctx context.Context, refreshToken string) (*fitbit.TokenPair, error)
	Revoke(ctx context.Context, accessToken string) error
}

// Option configures optional orchestrator behaviour.
type Option func(*Orchestrator)

// WithLogger overrides the logger used for non-fatal failures.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithBackfillConcurrency bounds the fan-out of first-sync backfill windows.
func WithBackfillConcurrency(limit int) Option {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.backfillLimit = limit
		}
	}
}

// Orchestrator coordinates credential loading, concurrent resource fetching,
// deduplication, parsing, publishing, and ledger maintenance for one user.
type Orchestrator struct {
	credentials   CredentialStore
	provider      ProviderAPI
	ledger        ResourceLedger
	publisher     EventPublisher
	logger        *log.Logger
	now           func() time.Time
	backfillLimit int
	flight        singleflight.Group
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(credentials CredentialStore, provider ProviderAPI, ledger ResourceLedger, publisher EventPublisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		credentials:   credentials,
		provider:      provider,
		ledger:        ledger,
		publisher:     publisher,
		logger:        log.New(log.Writer(), "[sync] ", log.LstdFlags|log.Lshortfile),
		now:           func() time.Time { return time.Now().UTC() },
		backfillLimit: 4,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Synchronize runs one complete sync pass for the user. Concurrent calls for
// the same user coalesce into a single pass sharing its result.
func (o *Orchestrator) Synchronize(ctx context.Context, userID string) (*domain.SyncSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrValidation)
	}

	result, err, _ := o.flight.Do(userID, func() (interface{}, error) {
		return o.synchronizeUser(ctx, userID, 0)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.SyncSummary), nil
}

func (o *Orchestrator) synchronizeUser(ctx context.Context, userID string, attempt int) (*domain.SyncSummary, error) {
	start := o.now()

	creds, err := o.credentials.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if !creds.Linked() {
		return nil, domain.ErrNoCredentials
	}

	summary, err := o.runPass(ctx, creds)
	if err != nil {
		return o.recoverPass(ctx, creds, err, attempt, start)
	}

	observability.RecordSyncPass("success", o.now().Sub(start))
	observability.RecordLastSync(o.now())
	return summary, nil
}

// fetched collects every resource retrieved by the concurrent batch. Each
// goroutine writes a distinct field; reads happen only after the join.
type fetched struct {
	weights    []fitbit.WeightLog
	sleeps     []fitbit.SleepLog
	activities []fitbit.ActivityLog

	dailySteps    []fitbit.SeriesPoint
	dailyDistance []fitbit.SeriesPoint
	dailyCalories []fitbit.SeriesPoint
	dailyFairly   []fitbit.SeriesPoint
	dailyVery     []fitbit.SeriesPoint
	dailyHeart    []fitbit.HeartSeriesPoint

	intradaySteps    *fitbit.IntradayResponse
	intradayDistance *fitbit.IntradayResponse
	intradayCalories *fitbit.IntradayResponse
	intradayFairly   *fitbit.IntradayResponse
	intradayVery     *fitbit.IntradayResponse
	intradayHeart    *fitbit.HeartIntradayResponse

	devices []fitbit.Device
}

func (o *Orchestrator) runPass(ctx context.Context, creds *domain.Credentials) (*domain.SyncSummary, error) {
	scopes := domain.ParseScopes(creds.Scope)
	token := creds.AccessToken
	tomorrow := o.now().AddDate(0, 0, 1)

	var resources fetched
	g, gctx := errgroup.WithContext(ctx)

	if scopes.Has(domain.ScopeWeight) {
		g.Go(func() error {
			logs, err := o.fetchWeightLogs(gctx, token, creds.LastSync)
			resources.weights = logs
			return err
		})
	}

	if scopes.Has(domain.ScopeSleep) {
		g.Go(func() error {
			logs, err := o.provider.SleepLogs(gctx, token, tomorrow, sleepFetchLimit)
			resources.sleeps = logs
			return err
		})
	}

	if scopes.Has(domain.ScopeActivity) {
		g.Go(func() error {
			logs, err := o.provider.ActivityLogs(gctx, token, tomorrow, activityFetchLimit)
			resources.activities = logs
			return err
		})

		dailyTargets := []struct {
			resource string
			dst      *[]fitbit.SeriesPoint
		}{
			{"steps", &resources.dailySteps},
			{"distance", &resources.dailyDistance},
			{"calories", &resources.dailyCalories},
			{"minutesFairlyActive", &resources.dailyFairly},
			{"minutesVeryActive", &resources.dailyVery},
		}
		for _, target := range dailyTargets {
			g.Go(func() error {
				points, err := o.provider.DailySeries(gctx, token, target.resource)
				*target.dst = points
				return err
			})
		}

		g.Go(func() error {
			points, err := o.provider.DailyHeartSeries(gctx, token)
			resources.dailyHeart = points
			return err
		})

		intradayTargets := []struct {
			resource string
			dst      **fitbit.IntradayResponse
		}{
			{"steps", &resources.intradaySteps},
			{"distance", &resources.intradayDistance},
			{"calories", &resources.intradayCalories},
			{"minutesFairlyActive", &resources.intradayFairly},
			{"minutesVeryActive", &resources.intradayVery},
		}
		for _, target := range intradayTargets {
			g.Go(func() error {
				resp, err := o.provider.IntradaySeries(gctx, token, target.resource)
				*target.dst = resp
				return err
			})
		}

		g.Go(func() error {
			resp, err := o.provider.IntradayHeartSeries(gctx, token)
			resources.intradayHeart = resp
			return err
		})
	}

	if scopes.Has(domain.ScopeSettings) {
		g.Go(func() error {
			devices, err := o.provider.Devices(gctx, token)
			resources.devices = devices
			return err
		})
	}

	// Fail-fast join: any single rejection aborts the whole pass.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return o.processPass(ctx, creds, scopes, &resources)
}

// fetchWeightLogs backfills twelve trailing monthly windows on the first
// sync; subsequent passes only need the trailing window since last sync.
func (o *Orchestrator) fetchWeightLogs(ctx context.Context, token string, lastSync *time.Time) ([]fitbit.WeightLog, error) {
	today := o.now()
	if lastSync != nil {
		return o.provider.WeightLogs(ctx, token, today)
	}

	windows := make([][]fitbit.WeightLog, backfillMonths)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.backfillLimit)
	for i := 0; i < backfillMonths; i++ {
		g.Go(func() error {
			logs, err := o.provider.WeightLogs(gctx, token, today.AddDate(0, -i, 0))
			windows[i] = logs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []fitbit.WeightLog
	for _, window := range windows {
		out = append(out, window...)
	}
	return out, nil
}
