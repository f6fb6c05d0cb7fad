package fitbit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitbitsync/internal/domain"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(Config{
		APIBaseURL:   server.URL,
		TokenURL:     server.URL + "/oauth2/token",
		RevokeURL:    server.URL + "/oauth2/revoke",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2 * time.Second,
	})
	return client, server
}

func TestWeightLogsBuildsMonthWindowPath(t *testing.T) {
	var gotPath, gotAuth string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"weight": []map[string]interface{}{
				{"logId": 991, "date": "2026-08-29", "time": "07:00:00", "weight": 72.5},
			},
		})
	}))
	defer server.Close()

	end := time.Date(2026, time.August, 29, 23, 0, 0, 0, time.UTC)
	logs, err := client.WeightLogs(context.Background(), "token-1", end)
	require.NoError(t, err)
	require.Equal(t, "/1/user/-/body/log/weight/date/2026-08-29/1m.json", gotPath)
	require.Equal(t, "Bearer token-1", gotAuth)
	require.Len(t, logs, 1)
	require.Equal(t, int64(991), logs[0].LogID)
	require.Equal(t, 72.5, logs[0].Weight)
}

func TestSleepLogsPassesWindowParams(t *testing.T) {
	var gotQuery string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sleep": []map[string]interface{}{{"logId": 55, "duration": 28800000}},
		})
	}))
	defer server.Close()

	before := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)
	logs, err := client.SleepLogs(context.Background(), "token-1", before, 100)
	require.NoError(t, err)
	require.Contains(t, gotQuery, "beforeDate=2026-08-30")
	require.Contains(t, gotQuery, "limit=100")
	require.Len(t, logs, 1)
}

func TestDailySeriesDecodesKeyedResponse(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/1/user/-/activities/steps/date/today/1y.json", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"activities-steps": []map[string]string{
				{"dateTime": "2026-08-28", "value": "11500"},
				{"dateTime": "2026-08-29", "value": "9820"},
			},
		})
	}))
	defer server.Close()

	points, err := client.DailySeries(context.Background(), "token-1", "steps")
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, SeriesPoint{DateTime: "2026-08-29", Value: "9820"}, points[1])
}

func TestDailySeriesAbsentKeyIsEmpty(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	points, err := client.DailySeries(context.Background(), "token-1", "distance")
	require.NoError(t, err)
	require.Empty(t, points)
}

func TestIntradaySeriesDecodesBothBlocks(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/1/user/-/activities/steps/date/today/1d.json", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"activities-steps": []map[string]string{{"dateTime": "2026-08-29", "value": "900"}},
			"activities-steps-intraday": map[string]interface{}{
				"dataset":         []map[string]interface{}{{"time": "08:00:00", "value": 12}},
				"datasetInterval": 1,
				"datasetType":     "minute",
			},
		})
	}))
	defer server.Close()

	resp, err := client.IntradaySeries(context.Background(), "token-1", "steps")
	require.NoError(t, err)
	require.Len(t, resp.Day, 1)
	require.Len(t, resp.Intraday.Dataset, 1)
	require.Equal(t, "minute", resp.Intraday.DatasetType)
}

func TestIntradayHeartSeriesUsesSecondDetail(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/1/user/-/activities/heart/date/today/1d/1sec.json", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"activities-heart": []map[string]interface{}{
				{"dateTime": "2026-08-29", "value": map[string]interface{}{
					"heartRateZones": []map[string]interface{}{
						{"name": "Cardio", "min": 127, "max": 154, "minutes": 9, "caloriesOut": 88},
					},
				}},
			},
			"activities-heart-intraday": map[string]interface{}{
				"dataset":         []map[string]interface{}{{"time": "00:00:05", "value": 62}},
				"datasetInterval": 1,
				"datasetType":     "second",
			},
		})
	}))
	defer server.Close()

	resp, err := client.IntradayHeartSeries(context.Background(), "token-1")
	require.NoError(t, err)
	require.Len(t, resp.Day, 1)
	require.Equal(t, "Cardio", resp.Day[0].Value.HeartRateZones[0].Name)
	require.Len(t, resp.Intraday.Dataset, 1)
}

func TestClassifyPrefersProviderErrorType(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"errorType":"expired_token","message":"Access token expired"}]}`))
	}))
	defer server.Close()

	_, err := client.Devices(context.Background(), "token-1")
	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.ProviderErrorExpiredToken, perr.Type)
	require.Equal(t, "Access token expired", perr.Message)
	require.Equal(t, 1011, perr.Code())
}

func TestClassifyRateLimitFromStatus(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := client.ActivityLogs(context.Background(), "token-1", time.Now(), 100)
	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.ProviderErrorRateLimited, perr.Type)
	require.True(t, perr.Transient())
}

func TestClassifyBareUnauthorized(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`nonsense`))
	}))
	defer server.Close()

	_, err := client.Devices(context.Background(), "token-1")
	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.ProviderErrorInvalidToken, perr.Type)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.Devices(context.Background(), "token-1")
	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.ProviderErrorUnavailable, perr.Type)
	require.True(t, perr.Transient())
}

func TestRefreshSendsBasicAuthForm(t *testing.T) {
	var gotGrant, gotRefresh string
	var gotUser, gotPass string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotGrant = r.PostForm.Get("grant_type")
		gotRefresh = r.PostForm.Get("refresh_token")
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "fresh",
			"refresh_token": "fresh-refresh",
			"scope":         "ract rsle",
			"token_type":    "Bearer",
			"expires_in":    28800,
			"user_id":       "ABC123",
		})
	}))
	defer server.Close()

	pair, err := client.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	require.Equal(t, "refresh_token", gotGrant)
	require.Equal(t, "old-refresh", gotRefresh)
	require.Equal(t, "client-id", gotUser)
	require.Equal(t, "client-secret", gotPass)
	require.Equal(t, "fresh", pair.AccessToken)
	require.Equal(t, "fresh-refresh", pair.RefreshToken)
}

func TestRefreshIncompletePairIsInvalidGrant(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"fresh"}`))
	}))
	defer server.Close()

	_, err := client.Refresh(context.Background(), "old-refresh")
	perr, ok := domain.AsProviderError(err)
	require.True(t, ok)
	require.Equal(t, domain.ProviderErrorInvalidGrant, perr.Type)
}

func TestRevokePostsToken(t *testing.T) {
	var gotToken string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/revoke", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotToken = r.PostForm.Get("token")
	}))
	defer server.Close()

	require.NoError(t, client.Revoke(context.Background(), "token-1"))
	require.Equal(t, "token-1", gotToken)
}
