// Package fitbit implements the authenticated HTTP client for the provider API.
package fitbit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/fitbitsync/internal/domain"
)

const dateLayout = "2006-01-02"

// Config carries connection parameters for the provider API.
type Config struct {
	APIBaseURL   string
	TokenURL     string
	RevokeURL    string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Client performs authenticated fetches against the provider API and
// classifies failures into the typed provider error taxonomy.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient constructs a Client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// WeightLogs fetches the one-month window of body measurements ending at end.
func (c *Client) WeightLogs(ctx context.Context, token string, end time.Time) ([]WeightLog, error) {
	path := fmt.Sprintf("/1/user/-/body/log/weight/date/%s/1m.json", end.UTC().Format(dateLayout))
	var resp weightLogsResponse
	if err := c.getJSON(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Weight, nil
}

// SleepLogs fetches up to limit sleep sessions ending before the given date.
func (c *Client) SleepLogs(ctx context.Context, token string, before time.Time, limit int) ([]SleepLog, error) {
	path := fmt.Sprintf("/1.2/user/-/sleep/list.json?beforeDate=%s&sort=desc&offset=0&limit=%d",
		before.UTC().Format(dateLayout), limit)
	var resp sleepLogsResponse
	if err := c.getJSON(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Sleep, nil
}

// ActivityLogs fetches up to limit logged activities ending before the given date.
func (c *Client) ActivityLogs(ctx context.Context, token string, before time.Time, limit int) ([]ActivityLog, error) {
	path := fmt.Sprintf("/1/user/-/activities/list.json?beforeDate=%s&sort=desc&offset=0&limit=%d",
		before.UTC().Format(dateLayout), limit)
	var resp activityLogsResponse
	if err := c.getJSON(ctx, path, token, &resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

// DailySeries fetches a trailing one-year daily series for the resource
// (steps, distance, calories, minutesFairlyActive, minutesVeryActive).
func (c *Client) DailySeries(ctx context.Context, token, resource string) ([]SeriesPoint, error) {
	path := fmt.Sprintf("/1/user/-/activities/%s/date/today/1y.json", resource)
	raw, err := c.getKeyed(ctx, path, token)
	if err != nil {
		return nil, err
	}
	var points []SeriesPoint
	if err := decodeKey(raw, "activities-"+resource, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// DailyHeartSeries fetches the trailing one-year daily heart-rate series.
func (c *Client) DailyHeartSeries(ctx context.Context, token string) ([]HeartSeriesPoint, error) {
	raw, err := c.getKeyed(ctx, "/1/user/-/activities/heart/date/today/1y.json", token)
	if err != nil {
		return nil, err
	}
	var points []HeartSeriesPoint
	if err := decodeKey(raw, "activities-heart", &points); err != nil {
		return nil, err
	}
	return points, nil
}

// IntradaySeries fetches today's single-day series with its intraday block.
func (c *Client) IntradaySeries(ctx context.Context, token, resource string) (*IntradayResponse, error) {
	path := fmt.Sprintf("/1/user/-/activities/%s/date/today/1d.json", resource)
	raw, err := c.getKeyed(ctx, path, token)
	if err != nil {
		return nil, err
	}
	out := &IntradayResponse{}
	if err := decodeKey(raw, "activities-"+resource, &out.Day); err != nil {
		return nil, err
	}
	if err := decodeKey(raw, "activities-"+resource+"-intraday", &out.Intraday); err != nil {
		return nil, err
	}
	return out, nil
}

// IntradayHeartSeries fetches today's heart-rate series at one-second detail.
func (c *Client) IntradayHeartSeries(ctx context.Context, token string) (*HeartIntradayResponse, error) {
	raw, err := c.getKeyed(ctx, "/1/user/-/activities/heart/date/today/1d/1sec.json", token)
	if err != nil {
		return nil, err
	}
	out := &HeartIntradayResponse{}
	if err := decodeKey(raw, "activities-heart", &out.Day); err != nil {
		return nil, err
	}
	if err := decodeKey(raw, "activities-heart-intraday", &out.Intraday); err != nil {
		return nil, err
	}
	return out, nil
}

// Devices fetches the wearables registered to the account.
func (c *Client) Devices(ctx context.Context, token string) ([]Device, error) {
	body, err := c.get(ctx, "/1/user/-/devices.json", token)
	if err != nil {
		return nil, err
	}
	var devices []Device
	if err := json.Unmarshal(body, &devices); err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: fmt.Sprintf("malformed devices payload: %v", err)}
	}
	return devices, nil
}

// Refresh exchanges the refresh token for a new token pair. The exchange is
// atomic on the provider side: it either yields a full pair or fails.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	body, err := c.postForm(ctx, c.cfg.TokenURL, form)
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: fmt.Sprintf("malformed token response: %v", err)}
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorInvalidGrant, Message: "token response missing token pair"}
	}
	return &pair, nil
}

// Revoke invalidates the access token with the provider.
func (c *Client) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{}
	form.Set("token", accessToken)
	_, err := c.postForm(ctx, c.cfg.RevokeURL, form)
	return err
}

func (c *Client) get(ctx context.Context, path, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBaseURL+path, nil)
	if err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorUnavailable, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, out interface{}) error {
	body, err := c.get(ctx, path, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: fmt.Sprintf("malformed payload for %s: %v", path, err)}
	}
	return nil
}

// getKeyed decodes responses whose top-level keys embed the resource name.
func (c *Client) getKeyed(ctx context.Context, path, token string) (map[string]json.RawMessage, error) {
	body, err := c.get(ctx, path, token)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: fmt.Sprintf("malformed payload for %s: %v", path, err)}
	}
	return raw, nil
}

func decodeKey(raw map[string]json.RawMessage, key string, out interface{}) error {
	payload, ok := raw[key]
	if !ok {
		// Absent key means an empty series, not an error.
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: fmt.Sprintf("malformed series %s: %v", key, err)}
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: err.Error()}
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Type: domain.ProviderErrorUnavailable, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classify(resp.StatusCode, body)
	}
	return body, nil
}

// classify maps a non-200 provider response onto a typed error. The
// provider's errorType field wins over the HTTP status when present.
func classify(status int, body []byte) *domain.ProviderError {
	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		first := parsed.Errors[0]
		switch first.ErrorType {
		case "expired_token":
			return &domain.ProviderError{Type: domain.ProviderErrorExpiredToken, Message: first.Message}
		case "invalid_token":
			return &domain.ProviderError{Type: domain.ProviderErrorInvalidToken, Message: first.Message}
		case "invalid_grant":
			return &domain.ProviderError{Type: domain.ProviderErrorInvalidGrant, Message: first.Message}
		case "invalid_client":
			return &domain.ProviderError{Type: domain.ProviderErrorInvalidClient, Message: first.Message}
		case "system":
			return &domain.ProviderError{Type: domain.ProviderErrorRateLimited, Message: first.Message}
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return &domain.ProviderError{Type: domain.ProviderErrorInvalidToken, Message: http.StatusText(status)}
	case status == http.StatusTooManyRequests:
		return &domain.ProviderError{Type: domain.ProviderErrorRateLimited, Message: http.StatusText(status)}
	default:
		return &domain.ProviderError{Type: domain.ProviderErrorInternal, Message: fmt.Sprintf("unexpected status %d", status)}
	}
}
