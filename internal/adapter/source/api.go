package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// APIFetcher reads the message list from the JSON messages endpoint.
type APIFetcher struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	retry      RetryPolicy
	logger     ports.Logger
}

var _ ports.Fetcher = (*APIFetcher)(nil)

// NewAPIFetcher creates a fetcher for endpoint authenticated with apiKey.
func NewAPIFetcher(endpoint, apiKey string, timeout time.Duration, retry RetryPolicy, logger ports.Logger) *APIFetcher {
	return &APIFetcher{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
		logger:     logger,
	}
}

// Fetch returns every message currently stored at the source.
func (f *APIFetcher) Fetch(ctx context.Context) (model.Snapshot, error) {
	target, err := withAPIKey(f.endpoint, f.apiKey)
	if err != nil {
		return model.Snapshot{}, err
	}
	f.logger.Info(ctx, "fetching messages from api", "endpoint", f.endpoint, "api_key", redact(f.apiKey))

	snapshot, err := retry(ctx, f.retry, f.logger, "api", func(ctx context.Context) (model.Snapshot, error) {
		return f.fetchOnce(ctx, target)
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	f.logger.Info(ctx, "fetched messages", "count", snapshot.Count)
	return snapshot, nil
}

func (f *APIFetcher) fetchOnce(ctx context.Context, target string) (model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	setBrowserHeaders(req)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return model.Snapshot{}, transient(fmt.Errorf("perform request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return model.Snapshot{}, transient(fmt.Errorf("read response: %w", err))
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return model.Snapshot{}, err
	}
	if isChallenge(string(body)) {
		return model.Snapshot{}, transient(model.ErrChallengeDetected)
	}
	return parseEnvelope(body)
}

// classifyStatus maps a non-200 status to a permanent or transient error.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if isChallenge(string(body)) {
			return transient(model.ErrChallengeDetected)
		}
		return fmt.Errorf("%w: status %d", model.ErrUnauthorized, status)
	case status == http.StatusTooManyRequests || status >= 500:
		return transient(fmt.Errorf("unexpected status %d: %s", status, snippet(body)))
	default:
		return fmt.Errorf("unexpected status %d: %s", status, snippet(body))
	}
}

func withAPIKey(endpoint, apiKey string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("api url must be absolute")
	}
	q := u.Query()
	q.Set("api_key", apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

func redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
