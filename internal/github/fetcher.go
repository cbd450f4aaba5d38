package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"activity-archive/internal/models"
)

// Fetcher retrieves a user's public activity events from the GitHub API.
// It performs no caching or persistence; its only side effect is the
// network call itself.
type Fetcher struct {
	baseURL    string
	token      string
	retry      RetryConfig
	logger     *slog.Logger
	httpClient *http.Client
}

type FetcherOptions struct {
	BaseURL        string
	Token          string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	Retry          RetryConfig

	// HTTPClient overrides the default client when set (tests).
	HTTPClient *http.Client
}

func NewFetcher(logger *slog.Logger, opts FetcherOptions) *Fetcher {
	if opts.Retry.MaxRetries == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = DefaultRetryConfig()
	}
	client := opts.HTTPClient
	if client == nil {
		client = NewAPIClient(opts.ConnectTimeout, opts.RequestTimeout)
	}
	return &Fetcher{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		token:      opts.Token,
		retry:      opts.Retry,
		logger:     logger,
		httpClient: client,
	}
}

// Fetch returns the user's public events, newest first (source order).
// Server-side (5xx) failures are retried with exponential backoff; not-found
// and other client errors fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, username string) ([]models.Event, error) {
	endpoint := fmt.Sprintf("%s/users/%s/events/public", f.baseURL, url.PathEscape(username))

	var lastErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.retry.Backoff(attempt - 1)
			f.logger.Warn("fetch_retry", "username", username, "attempt", attempt, "delay", delay.String())
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		events, err := f.doFetch(ctx, endpoint, username)
		if err == nil {
			f.logger.Debug("events_fetched", "username", username, "count", len(events))
			return events, nil
		}

		var upstream *UpstreamError
		if errors.As(err, &upstream) && upstream.Transient() {
			lastErr = err
			continue
		}
		return nil, err
	}

	f.logger.Error("fetch_retries_exhausted", "username", username, "error", lastErr)
	return nil, lastErr
}

func (f *Fetcher) doFetch(ctx context.Context, endpoint, username string) ([]models.Event, error) {
	resp, err := f.do(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Username: username}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var events []models.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}
	return events, nil
}

// Validate reports whether the username exists upstream. Any failure,
// not-found or otherwise, collapses to false; this lossy contract is
// relied on by callers that only want a yes/no answer.
func (f *Fetcher) Validate(ctx context.Context, username string) bool {
	endpoint := fmt.Sprintf("%s/users/%s", f.baseURL, url.PathEscape(username))

	resp, err := f.do(ctx, endpoint)
	if err != nil {
		f.logger.Debug("validate_request_failed", "username", username, "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (f *Fetcher) do(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	return f.httpClient.Do(req)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
