// Cargomap - Shipping Container Tracking and Route Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargomap

package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cargomap/internal/metrics"
	"github.com/tomtom215/cargomap/internal/models"
)

// maxErrorBodySize caps how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// APIKeyHeader carries Config.APIKey when one is configured.
const APIKeyHeader = "X-API-Key"

const (
	opFetchAll      = "fetch_all"
	opFetchByNumber = "fetch_by_number"
)

// ErrContainerNotFound is returned by FetchByNumber on HTTP 404.
var ErrContainerNotFound = errors.New("container not found upstream")

// StatusError is a non-200 upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RateLimit is requests per second; zero disables pacing.
	RateLimit float64
	RateBurst int

	// MaxRetries bounds HTTP 429 retries: zero means 3, negative disables.
	MaxRetries     int
	RetryBaseDelay time.Duration

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client calls the tracking API. It is safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		client:         httpClient,
		limiter:        limiter,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// FetchAll returns every container the upstream tracks.
func (c *Client) FetchAll(ctx context.Context) ([]models.ContainerRecord, error) {
	var records []models.ContainerRecord
	if err := c.getJSON(ctx, opFetchAll, c.baseURL+"/DataEntity", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchByNumber returns one container by its number.
func (c *Client) FetchByNumber(ctx context.Context, number string) (*models.ContainerRecord, error) {
	if strings.TrimSpace(number) == "" {
		return nil, errors.New("container number is required")
	}

	reqURL := c.baseURL + "/DataEntity/ContainerNumber/" + url.PathEscape(number)
	var record models.ContainerRecord
	err := c.getJSON(ctx, opFetchByNumber, reqURL, &record)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, number)
		}
		return nil, err
	}
	return &record, nil
}

func (c *Client) getJSON(ctx context.Context, op, reqURL string, out interface{}) error {
	start := time.Now()

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		metrics.RecordUpstreamRequest(op, "error", time.Since(start))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamRequest(op, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(readBodyForError(resp.Body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// doRequest issues a GET, retrying HTTP 429 with exponential backoff.
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set(APIKeyHeader, c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}
		_ = resp.Body.Close()

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// readBodyForError reads at most maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
