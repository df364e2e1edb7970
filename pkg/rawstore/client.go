// Package rawstore writes canonical daily price records to the raw-prices
// store, a PostgREST-style endpoint with conflict-target upserts.
package rawstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	pricesPath = "/rest/v1/raw_prices"

	// conflictTarget names the unique constraint columns; the store merges
	// duplicates instead of inserting a second row for the same key.
	conflictTarget = "symbol,date"

	defaultHTTPTimeout = 10 * time.Second

	// maxErrorBody bounds how much of an error response ends up in logs and
	// error messages.
	maxErrorBody = 512
)

// PriceRecord is one normalized daily price observation, keyed by
// (symbol, date). Volume is never null: unavailable volume is stored as 0.
type PriceRecord struct {
	Symbol   string  `json:"symbol"`
	Date     string  `json:"date"` // ISO calendar date, YYYY-MM-DD
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
}

// Client talks to the raw store's REST surface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger injects a custom logger (defaults to log.Default()).
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient constructs a raw store client. Missing URL or key is a
// configuration error: callers must fail the whole run, not skip writes.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("rawstore: missing store URL or API key")
	}
	client := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// UpsertPrices sends the whole batch in one request, targeting the
// (symbol, date) uniqueness constraint with merge-duplicates resolution.
// An empty batch is a no-op.
//
// A 409 whose body reports that the row "already exists" is success: a
// concurrent re-run landed the same key first and the stored value is the
// same data. Any other non-2xx response is an error.
func (c *Client) UpsertPrices(ctx context.Context, records []PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("rawstore: encode records: %w", err)
	}

	endpoint := c.baseURL + pricesPath + "?on_conflict=" + conflictTarget
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("rawstore: build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rawstore: upsert request: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("rawstore: read response: %w", readErr)
	}

	c.logf("rawstore: upsert %d records, status %d", len(records), resp.StatusCode)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	// TODO: switch to the store's structured conflict code once it exposes
	// one; the substring match mirrors the current API contract.
	if resp.StatusCode == http.StatusConflict && strings.Contains(string(body), "already exists") {
		c.logf("rawstore: 409 conflict reports existing row, treating as success")
		return nil
	}
	return fmt.Errorf("rawstore: http status %d: %s", resp.StatusCode, truncate(string(body), maxErrorBody))
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
