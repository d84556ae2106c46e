// Package okx talks to the OKX public market-data API: REST for
// historical candle backfill and websocket for the live ticker stream.
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"turtlebot/market"
)

const (
	DefaultRESTBase = "https://www.okx.com"
	DefaultWSURL    = "wss://ws.okx.com:8443/ws/v5/public"

	// PageLimit is the OKX per-page candle cap.
	PageLimit = 300

	// pageThrottle spaces backfill requests to stay under rate limits.
	pageThrottle = 200 * time.Millisecond
)

// CandleStore receives fetched bars. Writes must be idempotent: pages
// overlap on refresh and the same bar may arrive more than once.
type CandleStore interface {
	SaveCandles([]market.Candle) error
}

// Client fetches candles from the OKX REST API.
type Client struct {
	BaseURL string
	Bar     string // candle granularity, e.g. "1m"
	HTTP    *http.Client
	Log     *log.Logger
}

// NewClient returns a client for baseURL (DefaultRESTBase when empty)
// fetching bars of the given granularity.
func NewClient(baseURL, bar string) *Client {
	if baseURL == "" {
		baseURL = DefaultRESTBase
	}
	if bar == "" {
		bar = "1m"
	}
	return &Client{
		BaseURL: baseURL,
		Bar:     bar,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// CandlesPage fetches up to limit bars for symbol, in ascending time
// order. A non-zero before cursor (millisecond timestamp) requests bars
// older than that instant.
func (c *Client) CandlesPage(ctx context.Context, symbol string, limit int, before int64) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("instId", symbol)
	q.Set("bar", c.Bar)
	q.Set("limit", strconv.Itoa(limit))
	if before > 0 {
		q.Set("before", strconv.FormatInt(before, 10))
	}

	reqURL := c.BaseURL + "/api/v5/market/candles?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch candles %s: unexpected status %s", symbol, resp.Status)
	}

	var body candlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode candles %s: %w", symbol, err)
	}
	if body.Code != "0" {
		return nil, fmt.Errorf("candles %s: api error %s: %s", symbol, body.Code, body.Msg)
	}

	return parseCandleRows(symbol, body.Data), nil
}

// Backfill pages backwards through history until target bars have been
// stored or the exchange runs out of data. Fetched pages are written
// through store as they arrive, so a cancelled backfill keeps what it
// already collected.
func (c *Client) Backfill(ctx context.Context, symbol string, target int, store CandleStore) (int, error) {
	var (
		total  int
		before int64
	)

	for total < target {
		page, err := c.CandlesPage(ctx, symbol, PageLimit, before)
		if err != nil {
			return total, err
		}
		if len(page) == 0 {
			break
		}

		if err := store.SaveCandles(page); err != nil {
			return total, fmt.Errorf("store backfill page: %w", err)
		}
		total += len(page)

		// Oldest bar of this page becomes the next cursor.
		before = page[0].Time.UnixMilli()

		if c.Log != nil {
			c.Log.Printf("backfill %s: page of %d, %d total", symbol, len(page), total)
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(pageThrottle):
		}
	}

	return total, nil
}

// RefreshRecent refetches the latest page of bars. Overlap with already
// stored history is harmless because candle writes are upserts.
func (c *Client) RefreshRecent(ctx context.Context, symbol string, store CandleStore) (int, error) {
	page, err := c.CandlesPage(ctx, symbol, PageLimit, 0)
	if err != nil {
		return 0, err
	}
	if len(page) == 0 {
		return 0, nil
	}
	if err := store.SaveCandles(page); err != nil {
		return 0, fmt.Errorf("store recent page: %w", err)
	}
	return len(page), nil
}
