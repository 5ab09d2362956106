package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"StockSeq/internal/domain/errs"
	"StockSeq/internal/domain/models"
	domrepo "StockSeq/internal/domain/repository"
	domsvc "StockSeq/internal/domain/service"
	xhttp "StockSeq/pkg/http"
	applogger "StockSeq/pkg/logger"
)

const (
	maxRetryAfter = 2 * time.Minute
	maxBodyBytes  = 32 << 20
)

// Config holds provider connection settings.
type Config struct {
	BaseURL     string
	APIKey      string
	AuthHeader  string
	UserAgent   string
	Endpoints   map[string]string // dataset kind -> path
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration // timeouts
	BackoffLong time.Duration // server throttling (429)
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSleeper replaces time.Sleep for backoff waits.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.l = l }
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client fetches provider datasets under the daily quota and keeps the raw responses.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	ledger  domsvc.QuotaLedger
	raw     domrepo.RawStore
	metrics domrepo.Metrics
	l       *applogger.Logger
	sleep   func(time.Duration)
}

// New validates cfg and builds a Client.
func New(cfg Config, ledger domsvc.QuotaLedger, raw domrepo.RawStore, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.New(errs.KindConfiguration, "", "provider credential is empty")
	}
	if cfg.BaseURL == "" {
		return nil, errs.New(errs.KindConfiguration, "", "provider base url is empty")
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = "X-Api-Key"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:     cfg,
		ledger:  ledger,
		raw:     raw,
		metrics: domrepo.NopMetrics{},
		l:       applogger.Nop(),
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithUserAgent(cfg.UserAgent),
			xhttp.WithMaxBodyBytes(maxBodyBytes),
		)
	}
	return c, nil
}

// FetchParams selects the dataset and its query.
type FetchParams struct {
	Kind  string
	Query map[string]string
}

// FetchHistorical downloads daily bars covering the last days days.
func (c *Client) FetchHistorical(ctx context.Context, symbol string, days int) (models.RawObservationSet, error) {
	return c.Fetch(ctx, symbol, FetchParams{
		Kind: models.KindHistorical,
		Query: map[string]string{
			"symbol": symbol,
			"period": strconv.Itoa(days) + "d",
		},
	})
}

func (c *Client) FetchQuote(ctx context.Context, symbol string) (models.RawObservationSet, error) {
	return c.Fetch(ctx, symbol, FetchParams{Kind: models.KindQuote, Query: map[string]string{"symbol": symbol}})
}

func (c *Client) FetchCompany(ctx context.Context, symbol string) (models.RawObservationSet, error) {
	return c.Fetch(ctx, symbol, FetchParams{Kind: models.KindCompany, Query: map[string]string{"symbol": symbol}})
}

// Fetch performs one quota-gated request with retries and persists the body.
// The ledger is charged once, only for the request that completed.
func (c *Client) Fetch(ctx context.Context, symbol string, p FetchParams) (models.RawObservationSet, error) {
	var out models.RawObservationSet

	path, ok := c.cfg.Endpoints[p.Kind]
	if !ok {
		return out, errs.Newf(errs.KindConfiguration, symbol, "no endpoint configured for %q", p.Kind)
	}

	today := c.ledger.Today()
	allowed, err := c.ledger.Check(ctx, today)
	if err != nil {
		return out, err
	}
	if !allowed {
		c.metrics.RecordFetch(symbol, "rate_limited")
		return out, errs.Newf(errs.KindRateLimited, symbol, "daily request quota reached for %s", today)
	}

	opts := &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.cfg.BaseURL + path,
		Headers:     map[string]string{c.cfg.AuthHeader: c.cfg.APIKey, "Accept": "application/json"},
		QueryParams: toQuery(p.Query),
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.http.SendAndRead(ctx, opts)
		c.metrics.RecordLatency("fetch_"+p.Kind, time.Since(start).Seconds())

		switch {
		case err != nil && ctx.Err() != nil:
			// the caller's deadline or cancellation, not the provider's
			c.metrics.RecordFetch(symbol, "cancelled")
			return out, errs.Wrap(errs.KindNetwork, symbol, err, "request abandoned")

		case err != nil && isTimeout(err):
			c.metrics.RecordFetch(symbol, "timeout")
			lastErr = errs.Wrap(errs.KindNetwork, symbol, err, "request timed out")
			c.l.Warn("provider request timed out",
				applogger.Symbol(symbol),
				applogger.Int("attempt", attempt+1),
				applogger.Int("max_attempts", c.cfg.MaxAttempts),
			)
			c.backoff(c.cfg.BackoffBase, attempt, 0)
			continue

		case err != nil:
			c.metrics.RecordFetch(symbol, "network_error")
			return out, errs.Wrap(errs.KindNetwork, symbol, err, "request failed")

		case resp.StatusCode == http.StatusTooManyRequests:
			c.metrics.RecordFetch(symbol, "throttled")
			lastErr = errs.New(errs.KindServer, symbol, "provider throttled the request").WithStatus(resp.StatusCode)
			hint, _ := resp.RetryAfter(time.Now())
			c.l.Warn("provider throttled request, backing off",
				applogger.Symbol(symbol),
				applogger.Int("attempt", attempt+1),
				applogger.Duration("retry_after_ms", hint),
			)
			c.backoff(c.cfg.BackoffLong, attempt, hint)
			continue

		case !resp.OK():
			c.metrics.RecordFetch(symbol, "server_error")
			return out, errs.Newf(errs.KindServer, symbol, "provider returned %d", resp.StatusCode).WithStatus(resp.StatusCode)
		}

		return c.accept(ctx, symbol, p.Kind, today, resp.Body)
	}

	c.l.Error("provider request failed after retries",
		applogger.Symbol(symbol),
		applogger.Int("attempts", c.cfg.MaxAttempts),
		applogger.Error(lastErr),
	)
	return out, lastErr
}

// accept charges the quota, checks the body and persists it.
func (c *Client) accept(ctx context.Context, symbol, kind, today string, body []byte) (models.RawObservationSet, error) {
	var out models.RawObservationSet

	if _, err := c.ledger.Record(ctx, today); err != nil {
		return out, err
	}
	if !json.Valid(body) {
		c.metrics.RecordFetch(symbol, "invalid_body")
		return out, errs.New(errs.KindServer, symbol, "provider returned a non-JSON body")
	}

	out = models.RawObservationSet{
		Symbol:    symbol,
		Kind:      kind,
		FetchedAt: time.Now().UTC(),
		Body:      json.RawMessage(body),
	}
	if c.raw != nil {
		if err := c.raw.Save(ctx, out); err != nil {
			return out, fmt.Errorf("persist raw %s: %w", symbol, err)
		}
	}
	c.metrics.RecordFetch(symbol, "ok")
	c.l.Info("provider request ok",
		applogger.Symbol(symbol),
		applogger.String("kind", kind),
		applogger.Int("bytes", len(body)),
	)
	return out, nil
}

// backoff sleeps base*2^attempt, or the server's Retry-After hint when that
// is longer (capped at maxRetryAfter), unless this was the last attempt.
func (c *Client) backoff(base time.Duration, attempt int, hint time.Duration) {
	if attempt >= c.cfg.MaxAttempts-1 {
		return
	}
	d := base << uint(attempt)
	if hint > d {
		d = min(hint, maxRetryAfter)
	}
	if d > 0 {
		c.sleep(d)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func toQuery(q map[string]string) map[string][]string {
	out := make(map[string][]string, len(q))
	for k, v := range q {
		out[k] = []string{v}
	}
	return out
}

var _ domsvc.MarketDataFetcher = (*Client)(nil)
