package dse

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"dse-sniper-go/internal/config"
	"dse-sniper-go/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const quoteDateLayout = "2006-01-02"

// QuoteClientInterface defines the interface for the market-data client.
type QuoteClientInterface interface {
	GetMarketStatus() (*MarketStatus, error)
	GetDailyQuotes() ([]Quote, error)
}

// MarketStatus is the exchange status response, used as a connectivity probe.
type MarketStatus struct {
	Status     string `json:"status"` // "OPEN" or "CLOSED"
	ServerTime int64  `json:"server_time"`
}

// Quote is one daily OHLCV row as delivered by the data source. It is
// validated at this boundary; the engine assumes validated input.
type Quote struct {
	Ticker string  `json:"ticker" validate:"required"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Open   float64 `json:"open" validate:"gte=0"`
	High   float64 `json:"high" validate:"gte=0"`
	Low    float64 `json:"low" validate:"gte=0"`
	Close  float64 `json:"close" validate:"gt=0"`
	Volume int64   `json:"volume" validate:"gte=0"`
}

// RestClient is a rate-limited client for the DSE quote API.
// It implements QuoteClientInterface.
type RestClient struct {
	client   *resty.Client
	logger   *zap.Logger
	limiter  *rate.Limiter
	validate *validator.Validate
}

// ensure RestClient implements the interface
var _ QuoteClientInterface = (*RestClient)(nil)

// NewRestClient creates a new DSE quote API client.
func NewRestClient(cfg *config.DSE, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// The source tolerates very little traffic; keep requests well
	// under its threshold.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:   client,
		logger:   logger,
		limiter:  limiter,
		validate: validator.New(),
	}
}

// doRequest handles request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetMarketStatus fetches the exchange status. This is a good endpoint
// to test connectivity on startup.
func (c *RestClient) GetMarketStatus() (*MarketStatus, error) {
	req := c.client.R().
		SetResult(&MarketStatus{}).
		SetHeader("Content-Type", "application/json")

	resp, err := c.doRequest(context.Background(), "GET", "/api/market-status", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get market status: %w", err)
	}

	return resp.Result().(*MarketStatus), nil
}

// GetDailyQuotes fetches the latest daily OHLCV row for every listed
// ticker. Rows that fail boundary validation are dropped with a warning
// rather than failing the whole batch.
func (c *RestClient) GetDailyQuotes() ([]Quote, error) {
	var quotes []Quote

	req := c.client.R().
		SetResult(&quotes).
		SetHeader("Content-Type", "application/json")

	resp, err := c.doRequest(context.Background(), "GET", "/api/latest-quotes", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily quotes: %w", err)
	}

	result := *resp.Result().(*[]Quote)
	valid := make([]Quote, 0, len(result))
	for _, q := range result {
		if err := c.validate.Struct(q); err != nil {
			c.logger.Warn("Dropping malformed quote",
				zap.String("ticker", q.Ticker),
				zap.String("date", q.Date),
				zap.Error(err))
			continue
		}
		valid = append(valid, q)
	}

	return valid, nil
}

// ToBars converts validated quotes into bar models. isFinal marks the
// rows as closed end-of-day candles; intraday snapshots carry false so
// downstream volume math can project them.
func ToBars(quotes []Quote, isFinal bool, loc *time.Location) ([]models.Bar, error) {
	if loc == nil {
		loc = time.UTC
	}
	bars := make([]models.Bar, 0, len(quotes))
	for _, q := range quotes {
		date, err := time.ParseInLocation(quoteDateLayout, q.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("bad quote date %q for %s: %w", q.Date, q.Ticker, err)
		}
		bars = append(bars, models.Bar{
			Ticker:  q.Ticker,
			Date:    date,
			Open:    q.Open,
			High:    q.High,
			Low:     q.Low,
			Close:   q.Close,
			Volume:  q.Volume,
			IsFinal: isFinal,
		})
	}
	return bars, nil
}
