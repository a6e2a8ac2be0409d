// Package naver provides a client for the Naver Finance API
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
)

// flexPrice handles price values that arrive as numbers or as
// comma-formatted strings ("71,200").
type flexPrice float64

func (f *flexPrice) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexPrice(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" || s == "-" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexPrice(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://api.finance.naver.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 10 // requests per second

	// pricePageSize is the maximum rows the daily price endpoint returns
	// per page.
	pricePageSize = 100
)

// Client implements SeriesProvider and ConsensusClient against Naver Finance
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Naver Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies this provider in logs
func (c *Client) Name() string { return "naver" }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("naver API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("naver API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// priceRowResponse represents one row of the daily price endpoint
type priceRowResponse struct {
	LocalTradedAt            string    `json:"localTradedAt"` // "2024-01-02"
	OpenPrice                flexPrice `json:"openPrice"`
	HighPrice                flexPrice `json:"highPrice"`
	LowPrice                 flexPrice `json:"lowPrice"`
	ClosePrice               flexPrice `json:"closePrice"`
	AccumulatedTradingVolume flexPrice `json:"accumulatedTradingVolume"`
}

// FetchSeries retrieves the daily OHLCV series for a code within [start, end].
// The endpoint pages newest-first; paging stops once rows fall before start.
func (c *Client) FetchSeries(ctx context.Context, code string, start, end time.Time) (*models.PriceSeries, error) {
	series := &models.PriceSeries{
		Code:      code,
		FetchedAt: time.Now(),
		Source:    c.Name(),
	}

	path := fmt.Sprintf("/api/stock/%s/price", code)

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("pageSize", strconv.Itoa(pricePageSize))
		params.Set("page", strconv.Itoa(page))

		var rows []priceRowResponse
		if err := c.get(ctx, path, params, &rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			break
		}

		done := false
		for _, row := range rows {
			date, err := time.Parse("2006-01-02", row.LocalTradedAt)
			if err != nil {
				continue
			}
			if date.Before(start) {
				done = true
				break
			}
			if date.After(end) {
				continue
			}
			series.Bars = append(series.Bars, models.PriceBar{
				Date:   date,
				Open:   float64(row.OpenPrice),
				High:   float64(row.HighPrice),
				Low:    float64(row.LowPrice),
				Close:  float64(row.ClosePrice),
				Volume: int64(row.AccumulatedTradingVolume),
			})
		}
		if done || len(rows) < pricePageSize {
			break
		}
	}

	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})

	return series, nil
}

// consensusRowResponse represents one row of the consensus table
type consensusRowResponse struct {
	StockName    string    `json:"stockName"`
	CurrentPrice flexPrice `json:"currentPrice"`
	TargetPrice  flexPrice `json:"targetPrice"`
}

// GetConsensusTargets retrieves the analyst consensus target-price table.
// Rows without a target price are dropped.
func (c *Client) GetConsensusTargets(ctx context.Context) ([]models.ConsensusRow, error) {
	var rows []consensusRowResponse
	if err := c.get(ctx, "/api/research/consensus", nil, &rows); err != nil {
		return nil, err
	}

	result := make([]models.ConsensusRow, 0, len(rows))
	for _, row := range rows {
		if row.TargetPrice <= 0 || row.CurrentPrice <= 0 {
			continue
		}
		result = append(result, models.ConsensusRow{
			Name:         strings.TrimSpace(row.StockName),
			CurrentPrice: float64(row.CurrentPrice),
			TargetPrice:  float64(row.TargetPrice),
		})
	}

	c.logger.Debug().Int("rows", len(result)).Msg("naver consensus table fetched")

	return result, nil
}

// Ensure Client implements the provider contracts
var (
	_ interfaces.SeriesProvider  = (*Client)(nil)
	_ interfaces.ConsensusClient = (*Client)(nil)
)
