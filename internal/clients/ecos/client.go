// Package ecos provides a client for the Bank of Korea ECOS statistics API
package ecos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
)

const (
	DefaultBaseURL   = "https://ecos.bok.or.kr/api"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second

	// maxRows bounds one StatisticSearch page. Monthly series over any
	// realistic analysis period fit in a single page.
	maxRows = 1000
)

// ErrNoAPIKey indicates the ECOS credential was not configured. Callers
// surface this as a collaborator-unavailable condition, not a crash.
var ErrNoAPIKey = errors.New("ECOS API key not configured")

// Client implements IndicatorClient against the ECOS StatisticSearch API
type Client struct {
	baseURL    string
	apiKey     string
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

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new ECOS client. An empty apiKey is allowed at
// construction; requests will fail with ErrNoAPIKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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

// APIError represents an API error
type APIError struct {
	Code     string
	Message  string
	Endpoint string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ECOS API error: %s (code: %s, endpoint: %s)", e.Message, e.Code, e.Endpoint)
}

// statisticSearchResponse wraps the StatisticSearch rows. Error responses
// come back under a RESULT key instead.
type statisticSearchResponse struct {
	StatisticSearch struct {
		Row []struct {
			Time      string `json:"TIME"` // "202401"
			DataValue string `json:"DATA_VALUE"`
		} `json:"row"`
	} `json:"StatisticSearch"`
	Result struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
}

// GetMonthlySeries retrieves a monthly indicator series for [start, end].
// Points are returned sorted ascending, one per month, unparseable rows
// dropped.
func (c *Client) GetMonthlySeries(ctx context.Context, statsCode, itemCode string, start, end time.Time) ([]models.IndicatorPoint, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrNoAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// Path layout is fixed by ECOS:
	// /StatisticSearch/{key}/json/kr/{from}/{to}/{stats}/MM/{start}/{end}/{item}
	path := fmt.Sprintf("/StatisticSearch/%s/json/kr/1/%d/%s/MM/%s/%s/%s",
		c.apiKey, maxRows, statsCode, start.Format("200601"), end.Format("200601"), itemCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("stats_code", statsCode).Str("item_code", itemCode).Msg("ECOS API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			Code:     strconv.Itoa(resp.StatusCode),
			Message:  string(body),
			Endpoint: "StatisticSearch",
		}
	}

	var decoded statisticSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if decoded.Result.Code != "" {
		return nil, &APIError{
			Code:     decoded.Result.Code,
			Message:  decoded.Result.Message,
			Endpoint: "StatisticSearch",
		}
	}

	points := make([]models.IndicatorPoint, 0, len(decoded.StatisticSearch.Row))
	for _, row := range decoded.StatisticSearch.Row {
		t, err := time.Parse("200601", row.Time)
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row.DataValue), 64)
		if err != nil {
			continue
		}
		points = append(points, models.IndicatorPoint{Time: t, Value: v})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	return points, nil
}

// Ensure Client implements IndicatorClient
var _ interfaces.IndicatorClient = (*Client)(nil)
