// Package krx provides a client for the KRX market data API
package krx

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

const (
	DefaultBaseURL   = "https://data.krx.co.kr/comm/bldAttendant"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 5 // requests per second

	// KRX screen identifiers. The data portal routes every query through
	// one endpoint; the bld parameter selects the report.
	bldDailyPrice  = "dbms/MDC/STAT/standard/MDCSTAT01701"
	bldListing     = "dbms/MDC/STAT/standard/MDCSTAT03901"
	bldInvestorNet = "dbms/MDC/STAT/standard/MDCSTAT02401"
)

// Market segment identifiers accepted by GetInvestorNetBuy.
const (
	MarketKOSPI  = "KOSPI"
	MarketKOSDAQ = "KOSDAQ"
)

// Client implements SeriesProvider, ListingClient and NetBuyClient against
// the KRX data portal
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

// NewClient creates a new KRX client
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
func (c *Client) Name() string { return "krx" }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("KRX API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// postForm performs a rate-limited form POST against the data portal.
// KRX accepts only form-encoded POST bodies on this endpoint.
func (c *Client) postForm(ctx context.Context, bld string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("bld", bld)

	reqURL := c.baseURL + "/getJsonData.cmd"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug().Str("bld", bld).Msg("KRX API request")

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
			Endpoint:   bld,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// krxNumber parses KRX's comma-formatted numeric strings. "-" means no data.
func krxNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// dailyPriceResponse wraps the daily price report rows
type dailyPriceResponse struct {
	OutBlock []struct {
		TradeDate string `json:"TRD_DD"` // "2024/01/02"
		Open      string `json:"TDD_OPNPRC"`
		High      string `json:"TDD_HGPRC"`
		Low       string `json:"TDD_LWPRC"`
		Close     string `json:"TDD_CLSPRC"`
		Volume    string `json:"ACC_TRDVOL"`
	} `json:"OutBlock_1"`
}

// FetchSeries retrieves the daily OHLCV series for a code within [start, end]
func (c *Client) FetchSeries(ctx context.Context, code string, start, end time.Time) (*models.PriceSeries, error) {
	params := url.Values{}
	params.Set("isuCd", code)
	params.Set("strtDd", start.Format("20060102"))
	params.Set("endDd", end.Format("20060102"))

	var resp dailyPriceResponse
	if err := c.postForm(ctx, bldDailyPrice, params, &resp); err != nil {
		return nil, err
	}

	series := &models.PriceSeries{
		Code:      code,
		FetchedAt: time.Now(),
		Source:    c.Name(),
	}

	for _, row := range resp.OutBlock {
		date, err := time.Parse("2006/01/02", row.TradeDate)
		if err != nil {
			continue
		}
		series.Bars = append(series.Bars, models.PriceBar{
			Date:   date,
			Open:   krxNumber(row.Open),
			High:   krxNumber(row.High),
			Low:    krxNumber(row.Low),
			Close:  krxNumber(row.Close),
			Volume: int64(krxNumber(row.Volume)),
		})
	}

	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})

	return series, nil
}

// listingResponse wraps the sector classification report rows
type listingResponse struct {
	OutBlock []struct {
		Code      string `json:"ISU_SRT_CD"` // 6-digit short code
		Name      string `json:"ISU_ABBRV"`
		Market    string `json:"MKT_TP_NM"` // "KOSPI" / "KOSDAQ"
		Sector    string `json:"IDX_IND_NM"`
		MarketCap string `json:"MKTCAP"`
	} `json:"OutBlock_1"`
}

// GetListing retrieves the full listing snapshot with sector and market cap.
// Rows without a code are dropped.
func (c *Client) GetListing(ctx context.Context) ([]models.InstrumentRef, error) {
	params := url.Values{}
	params.Set("mktId", "ALL")

	var resp listingResponse
	if err := c.postForm(ctx, bldListing, params, &resp); err != nil {
		return nil, err
	}

	listing := make([]models.InstrumentRef, 0, len(resp.OutBlock))
	for _, row := range resp.OutBlock {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			continue
		}
		listing = append(listing, models.InstrumentRef{
			Code:      code,
			Name:      strings.TrimSpace(row.Name),
			Market:    strings.TrimSpace(row.Market),
			Sector:    strings.TrimSpace(row.Sector),
			MarketCap: krxNumber(row.MarketCap),
		})
	}

	c.logger.Info().Int("instruments", len(listing)).Msg("KRX listing snapshot fetched")

	return listing, nil
}

// netBuyResponse wraps the investor trading value report rows
type netBuyResponse struct {
	OutBlock []struct {
		Code   string `json:"ISU_SRT_CD"`
		Name   string `json:"ISU_ABBRV"`
		NetBuy string `json:"NETBID_TRDVAL"` // institutional net buying value, KRW
	} `json:"OutBlock_1"`
}

// GetInvestorNetBuy retrieves per-instrument institutional net-buy value for
// one market segment over [start, end]
func (c *Client) GetInvestorNetBuy(ctx context.Context, market string, start, end time.Time) ([]models.NetBuyRow, error) {
	mktID := "STK"
	if strings.EqualFold(market, MarketKOSDAQ) {
		mktID = "KSQ"
	}

	params := url.Values{}
	params.Set("mktId", mktID)
	params.Set("invstTpCd", "7050") // institutions aggregate
	params.Set("strtDd", start.Format("20060102"))
	params.Set("endDd", end.Format("20060102"))

	var resp netBuyResponse
	if err := c.postForm(ctx, bldInvestorNet, params, &resp); err != nil {
		return nil, err
	}

	rows := make([]models.NetBuyRow, 0, len(resp.OutBlock))
	for _, row := range resp.OutBlock {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			continue
		}
		rows = append(rows, models.NetBuyRow{
			Code:  code,
			Name:  strings.TrimSpace(row.Name),
			Value: krxNumber(row.NetBuy),
		})
	}

	return rows, nil
}

// Ensure Client implements the provider contracts
var (
	_ interfaces.SeriesProvider = (*Client)(nil)
	_ interfaces.ListingClient  = (*Client)(nil)
	_ interfaces.NetBuyClient   = (*Client)(nil)
)
