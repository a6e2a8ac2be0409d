// Package interfaces defines contracts between AskFin components
package interfaces

import (
	"context"
	"time"

	"github.com/humanda/askfin/internal/models"
)

// SeriesProvider fetches a daily OHLCV series for one instrument.
// Implementations enforce their own rate limits and timeouts; callers treat
// any error (including timeouts) as a failed fetch.
type SeriesProvider interface {
	// Name identifies the provider in logs ("naver", "krx").
	Name() string
	FetchSeries(ctx context.Context, code string, start, end time.Time) (*models.PriceSeries, error)
}

// ListingClient provides the full market listing snapshot.
type ListingClient interface {
	GetListing(ctx context.Context) ([]models.InstrumentRef, error)
}

// NetBuyClient provides institutional net-buy sums for one market segment
// over a date range.
type NetBuyClient interface {
	GetInvestorNetBuy(ctx context.Context, market string, start, end time.Time) ([]models.NetBuyRow, error)
}

// ConsensusClient provides the analyst consensus target-price table.
type ConsensusClient interface {
	GetConsensusTargets(ctx context.Context) ([]models.ConsensusRow, error)
}

// IndicatorClient provides monthly macro indicator time series.
type IndicatorClient interface {
	GetMonthlySeries(ctx context.Context, statsCode, itemCode string, start, end time.Time) ([]models.IndicatorPoint, error)
}
