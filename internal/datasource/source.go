// Package datasource provides price series access through an ordered
// provider chain with a storage-backed cache in front.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
)

// Chain tries each provider in order until one returns a usable series.
// An error and an empty series are treated the same: fall through to the
// next provider.
type Chain struct {
	providers []interfaces.SeriesProvider
	store     interfaces.SeriesStorage
	logger    *common.Logger
}

// ChainOption configures the chain
type ChainOption func(*Chain)

// WithStore attaches a series cache consulted before the providers
func WithStore(store interfaces.SeriesStorage) ChainOption {
	return func(c *Chain) {
		c.store = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain creates a provider chain. Order matters: the first provider is
// the primary source.
func NewChain(providers []interfaces.SeriesProvider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: providers,
		logger:    common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchSeries returns the daily series for a code covering [start, end].
func (c *Chain) FetchSeries(ctx context.Context, code string, start, end time.Time) (*models.PriceSeries, error) {
	if cached := c.fromStore(code, start); cached != nil {
		return cached, nil
	}

	var errs []error
	for i, provider := range c.providers {
		series, err := provider.FetchSeries(ctx, code, start, end)
		if err != nil {
			c.logger.Warn().
				Str("code", code).
				Str("provider", provider.Name()).
				Err(err).
				Msg("Series fetch failed, trying next provider")
			errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
			continue
		}
		if series.Len() == 0 {
			c.logger.Debug().
				Str("code", code).
				Str("provider", provider.Name()).
				Msg("Provider returned empty series, trying next provider")
			errs = append(errs, fmt.Errorf("%s: empty series", provider.Name()))
			continue
		}

		if i > 0 {
			c.logger.Info().
				Str("code", code).
				Str("provider", provider.Name()).
				Msg("Series served by fallback provider")
		}

		c.toStore(series)
		return series, nil
	}

	return nil, fmt.Errorf("all providers failed for '%s': %w", code, errors.Join(errs...))
}

// fromStore returns a cached series when it is fresh and its history reaches
// back to the requested start. Freshness bounds how stale the tail can be,
// so end coverage is not checked separately.
func (c *Chain) fromStore(code string, start time.Time) *models.PriceSeries {
	if c.store == nil {
		return nil
	}

	cached, err := c.store.GetSeries(code)
	if err != nil {
		c.logger.Warn().Str("code", code).Err(err).Msg("Series cache read failed")
		return nil
	}
	if cached == nil || cached.Len() == 0 {
		return nil
	}
	if !common.IsFresh(cached.FetchedAt, common.FreshnessSeries) {
		return nil
	}
	if cached.Bars[0].Date.After(start) {
		return nil
	}

	c.logger.Debug().Str("code", code).Msg("Series served from cache")
	return cached
}

func (c *Chain) toStore(series *models.PriceSeries) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveSeries(series); err != nil {
		c.logger.Warn().Str("code", series.Code).Err(err).Msg("Series cache write failed")
	}
}

// Ensure Chain implements DataSource
var _ interfaces.DataSource = (*Chain)(nil)
