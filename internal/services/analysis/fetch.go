package analysis

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/humanda/askfin/internal/models"
)

// fetchedSeries pairs an instrument with its price series for phase B.
type fetchedSeries struct {
	ref    models.InstrumentRef
	series *models.PriceSeries
}

// selectByMarketCap returns the top-n instruments by market cap, descending.
// Ties and missing caps sort by code for determinism.
func selectByMarketCap(instruments []models.InstrumentRef, n int) []models.InstrumentRef {
	selected := make([]models.InstrumentRef, len(instruments))
	copy(selected, instruments)

	sort.Slice(selected, func(i, j int) bool {
		if selected[i].MarketCap != selected[j].MarketCap {
			return selected[i].MarketCap > selected[j].MarketCap
		}
		return selected[i].Code < selected[j].Code
	})

	if n > 0 && len(selected) > n {
		selected = selected[:n]
	}
	return selected
}

// fetchUniverse fetches series for every instrument with bounded
// concurrency. Instruments whose fetch fails or whose series has fewer than
// two rows are dropped; a partial universe is a valid analysis input.
func (s *Service) fetchUniverse(ctx context.Context, instruments []models.InstrumentRef, start, end time.Time) []fetchedSeries {
	results := make([]*fetchedSeries, len(instruments))

	sem := make(chan struct{}, s.config.FetchConcurrency)
	var wg sync.WaitGroup

	for i, ref := range instruments {
		wg.Add(1)
		go func(i int, ref models.InstrumentRef) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			series, err := s.source.FetchSeries(ctx, ref.Code, start, end)
			if err != nil {
				s.logger.Debug().Str("code", ref.Code).Err(err).Msg("Series fetch failed, instrument dropped")
				return
			}
			if series.Len() < 2 {
				s.logger.Debug().Str("code", ref.Code).Int("bars", series.Len()).Msg("Series too short, instrument dropped")
				return
			}
			results[i] = &fetchedSeries{ref: ref, series: series}
		}(i, ref)
	}

	wg.Wait()

	// Compact in input order so downstream ranking is deterministic.
	fetched := make([]fetchedSeries, 0, len(results))
	for _, r := range results {
		if r != nil {
			fetched = append(fetched, *r)
		}
	}

	s.logger.Debug().
		Int("requested", len(instruments)).
		Int("fetched", len(fetched)).
		Msg("Universe series fetched")

	return fetched
}
