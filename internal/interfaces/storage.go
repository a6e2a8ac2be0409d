package interfaces

import "github.com/humanda/askfin/internal/models"

// SeriesStorage persists fetched price series between requests. Get returns
// (nil, nil) when no entry exists; freshness is the caller's concern.
type SeriesStorage interface {
	GetSeries(code string) (*models.PriceSeries, error)
	SaveSeries(series *models.PriceSeries) error
}
