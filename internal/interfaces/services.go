package interfaces

import (
	"context"
	"time"

	"github.com/humanda/askfin/internal/models"
)

// AnalysisService runs a structured intent and returns one page of results.
type AnalysisService interface {
	Analyze(ctx context.Context, intent *models.Intent, page int) *models.AnalysisResult
}

// PeriodResolver turns a period expression into a concrete date range and,
// when a condition applies, a set of event windows inside it.
type PeriodResolver interface {
	Resolve(expr string) models.ResolvedPeriod
	SeasonWindows(start, end time.Time, season string) []models.EventWindow
	IndicatorWindows(ctx context.Context, cond *models.Condition, start, end time.Time) ([]models.EventWindow, error)
}

// UniverseResolver maps a target expression to a set of instruments.
type UniverseResolver interface {
	Resolve(target string) models.UniverseResolution
	ResolveOne(target string) models.UniverseResolution
}

// DataSource fetches a price series through the configured provider chain.
type DataSource interface {
	FetchSeries(ctx context.Context, code string, start, end time.Time) (*models.PriceSeries, error)
}
