package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/humanda/askfin/internal/models"
)

// Metric labels carried on analysis records.
const (
	LabelAverageReturn = "average_return_pct"
	LabelVolatility    = "volatility_pct"
	LabelNetBuy        = "net_buy_value"
	LabelTargetUpside  = "target_upside_pct"
	LabelClose         = "close"
	LabelIndicator     = "indicator_value"
)

// windowReturn computes the open-to-close return across one window. A
// window with fewer than two trading days does not qualify.
func windowReturn(series *models.PriceSeries, w models.EventWindow) (float64, bool) {
	bars := series.Slice(w.Start, w.End)
	if len(bars) < 2 {
		return 0, false
	}
	open := bars[0].Open
	if open <= 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close/open - 1, true
}

// topPerformers ranks instruments by their mean return across the event
// windows, in percent. Instruments with no qualifying window are dropped.
func topPerformers(fetched []fetchedSeries, windows []models.EventWindow, ascending bool) []models.AnalysisRecord {
	records := make([]models.AnalysisRecord, 0, len(fetched))
	for _, f := range fetched {
		var sum float64
		var count int
		for _, w := range windows {
			if r, ok := windowReturn(f.series, w); ok {
				sum += r
				count++
			}
		}
		if count == 0 {
			continue
		}
		records = append(records, models.AnalysisRecord{
			Code:  f.ref.Code,
			Name:  f.ref.Name,
			Value: round2(sum / float64(count) * 100),
			Label: LabelAverageReturn,
			Aux:   map[string]float64{"windows": float64(count)},
		})
	}
	sortRecords(records, ascending)
	return records
}

// volatility ranks instruments by the standard deviation of their daily
// close-to-close percentage change over [start, end], in percent.
func volatility(fetched []fetchedSeries, period models.ResolvedPeriod) []models.AnalysisRecord {
	records := make([]models.AnalysisRecord, 0, len(fetched))
	for _, f := range fetched {
		bars := f.series.Slice(period.Start, period.End)
		if len(bars) < 3 {
			continue
		}

		changes := make([]float64, 0, len(bars)-1)
		for i := 1; i < len(bars); i++ {
			prev := bars[i-1].Close
			if prev <= 0 {
				continue
			}
			changes = append(changes, bars[i].Close/prev-1)
		}
		if len(changes) < 2 {
			continue
		}

		records = append(records, models.AnalysisRecord{
			Code:  f.ref.Code,
			Name:  f.ref.Name,
			Value: round2(stddev(changes) * 100),
			Label: LabelVolatility,
			Aux:   map[string]float64{"days": float64(len(changes))},
		})
	}
	sortRecords(records, false)
	return records
}

func stddev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// sortRecords orders by value with code as a deterministic tie-break.
func sortRecords(records []models.AnalysisRecord, ascending bool) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Value != records[j].Value {
			if ascending {
				return records[i].Value < records[j].Value
			}
			return records[i].Value > records[j].Value
		}
		return records[i].Code < records[j].Code
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// fellWords flip the ranking when the intent asks for decliners.
var fellWords = []string{"내린", "하락", "떨어진", "fell", "dropped", "declined"}

func wantsAscending(action string) bool {
	action = strings.ToLower(action)
	for _, w := range fellWords {
		if strings.Contains(action, w) {
			return true
		}
	}
	return false
}
