package models

import "time"

// EventWindow is a sub-range of the overall analysis period, e.g. one
// winter inside a multi-year span or one qualifying indicator month.
type EventWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ResolvedPeriod is a concrete date range resolved from a period
// expression. Windows, when present, are pairwise non-overlapping, sorted
// ascending, and always subsets of [Start, End].
type ResolvedPeriod struct {
	Start   time.Time     `json:"start"`
	End     time.Time     `json:"end"`
	Windows []EventWindow `json:"windows,omitempty"`
}

// EffectiveWindows returns the event windows, or the whole period as a
// single window when no condition narrowed it.
func (p ResolvedPeriod) EffectiveWindows() []EventWindow {
	if len(p.Windows) > 0 {
		return p.Windows
	}
	return []EventWindow{{Start: p.Start, End: p.End}}
}

// AnalysisRecord is one instrument's (or theme's) computed metric.
// Immutable once placed into a result set.
type AnalysisRecord struct {
	Code  string             `json:"code"`
	Name  string             `json:"name"`
	Value float64            `json:"value"`
	Label string             `json:"label"` // metric label, e.g. "average_return_pct"
	Aux   map[string]float64 `json:"aux,omitempty"`
}

// ResultStatus classifies an analysis outcome.
type ResultStatus string

const (
	StatusOK          ResultStatus = "ok"
	StatusEmpty       ResultStatus = "empty"       // nothing matched; not an error
	StatusAmbiguous   ResultStatus = "ambiguous"   // caller must disambiguate
	StatusUnsupported ResultStatus = "unsupported" // unrecognized intent kind/action
	StatusError       ResultStatus = "error"       // collaborator unavailable etc.
)

// Pagination describes the slice of the full result being returned.
type Pagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

// AnalysisResult is the uniform response envelope, stable across cache
// hits and misses. Every failure mode carries a human-readable Message
// rather than a raw error.
type AnalysisResult struct {
	Status      ResultStatus     `json:"status"`
	Subject     string           `json:"subject"`
	Message     string           `json:"message,omitempty"`
	Result      []AnalysisRecord `json:"result"`
	Ambiguous   []InstrumentRef  `json:"ambiguous,omitempty"`
	Pagination  Pagination       `json:"pagination"`
	Fingerprint string           `json:"fingerprint,omitempty"`
}
