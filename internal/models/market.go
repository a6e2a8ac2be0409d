package models

import "time"

// PriceBar represents a single day's price data.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is a daily OHLCV series sorted ascending by date.
type PriceSeries struct {
	Code      string     `json:"code"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
	Source    string     `json:"source,omitempty"`
}

// Len returns the number of bars in the series.
func (s *PriceSeries) Len() int { return len(s.Bars) }

// Slice returns the bars falling within [start, end] inclusive.
// The series is already sorted ascending, so this is a linear scan with
// early exit; no network access is ever involved.
func (s *PriceSeries) Slice(start, end time.Time) []PriceBar {
	var out []PriceBar
	for _, b := range s.Bars {
		if b.Date.Before(start) {
			continue
		}
		if b.Date.After(end) {
			break
		}
		out = append(out, b)
	}
	return out
}

// InstrumentRef identifies a listed instrument from the listing snapshot.
type InstrumentRef struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Market    string  `json:"market"` // "KOSPI" or "KOSDAQ"
	Sector    string  `json:"sector,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
}

// UniverseResolution is the outcome of resolving a target expression.
// Ambiguous is populated when automatic selection would be unsafe; callers
// must surface a disambiguation step rather than silently picking one.
type UniverseResolution struct {
	Instruments []InstrumentRef `json:"instruments"`
	Label       string          `json:"label"`
	Ambiguous   []InstrumentRef `json:"ambiguous,omitempty"`
}

// Empty reports whether the resolution produced no instruments.
func (u *UniverseResolution) Empty() bool { return len(u.Instruments) == 0 }

// NetBuyRow holds one instrument's summed institutional net-buy value.
type NetBuyRow struct {
	Code  string  `json:"code"`
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value"` // KRW, positive = net buying
}

// ConsensusRow is one row of the third-party analyst consensus table.
// The table is keyed by display name; the canonical code is joined against
// the listing snapshot afterwards.
type ConsensusRow struct {
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	TargetPrice  float64 `json:"target_price"`
}

// IndicatorPoint is one observation of a macro indicator time series.
type IndicatorPoint struct {
	Time  time.Time `json:"time"` // month granularity: first day of month
	Value float64   `json:"value"`
}
