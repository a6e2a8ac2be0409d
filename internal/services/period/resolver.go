// Package period resolves natural-language period expressions into concrete
// date ranges and condition-derived event windows.
package period

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/humanda/askfin/internal/clients/ecos"
	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
)

// DefaultTrailingDays is the fallback window when an expression is empty or
// unrecognized. Resolution never fails; it degrades to this.
const DefaultTrailingDays = 365

// Resolver implements interfaces.PeriodResolver
type Resolver struct {
	indicator interfaces.IndicatorClient
	logger    *common.Logger
	now       func() time.Time
}

// ResolverOption configures the resolver
type ResolverOption func(*Resolver)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a period resolver. The indicator client may be nil
// when indicator-gated windows are not needed.
func NewResolver(indicator interfaces.IndicatorClient, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		indicator: indicator,
		logger:    common.NewSilentLogger(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

var (
	reQuarter    = regexp.MustCompile(`(?:\bq([1-4])\b|([1-4])\s*분기)`)
	reAgoEnglish = regexp.MustCompile(`(\d+)\s*(day|month|year)s?\s*ago`)
	reAgoKoreanA = regexp.MustCompile(`지난\s*(\d+)\s*(일|개월|달|년)간?`)
	reAgoKoreanB = regexp.MustCompile(`(\d+)\s*(일|개월|달|년)\s*전`)
	reAgoKoreanC = regexp.MustCompile(`(\d+)\s*(일|개월|달|년)간`)
)

// Resolve turns an expression into a concrete [start, end] range. It is a
// pure function of the expression and the clock; unrecognized input falls
// back to the trailing default rather than erroring.
func (r *Resolver) Resolve(expr string) models.ResolvedPeriod {
	now := r.now()
	expr = strings.ToLower(strings.TrimSpace(expr))

	switch expr {
	case "":
		return trailing(now, DefaultTrailingDays)
	case "today", "오늘":
		return models.ResolvedPeriod{Start: startOfDay(now), End: now}
	case "yesterday", "어제":
		day := startOfDay(now).AddDate(0, 0, -1)
		return models.ResolvedPeriod{Start: day, End: endOfDay(day)}
	case "this week", "이번 주", "이번주":
		return models.ResolvedPeriod{Start: startOfWeek(now), End: now}
	case "last month", "지난달", "지난 달":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return models.ResolvedPeriod{Start: first, End: endOfDay(first.AddDate(0, 1, -1))}
	case "last year", "작년":
		start := time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, now.Location())
		return models.ResolvedPeriod{Start: start, End: endOfDay(time.Date(now.Year()-1, 12, 31, 0, 0, 0, 0, now.Location()))}
	case "this year", "올해":
		return models.ResolvedPeriod{Start: time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), End: now}
	}

	if m := reQuarter.FindStringSubmatch(expr); m != nil {
		q := m[1]
		if q == "" {
			q = m[2]
		}
		n, _ := strconv.Atoi(q)
		year := now.Year()
		if strings.Contains(expr, "작년") || strings.Contains(expr, "last year") {
			year--
		}
		start := time.Date(year, time.Month(3*n-2), 1, 0, 0, 0, 0, now.Location())
		end := endOfDay(start.AddDate(0, 3, -1))
		return models.ResolvedPeriod{Start: start, End: end}
	}

	if n, unit, ok := matchRelative(expr); ok {
		var start time.Time
		switch unit {
		case "year":
			start = now.AddDate(-n, 0, 0)
		case "month":
			start = now.AddDate(0, -n, 0)
		default:
			start = now.AddDate(0, 0, -n)
		}
		return models.ResolvedPeriod{Start: start, End: now}
	}

	r.logger.Debug().Str("expr", expr).Msg("Unrecognized period expression, using trailing default")
	return trailing(now, DefaultTrailingDays)
}

// matchRelative extracts "N units ago" in its English and Korean spellings.
// The bare "N년간" form carries no 지난 prefix.
func matchRelative(expr string) (int, string, bool) {
	if m := reAgoEnglish.FindStringSubmatch(expr); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, m[2], true
	}
	for _, re := range []*regexp.Regexp{reAgoKoreanA, reAgoKoreanB, reAgoKoreanC} {
		if m := re.FindStringSubmatch(expr); m != nil {
			n, _ := strconv.Atoi(m[1])
			switch m[2] {
			case "년":
				return n, "year", true
			case "개월", "달":
				return n, "month", true
			default:
				return n, "day", true
			}
		}
	}
	return 0, "", false
}

// SeasonWindows derives one window per season occurrence inside [start, end].
// Summer is Jun 1 through Aug 31; winter is Dec 1 through the end of the
// following February, spanning the year boundary. Windows are clamped to the
// period, deduplicated and sorted ascending.
func (r *Resolver) SeasonWindows(start, end time.Time, season string) []models.EventWindow {
	var windows []models.EventWindow

	switch normalizeSeason(season) {
	case "summer":
		for y := start.Year(); y <= end.Year(); y++ {
			windows = appendClamped(windows, start, end,
				time.Date(y, 6, 1, 0, 0, 0, 0, start.Location()),
				endOfDay(time.Date(y, 8, 31, 0, 0, 0, 0, start.Location())))
		}
	case "winter":
		// December of year y pairs with Jan/Feb of year y+1, so the first
		// candidate winter begins the year before the period starts.
		for y := start.Year() - 1; y <= end.Year(); y++ {
			dec := time.Date(y, 12, 1, 0, 0, 0, 0, start.Location())
			febEnd := endOfDay(time.Date(y+1, 3, 1, 0, 0, 0, 0, start.Location()).AddDate(0, 0, -1))
			windows = appendClamped(windows, start, end, dec, febEnd)
		}
	default:
		return nil
	}

	sort.Slice(windows, func(i, j int) bool {
		return windows[i].Start.Before(windows[j].Start)
	})
	return dedupe(windows)
}

func normalizeSeason(season string) string {
	switch strings.ToLower(strings.TrimSpace(season)) {
	case "summer", "여름":
		return "summer"
	case "winter", "겨울":
		return "winter"
	}
	return ""
}

// IndicatorWindows selects the months inside [start, end] where the named
// indicator satisfies the condition; each qualifying month becomes one
// window. A missing credential or client failure propagates as an error.
func (r *Resolver) IndicatorWindows(ctx context.Context, cond *models.Condition, start, end time.Time) ([]models.EventWindow, error) {
	spec, ok := ecos.FindIndicator(cond.Name)
	if !ok {
		r.logger.Warn().Str("indicator", cond.Name).Msg("Unknown indicator, no windows derived")
		return nil, nil
	}
	if r.indicator == nil {
		return nil, fmt.Errorf("indicator client not configured")
	}

	points, err := r.indicator.GetMonthlySeries(ctx, spec.StatsCode, spec.ItemCode, start, end)
	if err != nil {
		return nil, fmt.Errorf("indicator series fetch: %w", err)
	}

	var windows []models.EventWindow
	for _, p := range points {
		if !satisfies(p.Value, cond.Operator, cond.Value) {
			continue
		}
		monthStart := time.Date(p.Time.Year(), p.Time.Month(), 1, 0, 0, 0, 0, start.Location())
		monthEnd := endOfDay(monthStart.AddDate(0, 1, -1))
		windows = appendClamped(windows, start, end, monthStart, monthEnd)
	}

	return windows, nil
}

func satisfies(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	case "<=":
		return value <= threshold
	case "=", "==":
		return value == threshold
	}
	return false
}

// appendClamped clamps [ws, we] to [start, end] and appends it when
// non-empty.
func appendClamped(windows []models.EventWindow, start, end, ws, we time.Time) []models.EventWindow {
	if ws.Before(start) {
		ws = start
	}
	if we.After(end) {
		we = end
	}
	if !ws.Before(we) {
		return windows
	}
	return append(windows, models.EventWindow{Start: ws, End: we})
}

func dedupe(windows []models.EventWindow) []models.EventWindow {
	out := windows[:0]
	for _, w := range windows {
		if len(out) > 0 && out[len(out)-1].Start.Equal(w.Start) && out[len(out)-1].End.Equal(w.End) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func trailing(now time.Time, days int) models.ResolvedPeriod {
	return models.ResolvedPeriod{Start: now.AddDate(0, 0, -days), End: now}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Ensure Resolver implements PeriodResolver
var _ interfaces.PeriodResolver = (*Resolver)(nil)
