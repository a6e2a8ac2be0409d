package period

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanda/askfin/internal/models"
)

// fixedNow is a Wednesday.
var fixedNow = time.Date(2026, 9, 2, 15, 0, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return NewResolver(nil, WithClock(func() time.Time { return fixedNow }))
}

func TestResolveDefaultTrailingYear(t *testing.T) {
	r := newTestResolver()

	for _, expr := range []string{"", "gibberish", "최근"} {
		p := r.Resolve(expr)
		assert.Equal(t, fixedNow.AddDate(0, 0, -365), p.Start, expr)
		assert.Equal(t, fixedNow, p.End, expr)
	}
}

func TestResolveSingleDay(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("today")
	assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, fixedNow, p.End)

	p = r.Resolve("어제")
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 9, 1, 23, 59, 59, 0, time.UTC), p.End)
}

func TestResolveThisWeek(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("this week")
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), p.Start) // Monday
	assert.Equal(t, fixedNow, p.End)
}

func TestResolveLastMonth(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("지난달")
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC), p.End)
}

func TestResolveQuarter(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("q2")
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC), p.End)

	p = r.Resolve("작년 1분기")
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC), p.End)
}

func TestResolveQuarterRequiresStandaloneToken(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("q4earnings")
	assert.Equal(t, fixedNow.AddDate(0, 0, -365), p.Start)
	assert.Equal(t, fixedNow, p.End)
}

func TestResolveRelativeKoreanAndEnglishAgree(t *testing.T) {
	r := newTestResolver()

	pairs := [][2]string{
		{"지난 3년간", "3 years ago"},
		{"지난 6개월", "6 months ago"},
		{"30일 전", "30 days ago"},
		{"2년 전", "2 years ago"},
	}
	for _, pair := range pairs {
		korean := r.Resolve(pair[0])
		english := r.Resolve(pair[1])
		assert.Equal(t, english.Start, korean.Start, pair[0])
		assert.Equal(t, english.End, korean.End, pair[0])
	}

	p := r.Resolve("지난 3년간")
	assert.Equal(t, fixedNow.AddDate(-3, 0, 0), p.Start)
}

func TestResolveBareKoreanDurations(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("3년간")
	assert.Equal(t, fixedNow.AddDate(-3, 0, 0), p.Start)
	assert.Equal(t, fixedNow, p.End)

	p = r.Resolve("6개월간")
	assert.Equal(t, fixedNow.AddDate(0, -6, 0), p.Start)

	p = r.Resolve("10일간")
	assert.Equal(t, fixedNow.AddDate(0, 0, -10), p.Start)
}

func TestResolveCalendarMonthsNotApproximated(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("지난 6개월")
	assert.Equal(t, fixedNow.AddDate(0, -6, 0), p.Start)
}

func TestResolveYears(t *testing.T) {
	r := newTestResolver()

	p := r.Resolve("작년")
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), p.End)

	p = r.Resolve("올해")
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, fixedNow, p.End)
}

func TestSeasonWindowsSummer(t *testing.T) {
	r := newTestResolver()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	windows := r.SeasonWindows(start, end, "여름")
	require.Len(t, windows, 3)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), windows[0].Start)
	assert.Equal(t, time.Date(2023, 8, 31, 23, 59, 59, 0, time.UTC), windows[0].End)
	assert.Equal(t, 2025, windows[2].Start.Year())
}

func TestSeasonWindowsWinterSpansYearBoundary(t *testing.T) {
	r := newTestResolver()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	windows := r.SeasonWindows(start, end, "winter")
	require.Len(t, windows, 2)

	// The winter already in progress at the period start is clamped.
	assert.Equal(t, start, windows[0].Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), windows[0].End) // leap year

	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), windows[1].Start)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 0, time.UTC), windows[1].End)
}

func TestSeasonWindowsInvariants(t *testing.T) {
	r := newTestResolver()
	start := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	for _, season := range []string{"summer", "winter"} {
		windows := r.SeasonWindows(start, end, season)
		require.NotEmpty(t, windows, season)
		for i, w := range windows {
			assert.False(t, w.Start.Before(start), season)
			assert.False(t, w.End.After(end), season)
			assert.True(t, w.Start.Before(w.End), season)
			if i > 0 {
				assert.True(t, windows[i-1].End.Before(w.Start), "windows must not overlap")
			}
		}
	}
}

func TestSeasonWindowsUnknownSeason(t *testing.T) {
	r := newTestResolver()
	assert.Nil(t, r.SeasonWindows(fixedNow.AddDate(-1, 0, 0), fixedNow, "봄"))
}

type mockIndicatorClient struct {
	points []models.IndicatorPoint
	err    error
}

func (m *mockIndicatorClient) GetMonthlySeries(ctx context.Context, statsCode, itemCode string, start, end time.Time) ([]models.IndicatorPoint, error) {
	return m.points, m.err
}

func TestIndicatorWindowsSelectsQualifyingMonths(t *testing.T) {
	client := &mockIndicatorClient{points: []models.IndicatorPoint{
		{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 2.9},
		{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: 3.6},
		{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Value: 3.1},
	}}
	r := NewResolver(client, WithClock(func() time.Time { return fixedNow }))

	cond := &models.Condition{Type: models.ConditionIndicator, Name: "CPI", Operator: ">", Value: 3.0}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	windows, err := r.IndicatorWindows(context.Background(), cond, start, end)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), windows[0].Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), windows[0].End)
	assert.Equal(t, time.Month(3), windows[1].Start.Month())
}

func TestIndicatorWindowsClientError(t *testing.T) {
	client := &mockIndicatorClient{err: errors.New("no credential")}
	r := NewResolver(client, WithClock(func() time.Time { return fixedNow }))

	cond := &models.Condition{Type: models.ConditionIndicator, Name: "기준금리", Operator: ">=", Value: 3.0}
	_, err := r.IndicatorWindows(context.Background(), cond, fixedNow.AddDate(-1, 0, 0), fixedNow)
	require.Error(t, err)
}

func TestIndicatorWindowsUnknownIndicator(t *testing.T) {
	r := newTestResolver()

	cond := &models.Condition{Type: models.ConditionIndicator, Name: "수출증가율", Operator: ">", Value: 1}
	windows, err := r.IndicatorWindows(context.Background(), cond, fixedNow.AddDate(-1, 0, 0), fixedNow)
	require.NoError(t, err)
	assert.Nil(t, windows)
}
