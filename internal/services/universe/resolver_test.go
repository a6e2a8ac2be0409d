package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humanda/askfin/internal/models"
	"github.com/humanda/askfin/internal/registry"
)

func testRegistry() *registry.Registry {
	instruments := []models.InstrumentRef{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI", Sector: "전기전자", MarketCap: 400e12},
		{Code: "000660", Name: "SK하이닉스", Market: "KOSPI", Sector: "전기전자", MarketCap: 120e12},
		{Code: "005380", Name: "현대차", Market: "KOSPI", Sector: "운수장비", MarketCap: 50e12},
		{Code: "068270", Name: "셀트리온", Market: "KOSPI", Sector: "의약품", MarketCap: 40e12},
		{Code: "028300", Name: "에이치엘비", Market: "KOSDAQ", Sector: "의약품", MarketCap: 5e12},
		{Code: "005935", Name: "삼성전자우", Market: "KOSPI", Sector: "전기전자", MarketCap: 60e12},
	}
	themes := map[string][]models.InstrumentRef{
		"반도체":  {instruments[0], instruments[1]},
		"2차전지": {instruments[2]},
	}
	return registry.NewFromSnapshot(instruments, themes)
}

func TestResolveGenericTargets(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	for _, target := range []string{"", "주식", "종목", "전체", "급등주", "stocks", "all"} {
		res := r.Resolve(target)
		assert.Equal(t, MarketLabel, res.Label, target)
		assert.Len(t, res.Instruments, 6, target)
	}
}

func TestResolveThemeExact(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	res := r.Resolve("반도체")
	assert.Equal(t, "반도체", res.Label)
	require.Len(t, res.Instruments, 2)
}

func TestResolveThemeStripsDecorations(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	for _, target := range []string{"반도체 관련주", "반도체 테마주", "반도체주"} {
		res := r.Resolve(target)
		assert.Equal(t, "반도체", res.Label, target)
		assert.Len(t, res.Instruments, 2, target)
	}
}

func TestResolveThemeFuzzyBoundary(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	// One edit in a four-rune key: similarity 0.75, below the threshold.
	res := r.Resolve("2차전진")
	assert.NotEqual(t, "2차전지", res.Label)

	// "2차전지주" cleans to an exact key.
	res = r.Resolve("2차전지주")
	assert.Equal(t, "2차전지", res.Label)
}

func TestResolveSectorSubstring(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	res := r.Resolve("의약품")
	assert.Equal(t, "의약품", res.Label)
	assert.Len(t, res.Instruments, 2)
}

func TestResolveNameSubstring(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	res := r.Resolve("셀트리온")
	require.Len(t, res.Instruments, 1)
	assert.Equal(t, "068270", res.Instruments[0].Code)
}

func TestResolveNothingMatches(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	res := r.Resolve("없는회사")
	assert.True(t, res.Empty())
	assert.Equal(t, "없는회사", res.Label)
	assert.Empty(t, res.Ambiguous)
}

func TestResolveOneExact(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	res := r.ResolveOne("현대차")
	require.Len(t, res.Instruments, 1)
	assert.Equal(t, "005380", res.Instruments[0].Code)
	assert.Empty(t, res.Ambiguous)
}

func TestResolveOneAmbiguous(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	// "삼성전자" matches exactly even though "삼성전자우" contains it.
	res := r.ResolveOne("삼성전자")
	require.Len(t, res.Instruments, 1)
	assert.Equal(t, "005930", res.Instruments[0].Code)

	// A pure substring with several hits must not guess.
	res = r.ResolveOne("삼성")
	assert.Empty(t, res.Instruments)
	assert.Len(t, res.Ambiguous, 2)
}

func TestResolveOneIdempotent(t *testing.T) {
	r := NewResolver(testRegistry(), nil)

	first := r.ResolveOne("셀트리온")
	second := r.ResolveOne("셀트리온")
	assert.Equal(t, first, second)
}
