// Package analysis runs structured query intents against market data:
// universe resolution, concurrent series fetches, metric computation,
// result caching and pagination.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
	"github.com/humanda/askfin/internal/registry"
	"github.com/humanda/askfin/internal/services/universe"
)

// Deps bundles the collaborators of the analysis service.
type Deps struct {
	Registry  *registry.Registry
	Periods   interfaces.PeriodResolver
	Universe  interfaces.UniverseResolver
	Source    interfaces.DataSource
	NetBuy    interfaces.NetBuyClient
	Consensus interfaces.ConsensusClient
	Indicator interfaces.IndicatorClient
}

// Service dispatches intents to executors behind a fingerprint-keyed
// result cache. Implements interfaces.AnalysisService.
type Service struct {
	registry  *registry.Registry
	periods   interfaces.PeriodResolver
	universe  interfaces.UniverseResolver
	source    interfaces.DataSource
	netbuy    interfaces.NetBuyClient
	consensus interfaces.ConsensusClient
	indicator interfaces.IndicatorClient

	config *common.EngineConfig
	logger *common.Logger
	cache  *ResultCache
	now    func() time.Time
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
		s.cache.now = now
	}
}

// NewService creates the analysis service
func NewService(deps Deps, config *common.EngineConfig, logger *common.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	s := &Service{
		registry:  deps.Registry,
		periods:   deps.Periods,
		universe:  deps.Universe,
		source:    deps.Source,
		netbuy:    deps.NetBuy,
		consensus: deps.Consensus,
		indicator: deps.Indicator,
		config:    config,
		logger:    logger,
		cache:     NewResultCache(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Analyze runs an intent and returns one page of the result. Every failure
// mode yields a well-formed envelope; Analyze itself never fails.
func (s *Service) Analyze(ctx context.Context, intent *models.Intent, page int) *models.AnalysisResult {
	if intent == nil {
		return &models.AnalysisResult{
			Status:  models.StatusUnsupported,
			Message: "분석할 수 없는 요청입니다.",
		}
	}

	fingerprint := Fingerprint(intent)

	entry, err := s.cache.ComputeOrFetch(ctx, fingerprint, s.ttlFor(intent), func() (*CacheEntry, error) {
		return s.compute(ctx, intent), nil
	})
	if err != nil {
		// Unreachable in practice: compute never returns an error.
		s.logger.Error().Err(err).Msg("Analysis computation failed")
		return &models.AnalysisResult{
			Status:      models.StatusError,
			Message:     "분석 중 오류가 발생했습니다.",
			Fingerprint: fingerprint,
		}
	}

	records, pagination := Paginate(entry.Records, page, s.config.PageSize)

	return &models.AnalysisResult{
		Status:      entry.Status,
		Subject:     entry.Subject,
		Message:     entry.Message,
		Result:      records,
		Ambiguous:   entry.Ambiguous,
		Pagination:  pagination,
		Fingerprint: fingerprint,
	}
}

// ttlFor picks the cache lifetime by entry class. Closed historical
// computations never expire within the process; anything tied to live data
// does.
func (s *Service) ttlFor(intent *models.Intent) time.Duration {
	switch intent.Kind {
	case models.KindSingleQuote:
		return common.FreshnessQuote
	case models.KindIndicatorLookup:
		return common.FreshnessIndicator
	}
	switch metricFor(intent.Action) {
	case metricNetBuy:
		return common.FreshnessNetBuy
	case metricConsensus:
		return common.FreshnessConsensus
	}
	return 0
}

func (s *Service) compute(ctx context.Context, intent *models.Intent) *CacheEntry {
	switch intent.Kind {
	case models.KindSingleQuote:
		return s.quoteLookup(ctx, intent)
	case models.KindIndicatorLookup:
		return s.indicatorLookup(ctx, intent)
	case models.KindThemeRanking:
		return s.themeAnalysis(ctx, intent, s.rankingGroups(), "테마 수익률 순위")
	case models.KindComparisonAnalysis:
		return s.themeAnalysis(ctx, intent, s.comparisonGroups(intent.Target), strings.Join(intent.Target, " vs "))
	case models.KindStockAnalysis:
		return s.stockAnalysis(ctx, intent)
	}

	s.logger.Warn().Str("kind", string(intent.Kind)).Msg("Unsupported intent kind")
	return &CacheEntry{
		Status:  models.StatusUnsupported,
		Message: fmt.Sprintf("지원하지 않는 분석 유형입니다: %s", intent.Kind),
	}
}

// themeAnalysis runs the group executor for ranking and comparison intents.
func (s *Service) themeAnalysis(ctx context.Context, intent *models.Intent, groups []themeGroup, subject string) *CacheEntry {
	if len(groups) == 0 {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: subject,
			Message: "비교할 대상을 찾지 못했습니다.",
		}
	}

	period, errEntry := s.resolvePeriod(ctx, intent)
	if errEntry != nil {
		errEntry.Subject = subject
		return errEntry
	}

	records := s.rankGroups(ctx, groups, period)
	if len(records) == 0 {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: subject,
			Message: "조건에 맞는 결과가 없습니다.",
		}
	}

	return &CacheEntry{Status: models.StatusOK, Subject: subject, Records: records}
}

// stockAnalysis resolves period and universe, then runs the metric the
// action asks for.
func (s *Service) stockAnalysis(ctx context.Context, intent *models.Intent) *CacheEntry {
	period, errEntry := s.resolvePeriod(ctx, intent)
	if errEntry != nil {
		return errEntry
	}

	res := s.universe.Resolve(intent.FirstTarget())
	instruments := s.applyFundamental(res.Instruments, intent.Condition)
	if len(instruments) == 0 {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: res.Label,
			Message: fmt.Sprintf("분석할 종목을 찾지 못했습니다: %s", res.Label),
		}
	}

	var records []models.AnalysisRecord
	var err error

	switch metricFor(intent.Action) {
	case metricNetBuy:
		records, err = s.netBuyRanking(ctx, allowedSet(res, instruments), period)
	case metricConsensus:
		records, err = s.consensusRestricted(ctx, allowedSet(res, instruments))
	case metricVolatility:
		fetched := s.fetchUniverse(ctx, selectByMarketCap(instruments, s.config.MaxInstruments), period.Start, period.End)
		records = volatility(fetched, period)
	default:
		fetched := s.fetchUniverse(ctx, selectByMarketCap(instruments, s.config.MaxInstruments), period.Start, period.End)
		records = topPerformers(fetched, period.EffectiveWindows(), wantsAscending(intent.Action))
	}

	if err != nil {
		s.logger.Warn().Str("subject", res.Label).Err(err).Msg("Bulk data fetch failed")
		return &CacheEntry{
			Status:  models.StatusError,
			Subject: res.Label,
			Message: "데이터를 가져오지 못해 분석할 수 없습니다.",
		}
	}
	if len(records) == 0 {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: res.Label,
			Message: "조건에 맞는 결과가 없습니다.",
		}
	}

	return &CacheEntry{Status: models.StatusOK, Subject: res.Label, Records: records}
}

// resolvePeriod resolves the period expression and narrows it with the
// intent condition. A non-nil CacheEntry short-circuits the analysis.
func (s *Service) resolvePeriod(ctx context.Context, intent *models.Intent) (models.ResolvedPeriod, *CacheEntry) {
	period := s.periods.Resolve(intent.PeriodExpr)

	cond := intent.Condition
	if cond == nil {
		return period, nil
	}

	switch cond.Type {
	case models.ConditionSeason:
		period.Windows = s.periods.SeasonWindows(period.Start, period.End, cond.Season)
	case models.ConditionIndicator:
		windows, err := s.periods.IndicatorWindows(ctx, cond, period.Start, period.End)
		if err != nil {
			s.logger.Warn().Str("indicator", cond.Name).Err(err).Msg("Indicator condition failed")
			return period, &CacheEntry{
				Status:  models.StatusError,
				Message: "지표 조건을 확인하지 못했습니다.",
			}
		}
		if len(windows) == 0 {
			return period, &CacheEntry{
				Status:  models.StatusEmpty,
				Message: "조건을 만족하는 기간이 없습니다.",
			}
		}
		period.Windows = windows
	}

	return period, nil
}

// applyFundamental filters the universe by a fundamental condition. Only
// market cap is available from the listing snapshot; other fields pass
// through unfiltered.
func (s *Service) applyFundamental(instruments []models.InstrumentRef, cond *models.Condition) []models.InstrumentRef {
	if cond == nil || cond.Type != models.ConditionFundamental {
		return instruments
	}
	if !strings.EqualFold(cond.Field, "marketcap") {
		s.logger.Warn().Str("field", cond.Field).Msg("Unsupported fundamental field, condition ignored")
		return instruments
	}

	filtered := make([]models.InstrumentRef, 0, len(instruments))
	for _, ref := range instruments {
		if compare(ref.MarketCap, cond.Operator, cond.Value) {
			filtered = append(filtered, ref)
		}
	}
	return filtered
}

func compare(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	case "<=":
		return value <= threshold
	}
	return false
}

// consensusRestricted narrows the market-wide consensus table to the allowed
// code set.
func (s *Service) consensusRestricted(ctx context.Context, allowed map[string]struct{}) ([]models.AnalysisRecord, error) {
	records, err := s.consensusUpside(ctx)
	if err != nil {
		return nil, err
	}
	if allowed == nil {
		return records, nil
	}

	filtered := records[:0]
	for _, r := range records {
		if _, ok := allowed[r.Code]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// allowedSet returns the code set restricting a ranking, built from the
// post-condition instrument list, or nil for an unrestricted whole market.
func allowedSet(res models.UniverseResolution, instruments []models.InstrumentRef) map[string]struct{} {
	if res.Label == universe.MarketLabel && len(instruments) == len(res.Instruments) {
		return nil
	}
	allowed := make(map[string]struct{}, len(instruments))
	for _, ref := range instruments {
		allowed[ref.Code] = struct{}{}
	}
	return allowed
}

type metric int

const (
	metricPerformers metric = iota
	metricVolatility
	metricNetBuy
	metricConsensus
)

// metricFor picks the executor from the action phrasing.
func metricFor(action string) metric {
	action = strings.ToLower(action)
	switch {
	case containsAny(action, "변동성", "volatility"):
		return metricVolatility
	case containsAny(action, "순매수", "net buy", "netbuy"):
		return metricNetBuy
	case containsAny(action, "목표주가", "상승여력", "consensus", "upside"):
		return metricConsensus
	}
	return metricPerformers
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
