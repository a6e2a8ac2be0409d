package analysis

import (
	"context"
	"fmt"

	"github.com/humanda/askfin/internal/models"
)

// quoteLookupDays is how far back the quote fetch reaches so that holidays
// and weekends still yield a most recent trading day.
const quoteLookupDays = 14

// quoteLookup reports the most recent close for a single instrument.
func (s *Service) quoteLookup(ctx context.Context, intent *models.Intent) *CacheEntry {
	target := intent.FirstTarget()
	res := s.universe.ResolveOne(target)

	if len(res.Ambiguous) > 0 {
		return &CacheEntry{
			Status:    models.StatusAmbiguous,
			Subject:   res.Label,
			Message:   fmt.Sprintf("'%s'에 해당하는 종목이 여러 개입니다. 종목을 선택해 주세요.", target),
			Ambiguous: res.Ambiguous,
		}
	}
	if res.Empty() {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: res.Label,
			Message: fmt.Sprintf("'%s' 종목을 찾을 수 없습니다.", target),
		}
	}

	ref := res.Instruments[0]
	end := s.now()
	start := end.AddDate(0, 0, -quoteLookupDays)

	series, err := s.source.FetchSeries(ctx, ref.Code, start, end)
	if err != nil {
		s.logger.Warn().Str("code", ref.Code).Err(err).Msg("Quote fetch failed")
		return &CacheEntry{
			Status:  models.StatusError,
			Subject: ref.Name,
			Message: fmt.Sprintf("%s 시세를 가져오지 못했습니다.", ref.Name),
		}
	}
	if series.Len() == 0 {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: ref.Name,
			Message: fmt.Sprintf("%s의 최근 거래 데이터가 없습니다.", ref.Name),
		}
	}

	last := series.Bars[series.Len()-1]
	changePct := 0.0
	if last.Open > 0 {
		changePct = round2((last.Close/last.Open - 1) * 100)
	}

	return &CacheEntry{
		Status:  models.StatusOK,
		Subject: ref.Name,
		Message: fmt.Sprintf("%s 종가 %.0f원 (당일 시가 대비 %+.2f%%)", ref.Name, last.Close, changePct),
		Records: []models.AnalysisRecord{{
			Code:  ref.Code,
			Name:  ref.Name,
			Value: last.Close,
			Label: LabelClose,
			Aux: map[string]float64{
				"open":       last.Open,
				"change_pct": changePct,
			},
		}},
	}
}
