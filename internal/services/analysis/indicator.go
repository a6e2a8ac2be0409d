package analysis

import (
	"context"
	"fmt"

	"github.com/humanda/askfin/internal/clients/ecos"
	"github.com/humanda/askfin/internal/models"
)

// indicatorLookupMonths is how far back the monthly series fetch reaches.
const indicatorLookupMonths = 24

// indicatorLookup reports the latest monthly value of a macro indicator and
// its change against the previous month, rendered as a sentence.
func (s *Service) indicatorLookup(ctx context.Context, intent *models.Intent) *CacheEntry {
	name := intent.FirstTarget()
	if name == "" && intent.Condition != nil {
		name = intent.Condition.Name
	}

	spec, ok := ecos.FindIndicator(name)
	if !ok {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: name,
			Message: fmt.Sprintf("지원하지 않는 지표입니다: %s", name),
		}
	}

	end := s.now()
	start := end.AddDate(0, -indicatorLookupMonths, 0)

	points, err := s.indicator.GetMonthlySeries(ctx, spec.StatsCode, spec.ItemCode, start, end)
	if err != nil {
		s.logger.Warn().Str("indicator", spec.DisplayName).Err(err).Msg("Indicator fetch failed")
		return &CacheEntry{
			Status:  models.StatusError,
			Subject: spec.DisplayName,
			Message: fmt.Sprintf("%s 데이터를 가져오지 못했습니다.", spec.DisplayName),
		}
	}
	if len(points) == 0 {
		return &CacheEntry{
			Status:  models.StatusEmpty,
			Subject: spec.DisplayName,
			Message: fmt.Sprintf("%s의 최근 데이터가 없습니다.", spec.DisplayName),
		}
	}

	latest := points[len(points)-1]
	aux := map[string]float64{}

	message := fmt.Sprintf("%d년 %d월 기준 %s는 %.2f%s",
		latest.Time.Year(), int(latest.Time.Month()), spec.DisplayName, latest.Value, spec.Unit)

	if len(points) >= 2 {
		previous := points[len(points)-2]
		change := round2(latest.Value - previous.Value)
		aux["previous"] = previous.Value
		aux["change"] = change
		message += fmt.Sprintf(" (전월 대비 %+.2f%sp)", change, spec.Unit)
	}
	message += "입니다."

	return &CacheEntry{
		Status:  models.StatusOK,
		Subject: spec.DisplayName,
		Message: message,
		Records: []models.AnalysisRecord{{
			Name:  spec.DisplayName,
			Value: latest.Value,
			Label: LabelIndicator,
			Aux:   aux,
		}},
	}
}
