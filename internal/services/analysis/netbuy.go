package analysis

import (
	"context"
	"fmt"

	"github.com/humanda/askfin/internal/models"
)

// Market segments queried for investor trading data.
var netBuyMarkets = []string{"KOSPI", "KOSDAQ"}

// netBuyRanking ranks instruments by summed institutional net-buy value
// over the period. The data arrives per market segment, one bulk call each.
// allowed restricts the ranking to a resolved universe; nil means the whole
// market.
func (s *Service) netBuyRanking(ctx context.Context, allowed map[string]struct{}, period models.ResolvedPeriod) ([]models.AnalysisRecord, error) {
	merged := make(map[string]models.NetBuyRow)

	for _, market := range netBuyMarkets {
		rows, err := s.netbuy.GetInvestorNetBuy(ctx, market, period.Start, period.End)
		if err != nil {
			return nil, fmt.Errorf("net-buy fetch for %s: %w", market, err)
		}
		for _, row := range rows {
			prev := merged[row.Code]
			prev.Code = row.Code
			if prev.Name == "" {
				prev.Name = row.Name
			}
			prev.Value += row.Value
			merged[row.Code] = prev
		}
	}

	records := make([]models.AnalysisRecord, 0, len(merged))
	for code, row := range merged {
		if allowed != nil {
			if _, ok := allowed[code]; !ok {
				continue
			}
		}
		name := row.Name
		if ref, ok := s.registry.ByCode(code); ok {
			name = ref.Name
		}
		records = append(records, models.AnalysisRecord{
			Code:  code,
			Name:  name,
			Value: row.Value,
			Label: LabelNetBuy,
		})
	}

	sortRecords(records, false)
	return records, nil
}
