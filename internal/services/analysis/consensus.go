package analysis

import (
	"context"
	"fmt"

	"github.com/humanda/askfin/internal/models"
)

// consensusUpside ranks instruments by analyst target-price upside. The
// consensus table is keyed by display name; rows that do not join against
// the listing snapshot are dropped.
func (s *Service) consensusUpside(ctx context.Context) ([]models.AnalysisRecord, error) {
	rows, err := s.consensus.GetConsensusTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("consensus fetch: %w", err)
	}

	records := make([]models.AnalysisRecord, 0, len(rows))
	for _, row := range rows {
		ref, ok := s.registry.ByName(row.Name)
		if !ok {
			continue
		}
		if row.CurrentPrice <= 0 || row.TargetPrice <= 0 {
			continue
		}
		records = append(records, models.AnalysisRecord{
			Code:  ref.Code,
			Name:  ref.Name,
			Value: round2((row.TargetPrice/row.CurrentPrice - 1) * 100),
			Label: LabelTargetUpside,
			Aux: map[string]float64{
				"current_price": row.CurrentPrice,
				"target_price":  row.TargetPrice,
			},
		})
	}

	sortRecords(records, false)
	return records, nil
}
