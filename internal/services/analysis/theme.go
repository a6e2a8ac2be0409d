package analysis

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/humanda/askfin/internal/models"
)

// themeConcurrency bounds how many theme groups are analyzed at once. The
// per-instrument fetch pool inside each group is bounded separately.
const themeConcurrency = 4

// themeGroup is one named instrument set to score as a unit.
type themeGroup struct {
	name    string
	members []models.InstrumentRef
}

// rankGroups scores each group by the mean of its members' mean window
// returns and returns the groups ranked descending. Groups whose members
// all fail to fetch are dropped.
func (s *Service) rankGroups(ctx context.Context, groups []themeGroup, period models.ResolvedPeriod) []models.AnalysisRecord {
	var mu sync.Mutex
	var records []models.AnalysisRecord

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(themeConcurrency)

	for _, group := range groups {
		group := group
		g.Go(func() error {
			if len(group.members) == 0 {
				return nil
			}
			selected := selectByMarketCap(group.members, s.config.MaxInstruments)
			fetched := s.fetchUniverse(ctx, selected, period.Start, period.End)
			members := topPerformers(fetched, period.EffectiveWindows(), false)
			if len(members) == 0 {
				return nil
			}

			var sum float64
			for _, m := range members {
				sum += m.Value
			}

			mu.Lock()
			records = append(records, models.AnalysisRecord{
				Name:  group.name,
				Value: round2(sum / float64(len(members))),
				Label: LabelAverageReturn,
				Aux:   map[string]float64{"instruments": float64(len(members))},
			})
			mu.Unlock()
			return nil
		})
	}

	// Workers swallow their own failures; Wait only orders the barrier.
	_ = g.Wait()

	sortRecords(records, false)
	return records
}

// rankingGroups builds one group per taxonomy theme.
func (s *Service) rankingGroups() []themeGroup {
	names := s.registry.ThemeNames()
	groups := make([]themeGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, themeGroup{name: name, members: s.registry.ThemeMembers(name)})
	}
	return groups
}

// comparisonGroups resolves each target to its own universe. Targets that
// resolve to nothing are skipped.
func (s *Service) comparisonGroups(targets []string) []themeGroup {
	groups := make([]themeGroup, 0, len(targets))
	for _, target := range targets {
		res := s.universe.Resolve(target)
		if res.Empty() {
			s.logger.Debug().Str("target", target).Msg("Comparison target resolved to nothing, skipped")
			continue
		}
		groups = append(groups, themeGroup{name: res.Label, members: res.Instruments})
	}
	return groups
}
