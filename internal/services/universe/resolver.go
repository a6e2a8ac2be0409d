// Package universe maps target expressions to instrument sets using the
// reference data registry.
package universe

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
	"github.com/humanda/askfin/internal/registry"
)

const (
	// MarketLabel labels a whole-market universe.
	MarketLabel = "market"

	// SimilarityThreshold is the minimum normalized Levenshtein similarity
	// for a fuzzy theme match. Below it the resolver moves on to sector and
	// name matching.
	SimilarityThreshold = 0.8

	// maxAmbiguous caps the disambiguation list returned to callers.
	maxAmbiguous = 10
)

// genericTargets are words that mean "the whole market" rather than any
// particular instrument or theme.
var genericTargets = map[string]struct{}{
	"stocks":      {},
	"stock":       {},
	"all":         {},
	"top gainers": {},
	"주식":          {},
	"종목":          {},
	"전체":          {},
	"급등주":         {},
	"우량주":         {},
	"인기주":         {},
}

// decorationSuffixes are trimmed off a target before matching. Order
// matters: longer suffixes first.
var decorationSuffixes = []string{" 관련주", " 테마주", " 테마", " related", " theme", "관련주", "테마주"}

// Resolver implements interfaces.UniverseResolver
type Resolver struct {
	registry *registry.Registry
	logger   *common.Logger
}

// NewResolver creates a universe resolver over a warmed registry
func NewResolver(reg *registry.Registry, logger *common.Logger) *Resolver {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Resolver{registry: reg, logger: logger}
}

// Resolve maps a target expression to a universe. The chain is strict
// priority: generic word, fuzzy theme, sector substring, name substring.
// An unmatched target yields an empty universe, never an error.
func (r *Resolver) Resolve(target string) models.UniverseResolution {
	trimmed := strings.TrimSpace(target)

	if r.isGeneric(trimmed) {
		return models.UniverseResolution{
			Instruments: r.registry.Instruments(),
			Label:       MarketLabel,
		}
	}

	cleaned := cleanTarget(trimmed)

	if theme, score := r.bestTheme(cleaned); score >= SimilarityThreshold {
		r.logger.Debug().Str("target", target).Str("theme", theme).Float64("score", score).Msg("Target matched theme")
		return models.UniverseResolution{
			Instruments: r.registry.ThemeMembers(theme),
			Label:       theme,
		}
	}

	if matches := r.bySector(cleaned); len(matches) > 0 {
		return models.UniverseResolution{Instruments: matches, Label: cleaned}
	}

	if matches := r.byNameSubstring(cleaned); len(matches) > 0 {
		return models.UniverseResolution{Instruments: matches, Label: cleaned}
	}

	r.logger.Debug().Str("target", target).Msg("Target matched nothing")
	return models.UniverseResolution{Label: trimmed}
}

// ResolveOne resolves a target to a single instrument for quote-style
// intents. Matching is exact on the raw and cleaned names; several partial
// matches populate Ambiguous instead of guessing.
func (r *Resolver) ResolveOne(target string) models.UniverseResolution {
	trimmed := strings.TrimSpace(target)

	for _, candidate := range []string{trimmed, cleanTarget(trimmed)} {
		if ref, ok := r.registry.ByName(candidate); ok {
			return models.UniverseResolution{
				Instruments: []models.InstrumentRef{ref},
				Label:       ref.Name,
			}
		}
	}

	partial := r.byNameSubstring(cleanTarget(trimmed))
	switch {
	case len(partial) == 1:
		return models.UniverseResolution{Instruments: partial, Label: partial[0].Name}
	case len(partial) > 1:
		if len(partial) > maxAmbiguous {
			partial = partial[:maxAmbiguous]
		}
		return models.UniverseResolution{Label: trimmed, Ambiguous: partial}
	}

	return models.UniverseResolution{Label: trimmed}
}

func (r *Resolver) isGeneric(target string) bool {
	if target == "" {
		return true
	}
	_, ok := genericTargets[strings.ToLower(target)]
	return ok
}

// cleanTarget strips theme decorations and the bare "주" suffix.
func cleanTarget(target string) string {
	for _, suffix := range decorationSuffixes {
		if strings.HasSuffix(target, suffix) {
			target = strings.TrimSpace(strings.TrimSuffix(target, suffix))
			break
		}
	}
	// "반도체주" -> "반도체", but never strip a name down to nothing
	if trimmed := strings.TrimSuffix(target, "주"); trimmed != "" && trimmed != target {
		target = trimmed
	}
	return strings.TrimSpace(target)
}

// bestTheme returns the taxonomy key with the highest similarity to the
// target, along with the score.
func (r *Resolver) bestTheme(target string) (string, float64) {
	if target == "" {
		return "", 0
	}
	best := ""
	bestScore := 0.0
	for _, name := range r.registry.ThemeNames() {
		score := similarity(target, name)
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	return best, bestScore
}

// similarity is 1 - editDistance/maxRuneLen, in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

func (r *Resolver) bySector(target string) []models.InstrumentRef {
	if target == "" {
		return nil
	}
	needle := strings.ToLower(target)
	var matches []models.InstrumentRef
	for _, ref := range r.registry.Instruments() {
		if ref.Sector != "" && strings.Contains(strings.ToLower(ref.Sector), needle) {
			matches = append(matches, ref)
		}
	}
	return matches
}

func (r *Resolver) byNameSubstring(target string) []models.InstrumentRef {
	if target == "" {
		return nil
	}
	needle := strings.ToLower(target)
	var matches []models.InstrumentRef
	for _, ref := range r.registry.Instruments() {
		if strings.Contains(strings.ToLower(ref.Name), needle) {
			matches = append(matches, ref)
		}
	}
	return matches
}

// Ensure Resolver implements UniverseResolver
var _ interfaces.UniverseResolver = (*Resolver)(nil)
