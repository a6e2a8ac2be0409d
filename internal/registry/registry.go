// Package registry holds process-scoped reference data: the market listing
// snapshot, name lookups, and the theme taxonomy. Warm loads everything
// once at startup; all read paths are lock-free because the registry is
// never mutated afterwards.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/models"
)

// themeMember is one entry of the theme taxonomy file
// (themeName -> [{code,name}]).
type themeMember struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Registry provides read-only access to reference data after Warm
type Registry struct {
	listingClient interfaces.ListingClient
	themesPath    string
	logger        *common.Logger

	instruments []models.InstrumentRef
	byCode      map[string]models.InstrumentRef
	byName      map[string]models.InstrumentRef
	themes      map[string][]models.InstrumentRef
	themeNames  []string
}

// New creates an unwarmed registry
func New(listingClient interfaces.ListingClient, themesPath string, logger *common.Logger) *Registry {
	return &Registry{
		listingClient: listingClient,
		themesPath:    themesPath,
		logger:        logger,
	}
}

// NewFromSnapshot builds a warmed registry directly from data. Intended for
// tests and offline tooling.
func NewFromSnapshot(instruments []models.InstrumentRef, themes map[string][]models.InstrumentRef) *Registry {
	r := &Registry{logger: common.NewSilentLogger()}
	r.index(instruments)
	r.indexThemes(themes)
	return r
}

// Warm loads the listing snapshot and theme taxonomy. Must complete before
// the registry is shared; it is not safe to call concurrently with reads.
func (r *Registry) Warm(ctx context.Context) error {
	listing, err := r.listingClient.GetListing(ctx)
	if err != nil {
		return fmt.Errorf("failed to load listing snapshot: %w", err)
	}
	if len(listing) == 0 {
		return fmt.Errorf("listing snapshot is empty")
	}
	r.index(listing)

	themes, err := r.loadThemes()
	if err != nil {
		return fmt.Errorf("failed to load theme taxonomy: %w", err)
	}
	r.indexThemes(themes)

	r.logger.Info().
		Int("instruments", len(r.instruments)).
		Int("themes", len(r.themeNames)).
		Msg("Registry warmed")

	return nil
}

func (r *Registry) index(instruments []models.InstrumentRef) {
	r.instruments = instruments
	r.byCode = make(map[string]models.InstrumentRef, len(instruments))
	r.byName = make(map[string]models.InstrumentRef, len(instruments))
	for _, ref := range instruments {
		r.byCode[ref.Code] = ref
		r.byName[ref.Name] = ref
	}
}

// loadThemes reads the taxonomy file and joins members against the live
// listing. Delisted members are dropped silently.
func (r *Registry) loadThemes() (map[string][]models.InstrumentRef, error) {
	data, err := os.ReadFile(r.themesPath)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn().Str("path", r.themesPath).Msg("Theme taxonomy file missing, theme matching disabled")
			return nil, nil
		}
		return nil, err
	}

	var raw map[string][]themeMember
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", r.themesPath, err)
	}

	themes := make(map[string][]models.InstrumentRef, len(raw))
	for name, members := range raw {
		var refs []models.InstrumentRef
		for _, m := range members {
			if ref, ok := r.byCode[m.Code]; ok {
				refs = append(refs, ref)
			}
		}
		if len(refs) > 0 {
			themes[strings.TrimSpace(name)] = refs
		}
	}
	return themes, nil
}

func (r *Registry) indexThemes(themes map[string][]models.InstrumentRef) {
	r.themes = themes
	r.themeNames = make([]string, 0, len(themes))
	for name := range themes {
		r.themeNames = append(r.themeNames, name)
	}
	sort.Strings(r.themeNames)
}

// Instruments returns the full listing snapshot
func (r *Registry) Instruments() []models.InstrumentRef {
	return r.instruments
}

// ByCode looks up an instrument by its listing code
func (r *Registry) ByCode(code string) (models.InstrumentRef, bool) {
	ref, ok := r.byCode[code]
	return ref, ok
}

// ByName looks up an instrument by its exact display name
func (r *Registry) ByName(name string) (models.InstrumentRef, bool) {
	ref, ok := r.byName[name]
	return ref, ok
}

// ThemeNames returns all taxonomy keys, sorted
func (r *Registry) ThemeNames() []string {
	return r.themeNames
}

// ThemeMembers returns the live instruments of a theme
func (r *Registry) ThemeMembers(name string) []models.InstrumentRef {
	return r.themes[name]
}
