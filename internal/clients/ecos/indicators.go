package ecos

import "strings"

// IndicatorSpec ties a user-facing indicator name to its ECOS statistic
// table and item codes.
type IndicatorSpec struct {
	StatsCode   string
	ItemCode    string
	DisplayName string
	Unit        string
}

// Known indicators. Codes are the ECOS 100-statistics table identifiers.
var indicators = map[string]IndicatorSpec{
	"cpi": {
		StatsCode:   "901Y001",
		ItemCode:    "0",
		DisplayName: "소비자물가지수",
		Unit:        "%",
	},
	"base_rate": {
		StatsCode:   "722Y001",
		ItemCode:    "0001000",
		DisplayName: "기준금리",
		Unit:        "%",
	},
}

// indicator name aliases as users and the intent classifier phrase them
var indicatorAliases = map[string]string{
	"cpi":           "cpi",
	"소비자물가지수":       "cpi",
	"소비자물가":         "cpi",
	"물가":            "cpi",
	"물가상승률":         "cpi",
	"inflation":     "cpi",
	"기준금리":          "base_rate",
	"금리":            "base_rate",
	"base rate":     "base_rate",
	"interest rate": "base_rate",
}

// FindIndicator resolves an indicator name or alias to its spec
func FindIndicator(name string) (IndicatorSpec, bool) {
	key, ok := indicatorAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return IndicatorSpec{}, false
	}
	return indicators[key], true
}
