// Package models defines data structures for AskFin
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IntentKind classifies a structured query intent.
type IntentKind string

const (
	KindStockAnalysis      IntentKind = "stock_analysis"
	KindComparisonAnalysis IntentKind = "comparison_analysis"
	KindIndicatorLookup    IntentKind = "indicator_lookup"
	KindSingleQuote        IntentKind = "single_quote"
	KindThemeRanking       IntentKind = "theme_ranking"
)

// ConditionType tags the condition union on an Intent.
type ConditionType string

const (
	ConditionSeason      ConditionType = "season"
	ConditionIndicator   ConditionType = "indicator"
	ConditionFundamental ConditionType = "fundamental"
)

// Condition narrows the analysis period or universe. Exactly one of the
// variant field groups is meaningful depending on Type.
type Condition struct {
	Type ConditionType `json:"type"`

	// Season: "summer"/"여름" or "winter"/"겨울"
	Season string `json:"season,omitempty"`

	// Indicator: e.g. {name: "CPI", operator: ">", value: 3.5}
	Name     string  `json:"name,omitempty"`
	Operator string  `json:"operator,omitempty"`
	Value    float64 `json:"value,omitempty"`

	// Fundamental: e.g. {field: "per", operator: "<", value: 10}
	Field string `json:"field,omitempty"`
}

// TargetList accepts either a single JSON string or a list of strings,
// matching the shape the intent classifier emits.
type TargetList []string

func (t *TargetList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			*t = nil
		} else {
			*t = TargetList{single}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = TargetList(list)
		return nil
	}
	return fmt.Errorf("target must be a string or a list of strings")
}

// Intent is the structured representation of a user's financial query,
// produced by the external classifier. Read-only after decoding.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	PeriodExpr string     `json:"period,omitempty"`
	Condition  *Condition `json:"condition,omitempty"`
	Target     TargetList `json:"target,omitempty"`
	Action     string     `json:"action,omitempty"`
}

// FirstTarget returns the first target expression, or empty string.
func (i *Intent) FirstTarget() string {
	if len(i.Target) == 0 {
		return ""
	}
	return i.Target[0]
}
