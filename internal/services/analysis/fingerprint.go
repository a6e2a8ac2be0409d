package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/humanda/askfin/internal/models"
)

// normalizedIntent is the canonical form hashed into a fingerprint. Field
// order is fixed by the struct; values are case- and whitespace-folded so
// semantically identical intents collide.
type normalizedIntent struct {
	Kind      string            `json:"kind"`
	Period    string            `json:"period"`
	Condition *models.Condition `json:"condition,omitempty"`
	Targets   []string          `json:"targets"`
	Action    string            `json:"action"`
}

// Fingerprint computes the cache key for an intent: hex SHA-256 of its
// canonical JSON.
func Fingerprint(intent *models.Intent) string {
	targets := make([]string, 0, len(intent.Target))
	for _, t := range intent.Target {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			targets = append(targets, t)
		}
	}
	sort.Strings(targets)

	n := normalizedIntent{
		Kind:      string(intent.Kind),
		Period:    strings.ToLower(strings.TrimSpace(intent.PeriodExpr)),
		Condition: intent.Condition,
		Targets:   targets,
		Action:    strings.ToLower(strings.TrimSpace(intent.Action)),
	}

	data, _ := json.Marshal(n)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
