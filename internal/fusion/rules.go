package fusion

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// Rules is the read-only fusion policy for one pipeline run. It is loaded
// once and never mutated by any stage.
type Rules struct {
	// ProviderWeights maps entity type → provider → weight. A provider
	// missing from the map scores zero for that type.
	ProviderWeights map[string]map[string]float64 `yaml:"provider_weights" json:"provider_weights"`
	// AgreementBoost is added to calibrated confidence when independent
	// providers agree on a DIMENSION value. TABLE candidates get half of it
	// unconditionally so a non-primary provider stays eligible for backfill.
	AgreementBoost float64 `yaml:"agreement_boost" json:"agreement_boost"`
	// Priority is the explicit tie-break order: candidates from earlier
	// providers win equal scores.
	Priority []string `yaml:"priority" json:"priority"`
	// PreferredGrid is the provider whose TABLE output is considered the
	// owner by default.
	PreferredGrid string `yaml:"preferred_grid" json:"preferred_grid"`
	// Epsilon is the score band for conflict detection.
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
	// AdjudicationThreshold is the stricter confidence floor below which a
	// winner is sent to adjudication.
	AdjudicationThreshold float64 `yaml:"adjudication_threshold" json:"adjudication_threshold"`
	// PrimaryFields maps entity type → the field whose disagreement makes
	// two near-tied candidates a conflict.
	PrimaryFields map[string]string `yaml:"primary_fields" json:"primary_fields"`
}

// RulesFromConfig assembles fusion rules from the application config.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		ProviderWeights:       cfg.Fusion.ProviderWeights,
		AgreementBoost:        cfg.Fusion.AgreementBoost,
		Priority:              cfg.Providers.Priority,
		PreferredGrid:         cfg.Providers.Primary,
		Epsilon:               cfg.Conflict.Epsilon,
		AdjudicationThreshold: cfg.Conflict.AdjudicationThreshold,
		PrimaryFields:         cfg.Conflict.PrimaryFields,
	}
}

// LoadRules reads a standalone fusion-rules YAML file. The file has a
// top-level "fusion_rules" key so it can live next to other config.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fusion: read rules %s", path)
	}

	var wrapper struct {
		Fusion Rules `yaml:"fusion_rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "fusion: parse rules")
	}
	return &wrapper.Fusion, nil
}

// Weight returns the arbitration weight for a provider on an entity type.
// Unknown types or providers score zero; malformed weight tables are never
// an error.
func (r Rules) Weight(et model.EntityType, provider string) float64 {
	byProvider, ok := r.ProviderWeights[string(et)]
	if !ok {
		return 0
	}
	w := byProvider[provider]
	if w < 0 {
		return 0
	}
	return w
}

// priorityIndex returns the tie-break rank of a provider; providers not in
// the priority list sort last, in first-seen order.
func (r Rules) priorityIndex(provider string) int {
	for i, p := range r.Priority {
		if p == provider {
			return i
		}
	}
	return len(r.Priority)
}

// Hash returns a short stable digest of the rules, recorded in telemetry
// summaries so results can be tied back to the exact policy that produced
// them.
func (r Rules) Hash() string {
	data, err := json.Marshal(r)
	if err != nil {
		return "unknown"
	}
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])[:12]
}
