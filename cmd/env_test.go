package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/config"
)

func TestFusionRulesFromConfigByDefault(t *testing.T) {
	c := &config.Config{
		Providers: config.ProvidersConfig{
			Primary:  "reducto",
			Priority: []string{"reducto", "claude"},
		},
		Fusion: config.FusionConfig{AgreementBoost: 0.1},
	}

	rules, err := fusionRules(c, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"reducto", "claude"}, rules.Priority)
	assert.Equal(t, "reducto", rules.PreferredGrid)
	assert.InDelta(t, 0.1, rules.AgreementBoost, 1e-9)
}

func TestFusionRulesFileOverridesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fusion_rules:
  agreement_boost: 0.2
  priority: [donut, reducto]
  preferred_grid: donut
  provider_weights:
    WELD:
      donut: 0.9
`), 0o644))

	c := &config.Config{
		Providers: config.ProvidersConfig{Primary: "reducto"},
		Fusion:    config.FusionConfig{AgreementBoost: 0.1},
	}

	rules, err := fusionRules(c, path)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, rules.AgreementBoost, 1e-9)
	assert.Equal(t, []string{"donut", "reducto"}, rules.Priority)
	assert.Equal(t, "donut", rules.PreferredGrid)
	assert.InDelta(t, 0.9, rules.ProviderWeights["WELD"]["donut"], 1e-9)
}

func TestFusionRulesMissingFile(t *testing.T) {
	_, err := fusionRules(&config.Config{}, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
