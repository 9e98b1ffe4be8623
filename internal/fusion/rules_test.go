package fusion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fusion.yaml")
	content := `
fusion_rules:
  agreement_boost: 0.15
  preferred_grid: reducto
  epsilon: 0.03
  adjudication_threshold: 0.6
  priority: [reducto, donut]
  provider_weights:
    DIMENSION:
      reducto: 0.3
      donut: 0.2
  primary_fields:
    DIMENSION: value
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 0.15, rules.AgreementBoost)
	assert.Equal(t, "reducto", rules.PreferredGrid)
	assert.Equal(t, 0.3, rules.Weight(model.EntityDimension, "reducto"))
	assert.Equal(t, "value", rules.PrimaryFields["DIMENSION"])
}

func TestLoadRules_MissingFile(t *testing.T) {
	_, err := LoadRules("does/not/exist.yaml")
	assert.Error(t, err)
}

func TestRules_WeightUnknown(t *testing.T) {
	rules := testRules()
	assert.Zero(t, rules.Weight(model.EntityDimension, "nope"))
	assert.Zero(t, rules.Weight(model.EntitySection, "reducto"))

	rules.ProviderWeights["DIMENSION"]["bad"] = -1
	assert.Zero(t, rules.Weight(model.EntityDimension, "bad"))
}

func TestRules_HashStable(t *testing.T) {
	a := testRules()
	b := testRules()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 12)

	b.AgreementBoost = 0.2
	assert.NotEqual(t, a.Hash(), b.Hash())
}
