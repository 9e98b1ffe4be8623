package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

func cand(et model.EntityType, provider string, conf float64, fields map[string]any) model.CandidateEntity {
	return model.NewCandidate(et, provider, 0, model.BBox{0, 0, 1, 1}, fields, conf, 0.75)
}

func testRules() Rules {
	return Rules{
		ProviderWeights: map[string]map[string]float64{
			"DIMENSION": {"reducto": 0.3, "layoutlm": 0.55, "donut": 0.1},
			"WELD":      {"reducto": 0.5, "layoutlm": 0.5},
			"TABLE":     {"reducto": 0.6, "donut": 0.4},
		},
		AgreementBoost:        0.1,
		Priority:              []string{"reducto", "claude", "layoutlm", "donut", "ocr"},
		PreferredGrid:         "reducto",
		Epsilon:               0.05,
		AdjudicationThreshold: 0.55,
		PrimaryFields:         map[string]string{"DIMENSION": "value", "WELD": "symbol"},
	}
}

func TestFuse_WeightedSelection(t *testing.T) {
	// A: 0.9 × 0.3 = 0.27, B: 0.6 × 0.55 = 0.33, C: 0.4 × 0.1 = 0.04.
	cands := []model.CandidateEntity{
		cand(model.EntityDimension, "reducto", 0.9, map[string]any{"value": `12'-6"`}),
		cand(model.EntityDimension, "layoutlm", 0.6, map[string]any{"value": `14'-0"`}),
		cand(model.EntityDimension, "donut", 0.4, map[string]any{"value": `9'-3"`}),
	}

	fused := Fuse(cands, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "layoutlm", fused[0].Provider)
	assert.Equal(t, model.ReasonHighestWeighted, fused[0].Reason)
	assert.True(t, fused[0].Accepted)
	assert.Len(t, fused[0].SourceCandidates, 3)
}

func TestFuse_Deterministic(t *testing.T) {
	cands := []model.CandidateEntity{
		cand(model.EntityDimension, "reducto", 0.9, map[string]any{"value": "a"}),
		cand(model.EntityDimension, "layoutlm", 0.6, map[string]any{"value": "b"}),
		cand(model.EntityDimension, "donut", 0.4, map[string]any{"value": "c"}),
	}
	rules := testRules()

	first := Fuse(cands, rules)
	for i := 0; i < 10; i++ {
		again := Fuse(cands, rules)
		require.Len(t, again, 1)
		assert.Equal(t, first[0].Provider, again[0].Provider)
		assert.Equal(t, first[0].ID, again[0].ID)
	}
}

func TestFuse_TieBreaksByPriority(t *testing.T) {
	// Equal weight and confidence: the provider earlier in the priority
	// list must win regardless of input order.
	a := cand(model.EntityWeld, "layoutlm", 0.8, map[string]any{"symbol": "fillet"})
	b := cand(model.EntityWeld, "reducto", 0.8, map[string]any{"symbol": "fillet"})

	fused := Fuse([]model.CandidateEntity{a, b}, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "reducto", fused[0].Provider)

	fused = Fuse([]model.CandidateEntity{b, a}, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "reducto", fused[0].Provider)
}

func TestFuse_UnknownProviderScoresZero(t *testing.T) {
	cands := []model.CandidateEntity{
		cand(model.EntityDimension, "mystery", 0.99, map[string]any{"value": "a"}),
		cand(model.EntityDimension, "donut", 0.4, map[string]any{"value": "b"}),
	}

	fused := Fuse(cands, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "donut", fused[0].Provider)
}

func TestFuse_WeldBackfill(t *testing.T) {
	winner := cand(model.EntityWeld, "reducto", 0.8, map[string]any{
		"symbol": "fillet",
		"size":   nil,
	})
	loser := cand(model.EntityWeld, "layoutlm", 0.8, map[string]any{
		"symbol": "fillet",
		"size":   0.25,
	})

	fused := Fuse([]model.CandidateEntity{winner, loser}, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "reducto", fused[0].Provider)
	assert.Equal(t, 0.25, fused[0].Fields["size"])
	assert.Equal(t, model.ReasonFieldBackfill, fused[0].Reason)
}

func TestFuse_WeldBackfillRequiresEqualOrBetterConfidence(t *testing.T) {
	winner := cand(model.EntityWeld, "reducto", 0.9, map[string]any{"symbol": "fillet"})
	loser := cand(model.EntityWeld, "layoutlm", 0.5, map[string]any{
		"symbol": "groove",
		"size":   0.25,
	})

	fused := Fuse([]model.CandidateEntity{winner, loser}, testRules())
	require.Len(t, fused, 1)
	assert.Nil(t, fused[0].Fields["size"])
	assert.Equal(t, model.ReasonOwnerDefault, fused[0].Reason)
}

func TestFuse_TableReasonForNonPreferredWinner(t *testing.T) {
	cands := []model.CandidateEntity{
		cand(model.EntityTable, "donut", 0.95, map[string]any{"rows": 12}),
		cand(model.EntityTable, "reducto", 0.3, map[string]any{"rows": 10}),
	}

	fused := Fuse(cands, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "donut", fused[0].Provider)
	assert.Equal(t, model.ReasonHighestWeighted, fused[0].Reason)
}

func TestFuse_TablePreferredWinnerKeepsOwnerDefault(t *testing.T) {
	cands := []model.CandidateEntity{
		cand(model.EntityTable, "reducto", 0.9, map[string]any{"rows": 10}),
		cand(model.EntityTable, "donut", 0.4, map[string]any{"rows": 12}),
	}

	fused := Fuse(cands, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, "reducto", fused[0].Provider)
	assert.Equal(t, model.ReasonOwnerDefault, fused[0].Reason)
}

func TestFuse_EmptyTypeSkipped(t *testing.T) {
	assert.Nil(t, Fuse(nil, testRules()))

	fused := Fuse([]model.CandidateEntity{
		cand(model.EntityWeld, "reducto", 0.8, map[string]any{"symbol": "fillet"}),
	}, testRules())
	require.Len(t, fused, 1)
	assert.Equal(t, model.EntityWeld, fused[0].EntityType)
}

func TestFuse_MalformedWeightsNotFatal(t *testing.T) {
	rules := testRules()
	rules.ProviderWeights = nil

	fused := Fuse([]model.CandidateEntity{
		cand(model.EntityDimension, "reducto", 0.9, map[string]any{"value": "a"}),
		cand(model.EntityDimension, "layoutlm", 0.8, map[string]any{"value": "b"}),
	}, rules)

	// All scores zero: tie falls to the highest-priority provider.
	require.Len(t, fused, 1)
	assert.Equal(t, "reducto", fused[0].Provider)
}

func TestFuse_InputNotMutated(t *testing.T) {
	winner := cand(model.EntityWeld, "reducto", 0.8, map[string]any{"symbol": "fillet"})
	loser := cand(model.EntityWeld, "layoutlm", 0.8, map[string]any{
		"symbol": "fillet",
		"size":   0.25,
	})
	cands := []model.CandidateEntity{winner, loser}

	_ = Fuse(cands, testRules())

	assert.Nil(t, cands[0].Fields["size"])
	assert.False(t, cands[0].Accepted)
	assert.Empty(t, cands[0].Reason)
}
