package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidateLowConfidenceFixedAtCreation(t *testing.T) {
	low := NewCandidate(EntityWeld, "layoutlm", 0, BBox{0, 0, 1, 1}, nil, 0.6, 0.75)
	assert.True(t, low.LowConfidence)
	assert.NotEmpty(t, low.ID)
	assert.NotNil(t, low.Fields)

	high := NewCandidate(EntityWeld, "reducto", 0, BBox{0, 0, 1, 1}, nil, 0.9, 0.75)
	assert.False(t, high.LowConfidence)

	// Exactly at the threshold is not low confidence.
	at := NewCandidate(EntityWeld, "reducto", 0, BBox{0, 0, 1, 1}, nil, 0.75, 0.75)
	assert.False(t, at.LowConfidence)
}

func TestCandidateCloneIsDeep(t *testing.T) {
	c := NewCandidate(EntityBOMRow, "reducto", 1, BBox{0.1, 0.2, 0.3, 0.4},
		map[string]any{"mark": "B1"}, 0.9, 0.75)
	c.AgreementPartners = []string{"donut"}

	clone := c.Clone()
	require.Equal(t, c.ID, clone.ID)
	require.Equal(t, "B1", clone.Fields["mark"])

	clone.Fields["mark"] = "B2"
	clone.AgreementPartners[0] = "layoutlm"

	assert.Equal(t, "B1", c.Fields["mark"])
	assert.Equal(t, "donut", c.AgreementPartners[0])
}
