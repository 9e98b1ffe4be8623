package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/blueprint-cli/internal/model"
)

func TestFindHotspots_LowConfidenceWeldEscalatesToLayoutLM(t *testing.T) {
	weld := cand(model.EntityWeld, "reducto", 0.3, map[string]any{"symbol": "fillet"})

	esc := FindHotspots([]model.CandidateEntity{weld}, 0.75, 4, "plans/s-201.png")

	assert.True(t, esc.Needs["layoutlm"])
	require.Len(t, esc.RegionsByProvider["layoutlm"], 1)
	region := esc.RegionsByProvider["layoutlm"][0]
	assert.Equal(t, model.RegionWeldCluster, region.RegionType)
	assert.Equal(t, weld.BBox, region.BBox)
	assert.Equal(t, "plans/s-201.png", region.DocPath)
}

func TestFindHotspots_ConfidentCandidatesIgnored(t *testing.T) {
	weld := cand(model.EntityWeld, "reducto", 0.9, map[string]any{"symbol": "fillet"})

	esc := FindHotspots([]model.CandidateEntity{weld}, 0.75, 4, "doc.png")
	assert.True(t, esc.Empty())
}

func TestFindHotspots_TableNeedsBothBackups(t *testing.T) {
	table := cand(model.EntityTable, "reducto", 0.2, map[string]any{"rows": 3})

	esc := FindHotspots([]model.CandidateEntity{table}, 0.75, 4, "doc.png")
	assert.True(t, esc.Needs["layoutlm"])
	assert.True(t, esc.Needs["donut"])
	assert.Len(t, esc.RegionsByProvider["layoutlm"], 1)
	assert.Len(t, esc.RegionsByProvider["donut"], 1)
}

func TestFindHotspots_LowConfidenceBOMRowEscalates(t *testing.T) {
	row := cand(model.EntityBOMRow, "reducto", 0.4, map[string]any{"mark": "B1", "qty": 2})

	esc := FindHotspots([]model.CandidateEntity{row}, 0.75, 4, "doc.png")
	assert.True(t, esc.Needs["layoutlm"])
	assert.True(t, esc.Needs["donut"])
	require.Len(t, esc.RegionsByProvider["layoutlm"], 1)
	assert.Equal(t, model.RegionBOMTable, esc.RegionsByProvider["layoutlm"][0].RegionType)
}

func TestFindHotspots_TruncatesPerPage(t *testing.T) {
	var cands []model.CandidateEntity
	for i := 0; i < 10; i++ {
		cands = append(cands, cand(model.EntityDimension, "reducto", 0.1, map[string]any{"value": i}))
	}

	esc := FindHotspots(cands, 0.75, 3, "doc.png")
	assert.Len(t, esc.RegionsByProvider["donut"], 3)
}

func TestFindHotspots_TruncationIsPerPageNotGlobal(t *testing.T) {
	var cands []model.CandidateEntity
	for page := 0; page < 2; page++ {
		for i := 0; i < 5; i++ {
			c := model.NewCandidate(model.EntityDimension, "reducto", page,
				model.BBox{0, 0, 1, 1}, map[string]any{"value": i}, 0.1, 0.75)
			cands = append(cands, c)
		}
	}

	esc := FindHotspots(cands, 0.75, 3, "doc.png")
	assert.Len(t, esc.RegionsByProvider["donut"], 6)
}

func TestFindHotspots_UnmappedEntityTypeSkipped(t *testing.T) {
	// SECTION has no backup providers configured.
	section := cand(model.EntitySection, "reducto", 0.1, nil)

	esc := FindHotspots([]model.CandidateEntity{section}, 0.75, 4, "doc.png")
	assert.True(t, esc.Empty())
}
