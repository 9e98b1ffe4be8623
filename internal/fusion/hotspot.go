package fusion

import (
	"github.com/sells-group/blueprint-cli/internal/model"
)

// backupProviders is the fixed table mapping an entity type to the
// providers consulted when its confidence is below the hotspot threshold.
var backupProviders = map[model.EntityType][]string{
	model.EntityTable:     {"layoutlm", "donut"},
	model.EntityBOMRow:    {"layoutlm", "donut"},
	model.EntityDimension: {"donut"},
	model.EntityWeld:      {"layoutlm"},
	model.EntityNote:      {"ocr"},
}

// regionTypeFor maps an entity type back to the region type a backup
// provider should be pointed at.
var regionTypeFor = map[model.EntityType]model.RegionType{
	model.EntityTable:     model.RegionBOMTable,
	model.EntityBOMRow:    model.RegionBOMTable,
	model.EntityDimension: model.RegionDimensions,
	model.EntityWeld:      model.RegionWeldCluster,
	model.EntityNote:      model.RegionNotes,
	model.EntityMetadata:  model.RegionTitleBlock,
}

// Escalation describes the extra provider coverage hotspots require.
type Escalation struct {
	// Needs is the set of backup providers that must be consulted.
	Needs map[string]bool
	// RegionsByProvider lists the regions each backup provider must parse.
	RegionsByProvider map[string][]model.Region
}

// Empty reports whether no escalation is needed.
func (e Escalation) Empty() bool {
	return len(e.Needs) == 0
}

// FindHotspots flags candidates below the confidence threshold and builds
// the second-wave work list. It is a pure threshold-and-lookup function: it
// has no notion of why confidence is low. Each provider's region list is
// truncated to maxRegionsPerPage per page to bound the extra cost.
func FindHotspots(candidates []model.CandidateEntity, threshold float64, maxRegionsPerPage int, docPath string) Escalation {
	esc := Escalation{
		Needs:             make(map[string]bool),
		RegionsByProvider: make(map[string][]model.Region),
	}

	// regions already assigned per provider per page
	perPage := make(map[string]map[int]int)

	for _, c := range candidates {
		if c.Confidence >= threshold {
			continue
		}
		backups, ok := backupProviders[c.EntityType]
		if !ok {
			continue
		}
		rt, ok := regionTypeFor[c.EntityType]
		if !ok {
			continue
		}

		region := model.Region{
			DocPath:    docPath,
			PageIndex:  c.Page,
			BBox:       c.BBox,
			RegionType: rt,
		}

		for _, p := range backups {
			if perPage[p] == nil {
				perPage[p] = make(map[int]int)
			}
			if maxRegionsPerPage > 0 && perPage[p][c.Page] >= maxRegionsPerPage {
				continue
			}
			perPage[p][c.Page]++
			esc.Needs[p] = true
			esc.RegionsByProvider[p] = append(esc.RegionsByProvider[p], region)
		}
	}

	return esc
}
