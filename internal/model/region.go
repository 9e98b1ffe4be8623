package model

// RegionType classifies a detected page region.
type RegionType string

const (
	RegionTitleBlock  RegionType = "title_block"
	RegionBOMTable    RegionType = "bom_table"
	RegionWeldCluster RegionType = "weld_cluster"
	RegionDimensions  RegionType = "dimensions"
	RegionNotes       RegionType = "notes"
)

// KnownRegionTypes is used by the classifier to drop unrecognized regions.
var KnownRegionTypes = map[RegionType]bool{
	RegionTitleBlock:  true,
	RegionBOMTable:    true,
	RegionWeldCluster: true,
	RegionDimensions:  true,
	RegionNotes:       true,
}

// Region is a rectangular area of one page requiring provider coverage.
// Regions are produced by the first-pass classifier and shared read-only
// across all providers invoked for them.
type Region struct {
	DocPath    string     `json:"doc_path"`
	PageIndex  int        `json:"page_index"`
	BBox       BBox       `json:"bbox"`
	RegionType RegionType `json:"region_type"`
}

// EntityTypeFor maps a region type to the entity type its candidates carry.
func (r Region) EntityTypeFor() EntityType {
	switch r.RegionType {
	case RegionTitleBlock:
		return EntityMetadata
	case RegionBOMTable:
		return EntityBOMRow
	case RegionWeldCluster:
		return EntityWeld
	case RegionDimensions:
		return EntityDimension
	case RegionNotes:
		return EntityNote
	}
	return EntitySection
}
