package model

// Counts is the six-field legacy output: a presence flag plus five
// non-negative counters. Used in counts-only mode where no structured
// entities are needed.
type Counts struct {
	WeldSymbolsPresent bool `json:"weld_symbols_present"`
	WeldSymbolsCount   int  `json:"weld_symbols_count"`
	DimValuesCount     int  `json:"dim_values_count"`
	BOMTagCount        int  `json:"bom_tag_count"`
	BOMMaterialCount   int  `json:"bom_material_count"`
	BOMQtyCount        int  `json:"bom_qty_count"`
}
