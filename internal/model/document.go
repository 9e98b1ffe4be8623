package model

// DocumentVersion identifies the output schema emitted by the pipeline.
const DocumentVersion = "2.0"

// Document is the final normalized output for one drawing.
type Document struct {
	Version string  `json:"version"`
	DocID   string  `json:"doc_id"`
	Sheets  []Sheet `json:"sheets"`
}

// Sheet holds the fused entities for one page of the drawing.
type Sheet struct {
	SheetID     string        `json:"sheet_id"`
	Metadata    SheetMetadata `json:"metadata"`
	BOMRows     []BOMRow      `json:"bom_rows"`
	WeldSymbols []WeldSymbol  `json:"weld_symbols"`
	Dimensions  []Dimension   `json:"dimensions"`
	Notes       []Note        `json:"notes"`
}

// SheetMetadata is the title-block record. Fields the providers returned
// that have no typed home land in Extra rather than being dropped.
type SheetMetadata struct {
	SheetNumber string         `json:"sheet_number,omitempty"`
	SheetTitle  string         `json:"sheet_title,omitempty"`
	ProjectName string         `json:"project_name,omitempty"`
	Revision    string         `json:"revision,omitempty"`
	Date        string         `json:"date,omitempty"`
	Scale       string         `json:"scale,omitempty"`
	DrawnBy     string         `json:"drawn_by,omitempty"`
	CheckedBy   string         `json:"checked_by,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// BOMRow is one bill-of-materials line.
type BOMRow struct {
	Mark          string         `json:"mark,omitempty"`
	Description   string         `json:"description,omitempty"`
	Profile       string         `json:"profile,omitempty"`
	Material      string         `json:"material,omitempty"`
	LengthIn      float64        `json:"length_in,omitempty"`
	Quantity      float64        `json:"quantity,omitempty"`
	WeightPerFtLb float64        `json:"weight_per_ft_lb,omitempty"`
	TotalWeightLb float64        `json:"total_weight_lb,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	Provider      string         `json:"provider,omitempty"`
	Confidence    float64        `json:"confidence,omitempty"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// WeldSymbol is one weld callout. The field list mirrors the fusion
// engine's backfill schema for WELD entities.
type WeldSymbol struct {
	Side       string         `json:"side,omitempty"`
	Process    string         `json:"process,omitempty"`
	Symbol     string         `json:"symbol,omitempty"`
	Size       float64        `json:"size,omitempty"`
	SizeUnit   string         `json:"size_unit,omitempty"`
	Length     float64        `json:"length,omitempty"`
	Pitch      float64        `json:"pitch,omitempty"`
	Contour    string         `json:"contour,omitempty"`
	Finish     string         `json:"finish,omitempty"`
	Tail       string         `json:"tail,omitempty"`
	Provider   string         `json:"provider,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Dimension is one dimension callout.
type Dimension struct {
	Value       string         `json:"value,omitempty"`
	Unit        string         `json:"unit,omitempty"`
	ToleranceIn float64        `json:"tolerance_in,omitempty"`
	Provider    string         `json:"provider,omitempty"`
	Confidence  float64        `json:"confidence,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Note is one general note.
type Note struct {
	Text       string  `json:"text,omitempty"`
	Provider   string  `json:"provider,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
