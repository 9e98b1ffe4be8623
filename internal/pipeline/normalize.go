package pipeline

import (
	"fmt"
	"sort"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// typed field keys recognized per entity type; everything else a provider
// returned lands in the Extra bucket instead of being dropped.
var (
	metadataKeys = map[string]bool{
		"sheet_number": true, "sheet_title": true, "project_name": true,
		"revision": true, "date": true, "scale": true,
		"drawn_by": true, "checked_by": true,
	}
	bomKeys = map[string]bool{
		"mark": true, "description": true, "profile": true, "material": true,
		"length_in": true, "qty": true, "quantity": true,
		"weight_per_ft_lb": true, "total_weight_lb": true, "notes": true,
	}
	weldKeys = map[string]bool{
		"side": true, "process": true, "symbol": true, "size": true,
		"size_unit": true, "length": true, "pitch": true, "contour": true,
		"finish": true, "tail": true,
	}
	dimensionKeys = map[string]bool{
		"value": true, "unit": true, "tolerance_in": true, "tolerance": true,
	}
)

// normalize assembles the final document from fused entities, one sheet per
// page, with title-block fields validated before they are accepted into the
// typed metadata record.
func normalize(docID string, fused []model.FusedEntity) *model.Document {
	byPage := make(map[int][]model.FusedEntity)
	for _, f := range fused {
		byPage[f.Page] = append(byPage[f.Page], f)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	doc := &model.Document{
		Version: model.DocumentVersion,
		DocID:   docID,
	}
	for _, page := range pages {
		doc.Sheets = append(doc.Sheets, buildSheet(page, byPage[page]))
	}
	return doc
}

func buildSheet(page int, fused []model.FusedEntity) model.Sheet {
	sheet := model.Sheet{
		SheetID:     fmt.Sprintf("S-%d", page+1),
		BOMRows:     []model.BOMRow{},
		WeldSymbols: []model.WeldSymbol{},
		Dimensions:  []model.Dimension{},
		Notes:       []model.Note{},
	}

	for _, f := range fused {
		switch f.EntityType {
		case model.EntityMetadata:
			sheet.Metadata = buildMetadata(f)
			if sheet.Metadata.SheetNumber != "" {
				sheet.SheetID = sheet.Metadata.SheetNumber
			}
		case model.EntityBOMRow, model.EntityTable:
			sheet.BOMRows = append(sheet.BOMRows, buildBOMRow(f))
		case model.EntityWeld:
			sheet.WeldSymbols = append(sheet.WeldSymbols, buildWeld(f))
		case model.EntityDimension:
			sheet.Dimensions = append(sheet.Dimensions, buildDimension(f))
		case model.EntityNote:
			sheet.Notes = append(sheet.Notes, model.Note{
				Text:       asString(f.Fields["text"], f.TextRaw),
				Provider:   f.Provider,
				Confidence: f.Confidence,
			})
		}
	}
	return sheet
}

// buildMetadata validates title-block values before accepting them into
// typed fields. A value that fails validation stays in Extra so nothing a
// provider returned is lost.
func buildMetadata(f model.FusedEntity) model.SheetMetadata {
	md := model.SheetMetadata{}
	extra := map[string]any{}

	for key, raw := range f.Fields {
		val := asString(raw, "")
		if !metadataKeys[key] || !model.ValidMetadataField(key, val) {
			extra[key] = raw
			continue
		}
		switch key {
		case "sheet_number":
			md.SheetNumber = val
		case "sheet_title":
			md.SheetTitle = val
		case "project_name":
			md.ProjectName = val
		case "revision":
			md.Revision = val
		case "date":
			md.Date = val
		case "scale":
			md.Scale = val
		case "drawn_by":
			md.DrawnBy = val
		case "checked_by":
			md.CheckedBy = val
		}
	}
	if len(extra) > 0 {
		md.Extra = extra
	}
	return md
}

func buildBOMRow(f model.FusedEntity) model.BOMRow {
	row := model.BOMRow{
		Mark:          asString(f.Fields["mark"], ""),
		Description:   asString(f.Fields["description"], ""),
		Profile:       asString(f.Fields["profile"], ""),
		Material:      asString(f.Fields["material"], ""),
		LengthIn:      asFloat(f.Fields["length_in"]),
		WeightPerFtLb: asFloat(f.Fields["weight_per_ft_lb"]),
		TotalWeightLb: asFloat(f.Fields["total_weight_lb"]),
		Notes:         asString(f.Fields["notes"], ""),
		Provider:      f.Provider,
		Confidence:    f.Confidence,
	}
	if q, ok := f.Fields["qty"]; ok {
		row.Quantity = asFloat(q)
	} else {
		row.Quantity = asFloat(f.Fields["quantity"])
	}
	row.Extra = extraFields(f.Fields, bomKeys)
	return row
}

func buildWeld(f model.FusedEntity) model.WeldSymbol {
	w := model.WeldSymbol{
		Side:       asString(f.Fields["side"], ""),
		Process:    asString(f.Fields["process"], ""),
		Symbol:     asString(f.Fields["symbol"], ""),
		Size:       asFloat(f.Fields["size"]),
		SizeUnit:   asString(f.Fields["size_unit"], ""),
		Length:     asFloat(f.Fields["length"]),
		Pitch:      asFloat(f.Fields["pitch"]),
		Contour:    asString(f.Fields["contour"], ""),
		Finish:     asString(f.Fields["finish"], ""),
		Tail:       asString(f.Fields["tail"], ""),
		Provider:   f.Provider,
		Confidence: f.Confidence,
	}
	w.Extra = extraFields(f.Fields, weldKeys)
	return w
}

func buildDimension(f model.FusedEntity) model.Dimension {
	d := model.Dimension{
		Value:      asString(f.Fields["value"], f.TextRaw),
		Unit:       asString(f.Fields["unit"], ""),
		Provider:   f.Provider,
		Confidence: f.Confidence,
	}
	if t, ok := f.Fields["tolerance_in"]; ok {
		d.ToleranceIn = asFloat(t)
	} else {
		d.ToleranceIn = asFloat(f.Fields["tolerance"])
	}
	d.Extra = extraFields(f.Fields, dimensionKeys)
	return d
}

func extraFields(fields map[string]any, typed map[string]bool) map[string]any {
	var extra map[string]any
	for k, v := range fields {
		if typed[k] {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[k] = v
	}
	return extra
}

// metadataCoverage is the fraction of required title-block fields present
// and valid across the fused metadata entities.
func metadataCoverage(fused []model.FusedEntity) float64 {
	present := make(map[string]bool)
	for _, f := range fused {
		if f.EntityType != model.EntityMetadata {
			continue
		}
		for _, key := range model.RequiredMetadataFields {
			if val := asString(f.Fields[key], ""); val != "" && model.ValidMetadataField(key, val) {
				present[key] = true
			}
		}
	}
	if len(model.RequiredMetadataFields) == 0 {
		return 1
	}
	return float64(len(present)) / float64(len(model.RequiredMetadataFields))
}

func asString(v any, fallback string) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	case nil:
		return fallback
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return 0
	}
}
