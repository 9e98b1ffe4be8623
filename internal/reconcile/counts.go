// Package reconcile implements the counts-only legacy output mode: a
// conservative merge of per-provider count summaries using boolean OR and
// capped numeric MAX, which makes the merge commutative and idempotent.
package reconcile

import (
	"strconv"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// Caps bound each count field so one misbehaving provider cannot explode
// the merged result.
var Caps = map[string]int{
	"weld_symbols_count": 300,
	"dim_values_count":   500,
	"bom_tag_count":      200,
	"bom_material_count": 500,
	"bom_qty_count":      5000,
}

// CountFields lists the numeric fields in merge order.
var CountFields = []string{
	"weld_symbols_count",
	"dim_values_count",
	"bom_tag_count",
	"bom_material_count",
	"bom_qty_count",
}

// Clip coerces v to a non-negative integer no greater than cap.
// Unparseable values clip to zero.
func Clip(v any, cap int) int {
	n, ok := toInt(v)
	if !ok || n < 0 {
		return 0
	}
	if n > cap {
		return cap
	}
	return n
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case float32:
		return int(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Counts merges any number of per-source count maps into one model.Counts.
// Presence is OR'd across sources; each numeric field takes the maximum of
// the clipped values seen. A final fixup forces the presence flag when the
// merged weld count is positive.
func Counts(sources ...map[string]any) model.Counts {
	merged := map[string]int{}
	present := false

	for _, src := range sources {
		if src == nil {
			continue
		}
		if b, ok := src["weld_symbols_present"].(bool); ok && b {
			present = true
		}
		for _, k := range CountFields {
			v, ok := src[k]
			if !ok {
				continue
			}
			if clipped := Clip(v, Caps[k]); clipped > merged[k] {
				merged[k] = clipped
			}
		}
	}

	if merged["weld_symbols_count"] > 0 {
		present = true
	}

	return model.Counts{
		WeldSymbolsPresent: present,
		WeldSymbolsCount:   merged["weld_symbols_count"],
		DimValuesCount:     merged["dim_values_count"],
		BOMTagCount:        merged["bom_tag_count"],
		BOMMaterialCount:   merged["bom_material_count"],
		BOMQtyCount:        merged["bom_qty_count"],
	}
}

// AsMap renders a Counts back into the map shape providers emit, so merged
// results can themselves be merged again.
func AsMap(c model.Counts) map[string]any {
	return map[string]any{
		"weld_symbols_present": c.WeldSymbolsPresent,
		"weld_symbols_count":   c.WeldSymbolsCount,
		"dim_values_count":     c.DimValuesCount,
		"bom_tag_count":        c.BOMTagCount,
		"bom_material_count":   c.BOMMaterialCount,
		"bom_qty_count":        c.BOMQtyCount,
	}
}
