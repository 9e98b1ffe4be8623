package pipeline

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/reconcile"
)

// RunCounts executes the counts-only legacy mode: fan out to every provider,
// reduce each provider's output to a count summary, and merge the summaries
// conservatively. No fusion, no adjudication, no document.
func (p *Pipeline) RunCounts(ctx context.Context, docPath string) (model.Counts, error) {
	if _, err := os.Stat(docPath); err != nil {
		return model.Counts{}, eris.Wrapf(err, "pipeline: stat document %s", docPath)
	}

	regions := p.detectRegions(ctx, docPath, 0)
	results := p.fanOut(ctx, p.firstWave(regions))

	sources := make([]map[string]any, 0, len(results))
	for _, res := range results {
		if res == nil || res.Failed() {
			continue
		}
		sources = append(sources, countSource(res))
	}

	counts := reconcile.Counts(sources...)
	zap.L().Info("pipeline: counts mode complete",
		zap.String("doc", docPath),
		zap.Int("sources", len(sources)),
		zap.Int("weld_symbols", counts.WeldSymbolsCount),
	)
	return counts, nil
}

// countSource reduces one provider result to a count summary. Providers
// that report explicit counts in Raw win; otherwise counts derive from the
// candidate list.
func countSource(res *model.ProviderResult) map[string]any {
	if raw, ok := res.Raw["counts"].(map[string]any); ok && len(raw) > 0 {
		return raw
	}

	src := map[string]any{}
	welds := len(res.Welds())
	var tags, materials, qty int
	for _, c := range res.BOMRows() {
		if s, ok := c.Fields["mark"].(string); ok && s != "" {
			tags++
		}
		if s, ok := c.Fields["material"].(string); ok && s != "" {
			materials++
		}
		qty += reconcile.Clip(c.Fields["qty"], reconcile.Caps["bom_qty_count"])
	}
	src["weld_symbols_present"] = welds > 0
	src["weld_symbols_count"] = welds
	src["dim_values_count"] = len(res.Dimensions())
	src["bom_tag_count"] = tags
	src["bom_material_count"] = materials
	src["bom_qty_count"] = qty
	return src
}
