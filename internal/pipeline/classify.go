package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// RegionClassifier is the first-pass page classifier. The Claude vision
// provider implements it; tests substitute a stub.
type RegionClassifier interface {
	FirstPassRegions(ctx context.Context, pagePath string, pageIndex int) ([]model.Region, error)
}

// fallbackRegions covers the whole page with one region per known region
// type. Used when no classifier is wired or the classifier call fails, so
// a degraded first pass still gets full provider coverage.
func fallbackRegions(docPath string, pageIndex int) []model.Region {
	full := model.BBox{0, 0, 1, 1}
	types := []model.RegionType{
		model.RegionTitleBlock,
		model.RegionBOMTable,
		model.RegionWeldCluster,
		model.RegionDimensions,
		model.RegionNotes,
	}
	regions := make([]model.Region, 0, len(types))
	for _, rt := range types {
		regions = append(regions, model.Region{
			DocPath:    docPath,
			PageIndex:  pageIndex,
			BBox:       full,
			RegionType: rt,
		})
	}
	return regions
}

// detectRegions runs the classifier, degrading to whole-page coverage on
// any failure. Classification never fails the pipeline.
func (p *Pipeline) detectRegions(ctx context.Context, docPath string, pageIndex int) []model.Region {
	if p.classifier == nil {
		return fallbackRegions(docPath, pageIndex)
	}

	regions, err := p.classifier.FirstPassRegions(ctx, docPath, pageIndex)
	if err != nil {
		zap.L().Warn("pipeline: region classification failed, using whole-page fallback",
			zap.String("doc", docPath),
			zap.Error(err),
		)
		return fallbackRegions(docPath, pageIndex)
	}
	if len(regions) == 0 {
		zap.L().Info("pipeline: classifier found no regions, using whole-page fallback",
			zap.String("doc", docPath),
		)
		return fallbackRegions(docPath, pageIndex)
	}
	return regions
}
