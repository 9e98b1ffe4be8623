package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// LayoutLM is a token-classification service. It labels OCR tokens with
// entity tags and is consulted as backup coverage for tables and welds.
type LayoutLM struct {
	svc              *serviceClient
	lowConfThreshold float64
}

// NewLayoutLM creates the layoutlm provider.
func NewLayoutLM(cfg config.EndpointConfig, lowConfThreshold float64) *LayoutLM {
	return &LayoutLM{
		svc:              newServiceClient("layoutlm", cfg.BaseURL, cfg.Key, cfg.RPS),
		lowConfThreshold: lowConfThreshold,
	}
}

func (l *LayoutLM) Name() string { return "layoutlm" }

func (l *LayoutLM) Supports(rt model.RegionType) bool {
	switch rt {
	case model.RegionBOMTable, model.RegionWeldCluster, model.RegionTitleBlock:
		return true
	}
	return false
}

type layoutEntity struct {
	Label      string         `json:"label"`
	BBox       model.BBox     `json:"bbox"`
	Fields     map[string]any `json:"fields"`
	Text       string         `json:"text"`
	Confidence float64        `json:"confidence"`
}

type layoutResponse struct {
	Entities []layoutEntity `json:"entities"`
	Counts   map[string]any `json:"counts"`
}

// labelToEntityType maps the NER label set onto fusion entity types.
var labelToEntityType = map[string]model.EntityType{
	"BOM_TAG":      model.EntityBOMRow,
	"BOM_MATERIAL": model.EntityBOMRow,
	"WELD_SYMBOL":  model.EntityWeld,
	"DIM_VALUE":    model.EntityDimension,
	"TITLE_FIELD":  model.EntityMetadata,
	"TABLE":        model.EntityTable,
	"NOTE":         model.EntityNote,
}

func (l *LayoutLM) ParseRegion(ctx context.Context, region model.Region) (*model.ProviderResult, error) {
	start := time.Now()

	req, err := buildRegionRequest(region)
	if err != nil {
		return model.EmptyResult(l.Name(), &region, err.Error()), nil
	}

	var resp layoutResponse
	if err := l.svc.postJSON(ctx, "/v1/ner", req, &resp); err != nil {
		zap.L().Warn("layoutlm: parse failed",
			zap.String("doc", region.DocPath),
			zap.String("region_type", string(region.RegionType)),
			zap.Error(err),
		)
		return model.EmptyResult(l.Name(), &region, err.Error()), nil
	}

	result := &model.ProviderResult{
		Provider:  l.Name(),
		Region:    &region,
		Raw:       map[string]any{"counts": resp.Counts},
		LatencyMS: time.Since(start).Milliseconds(),
	}
	for _, e := range resp.Entities {
		et, ok := labelToEntityType[e.Label]
		if !ok {
			continue
		}
		cand := model.NewCandidate(et, l.Name(), region.PageIndex, e.BBox, e.Fields, e.Confidence, l.lowConfThreshold)
		cand.TextRaw = e.Text
		result.Candidates = append(result.Candidates, cand)
	}
	return result, nil
}

// Counts asks the service for the page-level count summary used by
// counts-only mode.
func (l *LayoutLM) Counts(ctx context.Context, region model.Region) (map[string]any, error) {
	req, err := buildRegionRequest(region)
	if err != nil {
		return nil, err
	}
	var resp layoutResponse
	if err := l.svc.postJSON(ctx, "/v1/ner", req, &resp); err != nil {
		return nil, err
	}
	return resp.Counts, nil
}
