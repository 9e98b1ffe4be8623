package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// Donut is an OCR-free document-VQA service. It answers with one structured
// record per region and serves as backup for tables and dimensions.
type Donut struct {
	svc              *serviceClient
	lowConfThreshold float64
}

// NewDonut creates the donut provider.
func NewDonut(cfg config.EndpointConfig, lowConfThreshold float64) *Donut {
	return &Donut{
		svc:              newServiceClient("donut", cfg.BaseURL, cfg.Key, cfg.RPS),
		lowConfThreshold: lowConfThreshold,
	}
}

func (d *Donut) Name() string { return "donut" }

func (d *Donut) Supports(rt model.RegionType) bool {
	switch rt {
	case model.RegionBOMTable, model.RegionDimensions, model.RegionWeldCluster:
		return true
	}
	return false
}

type donutResponse struct {
	// Answer is the parsed doc-VQA output: a list of entity records.
	Answer []struct {
		EntityType string         `json:"entity_type"`
		Fields     map[string]any `json:"fields"`
		Confidence float64        `json:"confidence"`
	} `json:"answer"`
	RawSequence string `json:"raw_sequence"`
}

func (d *Donut) ParseRegion(ctx context.Context, region model.Region) (*model.ProviderResult, error) {
	start := time.Now()

	req, err := buildRegionRequest(region)
	if err != nil {
		return model.EmptyResult(d.Name(), &region, err.Error()), nil
	}

	var resp donutResponse
	if err := d.svc.postJSON(ctx, "/v1/vqa", req, &resp); err != nil {
		zap.L().Warn("donut: parse failed",
			zap.String("doc", region.DocPath),
			zap.String("region_type", string(region.RegionType)),
			zap.Error(err),
		)
		return model.EmptyResult(d.Name(), &region, err.Error()), nil
	}

	result := &model.ProviderResult{
		Provider:  d.Name(),
		Region:    &region,
		Raw:       map[string]any{"raw_sequence": resp.RawSequence},
		LatencyMS: time.Since(start).Milliseconds(),
	}
	for _, a := range resp.Answer {
		et := model.EntityType(a.EntityType)
		if et == "" {
			et = region.EntityTypeFor()
		}
		cand := model.NewCandidate(et, d.Name(), region.PageIndex, region.BBox, a.Fields, a.Confidence, d.lowConfThreshold)
		result.Candidates = append(result.Candidates, cand)
	}
	return result, nil
}
