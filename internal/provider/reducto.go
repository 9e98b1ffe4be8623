package provider

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// Reducto is the primary layout-aware extraction service. It parses every
// region type and returns typed candidate entities directly.
type Reducto struct {
	svc              *serviceClient
	lowConfThreshold float64
}

// NewReducto creates the reducto provider.
func NewReducto(cfg config.EndpointConfig, lowConfThreshold float64) *Reducto {
	return &Reducto{
		svc:              newServiceClient("reducto", cfg.BaseURL, cfg.Key, cfg.RPS),
		lowConfThreshold: lowConfThreshold,
	}
}

func (r *Reducto) Name() string { return "reducto" }

func (r *Reducto) Supports(model.RegionType) bool { return true }

type reductoCandidate struct {
	EntityType string         `json:"entity_type"`
	Page       int            `json:"page"`
	BBox       model.BBox     `json:"bbox"`
	Fields     map[string]any `json:"fields"`
	TextRaw    string         `json:"text_raw"`
	Confidence float64        `json:"confidence"`
}

type reductoResponse struct {
	Candidates []reductoCandidate `json:"candidates"`
}

func (r *Reducto) ParseRegion(ctx context.Context, region model.Region) (*model.ProviderResult, error) {
	start := time.Now()

	req, err := buildRegionRequest(region)
	if err != nil {
		return model.EmptyResult(r.Name(), &region, err.Error()), nil
	}

	var resp reductoResponse
	if err := r.svc.postJSON(ctx, "/v1/parse", req, &resp); err != nil {
		zap.L().Warn("reducto: parse failed",
			zap.String("doc", region.DocPath),
			zap.String("region_type", string(region.RegionType)),
			zap.Error(err),
		)
		return model.EmptyResult(r.Name(), &region, err.Error()), nil
	}

	result := &model.ProviderResult{
		Provider:  r.Name(),
		Region:    &region,
		Raw:       map[string]any{"candidate_count": len(resp.Candidates)},
		LatencyMS: time.Since(start).Milliseconds(),
	}
	for _, c := range resp.Candidates {
		et := model.EntityType(c.EntityType)
		cand := model.NewCandidate(et, r.Name(), c.Page, c.BBox, c.Fields, c.Confidence, r.lowConfThreshold)
		cand.TextRaw = c.TextRaw
		result.Candidates = append(result.Candidates, cand)
	}
	return result, nil
}
