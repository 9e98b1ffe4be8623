package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
)

// Claude sends page images to the Anthropic API. It serves two roles: a
// general-purpose extraction provider for any region type, and the first-pass
// page classifier that proposes regions for the rest of the fan-out.
type Claude struct {
	client           anthropic.Client
	cfg              config.ClaudeConfig
	limiter          *rate.Limiter
	lowConfThreshold float64
}

// NewClaude creates the claude provider.
func NewClaude(client anthropic.Client, cfg config.ClaudeConfig, lowConfThreshold float64) *Claude {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	return &Claude{
		client:           client,
		cfg:              cfg,
		limiter:          rate.NewLimiter(rate.Limit(rps), 1),
		lowConfThreshold: lowConfThreshold,
	}
}

func (c *Claude) Name() string { return "claude" }

// Supports reports true for every region type; vision models have no
// modality restriction.
func (c *Claude) Supports(model.RegionType) bool { return true }

const claudeSystemPrompt = `You extract structured data from engineering drawing images. ` +
	`Respond with JSON only, no prose. Confidence values are floats in [0, 1].`

var claudeRegionPrompts = map[model.RegionType]string{
	model.RegionBOMTable: `Extract every row of the bill-of-materials table in this image. Return {"candidates": [{"entity_type": "BOM_ROW", "fields": {"mark": ..., "qty": ..., "description": ..., "material": ...}, "confidence": ...}]}.`,
	model.RegionWeldCluster: `Extract every weld symbol in this image. Return {"candidates": [{"entity_type": "WELD", "fields": {"symbol": ..., "side": ..., "size": ..., "size_unit": ..., "process": ...}, "confidence": ...}]}.`,
	model.RegionDimensions: `Extract every dimension callout in this image. Return {"candidates": [{"entity_type": "DIMENSION", "fields": {"value": ..., "unit": ..., "tolerance": ...}, "confidence": ...}]}.`,
	model.RegionTitleBlock: `Extract the title block fields in this image. Return {"candidates": [{"entity_type": "METADATA", "fields": {"project_name": ..., "sheet_number": ..., "revision": ..., "date": ..., "scale": ...}, "confidence": ...}]}.`,
	model.RegionNotes: `Extract every general note in this image. Return {"candidates": [{"entity_type": "NOTE", "fields": {"text": ..., "number": ...}, "confidence": ...}]}.`,
}

type claudeCandidate struct {
	EntityType string         `json:"entity_type"`
	BBox       *model.BBox    `json:"bbox"`
	Fields     map[string]any `json:"fields"`
	TextRaw    string         `json:"text_raw"`
	Confidence *float64       `json:"confidence"`
}

type claudeExtraction struct {
	Candidates []claudeCandidate `json:"candidates"`
}

func (c *Claude) ParseRegion(ctx context.Context, region model.Region) (*model.ProviderResult, error) {
	start := time.Now()

	img, err := os.ReadFile(region.DocPath)
	if err != nil {
		return model.EmptyResult(c.Name(), &region, err.Error()), nil
	}

	prompt, ok := claudeRegionPrompts[region.RegionType]
	if !ok {
		prompt = fmt.Sprintf(`Extract every %s entity in this image. Return {"candidates": [{"entity_type": ..., "fields": {...}, "confidence": ...}]}.`, region.EntityTypeFor())
	}

	extraction, usage, err := c.extract(ctx, img, prompt)
	if err != nil {
		zap.L().Warn("claude: parse failed",
			zap.String("doc", region.DocPath),
			zap.String("region_type", string(region.RegionType)),
			zap.Error(err),
		)
		return model.EmptyResult(c.Name(), &region, err.Error()), nil
	}
	usage.LogUsage(c.cfg.Model, "extract")

	result := &model.ProviderResult{
		Provider:  c.Name(),
		Region:    &region,
		Raw:       map[string]any{"candidate_count": len(extraction.Candidates)},
		LatencyMS: time.Since(start).Milliseconds(),
	}
	for _, cc := range extraction.Candidates {
		et := model.EntityType(cc.EntityType)
		if et == "" {
			et = region.EntityTypeFor()
		}
		conf := c.cfg.BaseConfidence
		if cc.Confidence != nil {
			conf = *cc.Confidence
		}
		bbox := region.BBox
		if cc.BBox != nil {
			bbox = *cc.BBox
		}
		cand := model.NewCandidate(et, c.Name(), region.PageIndex, bbox, cc.Fields, conf, c.lowConfThreshold)
		cand.TextRaw = cc.TextRaw
		result.Candidates = append(result.Candidates, cand)
	}
	return result, nil
}

const claudeRegionDetectPrompt = `Identify the regions of this engineering drawing page. ` +
	`For each region return its type (one of title_block, bom_table, weld_cluster, dimensions, notes) ` +
	`and its bounding box in normalized [x1, y1, x2, y2] coordinates. ` +
	`Return {"regions": [{"region_type": ..., "bbox": [...]}]}.`

type claudeRegion struct {
	RegionType string     `json:"region_type"`
	BBox       model.BBox `json:"bbox"`
}

type claudeRegionDetection struct {
	Regions []claudeRegion `json:"regions"`
}

// FirstPassRegions classifies one page image into typed regions. Unknown
// region types from the model are dropped.
func (c *Claude) FirstPassRegions(ctx context.Context, pagePath string, pageIndex int) ([]model.Region, error) {
	img, err := os.ReadFile(pagePath)
	if err != nil {
		return nil, eris.Wrapf(err, "claude: read page image %s", pagePath)
	}

	raw, usage, err := c.complete(ctx, img, claudeRegionDetectPrompt)
	if err != nil {
		return nil, err
	}
	usage.LogUsage(c.cfg.Model, "classify")

	var detection claudeRegionDetection
	if err := json.Unmarshal([]byte(anthropic.ExtractJSON(raw)), &detection); err != nil {
		return nil, eris.Wrap(err, "claude: unmarshal region detection")
	}

	regions := make([]model.Region, 0, len(detection.Regions))
	for _, r := range detection.Regions {
		rt := model.RegionType(r.RegionType)
		if !model.KnownRegionTypes[rt] {
			zap.L().Debug("claude: dropping unknown region type", zap.String("region_type", r.RegionType))
			continue
		}
		regions = append(regions, model.Region{
			DocPath:    pagePath,
			PageIndex:  pageIndex,
			BBox:       r.BBox,
			RegionType: rt,
		})
	}
	return regions, nil
}

func (c *Claude) extract(ctx context.Context, img []byte, prompt string) (*claudeExtraction, anthropic.TokenUsage, error) {
	raw, usage, err := c.complete(ctx, img, prompt)
	if err != nil {
		return nil, usage, err
	}
	var extraction claudeExtraction
	if err := json.Unmarshal([]byte(anthropic.ExtractJSON(raw)), &extraction); err != nil {
		return nil, usage, eris.Wrap(err, "claude: unmarshal extraction")
	}
	return &extraction, usage, nil
}

func (c *Claude) complete(ctx context.Context, img []byte, prompt string) (string, anthropic.TokenUsage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", anthropic.TokenUsage{}, eris.Wrap(err, "claude: rate limit wait")
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: claudeSystemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}}},
		Messages: []anthropic.Message{{
			Role:      "user",
			Content:   prompt,
			ImageData: img,
			ImageType: "image/png",
		}},
	})
	if err != nil {
		return "", anthropic.TokenUsage{}, err
	}
	return resp.Text(), resp.Usage, nil
}
