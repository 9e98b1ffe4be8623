package provider

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
)

// OCRWord is a plain word-stream OCR service. It has no layout
// understanding; it backs up notes and title blocks where raw text with
// per-word confidence is enough.
type OCRWord struct {
	svc              *serviceClient
	lowConfThreshold float64
}

// NewOCRWord creates the ocr provider.
func NewOCRWord(cfg config.EndpointConfig, lowConfThreshold float64) *OCRWord {
	return &OCRWord{
		svc:              newServiceClient("ocr", cfg.BaseURL, cfg.Key, cfg.RPS),
		lowConfThreshold: lowConfThreshold,
	}
}

func (o *OCRWord) Name() string { return "ocr" }

func (o *OCRWord) Supports(rt model.RegionType) bool {
	switch rt {
	case model.RegionNotes, model.RegionTitleBlock:
		return true
	}
	return false
}

type ocrWord struct {
	Text       string     `json:"text"`
	BBox       model.BBox `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

type ocrResponse struct {
	Words []ocrWord `json:"words"`
}

func (o *OCRWord) ParseRegion(ctx context.Context, region model.Region) (*model.ProviderResult, error) {
	start := time.Now()

	req, err := buildRegionRequest(region)
	if err != nil {
		return model.EmptyResult(o.Name(), &region, err.Error()), nil
	}

	var resp ocrResponse
	if err := o.svc.postJSON(ctx, "/v1/words", req, &resp); err != nil {
		zap.L().Warn("ocr: parse failed",
			zap.String("doc", region.DocPath),
			zap.String("region_type", string(region.RegionType)),
			zap.Error(err),
		)
		return model.EmptyResult(o.Name(), &region, err.Error()), nil
	}

	result := &model.ProviderResult{
		Provider:  o.Name(),
		Region:    &region,
		Raw:       map[string]any{"word_count": len(resp.Words)},
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if len(resp.Words) == 0 {
		return result, nil
	}

	// The word stream collapses to one candidate per region: joined text
	// with the mean word confidence. Field structure comes from the other
	// providers; this one anchors raw text.
	var sb strings.Builder
	var sum float64
	for i, w := range resp.Words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.Text)
		sum += w.Confidence
	}
	conf := sum / float64(len(resp.Words))

	et := region.EntityTypeFor()
	fields := map[string]any{"text": sb.String()}
	cand := model.NewCandidate(et, o.Name(), region.PageIndex, region.BBox, fields, conf, o.lowConfThreshold)
	cand.TextRaw = sb.String()
	result.Candidates = append(result.Candidates, cand)
	return result, nil
}
