// Package pipeline orchestrates one document run: classify the page,
// detect regions, fan out to extraction providers, escalate hotspots, fuse
// candidates, adjudicate conflicts, and emit the normalized document.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/adjudicate"
	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/fusion"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/provider"
	"github.com/sells-group/blueprint-cli/internal/store"
	"github.com/sells-group/blueprint-cli/internal/telemetry"
)

// Pipeline owns the provider handles and policy for document runs. All
// dependencies are injected once at construction; nothing is global.
type Pipeline struct {
	cfg         *config.Config
	rules       fusion.Rules
	registry    *provider.Registry
	classifier  RegionClassifier
	adjudicator *adjudicate.Adjudicator
	store       store.Store
	telemetry   *telemetry.Logger
}

// New creates a pipeline with all dependencies and the fusion rules derived
// from the config. classifier may be nil, in which case whole-page fallback
// regions are used.
func New(
	cfg *config.Config,
	registry *provider.Registry,
	classifier RegionClassifier,
	adj *adjudicate.Adjudicator,
	st store.Store,
	tel *telemetry.Logger,
) *Pipeline {
	return NewWithRules(cfg, fusion.RulesFromConfig(cfg), registry, classifier, adj, st, tel)
}

// NewWithRules is New with an explicit rule set, for callers loading rules
// from a standalone YAML file instead of the config.
func NewWithRules(
	cfg *config.Config,
	rules fusion.Rules,
	registry *provider.Registry,
	classifier RegionClassifier,
	adj *adjudicate.Adjudicator,
	st store.Store,
	tel *telemetry.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		rules:       rules,
		registry:    registry,
		classifier:  classifier,
		adjudicator: adj,
		store:       st,
		telemetry:   tel,
	}
}

// Run executes the full pipeline for one document. The only fatal condition
// is an unreadable input; provider and adjudicator failures degrade to a
// best-effort result.
func (p *Pipeline) Run(ctx context.Context, docPath string) (*model.Document, error) {
	docID := telemetry.DocID(filepath.Base(docPath))
	log := zap.L().With(zap.String("doc", docPath), zap.String("doc_id", docID))
	log.Info("pipeline: starting extraction")

	run, err := p.store.CreateRun(ctx, docPath, docID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	stageLatency := make(map[string]int64)
	trackStage := func(name string, fn func() error) error {
		stage, stageErr := p.store.CreateStage(ctx, run.ID, name)
		if stageErr != nil {
			log.Warn("pipeline: failed to create stage", zap.String("stage", name), zap.Error(stageErr))
		}

		start := time.Now()
		fnErr := fn()
		duration := time.Since(start).Milliseconds()
		stageLatency[name] = duration

		result := &model.StageResult{Name: name, DurationMS: duration, Status: model.StageStatusComplete}
		if fnErr != nil {
			result.Status = model.StageStatusFailed
			result.Error = fnErr.Error()
			log.Error("pipeline: stage failed", zap.String("stage", name), zap.Error(fnErr))
		} else {
			log.Info("pipeline: stage complete", zap.String("stage", name), zap.Int64("duration_ms", duration))
		}
		if stage != nil {
			if completeErr := p.store.CompleteStage(ctx, stage.ID, result); completeErr != nil {
				log.Warn("pipeline: failed to complete stage", zap.Error(completeErr))
			}
		}
		return fnErr
	}

	fail := func(err error) (*model.Document, error) {
		if setErr := p.store.SetRunError(ctx, run.ID, err.Error()); setErr != nil {
			log.Warn("pipeline: failed to record run error", zap.Error(setErr))
		}
		return nil, err
	}

	// Classify: the input must exist and be readable. This is the one
	// unrecoverable failure mode.
	setStatus(model.RunStatusClassifying)
	if err := trackStage("classify", func() error {
		if _, statErr := os.Stat(docPath); statErr != nil {
			return eris.Wrapf(statErr, "pipeline: stat document %s", docPath)
		}
		return nil
	}); err != nil {
		return fail(err)
	}

	// Region detection.
	setStatus(model.RunStatusRegionDetection)
	var regions []model.Region
	_ = trackStage("region_detection", func() error {
		regions = p.detectRegions(ctx, docPath, 0)
		return nil
	})

	// Provider fan-out, first wave.
	setStatus(model.RunStatusProviderFanOut)
	var candidates []model.CandidateEntity
	var escalatedCount int
	_ = trackStage("provider_fan_out", func() error {
		results := p.fanOut(ctx, p.firstWave(regions))
		candidates = collectCandidates(results, false)

		// Hotspot escalation, second wave.
		esc := fusion.FindHotspots(candidates, p.cfg.Hotspot.LowConfThreshold, p.cfg.Hotspot.MaxRegionsPerPage, docPath)
		if !esc.Empty() {
			second := p.fanOut(ctx, p.escalationWave(esc))
			extra := collectCandidates(second, true)
			escalatedCount = len(extra)
			candidates = append(candidates, extra...)
		}
		return nil
	})

	// Fusion.
	setStatus(model.RunStatusFusing)
	var fused []model.FusedEntity
	_ = trackStage("fusing", func() error {
		fused = fusion.Fuse(candidates, p.rules)

		// Low title-block coverage gets one more chance with the vision
		// fallback before we settle.
		if cov := metadataCoverage(fused); cov < p.cfg.Hotspot.CoverageThreshold {
			extra := p.titleBlockFallback(ctx, docPath, cov)
			if len(extra) > 0 {
				escalatedCount += len(extra)
				candidates = append(candidates, extra...)
				fused = fusion.Fuse(candidates, p.rules)
			}
		}
		return nil
	})

	// Conflict check.
	setStatus(model.RunStatusConflictCheck)
	var conflicts []model.Conflict
	_ = trackStage("conflict_check", func() error {
		conflicts = fusion.DetectConflicts(fused, candidates, p.rules)
		return nil
	})

	// Adjudication, only when conflicts exist.
	adjudicated := 0
	if len(conflicts) > 0 {
		setStatus(model.RunStatusAdjudicating)
		_ = trackStage("adjudicating", func() error {
			adjudicated = p.adjudicateConflicts(ctx, conflicts, fused)
			return nil
		})
	}

	// Normalize and persist.
	setStatus(model.RunStatusNormalizing)
	var doc *model.Document
	_ = trackStage("normalizing", func() error {
		doc = normalize(docID, fused)
		return nil
	})

	annotated := p.annotateAccepted(candidates, fused)
	p.logTelemetry(docID, docPath, annotated, fused, conflicts, adjudicated, escalatedCount, stageLatency)

	if err := p.store.SaveCandidates(ctx, run.ID, docID, annotated); err != nil {
		log.Warn("pipeline: failed to save candidates", zap.Error(err))
	}
	if err := p.store.SaveDocument(ctx, docPath, doc); err != nil {
		log.Warn("pipeline: failed to save document", zap.Error(err))
	}
	if err := p.store.SetRunResult(ctx, run.ID, doc); err != nil {
		log.Warn("pipeline: failed to record run result", zap.Error(err))
	}

	log.Info("pipeline: extraction complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("fused", len(fused)),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("adjudicated", adjudicated),
	)
	return doc, nil
}

// titleBlockFallback asks the vision provider to re-read the title block
// when required metadata coverage is low.
func (p *Pipeline) titleBlockFallback(ctx context.Context, docPath string, coverage float64) []model.CandidateEntity {
	prov := p.registry.Get("claude")
	if prov == nil || !prov.Supports(model.RegionTitleBlock) {
		return nil
	}
	zap.L().Info("pipeline: metadata coverage below threshold, re-reading title block",
		zap.Float64("coverage", coverage),
		zap.Float64("threshold", p.cfg.Hotspot.CoverageThreshold),
	)
	region := model.Region{
		DocPath:    docPath,
		PageIndex:  0,
		BBox:       model.BBox{0, 0, 1, 1},
		RegionType: model.RegionTitleBlock,
	}
	results := p.fanOut(ctx, []dispatch{{prov: prov, region: region}})

	// Only the metadata entities matter here; anything else the provider
	// read off the title block would double-count the first wave.
	var out []model.CandidateEntity
	for _, res := range results {
		if res == nil || res.Failed() {
			continue
		}
		for _, c := range res.Metadata() {
			c.Escalated = true
			out = append(out, c)
		}
	}
	return out
}

// adjudicateConflicts resolves each conflict and patches the matching fused
// entity's fields in place. Returns how many were resolved by the service
// rather than the fallback.
func (p *Pipeline) adjudicateConflicts(ctx context.Context, conflicts []model.Conflict, fused []model.FusedEntity) int {
	if p.adjudicator == nil {
		return 0
	}

	used := 0
	for _, conflict := range conflicts {
		keys := adjudicate.SchemaKeys(conflict)
		fields, serviceUsed := p.adjudicator.Resolve(ctx, conflict, keys)
		if serviceUsed {
			used++
		}
		for i := range fused {
			if fused[i].EntityType != conflict.EntityType {
				continue
			}
			for k, v := range fields {
				fused[i].Fields[k] = v
			}
			fused[i].AdjudicatorUsed = serviceUsed
			break
		}
	}
	return used
}

// annotateAccepted calibrates the full candidate pool and marks the winning
// candidates before the audit write, so losers carry their calibrated
// confidence and agreement partners too.
func (p *Pipeline) annotateAccepted(candidates []model.CandidateEntity, fused []model.FusedEntity) []model.CandidateEntity {
	winners := make(map[string]model.FusedEntity, len(fused))
	for _, f := range fused {
		winners[f.ID] = f
	}
	out := fusion.Calibrate(candidates, p.rules.AgreementBoost)
	for i := range out {
		w, ok := winners[out[i].ID]
		if !ok {
			continue
		}
		out[i].Accepted = true
		out[i].Reason = w.Reason
		out[i].ConfidenceCalibrated = w.ConfidenceCalibrated
		out[i].AgreementPartners = w.AgreementPartners
		out[i].AdjudicatorUsed = w.AdjudicatorUsed
	}
	return out
}

func (p *Pipeline) logTelemetry(
	docID, docPath string,
	candidates []model.CandidateEntity,
	fused []model.FusedEntity,
	conflicts []model.Conflict,
	adjudicated, escalated int,
	stageLatency map[string]int64,
) {
	if p.telemetry == nil {
		return
	}

	acceptedByProv := make(map[string]int)
	for _, c := range candidates {
		p.telemetry.LogEntity(docID, c)
		if c.Accepted {
			acceptedByProv[c.Provider]++
		}
	}
	p.telemetry.LogSummary(telemetry.SummaryRecord{
		DocID:            docID,
		Source:           docPath,
		ConfigHash:       p.rules.Hash(),
		StageLatencyMS:   stageLatency,
		AcceptedByProv:   acceptedByProv,
		CandidateCount:   len(candidates),
		FusedCount:       len(fused),
		ConflictCount:    len(conflicts),
		AdjudicatedCount: adjudicated,
		EscalatedCount:   escalated,
	})
}
