package fusion

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// weldBackfillFields is the fixed field list eligible for backfill on WELD
// entities.
var weldBackfillFields = []string{
	"side", "process", "symbol", "size", "size_unit",
	"length", "pitch", "contour", "finish", "tail",
}

// Fuse selects one authoritative entity per entity type from the candidate
// pool. Candidates are first ordered by the explicit provider priority so
// tie-breaking never depends on caller insertion order, then calibrated,
// scored by weighted calibrated confidence, and arbitrated per type.
// A type with no candidates is silently skipped. Deterministic: repeated
// calls over the same input yield the same winners.
func Fuse(candidates []model.CandidateEntity, rules Rules) []model.FusedEntity {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]model.CandidateEntity, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rules.priorityIndex(ordered[i].Provider) < rules.priorityIndex(ordered[j].Provider)
	})

	calibrated := Calibrate(ordered, rules.AgreementBoost)

	byType := make(map[model.EntityType][]model.CandidateEntity)
	for _, c := range calibrated {
		byType[c.EntityType] = append(byType[c.EntityType], c)
	}

	var fused []model.FusedEntity
	for _, et := range model.EntityTypes {
		group := byType[et]
		if len(group) == 0 {
			continue
		}
		fused = append(fused, fuseGroup(et, group, rules))
	}
	return fused
}

// Score computes the arbitration score for one calibrated candidate.
func Score(c model.CandidateEntity, rules Rules) float64 {
	return rules.Weight(c.EntityType, c.Provider) * c.ConfidenceCalibrated
}

func fuseGroup(et model.EntityType, group []model.CandidateEntity, rules Rules) model.FusedEntity {
	winIdx := 0
	winScore := Score(group[0], rules)
	for i := 1; i < len(group); i++ {
		// Strict greater-than keeps ties on the earlier (higher priority)
		// candidate.
		if s := Score(group[i], rules); s > winScore {
			winIdx, winScore = i, s
		}
	}

	winner := group[winIdx].Clone()
	winner.Accepted = true
	winner.Reason = model.ReasonOwnerDefault

	sources := make([]string, len(group))
	for i, c := range group {
		sources[i] = c.ID
	}

	switch et {
	case model.EntityWeld:
		backfillWeld(&winner, group, winIdx)
	case model.EntityTable:
		// Cell-level backfill across providers is deferred; the winning grid
		// is kept as-is.
		if winner.Provider != rules.PreferredGrid {
			winner.Reason = model.ReasonHighestWeighted
		}
	case model.EntityDimension:
		winner.Reason = model.ReasonHighestWeighted
	}

	zap.L().Debug("fusion: winner selected",
		zap.String("entity_type", string(et)),
		zap.String("provider", winner.Provider),
		zap.Float64("score", winScore),
		zap.String("reason", winner.Reason),
		zap.Int("candidates", len(group)),
	)

	return model.FusedEntity{CandidateEntity: winner, SourceCandidates: sources}
}

// backfillWeld copies missing weld fields into the winner from losing
// candidates whose calibrated confidence is at least the winner's.
func backfillWeld(winner *model.CandidateEntity, group []model.CandidateEntity, winIdx int) {
	for _, field := range weldBackfillFields {
		if !emptyValue(winner.Fields[field]) {
			continue
		}
		for i, c := range group {
			if i == winIdx {
				continue
			}
			v := c.Fields[field]
			if emptyValue(v) {
				continue
			}
			if c.ConfidenceCalibrated >= winner.ConfidenceCalibrated {
				winner.Fields[field] = v
				winner.Reason = model.ReasonFieldBackfill
				break
			}
		}
	}
}

// emptyValue reports whether a field value is missing, null, blank or zero.
func emptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	case float32:
		return t == 0
	}
	return false
}
