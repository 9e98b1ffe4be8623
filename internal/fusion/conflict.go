package fusion

import (
	"fmt"
	"sort"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// DetectConflicts flags fused results whose winner is not trustworthy:
//
//	(a) another candidate scored within epsilon of the winner while
//	    disagreeing on the entity type's primary field, or
//	(b) the winner's calibrated confidence is below the adjudication
//	    threshold (a stricter bar than the hotspot threshold).
//
// The candidate pool must be the same one passed to Fuse. Pure function, no
// I/O; the returned conflicts carry the calibrated candidates so the
// adjudicator sees the same confidences fusion compared.
func DetectConflicts(fused []model.FusedEntity, candidates []model.CandidateEntity, rules Rules) []model.Conflict {
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

	var conflicts []model.Conflict
	for _, fe := range fused {
		group := byType[fe.EntityType]
		if len(group) == 0 {
			continue
		}

		if fe.ConfidenceCalibrated < rules.AdjudicationThreshold {
			conflicts = append(conflicts, model.Conflict{EntityType: fe.EntityType, Candidates: group})
			continue
		}

		if len(group) < 2 {
			continue
		}

		winScore := rules.Weight(fe.EntityType, fe.Provider) * fe.ConfidenceCalibrated
		primary := rules.PrimaryFields[string(fe.EntityType)]
		winVal := primaryValue(fe.CandidateEntity, primary)

		for _, c := range group {
			if c.ID == fe.ID || c.Provider == fe.Provider {
				continue
			}
			if winScore-Score(c, rules) > rules.Epsilon {
				continue
			}
			if primaryValue(c, primary) != winVal {
				conflicts = append(conflicts, model.Conflict{EntityType: fe.EntityType, Candidates: group})
				break
			}
		}
	}

	return conflicts
}

func primaryValue(c model.CandidateEntity, field string) string {
	if field == "" {
		return foldValue(c.TextRaw)
	}
	v, ok := c.Fields[field]
	if !ok || v == nil {
		return ""
	}
	return foldValue(fmt.Sprintf("%v", v))
}
