package fusion

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// Calibrate assigns ConfidenceCalibrated to every candidate. The default is
// the identity mapping. Two adjustments apply:
//
//   - DIMENSION: candidates whose value agrees exactly (after unicode and
//     whitespace normalization) form an agreement group; every member of a
//     group of two or more gets +boost, clamped to 1.0, and records its
//     agreeing partners.
//   - TABLE: every candidate gets +boost/2 regardless of agreement, so a
//     non-primary grid source remains eligible for backfill.
//
// The input slice is not modified; a calibrated copy is returned.
func Calibrate(candidates []model.CandidateEntity, boost float64) []model.CandidateEntity {
	out := make([]model.CandidateEntity, len(candidates))
	for i, c := range candidates {
		out[i] = c
		out[i].ConfidenceCalibrated = c.Confidence
	}

	// Universal half boost for TABLE candidates.
	for i := range out {
		if out[i].EntityType == model.EntityTable {
			out[i].ConfidenceCalibrated = clamp01(out[i].ConfidenceCalibrated + boost/2)
		}
	}

	// Agreement boost for DIMENSION candidates.
	groups := make(map[string][]int)
	for i := range out {
		if out[i].EntityType != model.EntityDimension {
			continue
		}
		key := agreementKey(out[i])
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], i)
	}
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		for _, i := range members {
			out[i].ConfidenceCalibrated = clamp01(out[i].ConfidenceCalibrated + boost)
			partners := make([]string, 0, len(members)-1)
			for _, j := range members {
				if j != i {
					partners = append(partners, out[j].ID)
				}
			}
			out[i].AgreementPartners = partners
		}
	}

	return out
}

// agreementKey renders the value two DIMENSION candidates must share to
// count as agreeing. OCR output differs in unicode form and spacing more
// often than in substance, so both are folded before comparison.
func agreementKey(c model.CandidateEntity) string {
	v, ok := c.Fields["value"]
	if !ok || v == nil {
		if c.TextRaw == "" {
			return ""
		}
		return foldValue(c.TextRaw)
	}
	return foldValue(fmt.Sprintf("%v", v))
}

func foldValue(s string) string {
	s = norm.NFKC.String(s)
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
