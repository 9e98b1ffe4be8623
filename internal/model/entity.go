package model

import (
	"github.com/google/uuid"
)

// EntityType classifies an extracted drawing entity.
type EntityType string

const (
	EntityTable     EntityType = "TABLE"
	EntityDimension EntityType = "DIMENSION"
	EntityWeld      EntityType = "WELD"
	EntityNote      EntityType = "NOTE"
	EntitySection   EntityType = "SECTION"
	EntityBOMRow    EntityType = "BOM_ROW"
	EntityMetadata  EntityType = "METADATA"
)

// EntityTypes lists every recognized entity type in a fixed order.
var EntityTypes = []EntityType{
	EntityTable,
	EntityDimension,
	EntityWeld,
	EntityNote,
	EntitySection,
	EntityBOMRow,
	EntityMetadata,
}

// Selection reasons recorded on a fused entity.
const (
	ReasonOwnerDefault    = "owner_default"
	ReasonHighestWeighted = "highest_weighted"
	ReasonFieldBackfill   = "field_backfill"
)

// BBox is a bounding box in normalized page coordinates (x1, y1, x2, y2).
type BBox [4]float64

// CandidateEntity is one provider's proposed instance of an extracted item.
// It is immutable after creation except for the calibration and acceptance
// annotations the fusion engine adds.
type CandidateEntity struct {
	ID         string         `json:"id"`
	EntityType EntityType     `json:"entity_type"`
	Page       int            `json:"page"`
	BBox       BBox           `json:"bbox"`
	Fields     map[string]any `json:"fields"`
	TextRaw    string         `json:"text_raw,omitempty"`
	Confidence float64        `json:"confidence"`
	Provider   string         `json:"provider"`

	// LowConfidence is fixed at creation: Confidence < the hotspot threshold.
	LowConfidence bool `json:"low_confidence"`

	// Annotations set during fusion.
	ConfidenceCalibrated float64  `json:"confidence_calibrated,omitempty"`
	Accepted             bool     `json:"_accepted,omitempty"`
	Reason               string   `json:"_reason,omitempty"`
	AgreementPartners    []string `json:"_agreement_partners,omitempty"`
	Escalated            bool     `json:"_escalated,omitempty"`
	AdjudicatorUsed      bool     `json:"_adjudicator_used,omitempty"`
}

// NewCandidate creates a CandidateEntity with a fresh ID. The low-confidence
// flag is derived from the supplied threshold and never recomputed later.
func NewCandidate(et EntityType, provider string, page int, bbox BBox, fields map[string]any, confidence, lowConfThreshold float64) CandidateEntity {
	if fields == nil {
		fields = map[string]any{}
	}
	return CandidateEntity{
		ID:            uuid.New().String(),
		EntityType:    et,
		Page:          page,
		BBox:          bbox,
		Fields:        fields,
		Confidence:    confidence,
		Provider:      provider,
		LowConfidence: confidence < lowConfThreshold,
	}
}

// Clone returns a deep copy; fusion clones the winner before annotating it
// so the original candidate list stays untouched.
func (c CandidateEntity) Clone() CandidateEntity {
	out := c
	out.Fields = make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	if c.AgreementPartners != nil {
		out.AgreementPartners = append([]string(nil), c.AgreementPartners...)
	}
	return out
}

// FusedEntity is a candidate promoted to authoritative status for its
// entity type, with acceptance provenance.
type FusedEntity struct {
	CandidateEntity
	// SourceCandidates lists the IDs of every candidate considered.
	SourceCandidates []string `json:"source_candidates"`
}

// Conflict groups the candidates fusion could not confidently separate.
// It exists only between conflict detection and adjudication.
type Conflict struct {
	EntityType EntityType        `json:"entity_type"`
	Candidates []CandidateEntity `json:"candidates"`
}
