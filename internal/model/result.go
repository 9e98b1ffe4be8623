package model

// ProviderResult aggregates everything one provider produced for one region
// or page. It is owned by the pipeline run that created it and is never
// shared across runs. A provider that fails internally still returns a
// result, with empty candidates and Raw["error"] populated.
type ProviderResult struct {
	Provider   string            `json:"provider"`
	Region     *Region           `json:"region,omitempty"`
	Candidates []CandidateEntity `json:"candidates"`
	Raw        map[string]any    `json:"raw,omitempty"`
	LatencyMS  int64             `json:"latency_ms"`
}

// EmptyResult builds the result used when a provider call fails or times
// out: no candidates, the failure recorded as ordinary data.
func EmptyResult(provider string, region *Region, errMsg string) *ProviderResult {
	return &ProviderResult{
		Provider:   provider,
		Region:     region,
		Candidates: []CandidateEntity{},
		Raw:        map[string]any{"error": errMsg},
	}
}

// Failed reports whether the provider recorded an internal error.
func (r *ProviderResult) Failed() bool {
	if r.Raw == nil {
		return false
	}
	_, ok := r.Raw["error"]
	return ok
}

// OfType returns the candidates carrying the given entity type.
func (r *ProviderResult) OfType(et EntityType) []CandidateEntity {
	var out []CandidateEntity
	for _, c := range r.Candidates {
		if c.EntityType == et {
			out = append(out, c)
		}
	}
	return out
}

// BOMRows, Welds, Dimensions and Metadata are typed views over the candidate
// list for the entity families downstream stages inspect directly.
func (r *ProviderResult) BOMRows() []CandidateEntity    { return r.OfType(EntityBOMRow) }
func (r *ProviderResult) Welds() []CandidateEntity      { return r.OfType(EntityWeld) }
func (r *ProviderResult) Dimensions() []CandidateEntity { return r.OfType(EntityDimension) }
func (r *ProviderResult) Metadata() []CandidateEntity   { return r.OfType(EntityMetadata) }
