// Package adjudicate resolves fusion conflicts with a language model,
// falling back to the strongest raw candidate whenever the service cannot
// produce a schema-exact answer.
package adjudicate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/pkg/anthropic"
)

// Adjudicator merges the candidates of one conflict into a single field set.
// It never returns an error: every failure path degrades to the fallback and
// the pipeline keeps moving.
type Adjudicator struct {
	client anthropic.Client
	cfg    config.AdjudicatorConfig
}

// New creates an adjudicator. The client may be nil when cfg.Enabled is
// false; the fallback path never touches it.
func New(client anthropic.Client, cfg config.AdjudicatorConfig) *Adjudicator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Adjudicator{client: client, cfg: cfg}
}

// SchemaKeys is the strict key enumeration for a conflict: the sorted union
// of every candidate's field names.
func SchemaKeys(conflict model.Conflict) []string {
	set := make(map[string]bool)
	for _, c := range conflict.Candidates {
		for k := range c.Fields {
			set[k] = true
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns the merged fields for a conflict and whether the external
// service produced them. When the service is disabled, errors, or returns
// anything but an object with exactly schemaKeys, the fields of the
// candidate with the highest raw confidence are returned instead.
func (a *Adjudicator) Resolve(ctx context.Context, conflict model.Conflict, schemaKeys []string) (map[string]any, bool) {
	if len(conflict.Candidates) == 0 {
		return map[string]any{}, false
	}
	if !a.cfg.Enabled || a.client == nil {
		return a.fallback(conflict), false
	}

	prompt := buildPrompt(conflict, schemaKeys)
	mdl := a.modelFor(conflict.EntityType)

	// Usage accumulates across retries so the log shows the full cost of
	// settling this conflict, not just the winning attempt.
	var usage anthropic.TokenUsage
	defer func() { usage.LogUsage(mdl, "adjudicate") }()

	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		fields, u, err := a.callService(ctx, mdl, prompt, schemaKeys)
		usage.Add(u)
		if err == nil {
			return fields, true
		}
		zap.L().Warn("adjudicate: attempt failed",
			zap.String("entity_type", string(conflict.EntityType)),
			zap.String("model", mdl),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return a.fallback(conflict), false
}

func (a *Adjudicator) modelFor(et model.EntityType) string {
	if m, ok := a.cfg.Models[string(et)]; ok && m != "" {
		return m
	}
	return a.cfg.DefaultModel
}

// fallback picks the candidate with strictly maximal raw confidence. Ties
// keep the earlier candidate, matching fusion's stable ordering.
func (a *Adjudicator) fallback(conflict model.Conflict) map[string]any {
	best := conflict.Candidates[0]
	for _, c := range conflict.Candidates[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	out := make(map[string]any, len(best.Fields))
	for k, v := range best.Fields {
		out[k] = v
	}
	return out
}

const adjudicateSystemPrompt = `You arbitrate between conflicting extractions from an engineering drawing. ` +
	`Given several candidate field sets, produce the single most likely correct field set. ` +
	`Respond with a JSON object containing exactly the keys listed, no others, and no prose.`

func buildPrompt(conflict model.Conflict, schemaKeys []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Entity type: %s\nRequired keys: %s\n\nCandidates:\n",
		conflict.EntityType, strings.Join(schemaKeys, ", "))
	for i, c := range conflict.Candidates {
		fields, err := json.Marshal(c.Fields)
		if err != nil {
			fields = []byte("{}")
		}
		fmt.Fprintf(&sb, "%d. provider=%s confidence=%.2f fields=%s\n", i+1, c.Provider, c.Confidence, fields)
	}
	sb.WriteString("\nReturn the merged field set as a JSON object with exactly the required keys.")
	return sb.String()
}

func (a *Adjudicator) callService(ctx context.Context, mdl, prompt string, schemaKeys []string) (map[string]any, anthropic.TokenUsage, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     mdl,
		MaxTokens: a.cfg.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: adjudicateSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, anthropic.TokenUsage{}, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(anthropic.ExtractJSON(resp.Text())), &fields); err != nil {
		return nil, resp.Usage, eris.Wrap(err, "adjudicate: unmarshal response")
	}
	if err := validateKeys(fields, schemaKeys); err != nil {
		return nil, resp.Usage, err
	}
	return fields, resp.Usage, nil
}

// validateKeys enforces the strict schema contract: exactly the required
// keys, nothing more, nothing less.
func validateKeys(fields map[string]any, schemaKeys []string) error {
	if len(fields) != len(schemaKeys) {
		return eris.Errorf("adjudicate: got %d keys, want %d", len(fields), len(schemaKeys))
	}
	for _, k := range schemaKeys {
		if _, ok := fields[k]; !ok {
			return eris.Errorf("adjudicate: missing key %q", k)
		}
	}
	return nil
}
