// Package filtergen derives a JSON path filter from a triaged sitrep, for
// suppressing or routing similar alerts downstream. Generation is
// best-effort enrichment: a failed or malformed filter is reported as a
// soft signal and never blocks triage.
package filtergen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/oracle"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

const filterMaxTokens = 768

// Generator produces alert-processing filters from an alert/query pair.
type Generator struct {
	oracle oracle.Oracle
	logger log.Logger
}

// New creates a Generator.
func New(o oracle.Oracle, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.Nop()
	}
	return &Generator{oracle: o, logger: logger}
}

// Generate asks the oracle for a JSON filter grounded in the alert and
// query, validates the reply is an object, and stamps it with generation
// metadata. Returns nil with a soft error when no usable filter came back.
func (g *Generator) Generate(ctx context.Context, alert, query string, category taxonomy.Category, cls classify.Classification) (json.RawMessage, error) {
	resp, err := g.oracle.Complete(ctx, &oracle.Request{
		System:    filterSystemPrompt,
		User:      fmt.Sprintf("Alert summary:\n%s\n\nCustomer query:\n%s", alert, query),
		MaxTokens: filterMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("filtergen: oracle: %w", err)
	}

	raw := stripFences(resp.Text)
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("filtergen: oracle did not return a JSON object")
	}
	if !parsed.Get("paths").Exists() && !parsed.Get("conditions").Exists() {
		return nil, fmt.Errorf("filtergen: filter has neither paths nor conditions")
	}

	out := raw
	if out, err = sjson.Set(out, "metadata.generated_for", string(category)); err != nil {
		return nil, fmt.Errorf("filtergen: stamp metadata: %w", err)
	}
	if out, err = sjson.Set(out, "metadata.query_type", string(cls)); err != nil {
		return nil, fmt.Errorf("filtergen: stamp metadata: %w", err)
	}
	return json.RawMessage(out), nil
}

// stripFences removes a markdown code fence if the oracle wrapped its JSON
// in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

const filterSystemPrompt = `You create JSON path filters that help process security alerts similar to the one you are shown.

Return a single JSON object with:
- "paths": key JSON paths to monitor
- "conditions": conditions to match
- "thresholds": thresholds or patterns to detect

Return only valid JSON, no explanation and no markdown fences.`
