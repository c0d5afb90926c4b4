package triage

import (
	"encoding/json"
	"time"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/sitrep"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

// Pipeline stage names, used in error records and metrics labels.
const (
	StageMatch    = "match"
	StageClassify = "classify"
	StageCompose  = "compose"
	StageFilter   = "filter"
)

// StageError records one pipeline stage degrading to its safe default.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Result is the outcome of a triage run. Immutable once returned.
type Result struct {
	ID             string                  `json:"id"`
	Category       taxonomy.Category       `json:"category"`
	Fields         sitrep.Fields           `json:"fields"`
	Query          *sitrep.QueryMetadata   `json:"query,omitempty"`
	Acknowledgment bool                    `json:"acknowledgment,omitempty"`
	Classification classify.Classification `json:"classification,omitempty"`
	Phase          classify.Phase          `json:"phase,omitempty"`
	Response       string                  `json:"response,omitempty"`
	Filter         json.RawMessage         `json:"filter,omitempty"`

	// ManualReview is set when the classification escalated or any stage
	// degraded; callers are expected to surface it so the human-in-the-loop
	// handoff stays visible even under partial failure.
	ManualReview bool         `json:"manual_review"`
	Errors       []StageError `json:"errors,omitempty"`

	CreatedAt        time.Time `json:"created_at"`
	Duration         float64   `json:"duration_seconds,omitempty"`
	OracleCalls      int       `json:"oracle_calls,omitempty"`
	InputTokensUsed  int       `json:"input_tokens_used,omitempty"`
	OutputTokensUsed int       `json:"output_tokens_used,omitempty"`
}
