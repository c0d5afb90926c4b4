package triage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/compose"
	"github.com/linnemanlabs/sitrep/internal/oracle"
	"github.com/linnemanlabs/sitrep/internal/sitrep"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

// CategoryMatcher assigns a taxonomy category to alert text. The category
// is always usable; the error is a soft signal that it degraded to
// Unknown.
type CategoryMatcher interface {
	Match(ctx context.Context, alert string) (taxonomy.Category, error)
}

// QueryClassifier labels query content. The decision is always usable; the
// error is a soft signal that a fail-safe default was applied.
type QueryClassifier interface {
	Classify(ctx context.Context, content, alert string) (*classify.Decision, error)
}

// ResponseComposer renders the client-facing response.
type ResponseComposer interface {
	Compose(ctx context.Context, in *compose.Input) (string, error)
}

// FilterGenerator derives a JSON alert-processing filter.
type FilterGenerator interface {
	Generate(ctx context.Context, alert, query string, category taxonomy.Category, cls classify.Classification) (json.RawMessage, error)
}

// EngineHooks are optional callbacks for instrumentation.
type EngineHooks struct {
	OnStageError func(stage string)
	OnComplete   func(e *CompleteEvent)
}

// CompleteEvent summarizes a finished triage run for instrumentation.
type CompleteEvent struct {
	Category       taxonomy.Category
	Classification classify.Classification
	HasQuery       bool
	ManualReview   bool
	Errors         int
	Duration       float64
	OracleCalls    int
	TokensIn       int
	TokensOut      int
}

// Engine sequences the triage stages. Every stage failure is caught here,
// recorded on the result, and replaced with that stage's safe default, so
// no sub-failure ever aborts the call.
type Engine struct {
	catalog    *taxonomy.Catalog
	matcher    CategoryMatcher
	classifier QueryClassifier
	composer   ResponseComposer
	filters    FilterGenerator
	logger     log.Logger
	hooks      EngineHooks
}

// NewEngine creates a triage engine with the given stage implementations.
func NewEngine(catalog *taxonomy.Catalog, matcher CategoryMatcher, classifier QueryClassifier, composer ResponseComposer, filters FilterGenerator, logger log.Logger, hooks EngineHooks) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		catalog:    catalog,
		matcher:    matcher,
		classifier: classifier,
		composer:   composer,
		filters:    filters,
		logger:     logger,
		hooks:      hooks,
	}
}

// Run executes one triage. Nothing is shared between calls except the
// read-only catalog, so concurrent runs are safe.
func (e *Engine) Run(ctx context.Context, id string, s *sitrep.Sitrep) *Result {
	start := time.Now()
	L := e.logger.With("triage_id", id)

	var tally oracle.Tally
	ctx = oracle.WithTally(ctx, &tally)

	res := &Result{
		ID:        id,
		Category:  taxonomy.Unknown,
		CreatedAt: start.UTC(),
	}

	// field extraction and category matching have no data dependency;
	// the matcher blocks on the oracle, extraction is pure CPU
	type matchOut struct {
		cat taxonomy.Category
		err error
	}
	mc := make(chan matchOut, 1)
	go func() {
		cat, err := e.matcher.Match(ctx, s.Alert)
		mc <- matchOut{cat: cat, err: err}
	}()

	res.Fields = sitrep.ExtractFields(s.Alert)

	mo := <-mc
	res.Category = mo.cat
	if mo.err != nil {
		e.record(ctx, res, StageMatch, mo.err)
	}

	if strings.TrimSpace(s.Query) != "" {
		e.runQuery(ctx, res, s)
	}

	res.ManualReview = res.Classification == classify.Escalate || len(res.Errors) > 0
	res.OracleCalls, res.InputTokensUsed, res.OutputTokensUsed = tally.Totals()
	res.Duration = time.Since(start).Seconds()

	L.Info(ctx, "triage complete",
		"category", res.Category,
		"classification", res.Classification,
		"manual_review", res.ManualReview,
		"errors", len(res.Errors),
		"oracle_calls", res.OracleCalls,
		"duration", res.Duration,
	)

	if e.hooks.OnComplete != nil {
		e.hooks.OnComplete(&CompleteEvent{
			Category:       res.Category,
			Classification: res.Classification,
			HasQuery:       res.Query != nil,
			ManualReview:   res.ManualReview,
			Errors:         len(res.Errors),
			Duration:       res.Duration,
			OracleCalls:    res.OracleCalls,
			TokensIn:       res.InputTokensUsed,
			TokensOut:      res.OutputTokensUsed,
		})
	}
	return res
}

// runQuery handles the query-bearing half of the pipeline: metadata,
// classification, composition, filter generation. Strictly sequential;
// each step feeds the next.
func (e *Engine) runQuery(ctx context.Context, res *Result, s *sitrep.Sitrep) {
	qm := sitrep.ParseQueryMetadata(s.Query)
	res.Query = &qm

	dec, err := e.classifier.Classify(ctx, qm.Content, s.Alert)
	if err != nil {
		e.record(ctx, res, StageClassify, err)
	}
	if dec == nil {
		dec = &classify.Decision{Classification: classify.Escalate, Phase: classify.PhaseAnalysis}
	}
	res.Acknowledgment = dec.Acknowledgment
	res.Classification = dec.Classification
	res.Phase = dec.Phase

	var profile *taxonomy.Profile
	if p, ok := e.catalog.Profile(res.Category); ok {
		profile = p
	}

	text, err := e.composer.Compose(ctx, &compose.Input{
		Category: res.Category,
		Profile:  profile,
		Fields:   res.Fields,
		Alert:    s.Alert,
		Query:    qm,
		Decision: dec,
	})
	if err != nil {
		e.record(ctx, res, StageCompose, err)
	}
	res.Response = text

	// acknowledgments carry no filtering intent worth mining
	if e.filters != nil && !dec.Acknowledgment {
		filter, err := e.filters.Generate(ctx, s.Alert, qm.Content, res.Category, dec.Classification)
		if err != nil {
			e.record(ctx, res, StageFilter, err)
			return
		}
		res.Filter = filter
	}
}

func (e *Engine) record(ctx context.Context, res *Result, stage string, err error) {
	e.logger.Warn(ctx, "stage degraded to safe default", "stage", stage, "error", err)
	res.Errors = append(res.Errors, StageError{Stage: stage, Message: err.Error()})
	if e.hooks.OnStageError != nil {
		e.hooks.OnStageError(stage)
	}
}
