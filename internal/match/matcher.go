// Package match assigns exactly one taxonomy category to raw alert text.
// Matching is total: every call yields a catalog member or the Unknown
// sentinel, and any oracle or transport failure collapses to Unknown
// rather than propagating. Category assignment is best-effort enrichment,
// not a precondition for the rest of triage.
package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/sitrep/internal/oracle"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

const matchMaxTokens = 64

// Matcher maps alert text onto the closed catalog. With an index it runs
// retrieval-then-verify: top-k candidates by similarity, then an oracle
// pick among only those. Without one it presents the oracle the full
// catalog directly.
type Matcher struct {
	oracle  oracle.Oracle
	catalog *taxonomy.Catalog
	index   *Index
	topK    int
	logger  log.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithIndex enables the retrieval-then-verify strategy with the given
// top-k (1 or 3).
func WithIndex(idx *Index, topK int) Option {
	return func(m *Matcher) {
		m.index = idx
		m.topK = topK
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

// New creates a Matcher. Without options it uses the oracle-direct
// strategy over the full catalog.
func New(o oracle.Oracle, catalog *taxonomy.Catalog, opts ...Option) *Matcher {
	m := &Matcher{
		oracle:  o,
		catalog: catalog,
		topK:    1,
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match assigns a category to the alert text. The returned error is a soft
// signal: the category is always usable, and a non-nil error only means
// the assignment degraded to Unknown for a reason worth surfacing.
func (m *Matcher) Match(ctx context.Context, alert string) (taxonomy.Category, error) {
	candidates := m.catalog.Profiles()

	if m.index != nil {
		cats, err := m.index.TopK(ctx, alert, m.topK)
		if err != nil {
			// retrieval is an optimization; degrade to the full catalog
			m.logger.Warn(ctx, "similarity retrieval failed, using full catalog", "error", err)
		} else {
			candidates = m.pick(cats)
		}
	}

	resp, err := m.oracle.Complete(ctx, &oracle.Request{
		System:    matchSystemPrompt,
		User:      buildMatchPrompt(candidates, alert),
		MaxTokens: matchMaxTokens,
	})
	if err != nil {
		return taxonomy.Unknown, fmt.Errorf("match: oracle: %w", err)
	}

	answer := cleanAnswer(resp.Text)
	if answer == string(taxonomy.Unknown) {
		return taxonomy.Unknown, nil
	}
	// case-sensitive: the catalog is the source of truth, never fuzzy-accept
	if !m.catalog.Contains(taxonomy.Category(answer)) {
		return taxonomy.Unknown, fmt.Errorf("match: oracle answer %q is not a catalog category", answer)
	}
	return taxonomy.Category(answer), nil
}

func (m *Matcher) pick(cats []taxonomy.Category) []taxonomy.Profile {
	out := make([]taxonomy.Profile, 0, len(cats))
	for _, c := range cats {
		if p, ok := m.catalog.Profile(c); ok {
			out = append(out, *p)
		}
	}
	return out
}

const matchSystemPrompt = `You map security alert reports onto a fixed catalog of alert categories.
You answer with exactly one category slug from the catalog you are given, and nothing else.
If no catalog entry fits the alert, answer exactly: unknown`

func buildMatchPrompt(candidates []taxonomy.Profile, alert string) string {
	var sb strings.Builder
	sb.WriteString("Catalog:\n")
	for _, p := range candidates {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", p.Category, p.Name, p.Description)
	}
	sb.WriteString("\nAlert report:\n")
	sb.WriteString(alert)
	sb.WriteString("\n\nAnswer with the single best matching category slug, or unknown.")
	return sb.String()
}

// cleanAnswer strips the decoration models wrap short answers in, without
// touching the answer's case.
func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, " \t`\"'.")
}
