// Package compose produces the client-facing answer for a triaged sitrep.
// Escalations and acknowledgments get fixed replies with no generation;
// only automatable questions reach the oracle, under a bounded contract
// with structural validation on the way out.
package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/oracle"
	"github.com/linnemanlabs/sitrep/internal/sitrep"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

const (
	// EscalationNotice is returned verbatim when the classifier decided on
	// escalation. The oracle must not be invoked on that path: a human
	// handoff was already decided, so free generation is pure cost and
	// risk.
	EscalationNotice = "This query requires analysis of your environment. A security analyst will review the alert and follow up with you directly."

	// Closing is the mandatory final sentence of every generated answer.
	Closing = "We hope this answers your question. Thank you!"

	// FailureNotice is returned when the oracle call fails.
	FailureNotice = "We were unable to generate a response, please retry."
)

const (
	composeMaxTokens = 512

	minSentences     = 3
	defaultSentences = 5
)

// Composer renders the final response string for a query-bearing triage.
type Composer struct {
	oracle       oracle.Oracle
	maxSentences int
	logger       log.Logger
}

// New creates a Composer. maxSentences is clamped to the 3..5 range the
// response contract allows; zero means the default of 5.
func New(o oracle.Oracle, maxSentences int, logger log.Logger) *Composer {
	if maxSentences <= 0 {
		maxSentences = defaultSentences
	}
	if maxSentences < minSentences {
		maxSentences = minSentences
	}
	if maxSentences > defaultSentences {
		maxSentences = defaultSentences
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Composer{oracle: o, maxSentences: maxSentences, logger: logger}
}

// Input carries everything already known about the triage; the composer
// grounds the answer in it rather than re-deriving information.
type Input struct {
	Category taxonomy.Category
	Profile  *taxonomy.Profile // nil when Category is Unknown
	Fields   sitrep.Fields
	Alert    string
	Query    sitrep.QueryMetadata
	Decision *classify.Decision
}

// Compose returns the response for the query. The string is always usable;
// a non-nil error is the soft signal that generation failed and the
// generic notice was substituted.
func (c *Composer) Compose(ctx context.Context, in *Input) (string, error) {
	switch {
	case in.Decision.Acknowledgment:
		return ackReply(in.Query.Name), nil
	case in.Decision.Classification == classify.Escalate:
		return EscalationNotice, nil
	}

	resp, err := c.oracle.Complete(ctx, &oracle.Request{
		System:    c.buildSystemPrompt(in.Query.Name),
		User:      buildUserPrompt(in),
		MaxTokens: composeMaxTokens,
	})
	if err != nil {
		return FailureNotice, fmt.Errorf("compose: oracle: %w", err)
	}
	return c.salvage(ctx, resp.Text), nil
}

func greeting(name string) string {
	if name != "" {
		return "Hey " + name
	}
	return "Hey"
}

func ackReply(name string) string {
	return greeting(name) + ", thank you for letting us know. We've noted your response."
}

func (c *Composer) buildSystemPrompt(name string) string {
	return fmt.Sprintf(`You are a senior security analyst writing a clear, accurate, concise reply to a client.
Rules:
1. Start with "%s,"
2. State the current security context and its implication.
3. Give exactly one recommendation, phrased as "we", never "I".
4. Use at most %d sentences in total.
5. Do not repeat literal IP addresses, timestamps, hashes, or internal codes from the alert; interpret, do not echo.
6. End with exactly: %s`, greeting(name), c.maxSentences, Closing)
}

func buildUserPrompt(in *Input) string {
	var sb strings.Builder
	sb.WriteString("Alert summary:\n")
	sb.WriteString(in.Alert)

	if in.Profile != nil {
		fmt.Fprintf(&sb, "\n\nAlert category: %s (%s severity)\n", in.Profile.Name, in.Profile.Tier)
		sb.WriteString("Background: " + in.Profile.Background + "\n")
		sb.WriteString("Risk: " + in.Profile.Risk + "\n")
		sb.WriteString("Standard mitigation: " + in.Profile.Mitigation)
	}

	if len(in.Fields) > 0 {
		sb.WriteString("\n\nExtracted fields (already parsed, do not re-derive):\n")
		for _, fv := range in.Fields.Ordered() {
			fmt.Fprintf(&sb, "- %s: %s\n", fv.Field, fv.Value)
		}
	}

	sb.WriteString("\nClient query: " + in.Query.Content)
	sb.WriteString("\n\nExplain what the alert means, why it matters, and what action we recommend, following the rules exactly.")
	return sb.String()
}

var closingSentences = len(splitSentences(Closing))

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

// splitSentences cuts prose after runs of terminal punctuation followed by
// whitespace or end of text. Punctuation inside a word (decimals, version
// strings) is not a boundary, and every input character lands in exactly
// one sentence, so rejoining loses nothing. Crude, but only used to
// enforce a ceiling, not to understand the text.
func splitSentences(s string) []string {
	s = strings.ReplaceAll(s, "\n", " ")

	var out []string
	start := 0
	for i := 0; i < len(s); {
		if !isTerminal(s[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(s) && isTerminal(s[j]) {
			j++
		}
		if j < len(s) && s[j] != ' ' && s[j] != '\t' {
			i = j
			continue
		}
		if t := strings.TrimSpace(s[start:j]); t != "" {
			out = append(out, t)
		}
		start = j
		i = j
	}
	if t := strings.TrimSpace(s[start:]); t != "" {
		out = append(out, t)
	}
	return out
}

// salvage enforces the structural contract on the oracle's output rather
// than failing: truncate past the sentence ceiling and re-append the
// mandatory closing.
func (c *Composer) salvage(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return FailureNotice
	}

	body := text
	if i := strings.Index(body, Closing); i >= 0 {
		body = strings.TrimSpace(body[:i])
	}

	sentences := splitSentences(body)
	// the closing counts against the ceiling
	limit := c.maxSentences - closingSentences
	if limit < 1 {
		limit = 1
	}
	if len(sentences) > limit {
		c.logger.Warn(ctx, "generated response over sentence ceiling, truncating",
			"sentences", len(sentences), "limit", limit)
		sentences = sentences[:limit]
	}
	if len(sentences) == 0 {
		return Closing
	}
	return strings.Join(sentences, " ") + " " + Closing
}
