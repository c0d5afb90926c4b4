// Package classify decides whether a client query can be answered
// automatically or must be escalated to a human analyst. The default is
// escalation: an unnecessary escalation costs analyst time, but an
// auto-answer to a customer-specific question is a safety failure, so
// every ambiguous or failed path lands on Escalate.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/sitrep/internal/oracle"
)

// Classification labels a client query.
type Classification string

const (
	// Automatable queries ask for general security knowledge and can be
	// answered without touching customer data.
	Automatable Classification = "automatable"

	// Escalate queries need a human analyst and customer-specific context.
	Escalate Classification = "escalate"
)

// Phase refines an Escalate decision for analyst routing.
type Phase string

const (
	// PhaseFiltering covers requests to filter, suppress, or whitelist
	// traffic that the client considers expected.
	PhaseFiltering Phase = "phase-2"

	// PhaseAnalysis covers requests for investigation of specific data,
	// anomalies, or incidents. The default when routing is unclear.
	PhaseAnalysis Phase = "phase-3"
)

// Decision is the classifier's full verdict on one query.
type Decision struct {
	// Acknowledgment is set when the query is a statement rather than a
	// question; the rubric is not applied and Classification stays empty.
	Acknowledgment bool
	Classification Classification
	// Phase is set only for Escalate decisions.
	Phase Phase
}

const classifyMaxTokens = 32

// Classifier applies the acknowledgment check and the
// automatable-vs-escalate rubric.
type Classifier struct {
	oracle oracle.Oracle
	logger log.Logger
}

// New creates a Classifier.
func New(o oracle.Oracle, logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Classifier{oracle: o, logger: logger}
}

// Classify labels the query content. The Decision is always usable; a
// non-nil error is a soft signal that an oracle call failed or returned
// garbage and a fail-safe default was applied.
func (c *Classifier) Classify(ctx context.Context, content, alert string) (*Decision, error) {
	// acknowledgment short-circuits before the rubric ever runs
	ack, ackErr := c.isAcknowledgment(ctx, content)
	if ackErr != nil {
		// treat as a question and let the rubric (or its own failure
		// handling) decide
		c.logger.Warn(ctx, "acknowledgment check failed, treating as question", "error", ackErr)
	}
	if ack {
		return &Decision{Acknowledgment: true}, nil
	}

	cls, err := c.applyRubric(ctx, content, alert)
	if err != nil {
		return &Decision{Classification: Escalate, Phase: PhaseAnalysis},
			fmt.Errorf("classify: %w", err)
	}
	d := &Decision{Classification: cls}
	if cls == Escalate {
		d.Phase = c.identifyPhase(ctx, content)
	}
	return d, nil
}

func (c *Classifier) isAcknowledgment(ctx context.Context, content string) (bool, error) {
	resp, err := c.oracle.Complete(ctx, &oracle.Request{
		System:    ackSystemPrompt,
		User:      "Message: " + content,
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		return false, err
	}
	return normalize(resp.Text) == "acknowledgment", nil
}

func (c *Classifier) applyRubric(ctx context.Context, content, alert string) (Classification, error) {
	resp, err := c.oracle.Complete(ctx, &oracle.Request{
		System:    rubricSystemPrompt,
		User:      fmt.Sprintf("Alert context:\n%s\n\nClient query: %s", alert, content),
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		return Escalate, err
	}
	// validate against the closed pair; anything else fails safe
	switch Classification(normalize(resp.Text)) {
	case Automatable:
		return Automatable, nil
	case Escalate:
		return Escalate, nil
	default:
		return Escalate, fmt.Errorf("unparseable rubric answer %q", strings.TrimSpace(resp.Text))
	}
}

// identifyPhase routes an escalated query. Failures default to the
// analysis phase without surfacing an error; routing is advisory.
func (c *Classifier) identifyPhase(ctx context.Context, content string) Phase {
	resp, err := c.oracle.Complete(ctx, &oracle.Request{
		System:    phaseSystemPrompt,
		User:      "Query: " + content,
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		c.logger.Warn(ctx, "phase identification failed, defaulting", "error", err)
		return PhaseAnalysis
	}
	if Phase(normalize(resp.Text)) == PhaseFiltering {
		return PhaseFiltering
	}
	return PhaseAnalysis
}

func normalize(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), "`\"'."))
}

const ackSystemPrompt = `You decide whether a client message is an acknowledgment/statement or a question.

Acknowledgments/statements include:
- "I received the documents"
- "This traffic is expected"
- "Thank you for the information"
- "This is from our normal operations"

Questions include:
- "Why did this happen?"
- "What does this mean?"
- "Should I be concerned?"

Answer with exactly one word: acknowledgment or question.`

const rubricSystemPrompt = `You decide whether a client's security question can be answered automatically or requires a human analyst.

Answer automatable when the question asks for:
- general security best practice
- industry-standard mitigation
- comparative effectiveness of security controls
- educational or definitional explanation not tied to this customer's logs or systems

Answer escalate when the question:
- references specific IP addresses, timestamps, or customer-specific configuration
- requires analysis of the customer's own logs
- requests investigation of a particular incident

If it is ambiguous, answer escalate.

Answer with exactly one word: automatable or escalate.`

const phaseSystemPrompt = `You route an escalated client request to the right analyst workflow.

Answer phase-2 when the request is about handling expected or routine traffic:
- filtering or excluding specific traffic
- whitelisting requests
- traffic suppression
- alert filtering configuration

Answer phase-3 when the request is about investigation:
- specific data analysis
- investigation of anomalies
- pattern or traffic analysis
- system-specific insights
- log analysis

If unclear, answer phase-3.

Answer with exactly one word: phase-2 or phase-3.`
