// Package slack sends manual-review notifications to Slack via incoming
// webhooks, keeping the human handoff visible when triage escalates or
// degrades.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/triage"
)

const (
	maxResponseLen = 3000
	httpTimeout    = 10 * time.Second
)

// Notifier sends triage results to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a triage result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(result)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Result) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			responseBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Result) map[string]any {
	title := "Manual Review Required"
	if len(r.Errors) > 0 && r.Classification != classify.Escalate {
		title = "Triage Degraded"
	}
	text := fmt.Sprintf("%s %s: %s", reviewEmoji(r), title, r.Category)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	classification := string(r.Classification)
	if classification == "" {
		classification = "none"
	}

	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Category:* %s", r.Category),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Classification:* %s", classification),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Phase:* %s", phaseLabel(r.Phase)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Stage errors:* %d", len(r.Errors)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Duration:* %.1fs", r.Duration),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Tokens:* %d", r.InputTokensUsed+r.OutputTokensUsed),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func responseBlock(r *triage.Result) map[string]any {
	text := truncate(r.Response, maxResponseLen)
	if text == "" {
		text = "_No response composed._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Response*\n\n%s", text),
		},
	}
}

func contextBlock(r *triage.Result) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("sitrep • triage %s • %s", r.ID, r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func reviewEmoji(r *triage.Result) string {
	if r.Classification == classify.Escalate {
		return "\U0001f534" // red circle
	}
	return "\U0001f7e1" // yellow circle
}

func phaseLabel(p classify.Phase) string {
	switch p {
	case classify.PhaseFiltering:
		return "filtering request"
	case classify.PhaseAnalysis:
		return "analysis request"
	default:
		return "n/a"
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
