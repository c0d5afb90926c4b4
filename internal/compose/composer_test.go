package compose

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/linnemanlabs/sitrep/internal/classify"
	"github.com/linnemanlabs/sitrep/internal/oracle"
	"github.com/linnemanlabs/sitrep/internal/sitrep"
	"github.com/linnemanlabs/sitrep/internal/taxonomy"
)

// scriptedOracle returns preconfigured completions in sequence and records
// every request.
type scriptedOracle struct {
	mu       sync.Mutex
	answers  []string
	errs     []error
	requests []*oracle.Request
}

func (s *scriptedOracle) Complete(_ context.Context, req *oracle.Request) (*oracle.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.requests)
	s.requests = append(s.requests, req)

	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	answer := ""
	if idx < len(s.answers) {
		answer = s.answers[idx]
	}
	return &oracle.Completion{Text: answer, Usage: oracle.Usage{InputTokens: 10, OutputTokens: 5}}, nil
}

func automatableInput() *Input {
	return &Input{
		Category: "tor-proxy",
		Profile: &taxonomy.Profile{
			Category:    "tor-proxy",
			Name:        "Connection to TOR Proxy",
			Tier:        taxonomy.TierHigh,
			Description: "Traffic with a known TOR node.",
			Background:  "TOR anonymizes traffic.",
			Risk:        "C2 and exfiltration channels.",
			Mitigation:  "Block known TOR nodes at the perimeter.",
		},
		Fields: sitrep.Fields{
			sitrep.FieldStatus: "Active",
			sitrep.FieldIP:     "10.0.0.5",
		},
		Alert:    "Status: Active\nIP: 10.0.0.5\nTOR exit node traffic detected",
		Query:    sitrep.QueryMetadata{Name: "Wade Jones", Content: "Is IP blocking effective for this?"},
		Decision: &classify.Decision{Classification: classify.Automatable},
	}
}

func TestCompose_EscalateIsFixedAndOracleFree(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{}
	c := New(o, 5, nil)

	in := automatableInput()
	in.Decision = &classify.Decision{Classification: classify.Escalate, Phase: classify.PhaseAnalysis}

	got, err := c.Compose(context.Background(), in)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got != EscalationNotice {
		t.Errorf("response = %q, want the fixed escalation notice", got)
	}
	if len(o.requests) != 0 {
		t.Errorf("oracle calls = %d, want 0 on the escalate path", len(o.requests))
	}
}

func TestCompose_AcknowledgmentReply(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{}
	c := New(o, 5, nil)

	in := automatableInput()
	in.Decision = &classify.Decision{Acknowledgment: true}

	got, err := c.Compose(context.Background(), in)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	want := "Hey Wade Jones, thank you for letting us know. We've noted your response."
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
	if len(o.requests) != 0 {
		t.Errorf("oracle calls = %d, want 0 on the acknowledgment path", len(o.requests))
	}
}

func TestCompose_AcknowledgmentWithoutName(t *testing.T) {
	t.Parallel()

	c := New(&scriptedOracle{}, 5, nil)

	in := automatableInput()
	in.Query.Name = ""
	in.Decision = &classify.Decision{Acknowledgment: true}

	got, err := c.Compose(context.Background(), in)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasPrefix(got, "Hey, ") {
		t.Errorf("response = %q, want anonymous greeting", got)
	}
}

func TestCompose_GeneratedWithinContract(t *testing.T) {
	t.Parallel()

	answer := "Hey Wade Jones, your alert shows anonymized traffic. " +
		"IP blocking of known nodes is an effective first control. " +
		"We recommend blocking published node lists at the perimeter. " +
		Closing
	o := &scriptedOracle{answers: []string{answer}}
	c := New(o, 5, nil)

	got, err := c.Compose(context.Background(), automatableInput())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasSuffix(got, Closing) {
		t.Errorf("response must end with the closing: %q", got)
	}
	if n := strings.Count(got, Closing); n != 1 {
		t.Errorf("closing appears %d times, want 1", n)
	}
	if n := len(splitSentences(got)); n > 5 {
		t.Errorf("response has %d sentences, want at most 5", n)
	}
}

func TestCompose_TruncatesOverCeiling(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	for i := 0; i < 9; i++ {
		sb.WriteString("This is one more sentence about the alert. ")
	}
	o := &scriptedOracle{answers: []string{sb.String()}}
	c := New(o, 3, nil)

	got, err := c.Compose(context.Background(), automatableInput())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if n := len(splitSentences(got)); n != 3 {
		t.Errorf("response has %d sentences, want exactly the ceiling of 3", n)
	}
	if !strings.HasSuffix(got, Closing) {
		t.Errorf("truncated response must still end with the closing: %q", got)
	}
}

func TestCompose_AppendsMissingClosing(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{answers: []string{"Hey Wade Jones, this is anonymized traffic. We recommend blocking it."}}
	c := New(o, 5, nil)

	got, err := c.Compose(context.Background(), automatableInput())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasSuffix(got, Closing) {
		t.Errorf("response = %q, want closing appended", got)
	}
}

func TestCompose_PreservesDecimalsAndAbbreviations(t *testing.T) {
	t.Parallel()

	answer := "Hey Wade Jones, your host reached roughly 3.5 GB of outbound transfer. " +
		"We recommend rate limiting e.g. bulk uploads. " + Closing
	o := &scriptedOracle{answers: []string{answer}}
	c := New(o, 5, nil)

	got, err := c.Compose(context.Background(), automatableInput())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	// a contract-compliant answer passes through salvage byte for byte
	if got != answer {
		t.Errorf("response = %q, want unmodified %q", got, answer)
	}
	if !strings.Contains(got, "3.5 GB") {
		t.Errorf("decimal mangled: %q", got)
	}
	if !strings.HasPrefix(got, "Hey Wade Jones,") {
		t.Errorf("greeting dropped: %q", got)
	}
}

func TestCompose_OracleFailure(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{errs: []error{errors.New("api unavailable")}}
	c := New(o, 5, nil)

	got, err := c.Compose(context.Background(), automatableInput())
	if err == nil {
		t.Error("expected soft error for oracle failure")
	}
	if got != FailureNotice {
		t.Errorf("response = %q, want the failure notice", got)
	}
}

func TestCompose_EmptyCompletion(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{answers: []string{"   \n  "}}
	c := New(o, 5, nil)

	got, err := c.Compose(context.Background(), automatableInput())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got != FailureNotice {
		t.Errorf("response = %q, want the failure notice for empty output", got)
	}
}

func TestCompose_PromptGrounding(t *testing.T) {
	t.Parallel()

	o := &scriptedOracle{answers: []string{"Hey Wade Jones, fine. " + Closing}}
	c := New(o, 4, nil)

	if _, err := c.Compose(context.Background(), automatableInput()); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	req := o.requests[0]
	for _, want := range []string{
		"Hey Wade Jones,",
		"at most 4 sentences",
		"Do not repeat literal IP addresses, timestamps, hashes",
		Closing,
	} {
		if !strings.Contains(req.System, want) {
			t.Errorf("system prompt missing %q:\n%s", want, req.System)
		}
	}
	for _, want := range []string{
		"Connection to TOR Proxy",
		"Block known TOR nodes at the perimeter.",
		"- status: Active",
		"- ip: 10.0.0.5",
		"Is IP blocking effective for this?",
	} {
		if !strings.Contains(req.User, want) {
			t.Errorf("user prompt missing %q:\n%s", want, req.User)
		}
	}
}

func TestCompose_PromptDeterministic(t *testing.T) {
	t.Parallel()

	first := buildUserPrompt(automatableInput())
	for i := 0; i < 10; i++ {
		if got := buildUserPrompt(automatableInput()); got != first {
			t.Fatalf("run %d: prompt differs for identical input", i)
		}
	}
}

func TestNew_ClampsSentenceCeiling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want int
	}{
		{0, 5},
		{1, 3},
		{3, 3},
		{4, 4},
		{5, 5},
		{9, 5},
	}
	for _, tt := range tests {
		if got := New(&scriptedOracle{}, tt.in, nil).maxSentences; got != tt.want {
			t.Errorf("New(%d).maxSentences = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	got := splitSentences("First one. Second one! Third one? Trailing fragment")
	if len(got) != 4 {
		t.Fatalf("sentences = %d (%q), want 4", len(got), got)
	}
	if got[3] != "Trailing fragment" {
		t.Errorf("last sentence = %q", got[3])
	}
}

func TestSplitSentences_WordInternalPunctuation(t *testing.T) {
	t.Parallel()

	got := splitSentences("The host moved 3.5 GB in 2.5 hours. Version 1.2.3 is affected.")
	if len(got) != 2 {
		t.Fatalf("sentences = %d (%q), want 2", len(got), got)
	}
	if got[0] != "The host moved 3.5 GB in 2.5 hours." {
		t.Errorf("first sentence = %q, decimals must stay intact", got[0])
	}
}

func TestSplitSentences_NoCharacterLoss(t *testing.T) {
	t.Parallel()

	in := "Hey, the host moved 3.5 GB overnight. Throttle e.g. bulk uploads. Ellipsis... happens too."
	if got := strings.Join(splitSentences(in), " "); got != in {
		t.Errorf("rejoined = %q, want original text preserved %q", got, in)
	}
}
