package oracle

import (
	"context"
	"sync"
	"time"
)

// Tally accumulates oracle usage for a single triage run. Safe for
// concurrent use; the engine runs the matcher on its own goroutine.
type Tally struct {
	mu           sync.Mutex
	calls        int
	inputTokens  int
	outputTokens int
}

func (t *Tally) add(u Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.inputTokens += u.InputTokens
	t.outputTokens += u.OutputTokens
}

// Totals returns the accumulated call and token counts.
func (t *Tally) Totals() (calls, inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls, t.inputTokens, t.outputTokens
}

type tallyKey struct{}

// WithTally returns a context carrying a per-run usage tally. Metered
// oracles report into it.
func WithTally(ctx context.Context, t *Tally) context.Context {
	return context.WithValue(ctx, tallyKey{}, t)
}

func tallyFromContext(ctx context.Context) *Tally {
	t, _ := ctx.Value(tallyKey{}).(*Tally)
	return t
}

// CallObserver receives per-call usage for process-level metrics.
type CallObserver func(inputTokens, outputTokens int, duration float64)

// Metered wraps an Oracle, reporting every call to an observer and to the
// per-run Tally carried in the context, if any. Failed calls count as
// calls with zero tokens.
type Metered struct {
	Inner  Oracle
	OnCall CallObserver
}

// Complete implements Oracle.
func (m *Metered) Complete(ctx context.Context, req *Request) (*Completion, error) {
	start := time.Now()
	out, err := m.Inner.Complete(ctx, req)

	var u Usage
	if err == nil {
		u = out.Usage
	}
	if t := tallyFromContext(ctx); t != nil {
		t.add(u)
	}
	if m.OnCall != nil {
		m.OnCall(u.InputTokens, u.OutputTokens, time.Since(start).Seconds())
	}
	return out, err
}
