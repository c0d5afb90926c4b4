// Package oracle defines the boundary to the external natural-language
// completion service the pipeline delegates understanding and generation
// to. The core treats it as a pure, possibly-failing function; retry and
// backoff policy belong to the calling infrastructure, not here.
package oracle

import "context"

// Request is a single prompt to the oracle: a system instruction plus user
// content.
type Request struct {
	System    string
	User      string
	MaxTokens int
}

// Usage is the token accounting for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is the oracle's reply.
type Completion struct {
	Text  string
	Usage Usage
}

// Oracle is the interface for any completion backend.
type Oracle interface {
	Complete(ctx context.Context, req *Request) (*Completion, error)
}

// Func adapts a plain function to the Oracle interface. Used heavily by
// tests.
type Func func(ctx context.Context, req *Request) (*Completion, error)

// Complete implements Oracle.
func (f Func) Complete(ctx context.Context, req *Request) (*Completion, error) {
	return f(ctx, req)
}
