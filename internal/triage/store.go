package triage

import "context"

// Store keeps triage results for later retrieval by ID. Implementations
// are process-local; durable persistence is out of scope.
type Store interface {
	Get(ctx context.Context, id string) (*Result, bool, error)
	Put(ctx context.Context, result *Result) error
}
