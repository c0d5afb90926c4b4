// Package cfg holds the application-specific configuration, registered and
// validated alongside the common go-core config packages.
package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Match strategy names accepted by -match-strategy.
const (
	StrategyOracle    = "oracle"
	StrategyRetrieval = "retrieval"
)

// Config adds sitrep-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	ClaudeAPIKey          string
	ClaudeModel           string
	EmbeddingAPIKey       string
	EmbeddingModel        string
	MatchStrategy         string
	MatchTopK             int
	MaxResponseSentences  int
	CatalogPath           string
	SlackWebhookURL       string
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for accessing the Claude oracle provider")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.EmbeddingAPIKey, "embedding-api-key", "", "API key for the Gemini embedding provider (required for retrieval matching)")
	fs.StringVar(&c.EmbeddingModel, "embedding-model", "text-embedding-004", "embedding model for the category similarity index")
	fs.StringVar(&c.MatchStrategy, "match-strategy", StrategyOracle, "category matching strategy: oracle (full catalog in prompt) or retrieval (similarity index then verify)")
	fs.IntVar(&c.MatchTopK, "match-top-k", 3, "candidate count for retrieval matching (1 or 3)")
	fs.IntVar(&c.MaxResponseSentences, "max-response-sentences", 5, "sentence ceiling for generated responses (3..5)")
	fs.StringVar(&c.CatalogPath, "catalog-path", "", "path to a category catalog YAML overriding the embedded one (empty = embedded)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for manual-review notifications")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// Claude API key and model are required for oracle access
	if c.ClaudeAPIKey == "" {
		errs = append(errs, errors.New("CLAUDE_API_KEY is required"))
	}
	if c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required"))
	}

	switch c.MatchStrategy {
	case StrategyOracle:
	case StrategyRetrieval:
		// retrieval builds the similarity index at startup, which needs
		// an embedding backend
		if c.EmbeddingAPIKey == "" {
			errs = append(errs, errors.New("EMBEDDING_API_KEY is required when MATCH_STRATEGY is retrieval"))
		}
		if c.EmbeddingModel == "" {
			errs = append(errs, errors.New("EMBEDDING_MODEL is required when MATCH_STRATEGY is retrieval"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid MATCH_STRATEGY %q (must be %s or %s)", c.MatchStrategy, StrategyOracle, StrategyRetrieval))
	}

	if c.MatchTopK != 1 && c.MatchTopK != 3 {
		errs = append(errs, fmt.Errorf("invalid MATCH_TOP_K %d (must be 1 or 3)", c.MatchTopK))
	}

	if c.MaxResponseSentences < 3 || c.MaxResponseSentences > 5 {
		errs = append(errs, fmt.Errorf("invalid MAX_RESPONSE_SENTENCES %d (must be 3..5)", c.MaxResponseSentences))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
