package cfg

import (
	"flag"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		ClaudeAPIKey:          "sk-test-key",
		ClaudeModel:           "claude-sonnet-4-20250514",
		MatchStrategy:         StrategyOracle,
		MatchTopK:             3,
		MaxResponseSentences:  5,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if c.MatchStrategy != StrategyOracle {
		t.Errorf("MatchStrategy = %q, want oracle", c.MatchStrategy)
	}
	if c.MatchTopK != 3 {
		t.Errorf("MatchTopK = %d, want 3", c.MatchTopK)
	}
	if c.MaxResponseSentences != 5 {
		t.Errorf("MaxResponseSentences = %d, want 5", c.MaxResponseSentences)
	}
	if c.EmbeddingModel != "text-embedding-004" {
		t.Errorf("EmbeddingModel = %q, want text-embedding-004", c.EmbeddingModel)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-claude-api-key", "sk-override",
		"-match-strategy", "retrieval",
		"-match-top-k", "1",
		"-max-response-sentences", "3",
		"-embedding-api-key", "emb-key",
		"-catalog-path", "/etc/sitrep/catalog.yaml",
		"-slack-webhook-url", "https://hooks.slack.example/T000",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if c.DrainSeconds != 30 || c.ShutdownBudgetSeconds != 120 || c.APIPort != 9090 {
		t.Errorf("timing/port overrides not applied: %+v", c)
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q", c.ClaudeAPIKey)
	}
	if c.MatchStrategy != StrategyRetrieval || c.MatchTopK != 1 {
		t.Errorf("match overrides not applied: %+v", c)
	}
	if c.MaxResponseSentences != 3 {
		t.Errorf("MaxResponseSentences = %d, want 3", c.MaxResponseSentences)
	}
	if c.CatalogPath != "/etc/sitrep/catalog.yaml" {
		t.Errorf("CatalogPath = %q", c.CatalogPath)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidate_RetrievalNeedsEmbedding(t *testing.T) {
	t.Parallel()

	c := validBase()
	c.MatchStrategy = StrategyRetrieval
	c.EmbeddingModel = "text-embedding-004"

	err := c.Validate()
	if err == nil {
		t.Fatal("expected error: retrieval without embedding key")
	}
	if !strings.Contains(err.Error(), "EMBEDDING_API_KEY") {
		t.Errorf("error = %v, want embedding key message", err)
	}

	c.EmbeddingAPIKey = "emb-key"
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate with embedding key: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"drain zero", func(c *Config) { c.DrainSeconds = 0 }, "DRAIN_SECONDS"},
		{"drain too high", func(c *Config) { c.DrainSeconds = 301 }, "DRAIN_SECONDS"},
		{"budget zero", func(c *Config) { c.ShutdownBudgetSeconds = 0 }, "SHUTDOWN_BUDGET_SECONDS"},
		{"budget below drain", func(c *Config) { c.ShutdownBudgetSeconds = 50 }, "must be greater than"},
		{"port zero", func(c *Config) { c.APIPort = 0 }, "HTTP_PORT"},
		{"port too high", func(c *Config) { c.APIPort = 70000 }, "HTTP_PORT"},
		{"missing claude key", func(c *Config) { c.ClaudeAPIKey = "" }, "CLAUDE_API_KEY"},
		{"missing claude model", func(c *Config) { c.ClaudeModel = "" }, "CLAUDE_MODEL"},
		{"bad strategy", func(c *Config) { c.MatchStrategy = "vibes" }, "MATCH_STRATEGY"},
		{"bad top-k", func(c *Config) { c.MatchTopK = 2 }, "MATCH_TOP_K"},
		{"sentences too low", func(c *Config) { c.MaxResponseSentences = 2 }, "MAX_RESPONSE_SENTENCES"},
		{"sentences too high", func(c *Config) { c.MaxResponseSentences = 6 }, "MAX_RESPONSE_SENTENCES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validBase()
			tt.mutate(&c)

			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	t.Parallel()

	var c Config // everything zero
	err := c.Validate()
	if err == nil {
		t.Fatal("expected errors for zero config")
	}
	for _, want := range []string{"DRAIN_SECONDS", "HTTP_PORT", "CLAUDE_API_KEY", "MATCH_STRATEGY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}
