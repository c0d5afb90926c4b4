// Package taxonomy holds the closed set of alert categories the triage
// pipeline can name, plus the static per-category knowledge base that
// grounds generated responses. The catalog is loaded once at startup and
// never mutated, so it is safe for unsynchronized concurrent reads.
package taxonomy

// Category is one entry of the closed alert taxonomy. The catalog is the
// source of truth for membership; anything else is coerced to Unknown.
type Category string

// Unknown is the sentinel for alerts that match no catalog entry.
const Unknown Category = "unknown"

// Tier is the pre-authored severity tier of a category.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// Profile is the static knowledge-base entry for a category: what the alert
// class means, why it matters, and the standard mitigation guidance the
// response composer grounds itself in.
type Profile struct {
	Category    Category `yaml:"category" json:"category"`
	Name        string   `yaml:"name" json:"name"`
	Tier        Tier     `yaml:"tier" json:"tier"`
	Description string   `yaml:"description" json:"description"`
	Background  string   `yaml:"background" json:"background"`
	Risk        string   `yaml:"risk" json:"risk"`
	Mitigation  string   `yaml:"mitigation" json:"mitigation"`
}
