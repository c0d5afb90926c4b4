// Package sitrep defines the domain model for security situation reports:
// the raw input record, the closed set of extractable fields, and the
// deterministic parsing routines that run before any oracle call.
package sitrep

// Sitrep is the raw input to a triage run. Alert is the semi-structured
// incident report and is required; Query is the client's question or
// feedback and may be empty.
type Sitrep struct {
	Alert string `json:"alert_summary"`
	Query string `json:"client_query,omitempty"`
}

// QueryMetadata is the client query split into an optional sender prefix
// and the actual message content. When no prefix is present, Content holds
// the full query and Name/Timestamp are empty.
type QueryMetadata struct {
	Name      string `json:"name,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Content   string `json:"content"`
}
