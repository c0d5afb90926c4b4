package sitrep

import "strings"

// Field names a labeled value that can appear in alert text. The set is
// closed; labels outside it are ignored by extraction.
type Field string

const (
	FieldStatus      Field = "status"
	FieldCommand     Field = "command"
	FieldIP          Field = "ip"
	FieldProtocol    Field = "protocol"
	FieldHash        Field = "hash"
	FieldSource      Field = "source"
	FieldDestination Field = "destination"
	FieldTimestamp   Field = "timestamp"
	FieldSeverity    Field = "severity"
	FieldReputation  Field = "reputation"
	FieldGeolocation Field = "geolocation"
)

// Fields maps extracted field names to their trimmed values. Only fields
// actually present in the alert text appear as keys.
type Fields map[Field]string

// fieldLabels is the single declarative table driving extraction: one label
// per field, matched case-insensitively at the start of a `Label: value`
// occurrence.
var fieldLabels = [...]struct {
	field Field
	label string
}{
	{FieldStatus, "status"},
	{FieldCommand, "command"},
	{FieldIP, "ip"},
	{FieldProtocol, "protocol"},
	{FieldHash, "hash"},
	{FieldSource, "source"},
	{FieldDestination, "destination"},
	{FieldTimestamp, "timestamp"},
	{FieldSeverity, "severity"},
	{FieldReputation, "reputation"},
	{FieldGeolocation, "geolocation"},
}

// FieldValue is one extracted field with its value.
type FieldValue struct {
	Field Field
	Value string
}

// Ordered returns the present fields in the declarative table order, so
// anything rendered from a Fields map stays deterministic for identical
// input.
func (f Fields) Ordered() []FieldValue {
	out := make([]FieldValue, 0, len(f))
	for _, fl := range fieldLabels {
		if v, ok := f[fl.field]; ok {
			out = append(out, FieldValue{Field: fl.field, Value: v})
		}
	}
	return out
}

// ExtractFields pulls labeled values out of semi-structured alert text.
// For each field in the closed set it takes the first case-insensitive
// `Label:` occurrence and the remainder of that line, trimmed. Absent
// labels are omitted, not an error. Identical input always yields an
// identical map.
func ExtractFields(alert string) Fields {
	out := make(Fields)
	lower := strings.ToLower(alert)

	for _, fl := range fieldLabels {
		if v, ok := findLabeled(alert, lower, fl.label); ok {
			out[fl.field] = v
		}
	}
	return out
}

// findLabeled locates the first `label:` occurrence that starts a labeled
// line segment and returns the rest of that line. lower is alert lowercased
// once by the caller so the scan stays a single pass per label.
func findLabeled(alert, lower, label string) (string, bool) {
	needle := label + ":"
	from := 0
	for {
		i := strings.Index(lower[from:], needle)
		if i < 0 {
			return "", false
		}
		i += from

		// the label must begin a word: start of text, or preceded by a
		// non-alphanumeric rune, so "ip:" does not match inside "geoip:"
		if i > 0 && isWordByte(lower[i-1]) {
			from = i + len(needle)
			continue
		}

		rest := alert[i+len(needle):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		v := strings.TrimSpace(rest)
		if v == "" {
			from = i + len(needle)
			continue
		}
		return v, true
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
